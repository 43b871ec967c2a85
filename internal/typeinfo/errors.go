package typeinfo

import "fmt"

// SchemaResolutionError reports a schema that matches no registry variant.
// It is fatal for the whole generation run.
type SchemaResolutionError struct {
	Type           string
	Format         string
	Specialization Specialization
	Context        string
}

func (e *SchemaResolutionError) Error() string {
	typ := e.Type
	if typ == "" {
		typ = "<none>"
	}
	msg := fmt.Sprintf("typeinfo: cannot resolve schema of type %q", typ)
	if e.Format != "" {
		msg += fmt.Sprintf(" with format %q", e.Format)
	}
	if e.Specialization != NoSpecialization {
		msg += fmt.Sprintf(" (%s)", e.Specialization)
	}
	if e.Context != "" {
		msg += " at " + e.Context
	}
	return msg
}
