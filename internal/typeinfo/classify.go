package typeinfo

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Specialization distinguishes structurally different schemas that share a
// declared type and format.
type Specialization int

const (
	NoSpecialization Specialization = iota
	SpecUUID
	SpecEnum
	SpecTypedMapAdditionalProperties
	SpecInlineableMap
	SpecTypedObjectAdditionalProperties
	SpecUntypedObjectAdditionalProperties
	SpecUnknownAdditionalProperties
	SpecSchemaless
)

func (s Specialization) String() string {
	switch s {
	case NoSpecialization:
		return "none"
	case SpecUUID:
		return "uuid"
	case SpecEnum:
		return "enum"
	case SpecTypedMapAdditionalProperties:
		return "typed-map-additional-properties"
	case SpecInlineableMap:
		return "inlineable-map"
	case SpecTypedObjectAdditionalProperties:
		return "typed-object-additional-properties"
	case SpecUntypedObjectAdditionalProperties:
		return "untyped-object-additional-properties"
	case SpecUnknownAdditionalProperties:
		return "unknown-additional-properties"
	case SpecSchemaless:
		return "schemaless"
	default:
		return fmt.Sprintf("Specialization(%d)", int(s))
	}
}

type registryKey struct {
	Type string
	Spec Specialization
}

type registryEntry struct {
	Format string // "" is the generic entry
	Kind   Kind
}

// registry maps (declared type, specialization) to the candidate variants,
// which differ only by format.
var registry = map[registryKey][]registryEntry{
	{"boolean", NoSpecialization}: {{"", Boolean}},
	{"string", NoSpecialization}:  {{"", Text}, {"date", Date}, {"date-time", DateTime}},
	{"string", SpecUUID}:          {{"uuid", Uuid}},
	{"string", SpecEnum}:          {{"", Enum}},
	{"integer", NoSpecialization}: {{"int32", Integer32}, {"int64", Integer64}, {"", IntegerArbitrary}},
	{"number", NoSpecialization}:  {{"float", Float}, {"double", Double}, {"", NumberArbitrary}},
	{"array", NoSpecialization}:   {{"", Array}},
	{"object", NoSpecialization}:  {{"", Object}},
	{"object", SpecSchemaless}:    {{"", UntypedObject}},
	{"", SpecSchemaless}:          {{"", UntypedObject}},

	{"object", SpecInlineableMap}:                     {{"", Map}},
	{"object", SpecTypedMapAdditionalProperties}:      {{"", TypedMapAdditionalProperties}},
	{"object", SpecTypedObjectAdditionalProperties}:   {{"", TypedObjectAdditionalProperties}},
	{"object", SpecUntypedObjectAdditionalProperties}: {{"", UntypedObjectAdditionalProperties}},
	{"object", SpecUnknownAdditionalProperties}:       {{"", UnknownAdditionalProperties}},
}

// lookup selects the registry entry for (typ, spec, format). An exact format
// match wins over the generic entry; no match at all is an error.
func lookup(typ string, spec Specialization, format string) (Kind, bool) {
	entries := registry[registryKey{typ, spec}]
	generic := Invalid
	for _, e := range entries {
		if format != "" && e.Format == format {
			return e.Kind, true
		}
		if e.Format == "" {
			generic = e.Kind
		}
	}
	return generic, generic != Invalid
}

// effectiveType is the declared type, or the type implied by structure when
// none is declared.
func effectiveType(s *openapi3.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	switch {
	case len(s.Properties) > 0, hasAdditionalProperties(s), len(s.AllOf) > 0:
		return "object"
	case s.Items != nil:
		return "array"
	case len(s.Enum) > 0 && allStrings(s.Enum):
		return "string"
	}
	return ""
}

// specialize evaluates the structural predicates in fixed priority order.
// hasProps reports whether the schema declares properties, directly or via allOf.
func specialize(s *openapi3.Schema, typ string, hasProps bool, role Role) Specialization {
	ap := additionalPropertiesShape(s)
	switch {
	case typ == "string" && s.Format == "uuid":
		return SpecUUID
	case typ == "string" && len(s.Enum) > 0:
		return SpecEnum
	case role == RoleAdditionalProperties && typ == "object" && ap == apTyped:
		return SpecTypedMapAdditionalProperties
	case typ == "object" && !hasProps && ap == apTyped:
		return SpecInlineableMap
	case typ == "object" && hasProps && ap == apTyped:
		return SpecTypedObjectAdditionalProperties
	case typ == "object" && !hasProps && ap == apTrue:
		return SpecUntypedObjectAdditionalProperties
	case typ == "object" && (ap == apUnconstrained || ap == apTrue):
		return SpecUnknownAdditionalProperties
	case typ == "" || (typ == "object" && !hasProps):
		return SpecSchemaless
	}
	return NoSpecialization
}

type apShape int

const (
	apAbsent apShape = iota
	apFalse
	apTrue
	apUnconstrained
	apTyped
)

func additionalPropertiesShape(s *openapi3.Schema) apShape {
	ap := s.AdditionalProperties
	if ap.Schema != nil && ap.Schema.Value != nil {
		if isUnconstrained(ap.Schema.Value) {
			return apUnconstrained
		}
		return apTyped
	}
	if ap.Has != nil {
		if *ap.Has {
			return apTrue
		}
		return apFalse
	}
	return apAbsent
}

func hasAdditionalProperties(s *openapi3.Schema) bool {
	switch additionalPropertiesShape(s) {
	case apTrue, apUnconstrained, apTyped:
		return true
	}
	return false
}

// isUnconstrained reports whether s is the empty schema {}.
func isUnconstrained(s *openapi3.Schema) bool {
	return s.Type == "" && s.Format == "" && len(s.Properties) == 0 && s.Items == nil &&
		len(s.Enum) == 0 && len(s.AllOf) == 0 && len(s.AnyOf) == 0 && len(s.OneOf) == 0 &&
		s.AdditionalProperties.Schema == nil && s.AdditionalProperties.Has == nil
}

func allStrings(values []any) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}
