package goclient

import (
	"strings"

	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

// goType maps a descriptor to the Go type expression emitted for it.
func goType(d *typeinfo.Descriptor) string {
	if d == nil {
		return "any"
	}
	switch d.Kind {
	case typeinfo.Boolean:
		return "bool"
	case typeinfo.Text, typeinfo.Date, typeinfo.Uuid:
		return "string"
	case typeinfo.DateTime:
		return "time.Time"
	case typeinfo.Integer32:
		return "int32"
	case typeinfo.Integer64:
		return "int64"
	case typeinfo.IntegerArbitrary:
		return "int"
	case typeinfo.Float:
		return "float32"
	case typeinfo.Double:
		return "float64"
	case typeinfo.NumberArbitrary:
		return "json.Number"
	case typeinfo.Enum, typeinfo.Object, typeinfo.TypedObjectAdditionalProperties:
		return d.Name
	case typeinfo.Array:
		return "[]" + goType(d.Element)
	case typeinfo.Map, typeinfo.TypedMapAdditionalProperties:
		return "map[string]" + goType(d.Value)
	case typeinfo.UnknownAdditionalProperties:
		if d.Name != "" {
			return d.Name
		}
		return "map[string]any"
	case typeinfo.UntypedObject, typeinfo.UntypedObjectAdditionalProperties:
		return "map[string]any"
	}
	return "any"
}

// nilable reports whether the zero value of t already means "absent".
func nilable(t string) bool {
	return t == "any" || strings.HasPrefix(t, "[]") || strings.HasPrefix(t, "map[")
}

// isStruct reports whether d is emitted as a struct declaration.
func isStruct(d *typeinfo.Descriptor) bool {
	if d == nil {
		return false
	}
	_, extra := catchAll(d)
	return d.Kind == typeinfo.Object || extra
}

// catchAll returns the value type of the AdditionalProperties field of a
// struct that keeps undeclared members.
func catchAll(d *typeinfo.Descriptor) (string, bool) {
	switch {
	case d.Kind == typeinfo.TypedObjectAdditionalProperties:
		return goType(d.Value), true
	case d.Kind == typeinfo.UnknownAdditionalProperties && d.Name != "":
		return "any", true
	}
	return "", false
}

// optionalType is the type of an argument or field that may be absent.
func optionalType(d *typeinfo.Descriptor) string {
	t := goType(d)
	if nilable(t) {
		return t
	}
	return "*" + t
}

// fieldType is the type of a struct field. Struct-valued fields are always
// pointers so recursive models stay finite.
func fieldType(p typeinfo.Property) string {
	if !p.Required || p.Nullable || isStruct(p.Type) {
		return optionalType(p.Type)
	}
	return goType(p.Type)
}
