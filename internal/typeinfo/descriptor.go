// Package typeinfo classifies OpenAPI schema nodes into a closed set of
// semantic type variants.
package typeinfo

import "fmt"

// Kind is the variant tag of a Descriptor.
type Kind int

const (
	Invalid Kind = iota
	Boolean
	Text
	Date
	DateTime
	Uuid
	Enum
	Integer32
	Integer64
	IntegerArbitrary
	Float
	Double
	NumberArbitrary
	Object
	Array
	UntypedObject
	Map
	TypedObjectAdditionalProperties
	TypedMapAdditionalProperties
	UntypedObjectAdditionalProperties
	UnknownAdditionalProperties
)

// Kinds lists every valid variant.
var Kinds = []Kind{
	Boolean, Text, Date, DateTime, Uuid, Enum,
	Integer32, Integer64, IntegerArbitrary,
	Float, Double, NumberArbitrary,
	Object, Array, UntypedObject, Map,
	TypedObjectAdditionalProperties, TypedMapAdditionalProperties,
	UntypedObjectAdditionalProperties, UnknownAdditionalProperties,
}

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "Boolean"
	case Text:
		return "Text"
	case Date:
		return "Date"
	case DateTime:
		return "DateTime"
	case Uuid:
		return "Uuid"
	case Enum:
		return "Enum"
	case Integer32:
		return "Integer32"
	case Integer64:
		return "Integer64"
	case IntegerArbitrary:
		return "IntegerArbitrary"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case NumberArbitrary:
		return "NumberArbitrary"
	case Object:
		return "Object"
	case Array:
		return "Array"
	case UntypedObject:
		return "UntypedObject"
	case Map:
		return "Map"
	case TypedObjectAdditionalProperties:
		return "TypedObjectAdditionalProperties"
	case TypedMapAdditionalProperties:
		return "TypedMapAdditionalProperties"
	case UntypedObjectAdditionalProperties:
		return "UntypedObjectAdditionalProperties"
	case UnknownAdditionalProperties:
		return "UnknownAdditionalProperties"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor is the resolved type of one schema node. Which fields are set
// depends on Kind:
//
//	Object                           Name, Properties
//	Enum                             Name, EnumValues
//	Array                            Element
//	Map, TypedMapAdditionalProperties Value
//	TypedObjectAdditionalProperties  Name, Properties, Value
//	UnknownAdditionalProperties      Name, Properties (only with declared properties)
//
// Descriptors are shared through the resolver cache and must not be mutated
// after resolution.
type Descriptor struct {
	Kind        Kind
	Name        string
	Description string
	Element     *Descriptor
	Value       *Descriptor
	Properties  []Property
	EnumValues  []string
}

// Property is one declared property of an object-like descriptor.
type Property struct {
	Name        string // wire name
	Type        *Descriptor
	Required    bool
	Nullable    bool
	Description string
}

// IsNamed reports whether the descriptor needs its own type declaration.
func (d *Descriptor) IsNamed() bool {
	switch d.Kind {
	case Object, Enum, TypedObjectAdditionalProperties:
		return true
	}
	return false
}

// IsArray reports whether d is an Array.
func (d *Descriptor) IsArray() bool { return d != nil && d.Kind == Array }

// String renders a compact form such as Array(Map(Integer64)).
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	switch d.Kind {
	case Array:
		return "Array(" + d.Element.String() + ")"
	case Map, TypedMapAdditionalProperties:
		return d.Kind.String() + "(" + d.Value.String() + ")"
	case TypedObjectAdditionalProperties:
		return d.Kind.String() + "(" + d.Name + ", " + d.Value.String() + ")"
	case Object, Enum:
		return d.Kind.String() + "(" + d.Name + ")"
	case UnknownAdditionalProperties:
		if d.Name != "" {
			return d.Kind.String() + "(" + d.Name + ")"
		}
	}
	return d.Kind.String()
}
