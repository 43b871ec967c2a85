package typeinfo

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/spec"
)

// Role is the structural position a schema is reached from.
type Role int

const (
	RoleComponent Role = iota
	RoleProperty
	RoleItems
	RoleAdditionalProperties
	RoleParameter
	RoleRequestBody
	RoleResponse
)

// ContextKey locates a schema for classification and names inline types.
// Name is a free-form hint such as "Pet owner" or "listPets response".
type ContextKey struct {
	Role Role
	Name string
}

func (c ContextKey) child(role Role, suffix string) ContextKey {
	return ContextKey{Role: role, Name: c.Name + " " + suffix}
}

type cacheKey struct {
	schema     *openapi3.Schema
	additional bool
}

// Resolver classifies schemas into Descriptors. Results are memoized by
// schema identity so the same node always yields the same *Descriptor.
// It is safe for concurrent use; resolution itself is serialized.
type Resolver struct {
	mu         sync.Mutex
	cache      map[cacheKey]*Descriptor
	components map[*openapi3.Schema]string
	used       map[string]bool
	declared   map[string]bool
	named      []*Descriptor
	order      *spec.PropertyOrder
}

// NewResolver reserves type names for the component schemas, in name order,
// so inline types never take a component's name. Names in reserved are
// taken by the caller and are never handed out.
func NewResolver(components []spec.NamedSchema, reserved ...string) *Resolver {
	r := &Resolver{
		cache:      make(map[cacheKey]*Descriptor),
		components: make(map[*openapi3.Schema]string, len(components)),
		used:       make(map[string]bool),
		declared:   make(map[string]bool),
	}
	for _, name := range reserved {
		r.used[name] = true
	}
	for _, c := range components {
		if c.Schema == nil {
			continue
		}
		if _, dup := r.components[c.Schema]; dup {
			continue
		}
		r.components[c.Schema] = r.reserve(naming.ToTypeName(c.Name, "Model"))
	}
	return r
}

// UsePropertyOrder makes object properties follow the document's declaration
// order. Without it they are sorted by name.
func (r *Resolver) UsePropertyOrder(o *spec.PropertyOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = o
}

// Resolve returns the descriptor for s reached at ctx. A nil schema resolves
// to UntypedObject.
func (r *Resolver) Resolve(s *openapi3.Schema, ctx ContextKey) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(s, ctx)
}

// ResolveComponents resolves every component schema in order.
func (r *Resolver) ResolveComponents(components []spec.NamedSchema) error {
	for _, c := range components {
		if _, err := r.Resolve(c.Schema, ContextKey{Role: RoleComponent, Name: c.Name}); err != nil {
			return err
		}
	}
	return nil
}

// Named returns every descriptor that needs a type declaration, sorted by name.
func (r *Resolver) Named() []*Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*Descriptor(nil), r.named...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Resolver) resolve(s *openapi3.Schema, ctx ContextKey) (*Descriptor, error) {
	if s == nil {
		return &Descriptor{Kind: UntypedObject}, nil
	}
	key := cacheKey{schema: s, additional: ctx.Role == RoleAdditionalProperties}
	if d, ok := r.cache[key]; ok {
		return d, nil
	}

	// A lone allOf/oneOf/anyOf member is an alias for that member.
	if alias := singleComposition(s); alias != nil {
		d, err := r.resolve(alias, ctx)
		if err != nil {
			return nil, err
		}
		r.cache[key] = d
		return d, nil
	}

	props, required := collectProperties(s, r.order)
	typ := effectiveType(s)
	sp := specialize(s, typ, len(props) > 0, ctx.Role)
	kind, ok := lookup(typ, sp, s.Format)
	if !ok {
		return nil, &SchemaResolutionError{Type: typ, Format: s.Format, Specialization: sp, Context: ctx.Name}
	}

	d := &Descriptor{Kind: kind, Description: s.Description}
	// Cached before descending so recursive schemas terminate.
	r.cache[key] = d
	if err := r.fill(d, s, ctx, props, required); err != nil {
		delete(r.cache, key)
		return nil, err
	}
	return d, nil
}

func (r *Resolver) fill(d *Descriptor, s *openapi3.Schema, ctx ContextKey, props []namedProperty, required map[string]bool) error {
	var err error
	switch d.Kind {
	case Enum:
		d.Name = r.typeName(s, ctx)
		d.EnumValues = enumValues(s.Enum)
		r.declare(d)
	case Object:
		d.Name = r.typeName(s, ctx)
		r.declare(d)
		d.Properties, err = r.properties(d.Name, props, required)
	case TypedObjectAdditionalProperties:
		d.Name = r.typeName(s, ctx)
		r.declare(d)
		if d.Properties, err = r.properties(d.Name, props, required); err != nil {
			return err
		}
		d.Value, err = r.resolve(s.AdditionalProperties.Schema.Value, ContextKey{Role: RoleAdditionalProperties, Name: d.Name + " value"})
	case UnknownAdditionalProperties:
		// Declared properties survive an unconstrained additionalProperties.
		if len(props) == 0 {
			return nil
		}
		d.Name = r.typeName(s, ctx)
		r.declare(d)
		d.Properties, err = r.properties(d.Name, props, required)
	case Map, TypedMapAdditionalProperties:
		d.Value, err = r.resolve(s.AdditionalProperties.Schema.Value, ctx.child(RoleAdditionalProperties, "value"))
	case Array:
		var items *openapi3.Schema
		if s.Items != nil {
			items = s.Items.Value
		}
		d.Element, err = r.resolve(items, ctx.child(RoleItems, "item"))
	}
	return err
}

func (r *Resolver) properties(owner string, props []namedProperty, required map[string]bool) ([]Property, error) {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		pd, err := r.resolve(p.schema, ContextKey{Role: RoleProperty, Name: owner + " " + p.name})
		if err != nil {
			return nil, err
		}
		out = append(out, Property{
			Name:        p.name,
			Type:        pd,
			Required:    required[p.name],
			Nullable:    p.schema.Nullable,
			Description: p.schema.Description,
		})
	}
	return out, nil
}

// typeName returns the component name of s, or a fresh name derived from ctx.
func (r *Resolver) typeName(s *openapi3.Schema, ctx ContextKey) string {
	if name, ok := r.components[s]; ok {
		return name
	}
	return r.reserve(naming.ToTypeName(ctx.Name, "Model"))
}

// declare records d for emission. A component reached both as an
// additionalProperties node and elsewhere resolves twice under one name.
func (r *Resolver) declare(d *Descriptor) {
	if r.declared[d.Name] {
		return
	}
	r.declared[d.Name] = true
	r.named = append(r.named, d)
}

func (r *Resolver) reserve(name string) string {
	candidate := name
	for i := 2; r.used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	r.used[candidate] = true
	return candidate
}

type namedProperty struct {
	name   string
	schema *openapi3.Schema
}

// collectProperties merges allOf members' properties (in member order) with
// the schema's own. Each group follows order; later groups override.
func collectProperties(s *openapi3.Schema, order *spec.PropertyOrder) ([]namedProperty, map[string]bool) {
	var out []namedProperty
	index := make(map[string]int)
	required := make(map[string]bool)
	var visit func(*openapi3.Schema, int)
	visit = func(s *openapi3.Schema, depth int) {
		if s == nil || depth > 32 {
			return
		}
		for _, member := range s.AllOf {
			if member != nil {
				visit(member.Value, depth+1)
			}
		}
		for _, name := range order.Keys(s) {
			p := namedProperty{name: name, schema: s.Properties[name].Value}
			if i, ok := index[name]; ok {
				out[i] = p
				continue
			}
			index[name] = len(out)
			out = append(out, p)
		}
		for _, name := range s.Required {
			required[name] = true
		}
	}
	visit(s, 0)
	return out, required
}

func singleComposition(s *openapi3.Schema) *openapi3.Schema {
	if s.Type != "" || len(s.Properties) > 0 || hasAdditionalProperties(s) {
		return nil
	}
	var members openapi3.SchemaRefs
	switch {
	case len(s.AllOf) == 1 && len(s.OneOf) == 0 && len(s.AnyOf) == 0:
		members = s.AllOf
	case len(s.OneOf) == 1 && len(s.AllOf) == 0 && len(s.AnyOf) == 0:
		members = s.OneOf
	case len(s.AnyOf) == 1 && len(s.AllOf) == 0 && len(s.OneOf) == 0:
		members = s.AnyOf
	default:
		return nil
	}
	if members[0] == nil {
		return nil
	}
	return members[0].Value
}

func enumValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}
