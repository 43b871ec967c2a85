package spec

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// maxRefDepth bounds local $ref chains followed while indexing key order.
const maxRefDepth = 16

// OrderIndex recovers the declaration order of mapping keys that kin-openapi
// stores in Go maps: request body media types, response status codes and
// response media types. It walks the raw document as a yaml.Node tree.
type OrderIndex struct {
	root *yaml.Node
}

// NewOrderIndex parses raw (YAML or JSON) into an index.
func NewOrderIndex(raw []byte) (*OrderIndex, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("index document order: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("index document order: root is not a mapping")
	}
	return &OrderIndex{root: root}, nil
}

// RequestBodyMediaTypes lists the request body content keys of an operation.
func (ix *OrderIndex) RequestBodyMediaTypes(path string, method HttpMethod) []string {
	op := ix.operation(path, method)
	body := ix.deref(mappingValue(op, "requestBody"))
	return mappingKeys(mappingValue(body, "content"))
}

// ResponseCodes lists the response keys of an operation.
func (ix *OrderIndex) ResponseCodes(path string, method HttpMethod) []string {
	op := ix.operation(path, method)
	return mappingKeys(mappingValue(op, "responses"))
}

// ResponseMediaTypes lists the content keys of one response of an operation.
func (ix *OrderIndex) ResponseMediaTypes(path string, method HttpMethod, code string) []string {
	op := ix.operation(path, method)
	resp := ix.deref(mappingValue(mappingValue(op, "responses"), code))
	return mappingKeys(mappingValue(resp, "content"))
}

func (ix *OrderIndex) operation(path string, method HttpMethod) *yaml.Node {
	if ix == nil {
		return nil
	}
	item := ix.deref(mappingValue(mappingValue(ix.root, "paths"), path))
	return mappingValue(item, strings.ToLower(string(method)))
}

// deref follows local "#/..." references. External references are left as is.
func (ix *OrderIndex) deref(n *yaml.Node) *yaml.Node {
	for depth := 0; n != nil && depth < maxRefDepth; depth++ {
		ref := mappingValue(n, "$ref")
		if ref == nil || ref.Kind != yaml.ScalarNode || !strings.HasPrefix(ref.Value, "#/") {
			return n
		}
		n = ix.lookupPointer(ref.Value)
	}
	return n
}

func (ix *OrderIndex) lookupPointer(ptr string) *yaml.Node {
	cur := ix.root
	for _, token := range strings.Split(strings.TrimPrefix(ptr, "#/"), "/") {
		if unescaped, err := url.PathUnescape(token); err == nil {
			token = unescaped
		}
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		cur = mappingValue(cur, token)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// orderKeys returns the keys of m, those listed in preferred first (in that
// order), then any remaining keys sorted lexically.
func orderKeys[V any](preferred []string, m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, k := range preferred {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	rest := make([]string, 0, len(m)-len(out))
	for k := range m {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// ParameterContent lists the content keys of the parameter (in, name) that
// applies to an operation: its own declaration first, then the path item's.
func (ix *OrderIndex) ParameterContent(path string, method HttpMethod, in, name string) []string {
	if ix == nil {
		return nil
	}
	item := ix.deref(mappingValue(mappingValue(ix.root, "paths"), path))
	op := mappingValue(item, strings.ToLower(string(method)))
	for _, list := range []*yaml.Node{mappingValue(op, "parameters"), mappingValue(item, "parameters")} {
		if list == nil || list.Kind != yaml.SequenceNode {
			continue
		}
		for _, n := range list.Content {
			n = ix.deref(n)
			if scalarValue(mappingValue(n, "in")) == in && scalarValue(mappingValue(n, "name")) == name {
				return mappingKeys(mappingValue(n, "content"))
			}
		}
	}
	return nil
}

// PropertyOrder maps loaded schemas to the declaration order of their
// properties. The zero value and nil order every schema lexically.
type PropertyOrder struct {
	keys map[*openapi3.Schema][]string
}

// Keys returns the property names of s: declared order first, then any
// property the source text did not account for, sorted.
func (o *PropertyOrder) Keys(s *openapi3.Schema) []string {
	if s == nil {
		return nil
	}
	props := make(map[string]*openapi3.SchemaRef, len(s.Properties))
	for name, ref := range s.Properties {
		if ref != nil && ref.Value != nil {
			props[name] = ref
		}
	}
	var preferred []string
	if o != nil {
		preferred = o.keys[s]
	}
	return orderKeys(preferred, props)
}

// propertyOrder walks the loaded document and the yaml tree side by side and
// records the property keys of every schema reachable from components and
// paths. Schemas only reachable through external refs are not indexed.
func (ix *OrderIndex) propertyOrder(t *openapi3.T) *PropertyOrder {
	o := &PropertyOrder{keys: make(map[*openapi3.Schema][]string)}
	if ix == nil || t == nil {
		return o
	}
	w := &schemaWalker{ix: ix, order: o, seen: make(map[*openapi3.Schema]bool)}
	if c := t.Components; c != nil {
		node := mappingValue(ix.root, "components")
		schemas := mappingValue(node, "schemas")
		for name, ref := range c.Schemas {
			w.schema(ref, mappingValue(schemas, name))
		}
		params := mappingValue(node, "parameters")
		for name, ref := range c.Parameters {
			if ref != nil {
				w.parameter(ref.Value, mappingValue(params, name))
			}
		}
		bodies := mappingValue(node, "requestBodies")
		for name, ref := range c.RequestBodies {
			if ref != nil && ref.Value != nil {
				w.content(ref.Value.Content, mappingValue(ix.deref(mappingValue(bodies, name)), "content"))
			}
		}
		responses := mappingValue(node, "responses")
		for name, ref := range c.Responses {
			if ref != nil && ref.Value != nil {
				w.content(ref.Value.Content, mappingValue(ix.deref(mappingValue(responses, name)), "content"))
			}
		}
	}
	paths := mappingValue(ix.root, "paths")
	for p, item := range t.Paths {
		if item == nil {
			continue
		}
		itemNode := ix.deref(mappingValue(paths, p))
		w.parameters(item.Parameters, mappingValue(itemNode, "parameters"))
		for method, op := range item.Operations() {
			opNode := mappingValue(itemNode, strings.ToLower(method))
			w.parameters(op.Parameters, mappingValue(opNode, "parameters"))
			if op.RequestBody != nil && op.RequestBody.Value != nil {
				w.content(op.RequestBody.Value.Content, mappingValue(ix.deref(mappingValue(opNode, "requestBody")), "content"))
			}
			responses := mappingValue(opNode, "responses")
			for code, ref := range op.Responses {
				if ref != nil && ref.Value != nil {
					w.content(ref.Value.Content, mappingValue(ix.deref(mappingValue(responses, code)), "content"))
				}
			}
		}
	}
	return o
}

type schemaWalker struct {
	ix    *OrderIndex
	order *PropertyOrder
	seen  map[*openapi3.Schema]bool
}

func (w *schemaWalker) parameters(refs openapi3.Parameters, list *yaml.Node) {
	if list == nil || list.Kind != yaml.SequenceNode {
		return
	}
	for i, ref := range refs {
		if ref != nil && i < len(list.Content) {
			w.parameter(ref.Value, list.Content[i])
		}
	}
}

func (w *schemaWalker) parameter(p *openapi3.Parameter, n *yaml.Node) {
	if p == nil {
		return
	}
	n = w.ix.deref(n)
	w.schema(p.Schema, mappingValue(n, "schema"))
	w.content(p.Content, mappingValue(n, "content"))
}

func (w *schemaWalker) content(c openapi3.Content, n *yaml.Node) {
	for mime, mt := range c {
		if mt != nil {
			w.schema(mt.Schema, mappingValue(mappingValue(n, mime), "schema"))
		}
	}
}

func (w *schemaWalker) schema(ref *openapi3.SchemaRef, n *yaml.Node) {
	if ref == nil || ref.Value == nil {
		return
	}
	n = w.ix.deref(n)
	// Unresolved (external) references stay unvisited so a later local
	// path to the same schema can still index it.
	if n == nil || n.Kind != yaml.MappingNode || mappingValue(n, "$ref") != nil {
		return
	}
	s := ref.Value
	if w.seen[s] {
		return
	}
	w.seen[s] = true
	props := mappingValue(n, "properties")
	if props != nil {
		w.order.keys[s] = mappingKeys(props)
	}
	for name, p := range s.Properties {
		w.schema(p, mappingValue(props, name))
	}
	w.schema(s.Items, mappingValue(n, "items"))
	w.schema(s.AdditionalProperties.Schema, mappingValue(n, "additionalProperties"))
	w.schema(s.Not, mappingValue(n, "not"))
	for key, members := range map[string]openapi3.SchemaRefs{"allOf": s.AllOf, "oneOf": s.OneOf, "anyOf": s.AnyOf} {
		list := mappingValue(n, key)
		if list == nil || list.Kind != yaml.SequenceNode {
			continue
		}
		for i, m := range members {
			if i < len(list.Content) {
				w.schema(m, list.Content[i])
			}
		}
	}
}

func scalarValue(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}
