package spec

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// HttpMethod is an upper-case HTTP verb as declared by a path item.
type HttpMethod string

const (
	GET     HttpMethod = "GET"
	POST    HttpMethod = "POST"
	PUT     HttpMethod = "PUT"
	DELETE  HttpMethod = "DELETE"
	PATCH   HttpMethod = "PATCH"
	HEAD    HttpMethod = "HEAD"
	OPTIONS HttpMethod = "OPTIONS"
	TRACE   HttpMethod = "TRACE"
	CONNECT HttpMethod = "CONNECT"
)

// Document is a loaded OpenAPI 3 document plus the key order of the source text.
type Document struct {
	T        *openapi3.T
	Location string
	order    *OrderIndex
	props    *PropertyOrder
}

// NewDocument wraps an already loaded document. raw is the source text used
// to recover key order; when nil, map keys are ordered lexically.
func NewDocument(t *openapi3.T, raw []byte) (*Document, error) {
	d := &Document{T: t}
	if raw != nil {
		ix, err := NewOrderIndex(raw)
		if err != nil {
			return nil, err
		}
		d.order = ix
	}
	d.props = d.order.propertyOrder(t)
	return d, nil
}

// PropertyOrder reports the declaration order of schema properties.
func (d *Document) PropertyOrder() *PropertyOrder {
	if d == nil {
		return nil
	}
	return d.props
}

// Info summarizes the document header.
type Info struct {
	Title       string
	Version     string
	Description string
	Servers     []string
}

// Operation is one HTTP verb bound to one path, with references into the
// loaded document graph. Slices preserve document declaration order.
type Operation struct {
	Method      HttpMethod
	Path        string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []*openapi3.Parameter
	RequestBody *RequestBody
	Responses   []Response
}

// ID returns "METHOD path".
func (o Operation) ID() string { return string(o.Method) + " " + o.Path }

// RequestBody is an operation's request body with its media types in order.
type RequestBody struct {
	Required    bool
	Description string
	Content     []Media
}

// Response is one entry of an operation's responses map.
type Response struct {
	Status      string // 200, 4XX, default
	Description string
	Content     []Media
}

// Media is one content entry; Schema is nil when the media type declares none.
type Media struct {
	MediaType string
	Schema    *openapi3.Schema
}

// NamedSchema is a components/schemas entry.
type NamedSchema struct {
	Name   string
	Schema *openapi3.Schema
}

// ComponentSchemas returns the component schemas sorted by name.
func (d *Document) ComponentSchemas() []NamedSchema {
	if d == nil || d.T == nil || d.T.Components == nil {
		return nil
	}
	names := make([]string, 0, len(d.T.Components.Schemas))
	for name, ref := range d.T.Components.Schemas {
		if ref != nil && ref.Value != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]NamedSchema, 0, len(names))
	for _, name := range names {
		out = append(out, NamedSchema{Name: name, Schema: d.T.Components.Schemas[name].Value})
	}
	return out
}
