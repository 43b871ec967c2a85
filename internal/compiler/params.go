package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

// ParameterSet holds an operation's parameters by location, each in
// document declaration order.
type ParameterSet struct {
	Path   []Parameter
	Query  []Parameter
	Header []Parameter
}

// ExtractParameters resolves every path, query and header parameter of op.
// Cookie parameters are not supported and are skipped.
func ExtractParameters(r *typeinfo.Resolver, op spec.Operation, opName string) (ParameterSet, error) {
	var set ParameterSet
	for _, p := range op.Parameters {
		loc := Location(p.In)
		switch loc {
		case InPath, InQuery, InHeader:
		default:
			continue
		}
		d, err := r.Resolve(parameterSchema(p), typeinfo.ContextKey{Role: typeinfo.RoleParameter, Name: opName + " " + p.Name})
		if err != nil {
			return ParameterSet{}, err
		}
		param := Parameter{
			Name:        p.Name,
			CodeName:    naming.ToCodeName(p.Name),
			Location:    loc,
			Required:    p.Required || loc == InPath,
			Type:        d,
			Style:       p.Style,
			Explode:     explode(p),
			Description: p.Description,
		}
		if s := parameterSchema(p); s != nil && s.Default != nil {
			param.HasDefault = true
			param.Default = wireValues(s.Default)
		}
		switch loc {
		case InPath:
			param.Explode = false
			set.Path = append(set.Path, param)
		case InQuery:
			set.Query = append(set.Query, param)
		case InHeader:
			param.Explode = false
			set.Header = append(set.Header, param)
		}
	}
	return set, nil
}

// ExtractBody selects the request body: the first media type in document order.
func ExtractBody(r *typeinfo.Resolver, op spec.Operation, opName string) (*RequestBody, error) {
	if op.RequestBody == nil || len(op.RequestBody.Content) == 0 {
		return nil, nil
	}
	media := op.RequestBody.Content[0]
	d, err := r.Resolve(media.Schema, typeinfo.ContextKey{Role: typeinfo.RoleRequestBody, Name: opName + " request"})
	if err != nil {
		return nil, err
	}
	return &RequestBody{
		MediaType:   media.MediaType,
		Codec:       CodecFor(media.MediaType),
		Type:        d,
		Required:    op.RequestBody.Required,
		Description: op.RequestBody.Description,
	}, nil
}

// explode honors an explicit flag and defaults to true.
func explode(p *openapi3.Parameter) bool {
	if p.Explode != nil {
		return *p.Explode
	}
	return true
}

// parameterSchema returns the parameter schema. Loaded documents already
// carry the first declared content entry's schema there; parameters built
// by hand fall back to the lexically first content entry.
func parameterSchema(p *openapi3.Parameter) *openapi3.Schema {
	if p.Schema != nil {
		return p.Schema.Value
	}
	if len(p.Content) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.Content))
	for k := range p.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if mt := p.Content[keys[0]]; mt != nil && mt.Schema != nil {
		return mt.Schema.Value
	}
	return nil
}

func wireValues(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			out = append(out, wireString(e))
		}
		return out
	default:
		return []string{wireString(v)}
	}
}

// wireString formats a decoded document value. Whole floats print without
// an exponent so numeric defaults match what callers would write.
func wireString(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
