package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures which operations Operations returns.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// Info returns the document title, version, description and server URLs.
func (d *Document) Info() Info {
	var info Info
	if d == nil || d.T == nil {
		return info
	}
	if d.T.Info != nil {
		info.Title = safeStr(d.T.Info.Title)
		info.Version = safeStr(d.T.Info.Version)
		info.Description = safeStr(d.T.Info.Description)
	}
	for _, s := range d.T.Servers {
		if s != nil && safeStr(s.URL) != "" {
			info.Servers = append(info.Servers, safeStr(s.URL))
		}
	}
	return info
}

// Operations flattens the document into operations. Paths are visited in
// lexical order and verbs in a fixed order; parameters, media types and
// responses keep their document declaration order.
func (d *Document) Operations(opts ...BuildOption) ([]Operation, error) {
	if d == nil || d.T == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	pathKeys := make([]string, 0, len(d.T.Paths))
	for p := range d.T.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var out []Operation
	for _, p := range pathKeys {
		item := d.T.Paths[p]
		if item == nil {
			continue
		}
		verbs := []struct {
			m HttpMethod
			o *openapi3.Operation
		}{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
			{TRACE, item.Trace},
			{CONNECT, item.Connect},
		}
		for _, pair := range verbs {
			if pair.o == nil {
				continue
			}
			tags := make([]string, 0, len(pair.o.Tags))
			for _, t := range pair.o.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if !allowByTags(tags, cfg) {
				continue
			}
			out = append(out, Operation{
				Method:      pair.m,
				Path:        p,
				OperationID: safeStr(pair.o.OperationID),
				Summary:     safeStr(pair.o.Summary),
				Description: safeStr(pair.o.Description),
				Tags:        tags,
				Deprecated:  pair.o.Deprecated,
				Parameters:  d.parameters(p, pair.m, mergeParameters(item.Parameters, pair.o.Parameters)),
				RequestBody: d.requestBody(p, pair.m, pair.o.RequestBody),
				Responses:   d.responses(p, pair.m, pair.o.Responses),
			})
		}
	}
	return out, nil
}

// mergeParameters keeps path-item parameters first; an operation parameter
// with the same (in, name) replaces the inherited one in place.
func mergeParameters(base, own openapi3.Parameters) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	index := make(map[string]int)
	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := paramKey(ref.Value.In, ref.Value.Name)
			if i, ok := index[key]; ok {
				out[i] = ref.Value
				continue
			}
			index[key] = len(out)
			out = append(out, ref.Value)
		}
	}
	add(base)
	add(own)
	return out
}

// parameters narrows each content-based parameter to a copy carrying the
// schema of its first declared media type.
func (d *Document) parameters(path string, m HttpMethod, params []*openapi3.Parameter) []*openapi3.Parameter {
	for i, p := range params {
		if p.Schema != nil || len(p.Content) == 0 {
			continue
		}
		first := orderKeys(d.order.ParameterContent(path, m, p.In, p.Name), p.Content)[0]
		if mt := p.Content[first]; mt != nil && mt.Schema != nil {
			cp := *p
			cp.Schema = mt.Schema
			params[i] = &cp
		}
	}
	return params
}

func (d *Document) requestBody(path string, m HttpMethod, ref *openapi3.RequestBodyRef) *RequestBody {
	if ref == nil || ref.Value == nil {
		return nil
	}
	rb := &RequestBody{
		Required:    ref.Value.Required,
		Description: safeStr(ref.Value.Description),
	}
	rb.Content = toMediaList(ref.Value.Content, d.order.RequestBodyMediaTypes(path, m))
	return rb
}

func (d *Document) responses(path string, m HttpMethod, responses openapi3.Responses) []Response {
	if len(responses) == 0 {
		return nil
	}
	var out []Response
	for _, code := range orderKeys(d.order.ResponseCodes(path, m), responses) {
		rref := responses[code]
		if rref == nil || rref.Value == nil {
			continue
		}
		desc := ""
		if rref.Value.Description != nil {
			desc = safeStr(*rref.Value.Description)
		}
		out = append(out, Response{
			Status:      code,
			Description: desc,
			Content:     toMediaList(rref.Value.Content, d.order.ResponseMediaTypes(path, m, code)),
		})
	}
	return out
}

func toMediaList(content openapi3.Content, order []string) []Media {
	if len(content) == 0 {
		return nil
	}
	out := make([]Media, 0, len(content))
	for _, mime := range orderKeys(order, content) {
		mt := content[mime]
		if mt == nil {
			continue
		}
		var schema *openapi3.Schema
		if mt.Schema != nil {
			schema = mt.Schema.Value
		}
		out = append(out, Media{MediaType: mime, Schema: schema})
	}
	return out
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }
