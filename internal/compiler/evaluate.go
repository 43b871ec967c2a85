package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Args supplies values for one evaluation of a plan. Values are keyed by
// wire parameter name; slices are treated as arrays.
type Args struct {
	Values  map[string]any
	Body    any
	Accept  string
	Headers map[string]string
}

// Evaluate runs plan's steps against baseURL and returns the request that
// generated code would send for args.
func Evaluate(plan *Plan, baseURL string, args Args) (*http.Request, error) {
	var (
		path    string
		query   []string
		header  = http.Header{}
		body    io.Reader
		ctype   string
		verb    string
		missing []string
	)
	for _, step := range plan.Steps {
		switch step.Kind {
		case StepURLTemplate:
			path = step.Value
		case StepPathParam:
			vals, ok := argValues(step.Param, args.Values)
			if !ok {
				missing = append(missing, step.Param.Name)
				continue
			}
			path = strings.ReplaceAll(path, "{"+step.Param.Name+"}", url.PathEscape(strings.Join(vals, ",")))
		case StepQueryParam:
			vals, ok := argValues(step.Param, args.Values)
			if !ok {
				if step.Param.Required {
					missing = append(missing, step.Param.Name)
				}
				continue
			}
			query = append(query, queryPairs(step.Param, vals)...)
		case StepHeaderParam:
			vals, ok := argValues(step.Param, args.Values)
			if !ok {
				if step.Param.Required {
					missing = append(missing, step.Param.Name)
				}
				continue
			}
			header.Set(step.Param.Name, strings.Join(vals, ","))
		case StepFixedHeader:
			header.Set(step.Header, step.Value)
		case StepAcceptParameter:
			accept := args.Accept
			if accept == "" {
				accept = step.Value
			}
			header.Set("Accept", accept)
		case StepAdditionalHeaders:
			keys := make([]string, 0, len(args.Headers))
			for k := range args.Headers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				header.Set(k, args.Headers[k])
			}
		case StepEncodeBody:
			if step.Body == nil || args.Body == nil {
				body = http.NoBody
				continue
			}
			var err error
			body, ctype, err = encodeBody(step.Body, args.Body)
			if err != nil {
				return nil, fmt.Errorf("encode %s body: %w", step.Body.MediaType, err)
			}
		case StepDispatch:
			verb = step.Value
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}

	target := strings.TrimRight(baseURL, "/") + path
	if len(query) > 0 {
		target += "?" + strings.Join(query, "&")
	}
	req, err := http.NewRequest(verb, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	return req, nil
}

// argValues renders the argument for p in wire form, falling back to the
// declared default. ok is false when neither is available.
func argValues(p *Parameter, values map[string]any) ([]string, bool) {
	v, ok := values[p.Name]
	if !ok || v == nil {
		if p.HasDefault {
			return p.Default, true
		}
		return nil, false
	}
	return wireStrings(v), true
}

func wireStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case string:
		return []string{vv}
	case time.Time:
		return []string{vv.Format(time.RFC3339)}
	case fmt.Stringer:
		return []string{vv.String()}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, wireStrings(rv.Index(i).Interface())...)
		}
		return out
	}
	return []string{wireString(v)}
}

// queryPairs renders one query parameter. Exploded arrays repeat the key;
// otherwise the values are joined by commas.
func queryPairs(p *Parameter, vals []string) []string {
	key := url.QueryEscape(p.Name)
	if p.Type != nil && p.Type.IsArray() && p.Explode {
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			out = append(out, key+"="+url.QueryEscape(v))
		}
		return out
	}
	escaped := make([]string, len(vals))
	for i, v := range vals {
		escaped[i] = url.QueryEscape(v)
	}
	return []string{key + "=" + strings.Join(escaped, ",")}
}

func encodeBody(rb *RequestBody, v any) (io.Reader, string, error) {
	switch rb.Codec {
	case CodecText:
		return strings.NewReader(fmt.Sprint(v)), rb.MediaType, nil
	case CodecBinary:
		switch b := v.(type) {
		case []byte:
			return bytes.NewReader(b), rb.MediaType, nil
		case io.Reader:
			return b, rb.MediaType, nil
		}
		return strings.NewReader(fmt.Sprint(v)), rb.MediaType, nil
	case CodecForm:
		fields, err := formFields(v)
		if err != nil {
			return nil, "", err
		}
		form := url.Values{}
		for _, k := range sortedKeys(fields) {
			form[k] = fields[k]
		}
		return strings.NewReader(form.Encode()), rb.MediaType, nil
	case CodecMultipart:
		fields, err := formFields(v)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, k := range sortedKeys(fields) {
			for _, val := range fields[k] {
				if err := w.WriteField(k, val); err != nil {
					return nil, "", err
				}
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), rb.MediaType, nil
	}
}

// formFields flattens v into field values via its JSON form.
func formFields(v any) (map[string][]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("form bodies must be objects: %w", err)
	}
	out := make(map[string][]string, len(m))
	for k, val := range m {
		if val == nil {
			continue
		}
		out[k] = wireStrings(val)
	}
	return out, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
