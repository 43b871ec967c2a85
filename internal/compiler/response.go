package compiler

import (
	"strings"

	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

// ResolveResponse picks the first non-default response that declares at
// least one media type and resolves the schema of its first media type.
// A nil result means the operation returns nothing.
func ResolveResponse(r *typeinfo.Resolver, op spec.Operation, opName string) (*Response, error) {
	for _, resp := range op.Responses {
		if resp.Status == "default" || len(resp.Content) == 0 {
			continue
		}
		primary := resp.Content[0]
		d, err := r.Resolve(primary.Schema, typeinfo.ContextKey{Role: typeinfo.RoleResponse, Name: opName + " response"})
		if err != nil {
			return nil, err
		}
		mediaTypes := make([]string, 0, len(resp.Content))
		for _, m := range resp.Content {
			mediaTypes = append(mediaTypes, m.MediaType)
		}
		return &Response{
			Status:           resp.Status,
			Description:      resp.Description,
			PrimaryMediaType: primary.MediaType,
			MediaTypes:       mediaTypes,
			Codec:            CodecFor(primary.MediaType),
			Type:             d,
		}, nil
	}
	return nil, nil
}

// CodecFor maps a media type to its codec. Unrecognized types use JSON.
func CodecFor(mediaType string) Codec {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/json", strings.HasSuffix(mt, "+json"), mt == "*/*":
		return CodecJSON
	case mt == "application/x-www-form-urlencoded":
		return CodecForm
	case mt == "multipart/form-data":
		return CodecMultipart
	case strings.HasPrefix(mt, "text/"):
		return CodecText
	case mt == "application/octet-stream", strings.HasPrefix(mt, "image/"),
		strings.HasPrefix(mt, "audio/"), strings.HasPrefix(mt, "video/"), mt == "application/pdf":
		return CodecBinary
	}
	return CodecJSON
}
