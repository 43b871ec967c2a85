// Package compiler turns OpenAPI operations into request-construction plans:
// an ordered, emission-agnostic list of steps that builds, sends and decodes
// one HTTP call.
package compiler

import "github.com/mark3labs/openapi2client/internal/typeinfo"

// Location is where a parameter travels.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
)

// Parameter is one typed, located operation parameter.
type Parameter struct {
	Name        string // wire name
	CodeName    string // normalized identifier
	Location    Location
	Required    bool
	Type        *typeinfo.Descriptor
	Style       string
	Explode     bool
	HasDefault  bool
	Default     []string // wire form; one element for scalars
	Description string
}

// Nullable reports whether the caller may omit the parameter entirely.
func (p Parameter) Nullable() bool { return !p.Required && !p.HasDefault }

// Codec names the encoding used for a body.
type Codec string

const (
	CodecJSON      Codec = "json"
	CodecForm      Codec = "form"
	CodecMultipart Codec = "multipart"
	CodecText      Codec = "text"
	CodecBinary    Codec = "binary"
)

// RequestBody is the single body an operation sends.
type RequestBody struct {
	MediaType   string
	Codec       Codec
	Type        *typeinfo.Descriptor
	Required    bool
	Description string
}

// Response is the primary response an operation decodes.
type Response struct {
	Status           string
	Description      string
	PrimaryMediaType string
	MediaTypes       []string
	Codec            Codec
	Type             *typeinfo.Descriptor
}

// HasMultipleMediaTypes reports whether the response can be negotiated.
func (r *Response) HasMultipleMediaTypes() bool { return r != nil && len(r.MediaTypes) > 1 }

// AcceptMode says how the Accept header is produced.
type AcceptMode int

const (
	// AcceptNone sends no generated Accept header.
	AcceptNone AcceptMode = iota
	// AcceptFixed sends a literal Accept header.
	AcceptFixed
	// AcceptParameter exposes Accept as a caller-supplied argument with a default.
	AcceptParameter
)

func (m AcceptMode) String() string {
	switch m {
	case AcceptFixed:
		return "fixed"
	case AcceptParameter:
		return "parameter"
	default:
		return "none"
	}
}

// AcceptPolicy is the resolved Accept header behavior; Value is the literal
// header for AcceptFixed and the default for AcceptParameter.
type AcceptPolicy struct {
	Mode  AcceptMode
	Value string
}

// StepKind enumerates plan steps.
type StepKind int

const (
	StepURLTemplate StepKind = iota
	StepPathParam
	StepQueryParam
	StepHeaderParam
	StepFixedHeader
	StepAcceptParameter
	StepAdditionalHeaders
	StepEncodeBody
	StepDispatch
)

func (k StepKind) String() string {
	switch k {
	case StepURLTemplate:
		return "url-template"
	case StepPathParam:
		return "path-param"
	case StepQueryParam:
		return "query-param"
	case StepHeaderParam:
		return "header-param"
	case StepFixedHeader:
		return "fixed-header"
	case StepAcceptParameter:
		return "accept-parameter"
	case StepAdditionalHeaders:
		return "additional-headers"
	case StepEncodeBody:
		return "encode-body"
	case StepDispatch:
		return "dispatch"
	}
	return "unknown"
}

// Step is one instruction of a plan.
//
//	StepURLTemplate       Value = path template
//	StepPathParam         Param
//	StepQueryParam        Param (Param.Explode decides array rendering)
//	StepHeaderParam       Param
//	StepFixedHeader       Header, Value
//	StepAcceptParameter   Value = default media type
//	StepEncodeBody        Body (nil when the verb requires a body but none is declared)
//	StepDispatch          Value = verb
type Step struct {
	Kind   StepKind
	Param  *Parameter
	Header string
	Value  string
	Body   *RequestBody
}

// Plan is the compiled form of one operation. Plans are immutable once built.
type Plan struct {
	Name         string
	Verb         string
	PathTemplate string
	OperationID  string
	Summary      string
	Description  string
	Deprecated   bool
	Tags         []string
	PathParams   []Parameter
	QueryParams  []Parameter
	HeaderParams []Parameter
	Body         *RequestBody
	Response     *Response
	Accept       AcceptPolicy
	Steps        []Step
}

// StepsOf returns the steps of the given kind, in plan order.
func (p *Plan) StepsOf(kind StepKind) []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
