package goclient

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/resource"
)

// locals are identifiers generated methods use for themselves, including
// the request helpers their bodies call.
var locals = []string{
	"ctx", "c", "rb", "accept", "additionalHeaders", "body",
	"newRequest", "executeRequest", "wire", "formFields",
	"marshalWithAdditional", "unmarshalAdditional",
	"context", "json", "time", "string", "any",
}

type methodArg struct {
	ident string
	typ   string
	param *compiler.Parameter
	// pointer is set when the argument is a pointer to the wire value.
	pointer bool
	// optional arguments may be nil.
	optional bool
}

type method struct {
	name string
	plan *compiler.Plan
	args []methodArg
	body *methodArg
}

// newMethod lays out the signature of plan: required arguments, then
// optional ones, in path, query, header, body order.
func newMethod(name string, plan *compiler.Plan) method {
	used := make(map[string]bool, len(locals))
	for _, l := range locals {
		used[l] = true
	}
	m := method{name: name, plan: plan}
	var required, optional []methodArg
	for _, group := range [][]compiler.Parameter{plan.PathParams, plan.QueryParams, plan.HeaderParams} {
		for i := range group {
			p := &group[i]
			arg := methodArg{ident: uniqueName(naming.ToIdentifier(p.Name, "arg"), used), param: p}
			if p.Required {
				arg.typ = goType(p.Type)
				required = append(required, arg)
				continue
			}
			arg.typ = optionalType(p.Type)
			arg.pointer = strings.HasPrefix(arg.typ, "*")
			arg.optional = true
			optional = append(optional, arg)
		}
	}
	if b := plan.Body; b != nil {
		arg := methodArg{ident: "body", typ: goType(b.Type)}
		if b.Required {
			required = append(required, arg)
		} else {
			arg.typ = optionalType(b.Type)
			arg.pointer = strings.HasPrefix(arg.typ, "*")
			arg.optional = true
			optional = append(optional, arg)
		}
	}
	m.args = append(required, optional...)
	for i := range m.args {
		if m.args[i].param == nil {
			m.body = &m.args[i]
		}
	}
	return m
}

func (m method) responseType() string {
	if m.plan.Response == nil {
		return "struct{}"
	}
	return goType(m.plan.Response.Type)
}

func (m method) responseCodec() string {
	if m.plan.Response == nil {
		return string(compiler.CodecJSON)
	}
	return string(m.plan.Response.Codec)
}

func (m method) signature() string {
	parts := []string{"ctx context.Context"}
	for _, a := range m.args {
		parts = append(parts, a.ident+" "+a.typ)
	}
	if m.plan.Accept.Mode == compiler.AcceptParameter {
		parts = append(parts, "accept string")
	}
	parts = append(parts, "additionalHeaders map[string]string")
	return fmt.Sprintf("%s(%s) (*ApiResponse[%s], error)", m.name, strings.Join(parts, ", "), m.responseType())
}

func (m method) argFor(p *compiler.Parameter) methodArg {
	for _, a := range m.args {
		if a.param == p {
			return a
		}
	}
	return methodArg{}
}

// renderResource emits the client type of one resource.
func renderResource(pkg string, g resource.Group) []byte {
	var buf bytes.Buffer
	writeFileHeader(&buf, pkg)
	buf.WriteString("import (\n\t\"context\"\n\t\"encoding/json\"\n\t\"time\"\n)\n\n")
	fmt.Fprintf(&buf, "// %s calls the %s operations.\n", g.TypeName, g.Key)
	fmt.Fprintf(&buf, "type %s struct {\n\tt *transport\n}\n\n", g.TypeName)
	for i, name := range resource.MethodNames(g) {
		writeMethod(&buf, g.TypeName, newMethod(name, g.Plans[i]))
	}
	return buf.Bytes()
}

func writeMethod(buf *bytes.Buffer, recv string, m method) {
	p := m.plan
	writeComment(buf, "", fmt.Sprintf("%s calls %s %s.", m.name, p.Verb, p.PathTemplate))
	for _, text := range []string{p.Summary, p.Description} {
		if text = strings.TrimSpace(text); text != "" {
			buf.WriteString("//\n")
			writeComment(buf, "", text)
		}
	}
	var paramDocs []string
	for _, a := range m.args {
		if a.param != nil && strings.TrimSpace(a.param.Description) != "" {
			paramDocs = append(paramDocs, a.ident+": "+strings.Join(strings.Fields(a.param.Description), " "))
		}
	}
	if len(paramDocs) > 0 {
		buf.WriteString("//\n")
		for _, d := range paramDocs {
			writeComment(buf, "", d)
		}
	}
	if p.Deprecated {
		buf.WriteString("//\n// Deprecated: the API marks this operation as deprecated.\n")
	}
	fmt.Fprintf(buf, "func (c *%s) %s {\n", recv, m.signature())
	for _, step := range p.Steps {
		writeStep(buf, m, step)
	}
	buf.WriteString("}\n\n")
}

func writeStep(buf *bytes.Buffer, m method, step compiler.Step) {
	switch step.Kind {
	case compiler.StepURLTemplate:
		fmt.Fprintf(buf, "\trb := newRequest(%s, %s)\n", strconv.Quote(m.plan.Verb), strconv.Quote(step.Value))
	case compiler.StepPathParam, compiler.StepQueryParam, compiler.StepHeaderParam:
		writeParam(buf, m.argFor(step.Param), step)
	case compiler.StepFixedHeader:
		fmt.Fprintf(buf, "\trb.header.Set(%s, %s)\n", strconv.Quote(step.Header), strconv.Quote(step.Value))
	case compiler.StepAcceptParameter:
		fmt.Fprintf(buf, "\tif accept == \"\" {\n\t\taccept = %s\n\t}\n", strconv.Quote(step.Value))
		buf.WriteString("\trb.header.Set(\"Accept\", accept)\n")
	case compiler.StepAdditionalHeaders:
		buf.WriteString("\trb.additionalHeaders(additionalHeaders)\n")
	case compiler.StepEncodeBody:
		if step.Body == nil || m.body == nil {
			return
		}
		call := fmt.Sprintf("rb.encodeBody(%s, %s, %s)", strconv.Quote(string(step.Body.Codec)), strconv.Quote(step.Body.MediaType), deref(*m.body))
		if m.body.optional {
			fmt.Fprintf(buf, "\tif body != nil {\n\t\t%s\n\t}\n", call)
			return
		}
		buf.WriteString("\t" + call + "\n")
	case compiler.StepDispatch:
		fmt.Fprintf(buf, "\treturn executeRequest[%s](ctx, c.t, rb, %s)\n", m.responseType(), strconv.Quote(m.responseCodec()))
	}
}

func writeParam(buf *bytes.Buffer, a methodArg, step compiler.Step) {
	p := step.Param
	call := func(values string) string {
		switch step.Kind {
		case compiler.StepPathParam:
			return fmt.Sprintf("rb.pathParam(%s, %s)", strconv.Quote(p.Name), values)
		case compiler.StepQueryParam:
			return fmt.Sprintf("rb.queryParam(%s, %s, %t)", strconv.Quote(p.Name), values, p.Explode)
		default:
			return fmt.Sprintf("rb.headerParam(%s, %s)", strconv.Quote(p.Name), values)
		}
	}
	value := "wire(" + deref(a) + ")"
	if !a.optional {
		buf.WriteString("\t" + call(value) + "\n")
		return
	}
	fmt.Fprintf(buf, "\tif %s != nil {\n\t\t%s\n\t}", a.ident, call(value))
	if p.HasDefault {
		fmt.Fprintf(buf, " else {\n\t\t%s\n\t}", call(stringSlice(p.Default)))
	}
	buf.WriteString("\n")
}

func deref(a methodArg) string {
	if a.pointer {
		return "*" + a.ident
	}
	return a.ident
}

func stringSlice(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
