package goclient

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

const additionalField = "AdditionalProperties"

// renderModels declares every named descriptor: structs for objects,
// string types with constants for enums.
func renderModels(pkg string, named []*typeinfo.Descriptor) []byte {
	var buf bytes.Buffer
	writeFileHeader(&buf, pkg)
	buf.WriteString("import (\n\t\"encoding/json\"\n\t\"time\"\n)\n\n")
	// Enum constants share the package namespace with the type names.
	idents := make(map[string]bool, len(named))
	for _, d := range named {
		idents[d.Name] = true
	}
	for _, d := range named {
		switch d.Kind {
		case typeinfo.Enum:
			writeEnum(&buf, d, idents)
		case typeinfo.Object:
			writeStruct(&buf, d)
		case typeinfo.TypedObjectAdditionalProperties, typeinfo.UnknownAdditionalProperties:
			if _, ok := catchAll(d); ok {
				writeStruct(&buf, d)
				writeAdditionalJSON(&buf, d)
			}
		}
	}
	return buf.Bytes()
}

func writeFileHeader(buf *bytes.Buffer, pkg string) {
	buf.WriteString(generatedHeader + "\n\n")
	fmt.Fprintf(buf, "package %s\n\n", pkg)
}

func writeEnum(buf *bytes.Buffer, d *typeinfo.Descriptor, idents map[string]bool) {
	writeDoc(buf, "", d.Name+" is an enumeration.", d.Description)
	fmt.Fprintf(buf, "type %s string\n\n", d.Name)
	if len(d.EnumValues) == 0 {
		return
	}
	buf.WriteString("const (\n")
	for i, v := range d.EnumValues {
		suffix := naming.ToTypeName(v, "Value"+strconv.Itoa(i))
		name := uniqueName(d.Name+suffix, idents)
		fmt.Fprintf(buf, "\t%s %s = %s\n", name, d.Name, strconv.Quote(v))
	}
	buf.WriteString(")\n\n")
}

func writeStruct(buf *bytes.Buffer, d *typeinfo.Descriptor) {
	writeDoc(buf, "", d.Name+" is a generated model.", d.Description)
	fmt.Fprintf(buf, "type %s struct {\n", d.Name)
	for _, f := range structFields(d) {
		if f.prop.Description != "" {
			writeComment(buf, "\t", f.prop.Description)
		}
		tag := f.prop.Name
		if !f.prop.Required {
			tag += ",omitempty"
		}
		fmt.Fprintf(buf, "\t%s %s `json:%s`\n", f.name, fieldType(f.prop), strconv.Quote(tag))
	}
	if value, ok := catchAll(d); ok {
		fmt.Fprintf(buf, "\t%s map[string]%s `json:\"-\"`\n", additionalField, value)
	}
	buf.WriteString("}\n\n")
}

// writeAdditionalJSON gives d JSON methods that fold AdditionalProperties
// into the object alongside the declared properties.
func writeAdditionalJSON(buf *bytes.Buffer, d *typeinfo.Descriptor) {
	quoted := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		quoted = append(quoted, strconv.Quote(p.Name))
	}
	value, _ := catchAll(d)
	fmt.Fprintf(buf, "// MarshalJSON implements json.Marshaler.\n")
	fmt.Fprintf(buf, "func (m %s) MarshalJSON() ([]byte, error) {\n", d.Name)
	fmt.Fprintf(buf, "\ttype plain %s\n", d.Name)
	buf.WriteString("\treturn marshalWithAdditional(plain(m), m.AdditionalProperties)\n}\n\n")
	fmt.Fprintf(buf, "// UnmarshalJSON implements json.Unmarshaler.\n")
	fmt.Fprintf(buf, "func (m *%s) UnmarshalJSON(data []byte) error {\n", d.Name)
	fmt.Fprintf(buf, "\ttype plain %s\n", d.Name)
	buf.WriteString("\tif err := json.Unmarshal(data, (*plain)(m)); err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(buf, "\textra, err := unmarshalAdditional[%s](data", value)
	if len(quoted) > 0 {
		buf.WriteString(", " + strings.Join(quoted, ", "))
	}
	buf.WriteString(")\n\tif err != nil {\n\t\treturn err\n\t}\n")
	buf.WriteString("\tm.AdditionalProperties = extra\n\treturn nil\n}\n\n")
}

type structField struct {
	name string
	prop typeinfo.Property
}

func structFields(d *typeinfo.Descriptor) []structField {
	used := map[string]bool{}
	if _, ok := catchAll(d); ok {
		used[additionalField] = true
	}
	out := make([]structField, 0, len(d.Properties))
	for _, p := range d.Properties {
		out = append(out, structField{name: uniqueName(naming.ToTypeName(p.Name, "Field"), used), prop: p})
	}
	return out
}

func uniqueName(base string, used map[string]bool) string {
	name := base
	for i := 2; used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	used[name] = true
	return name
}

// writeDoc writes a doc comment made of lead followed by text, if any.
func writeDoc(buf *bytes.Buffer, indent, lead, text string) {
	writeComment(buf, indent, lead)
	if text = strings.TrimSpace(text); text != "" {
		buf.WriteString(indent + "//\n")
		writeComment(buf, indent, text)
	}
}

// writeComment writes text as comment lines. A paragraph made of one line
// gets closing punctuation, otherwise gofmt would turn it into a heading.
func writeComment(buf *bytes.Buffer, indent, text string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		alone := (i == 0 || strings.TrimSpace(lines[i-1]) == "") && (i == len(lines)-1 || strings.TrimSpace(lines[i+1]) == "")
		if alone && line != "" && !strings.ContainsAny(line[len(line)-1:], ".!?:;") {
			line += "."
		}
		lines[i] = line
	}
	for _, line := range lines {
		if line == "" {
			buf.WriteString(indent + "//\n")
			continue
		}
		buf.WriteString(indent + "// " + line + "\n")
	}
}
