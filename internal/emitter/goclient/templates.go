package goclient

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const generatedHeader = "// Code generated by openapi2client. DO NOT EDIT."

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"header": func() string { return generatedHeader }}).
	ParseFS(templateFS, "templates/*.tmpl"))

// staticFiles are emitted for every package; the emitter only refers to the
// names they declare.
var staticFiles = []string{"api_error.go", "auth.go", "logging.go", "request.go"}

func renderStatic(name string, data templateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type templateData struct {
	Package string
}
