package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSpecYAML = `openapi: 3.0.0
info:
  title: Test API
  version: '1.0.0'
servers:
  - url: https://api.test.example
paths:
  /hello:
    get:
      operationId: sayHello
      summary: Hello
      parameters:
        - in: query
          name: names
          explode: false
          schema:
            type: array
            items: { type: string }
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema: { $ref: '#/components/schemas/Greeting' }
  /hello/{id}:
    put:
      parameters:
        - { in: path, name: id, required: true, schema: { type: integer } }
      requestBody:
        required: true
        content:
          application/json:
            schema: { $ref: '#/components/schemas/Greeting' }
      responses:
        '204':
          description: done
components:
  schemas:
    Greeting:
      type: object
      properties:
        text: { type: string }
`

func writeSpec(t *testing.T, dir, content string) string {
	t.Helper()
	specPath := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(specPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return specPath
}

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir, "--dry-run"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") || !strings.Contains(out, "- hello_client.go") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_Writes(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "hello_client.go"))
	if err != nil {
		t.Fatalf("read generated client: %v", err)
	}
	src := string(data)
	if !strings.HasPrefix(src, "// Code generated") || !strings.Contains(src, "package testapi") {
		t.Fatalf("unexpected header or package:\n%s", src)
	}
	if !strings.Contains(src, "func (c *HelloClient) GetHello(") || !strings.Contains(src, "func (c *HelloClient) PutHelloPathId(") {
		t.Fatalf("missing methods:\n%s", src)
	}
}

func TestGeneratePipeline_FatalSchemaWritesNothing(t *testing.T) {
	dir := t.TempDir()
	bad := strings.Replace(minimalSpecYAML, "  /hello/{id}:\n", "  /hello/{id}:\n    options:\n      responses:\n        '200': { description: ok }\n", 1)
	specPath := writeSpec(t, dir, bad)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", outDir})
	err := root.Execute()
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "OPTIONS") {
		t.Fatalf("expected unsupported verb usage error, got %v", err)
	}
	if _, statErr := os.Stat(outDir); statErr == nil {
		t.Fatalf("nothing may be written when compilation fails")
	}
}

func TestGeneratePipeline_SwaggerRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir, "swagger: '2.0'\ninfo: { title: Old, version: '1' }\npaths: {}\n")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--out", filepath.Join(dir, "out"), "--dry-run"})
	err := root.Execute()
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "spec:") {
		t.Fatalf("expected spec usage error, got %v", err)
	}
}

func TestPlanCommand(t *testing.T) {
	t.Parallel()
	specPath := writeSpec(t, t.TempDir(), minimalSpecYAML)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"plan", "--input", specPath, "--operation", "sayHello"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"name: getHello",
		"operation: GET /hello",
		"accept: fixed application/json",
		"- query-param names (comma-joined)",
		"fixed-header Accept: application/json",
		"type: Object(Greeting)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plan output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "PUT") {
		t.Errorf("--operation should select a single plan:\n%s", got)
	}
}

func TestRequestCommand(t *testing.T) {
	t.Parallel()
	specPath := writeSpec(t, t.TempDir(), minimalSpecYAML)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"request", "--input", specPath, "--operation", "GET /hello",
		"--arg", "names=a,b", "--header", "X-Request-Id=42",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"GET /hello?names=a,b HTTP/1.1",
		"Host: api.test.example",
		"Accept: application/json",
		"X-Request-Id: 42",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("request output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	root = NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"request", "--input", specPath, "--operation", "putHelloPathId",
		"--arg", "id=7", "--body", `{"text":"hi"}`, "--base-url", "http://localhost:8080/v2",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute put: %v", err)
	}
	got = out.String()
	for _, want := range []string{"PUT /v2/hello/7 HTTP/1.1", "Content-Type: application/json", `{"text":"hi"}`} {
		if !strings.Contains(got, want) {
			t.Errorf("put request output missing %q:\n%s", want, got)
		}
	}
}
