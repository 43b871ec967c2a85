package goclient

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/mark3labs/openapi2client/internal/resource"
	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

const petStore = `openapi: 3.0.0
info:
  title: Pet Store
  version: "1.0"
servers:
  - url: https://api.example.com
paths:
  /pets:
    get:
      summary: List pets
      parameters:
        - in: query
          name: tags
          description: Filter by tags
          schema: { type: array, items: { type: string } }
        - in: query
          name: limit
          schema: { type: integer, format: int32, default: 20 }
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: { type: array, items: { $ref: '#/components/schemas/Pet' } }
            application/xml:
              schema: { type: array, items: { $ref: '#/components/schemas/Pet' } }
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema: { $ref: '#/components/schemas/Pet' }
      responses:
        "201":
          description: created
          content:
            application/json:
              schema: { $ref: '#/components/schemas/Pet' }
  /pets/{petId}:
    delete:
      deprecated: true
      parameters:
        - { in: path, name: petId, required: true, schema: { type: integer, format: int64 } }
      responses:
        "204": { description: gone }
  /bags:
    put:
      parameters:
        - { in: header, name: X-Seen, schema: { type: string, format: date-time } }
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema: { $ref: '#/components/schemas/Bag' }
      responses:
        "200":
          description: ok
          content:
            text/plain: { schema: { type: string } }
components:
  schemas:
    Pet:
      type: object
      description: A pet in the store.
      required: [id, name]
      properties:
        id: { type: integer, format: int64 }
        name: { type: string }
        status: { $ref: '#/components/schemas/Status' }
        labels: { type: object, additionalProperties: { type: string } }
    Status:
      type: string
      enum: [available, sold]
    Bag:
      type: object
      properties:
        size: { type: integer }
      additionalProperties: { type: string }
    Note:
      type: object
      properties:
        text: { type: string }
        author: { type: string }
      additionalProperties: true
`

func buildInput(t *testing.T, src string) Input {
	t.Helper()
	ctx := context.Background()
	doc, err := spec.Parse(ctx, []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	components := doc.ComponentSchemas()
	resolver := typeinfo.NewResolver(components, ReservedNames...)
	resolver.UsePropertyOrder(doc.PropertyOrder())
	plans, err := compiler.New(resolver, compiler.Options{Workers: 2}).CompileAll(ctx, components, ops)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return Input{Info: doc.Info(), Groups: resource.GroupPlans(plans, resource.ByPath), Models: resolver.Named()}
}

func flat(src []byte) string { return strings.Join(strings.Fields(string(src)), " ") }

func TestEmit_DryRunPlan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), buildInput(t, petStore), Options{OutDir: dir, PackageName: "petstore", DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	var got []string
	for _, pf := range res.Planned {
		got = append(got, pf.RelPath)
		if pf.Size == 0 {
			t.Errorf("%s: empty file planned", pf.RelPath)
		}
	}
	want := []string{"api_error.go", "auth.go", "bags_client.go", "client.go", "logging.go", "models.go", "pets_client.go", "request.go"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("planned files mismatch (-want +got):\n%s", diff)
	}
	if res.PackageName != "petstore" {
		t.Fatalf("package: %q", res.PackageName)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("dry run must not write files")
	}
}

func TestRender_Methods(t *testing.T) {
	t.Parallel()
	files, err := render(context.Background(), "petstore", buildInput(t, petStore))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	pets := flat(files["pets_client.go"])
	for _, want := range []string{
		"// GetPets calls GET /pets. // // List pets. // // tags: Filter by tags.",
		"func (c *PetsClient) GetPets(ctx context.Context, tags []string, limit *int32, accept string, additionalHeaders map[string]string) (*ApiResponse[[]Pet], error) {",
		`if tags != nil { rb.queryParam("tags", wire(tags), true) }`,
		`if limit != nil { rb.queryParam("limit", wire(*limit), true) } else { rb.queryParam("limit", []string{"20"}, true) }`,
		`if accept == "" { accept = "application/json" } rb.header.Set("Accept", accept)`,
		"func (c *PetsClient) PostPets(ctx context.Context, body Pet, additionalHeaders map[string]string) (*ApiResponse[Pet], error) {",
		`rb.header.Set("Accept", "application/json") rb.additionalHeaders(additionalHeaders) rb.encodeBody("json", "application/json", body)`,
		"// Deprecated:",
		"func (c *PetsClient) DeletePetsPathPetId(ctx context.Context, petId int64, additionalHeaders map[string]string) (*ApiResponse[struct{}], error) {",
		`rb.pathParam("petId", wire(petId))`,
	} {
		if !strings.Contains(pets, want) {
			t.Errorf("pets_client.go missing %q\n%s", want, files["pets_client.go"])
		}
	}
	if strings.Count(pets, "encodeBody") != 1 {
		t.Errorf("only PostPets encodes a body")
	}

	bags := flat(files["bags_client.go"])
	for _, want := range []string{
		"func (c *BagsClient) PutBags(ctx context.Context, xSeen *time.Time, body *Bag, additionalHeaders map[string]string) (*ApiResponse[string], error) {",
		`if xSeen != nil { rb.headerParam("X-Seen", wire(*xSeen)) }`,
		`if body != nil { rb.encodeBody("form", "application/x-www-form-urlencoded", *body) }`,
		`return executeRequest[string](ctx, c.t, rb, "text")`,
		`"time"`,
	} {
		if !strings.Contains(bags, want) {
			t.Errorf("bags_client.go missing %q\n%s", want, files["bags_client.go"])
		}
	}
}

func TestRender_ModelsAndClient(t *testing.T) {
	t.Parallel()
	files, err := render(context.Background(), "petstore", buildInput(t, petStore))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	models := flat(files["models.go"])
	for _, want := range []string{
		"// Pet is a generated model. // // A pet in the store. type Pet struct {",
		"type Pet struct { Id int64 `json:\"id\"` Name string `json:\"name\"` Status *Status `json:\"status,omitempty\"` Labels map[string]string `json:\"labels,omitempty\"` }",
		"type Note struct { Text *string `json:\"text,omitempty\"` Author *string `json:\"author,omitempty\"` AdditionalProperties map[string]any `json:\"-\"` }",
		"func (m *Note) UnmarshalJSON(data []byte) error {",
		`extra, err := unmarshalAdditional[any](data, "text", "author")`,
		"type Status string",
		`StatusAvailable Status = "available"`,
		`StatusSold Status = "sold"`,
		"AdditionalProperties map[string]string `json:\"-\"`",
		"func (m Bag) MarshalJSON() ([]byte, error) {",
		`extra, err := unmarshalAdditional[string](data, "size")`,
	} {
		if !strings.Contains(models, want) {
			t.Errorf("models.go missing %q\n%s", want, files["models.go"])
		}
	}

	client := flat(files["client.go"])
	for _, want := range []string{
		`const DefaultBaseURL = "https://api.example.com"`,
		"// Client is the Pet Store (version 1.0) client.",
		"Bags *BagsClient",
		"Pets: &PetsClient{t: t},",
	} {
		if !strings.Contains(client, want) {
			t.Errorf("client.go missing %q\n%s", want, files["client.go"])
		}
	}
	for name, src := range files {
		if !strings.HasPrefix(string(src), generatedHeader) {
			t.Errorf("%s: missing generated header", name)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()
	first, err := render(context.Background(), "petstore", buildInput(t, petStore))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := render(context.Background(), "petstore", buildInput(t, petStore))
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("output differs between runs (-first +again):\n%s", diff)
		}
	}
}

func TestRender_TypeChecks(t *testing.T) {
	t.Parallel()
	files, err := render(context.Background(), "petstore", buildInput(t, petStore))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	typeCheck(t, "petstore", files)
}

const helperNames = `openapi: 3.0.0
info: { title: Helpers, version: '1' }
paths:
  /calls/{wire}:
    post:
      parameters:
        - { in: path, name: wire, required: true, schema: { type: string } }
        - { in: query, name: executeRequest, schema: { type: boolean } }
        - { in: query, name: newRequest, required: true, schema: { type: integer } }
        - { in: header, name: time, schema: { type: string, format: date-time } }
      responses:
        '204': { description: done }
`

func TestRender_ParametersNamedLikeHelpers(t *testing.T) {
	t.Parallel()
	files, err := render(context.Background(), "helpers", buildInput(t, helperNames))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	calls := flat(files["calls_client.go"])
	want := "PostCallsPathWire(ctx context.Context, wire2 string, newRequest2 int, executeRequest2 *bool, time2 *time.Time, additionalHeaders map[string]string)"
	if !strings.Contains(calls, want) {
		t.Fatalf("calls_client.go missing %q\n%s", want, files["calls_client.go"])
	}
	typeCheck(t, "helpers", files)
}

func typeCheck(t *testing.T, pkg string, files map[string][]byte) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	var parsed []*ast.File
	for _, name := range names {
		f, err := parser.ParseFile(fset, name, files[name], parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		parsed = append(parsed, f)
	}
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	if _, err := conf.Check(pkg, fset, parsed, nil); err != nil {
		t.Fatalf("generated package does not type-check: %v", err)
	}
}

func TestEmit_WritesAndGuardsOutDir(t *testing.T) {
	t.Parallel()
	in := buildInput(t, petStore)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), in, Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error on non-empty dir without force")
	}
	res, err := Emit(context.Background(), in, Options{OutDir: dir, Force: true})
	if err != nil {
		t.Fatalf("emit with force: %v", err)
	}
	for _, pf := range res.Planned {
		data, err := os.ReadFile(filepath.Join(dir, pf.RelPath))
		if err != nil {
			t.Fatalf("read %s: %v", pf.RelPath, err)
		}
		if len(data) != pf.Size {
			t.Errorf("%s: wrote %d bytes, planned %d", pf.RelPath, len(data), pf.Size)
		}
		if !strings.Contains(string(data), "package client") {
			t.Errorf("%s: default package name not applied", pf.RelPath)
		}
	}
}

func TestSanitizePackageName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{"Pet-Store": "petstore", "9lives": "lives", "type": "type_", "": ""}
	for in, want := range cases {
		if got := sanitizePackageName(in); got != want {
			t.Errorf("sanitizePackageName(%q) = %q, want %q", in, got, want)
		}
	}
}
