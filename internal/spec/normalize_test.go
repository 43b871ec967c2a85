package spec

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
)

const sampleSpec = `openapi: 3.0.0
info:
  title: Sample API
  version: "1.0.0"
  description: Demo
servers:
  - url: https://api.example.com/v1
paths:
  /pets:
    parameters:
      - in: query
        name: limit
        required: false
        schema:
          type: integer
      - in: header
        name: X-Trace
        schema:
          type: string
    get:
      summary: List pets
      description: Returns all pets
      tags: [read, animal]
      parameters:
        - in: query
          name: tags
          schema:
            type: array
            items:
              type: string
        - in: query
          name: limit
          required: true
          schema:
            type: integer
      responses:
        default:
          description: error
          content:
            application/json:
              schema:
                type: object
        "200":
          description: ok
          content:
            text/csv:
              schema:
                type: string
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      summary: Create pet
      tags: [write, animal]
      requestBody:
        $ref: '#/components/requestBodies/PetBody'
      responses:
        "201":
          description: created
  /admin:
    get:
      summary: Admin only
      tags: [admin]
      responses:
        "200": { description: ok }
components:
  requestBodies:
    PetBody:
      required: true
      content:
        application/xml:
          schema:
            $ref: '#/components/schemas/Pet'
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
`

func parseDoc(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), []byte(strings.TrimSpace(src)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func findOp(t *testing.T, ops []Operation, m HttpMethod, path string) Operation {
	t.Helper()
	for _, op := range ops {
		if op.Method == m && op.Path == path {
			return op
		}
	}
	t.Fatalf("operation %s %s not found", m, path)
	return Operation{}
}

func TestOperations_Basic(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, sampleSpec)

	info := doc.Info()
	if info.Title != "Sample API" {
		t.Errorf("title: got %q", info.Title)
	}
	if diff := cmp.Diff([]string{"https://api.example.com/v1"}, info.Servers); diff != "" {
		t.Errorf("servers mismatch (-want +got):\n%s", diff)
	}

	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	var ids []string
	for _, op := range ops {
		ids = append(ids, op.ID())
	}
	if diff := cmp.Diff([]string{"GET /admin", "GET /pets", "POST /pets"}, ids); diff != "" {
		t.Fatalf("operation order mismatch (-want +got):\n%s", diff)
	}
}

func TestOperations_ParameterMergeKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, sampleSpec)
	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	get := findOp(t, ops, GET, "/pets")
	var got []string
	for _, p := range get.Parameters {
		got = append(got, p.In+":"+p.Name)
	}
	if diff := cmp.Diff([]string{"query:limit", "header:X-Trace", "query:tags"}, got); diff != "" {
		t.Fatalf("parameter order mismatch (-want +got):\n%s", diff)
	}
	if !get.Parameters[0].Required {
		t.Fatalf("operation-level limit should override the path-level one")
	}
}

func TestOperations_MediaTypesKeepDocumentOrder(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, sampleSpec)
	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}

	get := findOp(t, ops, GET, "/pets")
	var codes []string
	for _, r := range get.Responses {
		codes = append(codes, r.Status)
	}
	if diff := cmp.Diff([]string{"default", "200"}, codes); diff != "" {
		t.Fatalf("response order mismatch (-want +got):\n%s", diff)
	}
	var mimes []string
	for _, m := range get.Responses[1].Content {
		mimes = append(mimes, m.MediaType)
	}
	if diff := cmp.Diff([]string{"text/csv", "application/json"}, mimes); diff != "" {
		t.Fatalf("response media order mismatch (-want +got):\n%s", diff)
	}

	post := findOp(t, ops, POST, "/pets")
	if post.RequestBody == nil || !post.RequestBody.Required {
		t.Fatalf("post /pets: expected required request body")
	}
	if got := post.RequestBody.Content[0].MediaType; got != "application/xml" {
		t.Fatalf("post /pets: first media type should follow the referenced body, got %q", got)
	}
	if post.RequestBody.Content[0].Schema == nil {
		t.Fatalf("post /pets: schema should be resolved")
	}
}

func TestOperations_WithoutOrderIndexSortsLexically(t *testing.T) {
	t.Parallel()
	parsed := parseDoc(t, sampleSpec)
	doc, err := NewDocument(parsed.T, nil)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	get := findOp(t, ops, GET, "/pets")
	if get.Responses[0].Status != "200" {
		t.Fatalf("expected lexical order, got %q first", get.Responses[0].Status)
	}
}

func TestOperations_TagFiltering(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, sampleSpec)

	ops, err := doc.Operations(WithIncludeTags([]string{"read"}))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if len(ops) != 1 || ops[0].ID() != "GET /pets" {
		t.Fatalf("include tags: got %v", ops)
	}

	ops, err = doc.Operations(WithExcludeTags([]string{"admin"}))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	for _, op := range ops {
		if op.Path == "/admin" {
			t.Fatalf("exclude tags: /admin should be filtered out")
		}
	}
}

func TestComponentSchemasSorted(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, sampleSpec)
	schemas := doc.ComponentSchemas()
	if len(schemas) != 1 || schemas[0].Name != "Pet" || schemas[0].Schema == nil {
		t.Fatalf("unexpected component schemas: %+v", schemas)
	}
}

const orderedSpec = `openapi: 3.0.0
info: { title: Ordered, version: "1" }
paths:
  /search:
    parameters:
      - in: query
        name: filter
        content:
          application/json:
            schema: { type: object, properties: { q: { type: string } } }
    get:
      parameters:
        - in: query
          name: filter
          content:
            text/plain:
              schema: { type: string }
            application/json:
              schema: { type: object, properties: { q: { type: string } } }
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  total: { type: integer }
                  items: { type: array, items: { $ref: '#/components/schemas/Hit' } }
components:
  schemas:
    Hit:
      type: object
      properties:
        zeta: { type: string }
        alpha: { type: string }
        inner:
          type: object
          properties:
            second: { type: string }
            first: { type: string }
`

// loadUnvalidated skips validation: a parameter with two content entries is
// rejected by strict validators but still loads.
func loadUnvalidated(t *testing.T, src string, keepOrder bool) *Document {
	t.Helper()
	raw := []byte(strings.TrimSpace(src))
	parsed, err := openapi3.NewLoader().LoadFromData(raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !keepOrder {
		raw = nil
	}
	doc, err := NewDocument(parsed, raw)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestPropertyOrder_FollowsDocument(t *testing.T) {
	t.Parallel()
	doc := loadUnvalidated(t, orderedSpec, true)
	hit := doc.T.Components.Schemas["Hit"].Value
	order := doc.PropertyOrder()
	if diff := cmp.Diff([]string{"zeta", "alpha", "inner"}, order.Keys(hit)); diff != "" {
		t.Errorf("component property order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"second", "first"}, order.Keys(hit.Properties["inner"].Value)); diff != "" {
		t.Errorf("nested property order mismatch (-want +got):\n%s", diff)
	}
	resp := doc.T.Paths["/search"].Get.Responses["200"].Value.Content["application/json"].Schema.Value
	if diff := cmp.Diff([]string{"total", "items"}, order.Keys(resp)); diff != "" {
		t.Errorf("inline response property order mismatch (-want +got):\n%s", diff)
	}

	var unordered *PropertyOrder
	if diff := cmp.Diff([]string{"alpha", "inner", "zeta"}, unordered.Keys(hit)); diff != "" {
		t.Errorf("nil order should sort lexically (-want +got):\n%s", diff)
	}
}

func TestOperations_ContentParameterUsesFirstDeclaredMedia(t *testing.T) {
	t.Parallel()
	doc := loadUnvalidated(t, orderedSpec, true)
	ops, err := doc.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	get := findOp(t, ops, GET, "/search")
	if len(get.Parameters) != 1 {
		t.Fatalf("path-item filter should be overridden, got %d parameters", len(get.Parameters))
	}
	filter := get.Parameters[0]
	if filter.Schema == nil || filter.Schema.Value.Type != "string" {
		t.Fatalf("expected the text/plain schema, got %+v", filter.Schema)
	}
	if doc.T.Paths["/search"].Get.Parameters[0].Value.Schema != nil {
		t.Fatalf("the loaded document must not be modified")
	}

	lexical := loadUnvalidated(t, orderedSpec, false)
	ops, err = lexical.Operations()
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if got := findOp(t, ops, GET, "/search").Parameters[0].Schema.Value.Type; got != "object" {
		t.Fatalf("without source order application/json sorts first, got %q", got)
	}
}
