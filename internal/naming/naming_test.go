package naming

import "testing"

func TestToCodeName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"my-resource", "myResource"},
		{"My_Resource", "myResource"},
		{"--leading and trailing--", "leadingAndTrailing"},
		{"x-request-id", "xRequestId"},
		{"already normalized", "alreadyNormalized"},
		{"petId", "petId"},
		{"a..b", "aB"},
		{"", ""},
		{"$$$", ""},
		{"2fa code", "2faCode"},
	}
	for _, tc := range cases {
		if got := ToCodeName(tc.in); got != tc.want {
			t.Errorf("ToCodeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToCodeName_Idempotent(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"get /my-resource/{param}", "X-Rate-Limit", "snake_case_name", "ÉtéTemps"} {
		once := ToCodeName(in)
		if twice := ToCodeName(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestOperationName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		verb, path, want string
	}{
		{"GET", "/my-resource/{param}", "getMyResourcePathParam"},
		{"POST", "/pets", "postPets"},
		{"DELETE", "/pets/{petId}/toys/{toy_id}", "deletePetsPathPetIdToysPathToyId"},
		{"get", "/", "get"},
	}
	for _, tc := range cases {
		if got := OperationName(tc.verb, tc.path); got != tc.want {
			t.Errorf("OperationName(%q, %q) = %q, want %q", tc.verb, tc.path, got, tc.want)
		}
	}
}

func TestToTypeNameAndIdentifier(t *testing.T) {
	t.Parallel()
	if got := ToTypeName("pet-store", "Type"); got != "PetStore" {
		t.Errorf("ToTypeName = %q", got)
	}
	if got := ToTypeName("404 error", "Type"); got != "T404Error" {
		t.Errorf("ToTypeName digit prefix = %q", got)
	}
	if got := ToTypeName("***", "Fallback"); got != "Fallback" {
		t.Errorf("ToTypeName fallback = %q", got)
	}
	if got := ToIdentifier("type", "v"); got != "type_" {
		t.Errorf("ToIdentifier reserved = %q", got)
	}
	if got := ToIdentifier("1st", "v"); got != "p1st" {
		t.Errorf("ToIdentifier digit prefix = %q", got)
	}
}

func TestToFileName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"my-resource":  "my_resource",
		"myResource":   "my_resource",
		"store_v2":     "store_v2",
		"Pets":         "pets",
		"order items2": "order_items2",
	}
	for in, want := range cases {
		if got := ToFileName(in); got != want {
			t.Errorf("ToFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
