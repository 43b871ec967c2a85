// Package naming turns arbitrary document identifiers (paths, schema names,
// parameter names) into identifiers that are safe to emit as Go code.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// goReservedWords holds the Go keywords. Predeclared identifiers such as
// "error" or "string" may be shadowed and are not listed.
var goReservedWords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// ToCodeName normalizes raw into a lowerCamel identifier.
//
// Every maximal run of characters that are neither letters nor digits is a
// delimiter. Empty fragments are dropped, the first letter of every fragment
// but the first is capitalized, the first letter of the first fragment is
// lower-cased and the fragments are concatenated. The function is idempotent
// on its own output.
func ToCodeName(raw string) string {
	fragments := Fragments(raw)
	var b strings.Builder
	for i, f := range fragments {
		if i == 0 {
			b.WriteString(lowerFirst(f))
			continue
		}
		b.WriteString(upperFirst(f))
	}
	return b.String()
}

// Fragments splits raw on runs of non-alphanumeric characters.
func Fragments(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// OperationName combines an HTTP verb and a path template into a method
// identifier. Path placeholders contribute "path" followed by their name, so
// GET /my-resource/{param} becomes getMyResourcePathParam.
func OperationName(verb, path string) string {
	path = placeholderRe.ReplaceAllString(path, "/path-$1/")
	return ToCodeName(strings.ToLower(verb) + " " + path)
}

// ToTypeName returns an exported (UpperCamel) Go type name for raw. Names that
// would start with a digit are prefixed with "T"; an empty result becomes fallback.
func ToTypeName(raw, fallback string) string {
	name := Export(ToCodeName(raw))
	if name == "" {
		return fallback
	}
	if r, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(r) {
		name = "T" + name
	}
	return name
}

// ToIdentifier returns an unexported Go identifier for raw, suitable for
// function parameters and locals.
func ToIdentifier(raw, fallback string) string {
	name := ToCodeName(raw)
	if name == "" {
		return fallback
	}
	if r, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(r) {
		name = "p" + name
	}
	return EscapeReserved(name)
}

// ToFileName returns a snake_case base name for raw: "my-resource" and
// "myResource" both become "my_resource".
func ToFileName(raw string) string {
	var b strings.Builder
	for i, f := range Fragments(ToCodeName(raw)) {
		if i > 0 {
			b.WriteByte('_')
		}
		var prev rune
		for j, r := range f {
			if j > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prev = r
		}
	}
	return cases.Lower(language.Und).String(b.String())
}

// EscapeReserved appends an underscore to Go keywords.
func EscapeReserved(name string) string {
	if goReservedWords[name] {
		return name + "_"
	}
	return name
}

// Export capitalizes the first letter of name.
func Export(name string) string {
	return upperFirst(name)
}

// upperFirst title-cases only the leading rune; the rest of s is untouched.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Title(language.Und, cases.NoLower).String(string(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Lower(language.Und).String(string(r)) + s[size:]
}
