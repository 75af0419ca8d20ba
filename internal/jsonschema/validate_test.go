package jsonschema

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestValidateObjectMatrix(t *testing.T) {
	t.Parallel()

	schema := &Object{
		Attributes: map[string]Attribute{
			"number": {Schema: &Number{Constraints: map[string]any{}}, Required: true},
		},
		AdditionalProperties: boolPtr(false),
	}
	doc := &Document{}

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"declared key", `{"number": 5}`, true},
		{"unknown key", `{"number": 5, "extra": 1}`, false},
		{"missing required key", `{}`, false},
		{"wrong kind", `[5]`, false},
		{"wrong attribute kind", `{"number": "5"}`, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Validate(doc, schema, decodeJSON(t, tt.value))
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Validate(%s) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	t.Run("additional properties tolerated", func(t *testing.T) {
		open := &Object{Attributes: schema.Attributes, AdditionalProperties: boolPtr(true)}
		got, err := Validate(doc, open, decodeJSON(t, `{"number": 5, "extra": 1}`))
		if err != nil || !got {
			t.Fatalf("Validate() = %v, %v; want true", got, err)
		}
	})

	t.Run("absent optional key skipped", func(t *testing.T) {
		opt := &Object{Attributes: map[string]Attribute{
			"number": {Schema: &Number{Constraints: map[string]any{}}},
		}}
		got, err := Validate(doc, opt, map[string]any{})
		if err != nil || !got {
			t.Fatalf("Validate() = %v, %v; want true", got, err)
		}
	})
}

func TestValidateNodes(t *testing.T) {
	t.Parallel()

	doc := &Document{Definitions: map[string]Node{
		"#/definitions/word": &String{Constraints: map[string]any{}},
	}}
	str := &String{Constraints: map[string]any{}}
	num := &Number{Constraints: map[string]any{}}

	tests := []struct {
		name  string
		node  Node
		value any
		want  bool
	}{
		{"any accepts everything", &Any{}, []any{1.0, "x"}, true},
		{"string", str, "x", true},
		{"string rejects number", str, 1.0, false},
		{"number from json.Number", num, jsonNumber("2.5"), true},
		{"integer accepts integral", &Integer{Constraints: map[string]any{}}, jsonNumber("3"), true},
		{"integer accepts integral float", &Integer{Constraints: map[string]any{}}, 3.0, true},
		{"integer rejects fraction", &Integer{Constraints: map[string]any{}}, jsonNumber("3.5"), false},
		{"boolean", &Boolean{Constraints: map[string]any{}}, false, true},
		{"null", &Null{Constraints: map[string]any{}}, nil, true},
		{"null rejects empty string", &Null{Constraints: map[string]any{}}, "", false},
		{"literal constraints not enforced", &String{Constraints: map[string]any{"maxLength": 1.0}}, "long", true},
		{"schema constraints chained", &String{Constraints: map[string]any{"pattern": &Enum{Values: []any{"a"}}}}, "b", false},
		{"enum compares numbers by value", &Enum{Values: []any{1.0}}, jsonNumber("1"), true},
		{"enum rejects", &Enum{Values: []any{"a", "b"}}, "c", false},
		{"enum objects", &Enum{Values: []any{map[string]any{"a": 1.0}}}, map[string]any{"a": jsonNumber("1")}, true},
		{"anyOf first match", &AnyOf{Branches: []Node{num, str}}, "x", true},
		{"anyOf none", &AnyOf{Branches: []Node{num, str}}, true, false},
		{"oneOf evaluated like anyOf", &OneOf{Branches: []Node{str, &Any{}}}, "x", true},
		{"allOf all", &AllOf{Branches: []Node{str, &Enum{Values: []any{"x"}}}}, "x", true},
		{"allOf one fails", &AllOf{Branches: []Node{str, &Enum{Values: []any{"y"}}}}, "x", false},
		{"ref resolved", &Ref{Ref: "#/definitions/word"}, "x", true},
		{"array elements", &Array{Constraints: map[string]any{"items": str, "minItems": 1.0}}, []any{"a", "b"}, true},
		{"array rejects element", &Array{Constraints: map[string]any{"items": str}}, []any{"a", 1.0}, false},
		{"empty array", &Array{Constraints: map[string]any{"items": str}}, []any{}, true},
		{"array list keyword", &Array{Constraints: map[string]any{"items": []Node{str, &Enum{Values: []any{"a"}}}}}, []any{"a"}, true},
		{"array rejects string", &Array{Constraints: map[string]any{"items": str}}, "abc", false},
		{"array rejects number", &Array{Constraints: map[string]any{"minItems": 1.0}}, 42.0, false},
		{"array rejects json number", &Array{Constraints: map[string]any{}}, jsonNumber("42"), false},
		{"array rejects boolean", &Array{Constraints: map[string]any{"items": &Any{}}}, true, false},
		{"array rejects null", &Array{Constraints: map[string]any{"items": &Any{}}}, nil, false},
		{"nested array elements", &Array{Constraints: map[string]any{"items": num}}, []any{[]any{1.0}, 2.0}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Validate(doc, tt.node, tt.value)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateArrayAgainstObject(t *testing.T) {
	t.Parallel()

	// An array schema applied to a single object checks the object against
	// its schema-valued keywords.
	item := &Object{
		Attributes:           map[string]Attribute{"type": {Schema: &Enum{Values: []any{"divider"}}, Required: true}},
		AdditionalProperties: boolPtr(false),
	}
	arr := &Array{Constraints: map[string]any{"items": item, "maxItems": 3.0}}

	ok, err := Validate(&Document{}, arr, decodeJSON(t, `{"type": "divider"}`))
	if err != nil || !ok {
		t.Fatalf("Validate(object) = %v, %v; want true", ok, err)
	}
	ok, err = Validate(&Document{}, arr, decodeJSON(t, `{"type": "card"}`))
	if err != nil || ok {
		t.Fatalf("Validate(other object) = %v, %v; want false", ok, err)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown ref is an error", func(t *testing.T) {
		_, err := Validate(&Document{}, &Ref{Ref: "#/definitions/missing"}, "x")
		if !errors.Is(err, ErrUnknownRef) {
			t.Fatalf("err = %v, want ErrUnknownRef", err)
		}
		var re *RefError
		if !errors.As(err, &re) || re.Ref != "#/definitions/missing" {
			t.Fatalf("err = %#v", err)
		}
	})

	t.Run("unknown ref below an object", func(t *testing.T) {
		obj := &Object{Attributes: map[string]Attribute{"a": {Schema: &Ref{Ref: "#/definitions/gone"}}}}
		_, err := Validate(&Document{}, obj, map[string]any{"a": 1.0})
		if !errors.Is(err, ErrUnknownRef) {
			t.Fatalf("err = %v, want ErrUnknownRef", err)
		}
	})

	t.Run("self reference without progress", func(t *testing.T) {
		doc := &Document{Definitions: map[string]Node{
			"#/definitions/loop": &AllOf{Branches: []Node{&Ref{Ref: "#/definitions/loop"}}},
		}}
		_, err := Validate(doc, &Ref{Ref: "#/definitions/loop"}, "x")
		if !errors.Is(err, ErrTooDeep) {
			t.Fatalf("err = %v, want ErrTooDeep", err)
		}
	})
}

func TestValidatorLogsRejections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	v := NewValidator(&Document{}, WithLogger(logger))

	ok, err := v.Validate(&String{Constraints: map[string]any{}}, 1.0)
	if err != nil || ok {
		t.Fatalf("Validate() = %v, %v", ok, err)
	}
	if !strings.Contains(buf.String(), "value rejected") || !strings.Contains(buf.String(), "expected string") {
		t.Fatalf("log = %q", buf.String())
	}
}

// deckCases are checked against both the subset validator and a complete
// JSON Schema implementation.
var deckCases = []struct {
	name  string
	value string
	want  bool
}{
	{"empty deck", `{"type": "deck", "cards": []}`, true},
	{"one card", `{"type": "deck", "title": "t", "cards": [{"type": "card", "rank": 3, "suit": "hearts"}]}`, true},
	{"card with note", `{"type": "deck", "cards": [{"type": "card", "rank": 1, "suit": "clubs", "note": "ace"}]}`, true},
	{"card with null note", `{"type": "deck", "cards": [{"type": "card", "rank": 1, "suit": "clubs", "note": null}]}`, true},
	{"divider", `{"type": "deck", "cards": [{"type": "divider", "label": "x"}]}`, true},
	{"nested piles", `{"type": "deck", "cards": [{"type": "pile", "cards": [{"type": "pile", "cards": [{"type": "card", "rank": 2, "suit": "spades", "face": false}]}]}]}`, true},
	{"fractional rank", `{"type": "deck", "cards": [{"type": "card", "rank": 3.5, "suit": "hearts"}]}`, false},
	{"unknown suit", `{"type": "deck", "cards": [{"type": "card", "rank": 3, "suit": "stars"}]}`, false},
	{"extra card key", `{"type": "deck", "cards": [{"type": "card", "rank": 3, "suit": "hearts", "joker": true}]}`, false},
	{"missing cards", `{"type": "deck"}`, false},
	{"wrong discriminant", `{"type": "pile", "cards": []}`, false},
	{"bad label", `{"type": "deck", "cards": [{"type": "divider", "label": 5}]}`, false},
	{"bad note", `{"type": "deck", "cards": [{"type": "card", "rank": 1, "suit": "clubs", "note": 5}]}`, false},
	{"cards not a list", `{"type": "deck", "cards": "many"}`, false},
	{"deep rejection", `{"type": "deck", "cards": [{"type": "pile", "cards": [{"type": "card", "rank": "two", "suit": "spades"}]}]}`, false},
	{"not an object", `"deck"`, false},
}

func TestValidateDeck(t *testing.T) {
	t.Parallel()

	doc, err := LoadDocument("testdata/deck.json")
	if err != nil {
		t.Fatal(err)
	}
	norm, err := Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}

	for _, d := range []struct {
		name string
		doc  *Document
	}{{"parsed", doc}, {"normalized", norm}} {
		v := NewValidator(d.doc)
		for _, tt := range deckCases {
			tt := tt
			t.Run(d.name+"/"+tt.name, func(t *testing.T) {
				got, err := v.ValidateTop(decodeJSON(t, tt.value))
				if err != nil {
					t.Fatalf("ValidateTop() error = %v", err)
				}
				if got != tt.want {
					t.Fatalf("ValidateTop(%s) = %v, want %v", tt.value, got, tt.want)
				}
			})
		}
	}
}

func TestValidateAgreesWithReference(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile("testdata/deck.json")
	if err != nil {
		t.Fatal(err)
	}
	ref, err := NewReference(raw)
	if err != nil {
		t.Fatalf("NewReference() error = %v", err)
	}
	doc, err := LoadDocument("testdata/deck.json")
	if err != nil {
		t.Fatal(err)
	}
	v := NewValidator(doc)

	for _, tt := range deckCases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			value := decodeJSON(t, tt.value)
			got, err := v.ValidateRef("deck", value)
			if err != nil {
				t.Fatal(err)
			}
			refErr := ref.Check("deck", value)
			if got != (refErr == nil) {
				t.Fatalf("subset validator = %v, reference = %v", got, refErr)
			}
		})
	}

	t.Run("tagged card", func(t *testing.T) {
		value := decodeJSON(t, `{"type": "card", "rank": 12, "suit": "diamonds", "face": true}`)
		if err := ref.Check("tagged_card", value); err != nil {
			t.Fatalf("reference rejected: %s", Explain(err))
		}

		// Unmerged, the empty object branch of the allOf rejects every key.
		got, err := v.ValidateRef("#/definitions/tagged_card", value)
		if err != nil {
			t.Fatal(err)
		}
		if got {
			t.Fatal("parsed tagged card accepted")
		}

		norm, err := Normalize(doc)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		got, err = NewValidator(norm).ValidateRef("#/definitions/tagged_card", value)
		if err != nil {
			t.Fatal(err)
		}
		if !got {
			t.Fatal("normalized tagged card rejected")
		}
	})
}
