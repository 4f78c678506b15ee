package hashing

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCanonicalizeMatchesPythonDumps(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{
			name: "nested mapping with escapes",
			value: map[string]any{
				"b": 1,
				"a": []any{1.0, "é", nil, true, "😀", "<&>/\x7f\x01\n"},
			},
			want: `{"a": [1.0, "\u00e9", null, true, "\ud83d\ude00", "<&>/\u007f\u0001\n"], "b": 1}`,
		},
		{
			name:  "float forms",
			value: []float64{1e16, 1e-5, 0.0001, 2.5e15, 123.456, math.Copysign(0, -1), 1.2345678901234568e+17, 100},
			want:  `[1e+16, 1e-05, 0.0001, 2500000000000000.0, 123.456, -0.0, 1.2345678901234568e+17, 100.0]`,
		},
		{
			name:  "json numbers keep int vs float",
			value: []any{json.Number("8192"), json.Number("1.0"), json.Number("1e2")},
			want:  `[8192, 1.0, 100.0]`,
		},
		{
			name:  "empty containers",
			value: map[string]any{"sequences": []any{}, "meta": map[string]any{}},
			want:  `{"meta": {}, "sequences": []}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.value)
			if err != nil {
				t.Fatalf("Canonicalize: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("Canonicalize =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestCanonicalizeStructUsesJSONTags(t *testing.T) {
	type creator struct {
		Name    string `json:"name"`
		Website string `json:"website,omitempty"`
	}
	got, err := Canonicalize(creator{Name: "Ana"})
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(got) != `{"name": "Ana"}` {
		t.Fatalf("unexpected struct encoding %s", got)
	}
}

func TestCanonicalizeRejectsNonStringKeys(t *testing.T) {
	if _, err := Canonicalize(map[int]string{1: "a"}); err == nil {
		t.Fatal("expected error for integer keys")
	}
}
