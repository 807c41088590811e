package search

import (
	"reflect"
	"testing"
)

func TestNormalizeKeyword(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"   ":              "",
		"  bolt  ":         "bolt",
		"hex   bolt\tM8\n": "hex bolt M8",
	}
	for in, want := range cases {
		if got := NormalizeKeyword(in); got != want {
			t.Errorf("NormalizeKeyword(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestContains_CaseInsensitiveSubstring(t *testing.T) {
	cases := []struct {
		fields []string
		kw     string
		want   bool
	}{
		{[]string{"Electric bill"}, "electric", true},
		{[]string{"Electric bill"}, "BILL", true},
		{[]string{"Electric bill"}, "  ric  b ", true},
		{[]string{"Water"}, "electric", false},
		{[]string{"", "SKU-001"}, "sku-0", true},
		{[]string{"ÉCROU M6"}, "écrou", true},
		{[]string{"Straße"}, "STRASSE", true},
		{nil, "x", false},
		{nil, "", true},
		{[]string{"anything"}, "   ", true},
	}
	for _, tc := range cases {
		if got := Contains(tc.fields, tc.kw); got != tc.want {
			t.Errorf("Contains(%q, %q) = %v; want %v", tc.fields, tc.kw, got, tc.want)
		}
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	type row struct{ name, sku string }
	items := []row{
		{"Hex bolt", "B-1"},
		{"Washer", "W-1"},
		{"Carriage bolt", "B-2"},
		{"Nut", "bolt-compatible"},
	}
	fields := func(r row) []string { return []string{r.name, r.sku} }

	got := Filter(items, "BOLT", fields)
	want := []row{items[0], items[2], items[3]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter = %+v; want %+v", got, want)
	}

	all := Filter(items, "", fields)
	if len(all) != len(items) {
		t.Fatalf("empty keyword should keep everything")
	}
	all[0].name = "changed"
	if items[0].name != "Hex bolt" {
		t.Fatalf("Filter must not alias the input")
	}
}

func TestMatchAny(t *testing.T) {
	if !MatchAny([]string{"a"}, nil) {
		t.Fatalf("empty want should match")
	}
	if !MatchAny([]string{"a", "b"}, []string{"x", "b"}) {
		t.Fatalf("expected OR match")
	}
	if MatchAny([]string{"a"}, []string{"x"}) {
		t.Fatalf("unexpected match")
	}
	if MatchAny(nil, []string{"x"}) {
		t.Fatalf("no values cannot match a non-empty set")
	}
}
