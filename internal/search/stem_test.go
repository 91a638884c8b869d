package search

import (
	"reflect"
	"testing"

	"github.com/nylinary/openlines-tg/internal/types"
)

func TestNormalize(t *testing.T) {
	if got := Normalize("ЛосоСЬ копчЁный"); got != "лосось копченый" {
		t.Fatalf("Normalize() = %q", got)
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "punctuation_stripped",
			in:   "Краб, камчатский (живой)!",
			want: []string{"краб", "камчатский", "живой"},
		},
		{
			name: "hyphen_kept_inside_words",
			in:   "ассорти GRB-100",
			want: []string{"ассорти", "grb-100"},
		},
		{
			name: "yo_folded",
			in:   "Гребешок копчёный",
			want: []string{"гребешок", "копченый"},
		},
		{
			name: "empty",
			in:   "  \t ",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.in)
			if !reflect.DeepEqual(got, tc.want) && !(len(got) == 0 && len(tc.want) == 0) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestStemMatch(t *testing.T) {
	cases := []struct {
		name  string
		query string
		stems []string
		want  bool
	}{
		{"exact", "краб", []string{"краб", "палочк"}, true},
		{"no_match", "икр", []string{"краб", "палочк"}, false},
		{"prefix_query_shorter", "краб", []string{"крабов"}, true},
		{"prefix_query_longer", "крабов", []string{"краб"}, true},
		// Snowball keeps the nominative-singular suffix that oblique cases
		// lose: гребешок vs гребешк share 6 >= min(7,8)-1 chars.
		{"shared_root", "гребешк", []string{"гребешок"}, true},
		{"shared_root_insufficient_overlap", "палочк", []string{"палтус"}, false},
		{"short_stem_exact_only", "ик", []string{"ик"}, true},
		{"short_stem_no_prefix", "ик", []string{"икра"}, false},
		{"empty_stems", "краб", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StemMatch(tc.query, tc.stems); got != tc.want {
				t.Fatalf("StemMatch(%q, %v) = %v, want %v", tc.query, tc.stems, got, tc.want)
			}
		})
	}
}

// The stemmer and the match heuristics together must bridge morphological
// variants; this is the property the search pipeline depends on. Heuristic,
// not exhaustive.
func TestStemmerBridgesMorphologicalVariants(t *testing.T) {
	cases := []struct {
		name  string
		query string
		title string
	}{
		{"grebeshki_to_grebeshok", "гребешки", "Гребешок морской"},
		{"krabov_to_krab", "крабов", "Краб камчатский"},
		{"krevetku_to_krevetki", "креветку", "Креветки северные"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queryStems := StemText(tc.query)
			titleStems := StemText(tc.title)
			if len(queryStems) == 0 {
				t.Fatalf("no stems for query %q", tc.query)
			}
			if !StemMatch(queryStems[0], titleStems) {
				t.Fatalf("stem %q does not match title stems %v", queryStems[0], titleStems)
			}
		})
	}
}

func TestBuildEntrySplitsTitleFromOtherFields(t *testing.T) {
	p := types.Product{
		Title:    "Краб камчатский",
		Text:     "живой",
		Descr:    "крупный",
		SKU:      "KRB-1",
		Category: "krab",
		Characteristics: []types.Characteristic{
			{Title: "Вес", Value: "1 кг"},
		},
	}
	e := BuildEntry(p)

	if len(e.TitleStems) != 2 {
		t.Fatalf("title stems = %v, want 2 entries", e.TitleStems)
	}
	if !StemMatch(StemText("живая")[0], e.OtherStems) {
		t.Fatalf("other stems %v must cover the text field", e.OtherStems)
	}
	if !StemMatch(StemText("вес")[0], e.OtherStems) {
		t.Fatalf("other stems %v must cover characteristic titles", e.OtherStems)
	}
}
