package tilda

import (
	"reflect"
	"testing"
)

func TestExtractStorePairs(t *testing.T) {
	cases := []struct {
		name string
		html string
		want []Pair
	}{
		{
			name: "recid_then_storepart",
			html: `<script>t_store_init({recid:'1467582211',storepart:'735258288902',size:500});</script>`,
			want: []Pair{{StorePartUID: "735258288902", RecID: "1467582211"}},
		},
		{
			name: "storepart_then_recid",
			html: `<script>var cfg = {storepart: "735258288902"; recid: "1467582211"};</script>`,
			want: []Pair{{StorePartUID: "735258288902", RecID: "1467582211"}},
		},
		{
			name: "duplicate_pairs_deduplicated",
			html: `recid:'1467582211',storepart:'735258288902'
recid:'1467582211',storepart:'735258288902'`,
			want: []Pair{{StorePartUID: "735258288902", RecID: "1467582211"}},
		},
		{
			name: "multiple_pairs_order_preserved",
			html: `recid:'1467582211',storepart:'735258288902'
recid:'1467582299',storepart:'735258288999'`,
			want: []Pair{
				{StorePartUID: "735258288902", RecID: "1467582211"},
				{StorePartUID: "735258288999", RecID: "1467582299"},
			},
		},
		{
			name: "loose_fallback_hex_storepart",
			html: `<script>
var storepartuid = 'a1b2c3d4-e5f6-7890';
</script>
<script>
var recid = '1467582211';
</script>`,
			want: []Pair{{StorePartUID: "a1b2c3d4-e5f6-7890", RecID: "1467582211"}},
		},
		{
			name: "nothing_embedded",
			html: `<html><body>Обычная страница без магазина</body></html>`,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractStorePairs(tc.html)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("extractStorePairs() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractStorePairsPrefersCombinedOverLoose(t *testing.T) {
	// When a combined pattern matches, the loose fallback must not add the
	// same identifiers again in a different pairing.
	html := `recid:'1467582211',storepart:'735258288902'
var storepartuid = 'deadbeef-0001';`
	got := extractStorePairs(html)
	want := []Pair{{StorePartUID: "735258288902", RecID: "1467582211"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extractStorePairs() = %v, want %v", got, want)
	}
}
