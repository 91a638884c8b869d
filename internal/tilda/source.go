// Package tilda is the catalog source adapter for a Tilda-hosted storefront.
// The store has no bulk-export API: product lists are served by the Tilda
// Store API, keyed by opaque (storepartuid, recid) identifier pairs that are
// only discoverable inside inline JS on the category pages. Everything
// page-structure-specific lives behind the Source interface so an upstream
// theme change means updating this one adapter.
package tilda

import "context"

// Pair identifies one catalog partition on the Tilda Store API.
type Pair struct {
	StorePartUID string
	RecID        string
}

// Source abstracts the upstream storefront.
type Source interface {
	// DiscoverPairs fetches a category page and extracts identifier pairs.
	// An empty slice with a nil error means "nothing found this run".
	DiscoverPairs(ctx context.Context, slug string) ([]Pair, error)

	// FetchProducts returns the raw product records for one pair. Records
	// stay untyped maps: the upstream mixes numeric and string field types.
	FetchProducts(ctx context.Context, pair Pair) ([]map[string]any, error)
}

// CategorySlugs is the closed, hand-maintained list of known categories.
// Order is preserved through scraping and therefore through catalog order.
var CategorySlugs = []string{
	"aktsii",
	"ikra",
	"krevetki",
	"grebeshok",
	"krab",
	"molluski",
	"ryba",
	"vyalenaya_i_kopchenaya_productsiya",
	"polufabrikaty",
	"bakaleya",
	"podarki",
	"raznoe",
}
