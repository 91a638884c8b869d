package tilda

import "regexp"

// Tilda embeds the identifiers in inline JS, e.g.
//
//	recid:'1467582211',storepart:'735258288902'
//
// in either field order depending on the page theme. Three strategies run in
// priority order; the last one pairs hex/UUID-style storepart tokens with
// recid tokens positionally (some themes use non-numeric storepart ids).
var (
	reRecThenStore = regexp.MustCompile(`(?i)recid\s*[:=]\s*['"]?(\d{5,})['"]?\s*[,;].*?storepart\s*[:=]\s*['"]?(\d{5,})['"]?`)
	reStoreThenRec = regexp.MustCompile(`(?i)storepart\s*[:=]\s*['"]?(\d{5,})['"]?\s*[,;].*?recid\s*[:=]\s*['"]?(\d{5,})['"]?`)
	reStoreLoose   = regexp.MustCompile(`(?i)storepart\w*\s*[:=]\s*['"]?([a-f0-9-]{8,})['"]?`)
	reRecIDLoose   = regexp.MustCompile(`(?i)recid\s*[:=]\s*['"]?(\d{5,})['"]?`)
)

// extractStorePairs pulls deduplicated (storepartuid, recid) pairs out of
// category page HTML, preserving first-seen order. Empty is not an error.
func extractStorePairs(html string) []Pair {
	var pairs []Pair
	seen := map[Pair]bool{}

	add := func(p Pair) {
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	for _, m := range reRecThenStore.FindAllStringSubmatch(html, -1) {
		add(Pair{StorePartUID: m[2], RecID: m[1]})
	}

	for _, m := range reStoreThenRec.FindAllStringSubmatch(html, -1) {
		add(Pair{StorePartUID: m[1], RecID: m[2]})
	}

	if len(pairs) == 0 {
		storeParts := reStoreLoose.FindAllStringSubmatch(html, -1)
		recIDs := reRecIDLoose.FindAllStringSubmatch(html, -1)
		for i := 0; i < len(storeParts) && i < len(recIDs); i++ {
			add(Pair{StorePartUID: storeParts[i][1], RecID: recIDs[i][1]})
		}
	}

	return pairs
}
