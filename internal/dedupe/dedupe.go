package dedupe

import (
	"strings"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

// Options tune deduplication. StrictMode additionally collapses deals that
// share a store, listing name, and image even when their URLs differ, which
// catches stores that mint per-variant URLs for one product.
type Options struct {
	StrictMode bool
}

// Deduplicate removes repeat listings, keeping the first occurrence in input
// order. The identity key is store plus trimmed listing URL; deals with an
// empty URL are never collapsed against each other since their keys would
// collide without describing the same product.
func Deduplicate(deals []catalog.Deal, opts Options) []catalog.Deal {
	seen := make(map[string]struct{}, len(deals))
	kept := make([]catalog.Deal, 0, len(deals))

	for _, deal := range deals {
		url := strings.TrimSpace(deal.ListingURL)
		if url == "" {
			if opts.StrictMode {
				key := strictKey(&deal)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			kept = append(kept, deal)
			continue
		}

		key := deal.Store + "|" + url
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if opts.StrictMode {
			strict := strictKey(&deal)
			if _, dup := seen[strict]; dup {
				continue
			}
			seen[strict] = struct{}{}
		}

		kept = append(kept, deal)
	}
	return kept
}

func strictKey(deal *catalog.Deal) string {
	return "strict|" + deal.Store + "|" + strings.ToLower(strings.TrimSpace(deal.ListingName)) + "|" + strings.TrimSpace(deal.ImageURL)
}
