package daily

import (
	"sort"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

const (
	defaultSetSize = 12
	topSubsetCap   = 20
)

// Deal is the flattened display shape for the daily set. Range pricing is
// anchored to the low sale bound and high original bound.
type Deal struct {
	ListingName     string           `json:"listingName"`
	Brand           string           `json:"brand"`
	Model           string           `json:"model"`
	Store           string           `json:"store"`
	ListingURL      string           `json:"listingURL"`
	ImageURL        string           `json:"imageURL"`
	Gender          catalog.Gender   `json:"gender"`
	ShoeType        catalog.ShoeType `json:"shoeType"`
	SalePrice       float64          `json:"salePrice"`
	OriginalPrice   float64          `json:"originalPrice"`
	DiscountPercent int              `json:"discountPercent"`
}

// Set is the published daily-deals artifact. For a fixed day and a fixed
// deal pool it is byte-for-byte reproducible.
type Set struct {
	DaySeedUTC string `json:"daySeedUTC"`
	Deals      []Deal `json:"deals"`
}

// Sample picks the day's highlight set from the validated catalog. The date
// string is the sole randomness source, so repeated runs within one UTC day
// against an unchanged pool never flicker. setSize zero or below falls back
// to the default of 12; the set splits evenly across the three strata.
func Sample(deals []catalog.Deal, dateUTC string, setSize int) *Set {
	if setSize <= 0 {
		setSize = defaultSetSize
	}
	groupSize := setSize / 3
	pool := qualityPool(deals, setSize)

	seed := SeedFromDate(dateUTC)
	pickRNG := NewPRNG(seed)
	shuffleRNG := NewPRNG(seed * 2)

	if len(pool) < setSize {
		picks := append([]catalog.Deal(nil), pool...)
		shuffle(picks, shuffleRNG)
		return &Set{DaySeedUTC: dateUTC, Deals: flatten(picks)}
	}

	pickedURLs := make(map[string]struct{})
	picks := make([]catalog.Deal, 0, setSize)

	byDiscount := topBy(pool, func(d *catalog.Deal) float64 {
		discount, _ := d.EffectiveDiscount()
		return float64(discount)
	})
	picks = drawFrom(byDiscount, groupSize, pickRNG, pickedURLs, picks)

	bySavings := topBy(pool, func(d *catalog.Deal) float64 {
		savings, _ := d.DollarSavings()
		return savings
	})
	picks = drawFrom(bySavings, groupSize, pickRNG, pickedURLs, picks)

	remainder := make([]catalog.Deal, 0, len(pool))
	for _, deal := range pool {
		if _, taken := pickedURLs[dedupeURL(&deal)]; taken && deal.ListingURL != "" {
			continue
		}
		remainder = append(remainder, deal)
	}
	picks = drawFrom(remainder, setSize-2*groupSize, pickRNG, pickedURLs, picks)

	shuffle(picks, shuffleRNG)
	return &Set{DaySeedUTC: dateUTC, Deals: flatten(picks)}
}

// qualityPool keeps deals with a usable image and a genuine markdown. When
// that leaves fewer than a full set, the markdown requirement is dropped.
func qualityPool(deals []catalog.Deal, setSize int) []catalog.Deal {
	strict := make([]catalog.Deal, 0, len(deals))
	imageOnly := make([]catalog.Deal, 0, len(deals))
	for i := range deals {
		deal := deals[i]
		if !deal.HasUsableImage() {
			continue
		}
		imageOnly = append(imageOnly, deal)
		if deal.GenuineMarkdown() {
			strict = append(strict, deal)
		}
	}
	if len(strict) < setSize {
		return imageOnly
	}
	return strict
}

// topBy returns the 20 highest-metric deals. The sort is stable so equal
// metrics preserve pool order and the subset stays deterministic.
func topBy(pool []catalog.Deal, metric func(*catalog.Deal) float64) []catalog.Deal {
	sorted := append([]catalog.Deal(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(&sorted[i]) > metric(&sorted[j])
	})
	if len(sorted) > topSubsetCap {
		sorted = sorted[:topSubsetCap]
	}
	return sorted
}

// drawFrom picks up to n deals at random from candidates, skipping URLs
// chosen by earlier groups.
func drawFrom(candidates []catalog.Deal, n int, rng *PRNG, pickedURLs map[string]struct{}, picks []catalog.Deal) []catalog.Deal {
	available := make([]catalog.Deal, 0, len(candidates))
	for _, deal := range candidates {
		if deal.ListingURL != "" {
			if _, taken := pickedURLs[dedupeURL(&deal)]; taken {
				continue
			}
		}
		available = append(available, deal)
	}

	for len(picks) < cap(picks) && n > 0 && len(available) > 0 {
		idx := rng.Intn(len(available))
		deal := available[idx]
		available = append(available[:idx], available[idx+1:]...)
		picks = append(picks, deal)
		if deal.ListingURL != "" {
			pickedURLs[dedupeURL(&deal)] = struct{}{}
		}
		n--
	}
	return picks
}

func dedupeURL(deal *catalog.Deal) string {
	return deal.Store + "|" + deal.ListingURL
}

// shuffle is a Fisher-Yates pass driven by the sine generator.
func shuffle(deals []catalog.Deal, rng *PRNG) {
	for i := len(deals) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deals[i], deals[j] = deals[j], deals[i]
	}
}

func flatten(deals []catalog.Deal) []Deal {
	out := make([]Deal, 0, len(deals))
	for i := range deals {
		deal := &deals[i]
		sale, _ := deal.SaleAnchor()
		original, _ := deal.OriginalAnchor()
		discount, _ := deal.EffectiveDiscount()
		out = append(out, Deal{
			ListingName:     deal.ListingName,
			Brand:           deal.Brand,
			Model:           deal.Model,
			Store:           deal.Store,
			ListingURL:      deal.ListingURL,
			ImageURL:        deal.ImageURL,
			Gender:          deal.Gender,
			ShoeType:        deal.ShoeType,
			SalePrice:       sale,
			OriginalPrice:   original,
			DiscountPercent: discount,
		})
	}
	return out
}
