package catalog

import (
	"strings"
	"time"
)

// RawListing is the untyped per-source record shape. It exists only at the
// ingestion boundary; nothing beyond the normalizer sees it.
type RawListing map[string]any

type Gender string

const (
	GenderMens    Gender = "mens"
	GenderWomens  Gender = "womens"
	GenderUnisex  Gender = "unisex"
	GenderUnknown Gender = "unknown"
)

type ShoeType string

const (
	ShoeTypeRoad    ShoeType = "road"
	ShoeTypeTrail   ShoeType = "trail"
	ShoeTypeTrack   ShoeType = "track"
	ShoeTypeUnknown ShoeType = "unknown"
)

// Deal is the canonical, per-listing record every source is normalized into.
// Pricing is carried in exactly one of two shapes: single (SalePrice,
// OriginalPrice, DiscountPercent) or range (the Low/High pairs plus
// DiscountPercentUpTo). The unused shape's fields are nil.
type Deal struct {
	ListingName string   `json:"listingName"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Store       string   `json:"store"`
	ListingURL  string   `json:"listingURL"`
	ImageURL    string   `json:"imageURL"`
	Gender      Gender   `json:"gender"`
	ShoeType    ShoeType `json:"shoeType"`

	SalePrice       *float64 `json:"salePrice"`
	OriginalPrice   *float64 `json:"originalPrice"`
	DiscountPercent *int     `json:"discountPercent"`

	SalePriceLow        *float64 `json:"salePriceLow"`
	SalePriceHigh       *float64 `json:"salePriceHigh"`
	OriginalPriceLow    *float64 `json:"originalPriceLow"`
	OriginalPriceHigh   *float64 `json:"originalPriceHigh"`
	DiscountPercentUpTo *int     `json:"discountPercentUpTo"`
}

// IsRange reports whether the deal carries range-shaped pricing.
func (d *Deal) IsRange() bool {
	return d != nil && d.SalePriceLow != nil
}

// SaleAnchor returns the single sale price, or the low bound for ranges.
func (d *Deal) SaleAnchor() (float64, bool) {
	if d == nil {
		return 0, false
	}
	if d.SalePrice != nil {
		return *d.SalePrice, true
	}
	if d.SalePriceLow != nil {
		return *d.SalePriceLow, true
	}
	return 0, false
}

// OriginalAnchor returns the single original price, or the high bound for ranges.
func (d *Deal) OriginalAnchor() (float64, bool) {
	if d == nil {
		return 0, false
	}
	if d.OriginalPrice != nil {
		return *d.OriginalPrice, true
	}
	if d.OriginalPriceHigh != nil {
		return *d.OriginalPriceHigh, true
	}
	return 0, false
}

// EffectiveDiscount returns DiscountPercent when set, else DiscountPercentUpTo.
func (d *Deal) EffectiveDiscount() (int, bool) {
	if d == nil {
		return 0, false
	}
	if d.DiscountPercent != nil {
		return *d.DiscountPercent, true
	}
	if d.DiscountPercentUpTo != nil {
		return *d.DiscountPercentUpTo, true
	}
	return 0, false
}

// DollarSavings returns original minus sale, anchored low-sale/high-original
// for ranges.
func (d *Deal) DollarSavings() (float64, bool) {
	sale, okSale := d.SaleAnchor()
	original, okOriginal := d.OriginalAnchor()
	if !okSale || !okOriginal {
		return 0, false
	}
	return original - sale, true
}

// GenuineMarkdown reports whether the sale signal actually undercuts the
// original signal.
func (d *Deal) GenuineMarkdown() bool {
	savings, ok := d.DollarSavings()
	return ok && savings > 0
}

// HasUsableImage reports whether the image URL is non-empty and not an
// obvious placeholder.
func (d *Deal) HasUsableImage() bool {
	if d == nil {
		return false
	}
	img := strings.ToLower(strings.TrimSpace(d.ImageURL))
	if img == "" {
		return false
	}
	if strings.HasPrefix(img, "data:") {
		return false
	}
	for _, marker := range []string{"placeholder", "no-image", "noimage", "missing.", "default.png"} {
		if strings.Contains(img, marker) {
			return false
		}
	}
	return true
}

// SourceMetadata accumulates per-source-id fetch outcomes across snapshot
// segments that share an id.
type SourceMetadata struct {
	SnapshotTimestamp time.Time `json:"snapshotTimestamp"`
	DurationMs        int64     `json:"durationMs"`
	AccumulatedCount  int       `json:"accumulatedCount"`
	AgeDays           float64   `json:"ageDays"`
	StaleExcluded     bool      `json:"staleExcluded"`
	FreshData         bool      `json:"freshData"`
}

// ScraperResult is the per-source outcome surfaced in the catalog artifact.
// A stale-excluded source still reports OK with its age; only its listings
// are withheld from the pool.
type ScraperResult struct {
	OK            bool    `json:"ok"`
	Error         string  `json:"error,omitempty"`
	Count         int     `json:"count"`
	DurationMs    int64   `json:"durationMs"`
	AgeDays       float64 `json:"ageDays"`
	StaleExcluded bool    `json:"staleExcluded"`
}

// SourceFreshness is the display-oriented recency row in the catalog artifact.
type SourceFreshness struct {
	Store            string    `json:"store"`
	StoreLastUpdated time.Time `json:"storeLastUpdated"`
	FreshData        bool      `json:"freshData"`
}

// Catalog is the published deals artifact; fully replaced on every run.
type Catalog struct {
	LastUpdated     time.Time                `json:"lastUpdated"`
	TotalDeals      int                      `json:"totalDeals"`
	DealsByStore    map[string]int           `json:"dealsByStore"`
	ScraperResults  map[string]ScraperResult `json:"scraperResults"`
	SourceFreshness []SourceFreshness        `json:"sourceFreshness"`
	Deals           []Deal                   `json:"deals"`
}

// UnalteredSnapshot is the pre-validation audit artifact.
type UnalteredSnapshot struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	Sources     map[string]SourceMetadata `json:"sources"`
	Deals       []Deal                    `json:"deals"`
}
