package normalize

import (
	"math"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

const (
	discountFloor   = 0
	discountCeiling = 95
)

// Normalize converts one raw source listing into a canonical deal for the
// given store. It returns nil when the listing has no usable title or no
// resolvable pricing on both sides.
func Normalize(raw catalog.RawListing, store string) *catalog.Deal {
	title := CleanTitle(firstString(raw, nameAliases))
	if title == "" {
		return nil
	}

	sale := firstNumber(raw, saleAliases)
	original := firstNumber(raw, originalAliases)
	saleLow, saleHigh := resolvePair(raw, saleLowAliases, saleHighAliases)
	origLow, origHigh := resolvePair(raw, originalLowAliases, originalHighAliases)

	sale = rejectNonPositive(sale)
	original = rejectNonPositive(original)

	deal := &catalog.Deal{
		ListingName: title,
		Brand:       inferBrand(firstString(raw, brandAliases), title),
		Model:       firstString(raw, modelAliases),
		Store:       store,
		ListingURL:  AbsolutizeURL(firstString(raw, urlAliases), store),
		ImageURL:    AbsolutizeURL(firstString(raw, imageAliases), store),
		Gender:      parseGender(firstString(raw, genderAliases)),
		ShoeType:    parseShoeType(firstString(raw, shoeTypeAliases)),
	}

	if saleLow != nil || origLow != nil {
		// Either side resolving to a range makes the whole deal range-shaped.
		// A single value on the other side collapses to an equal low/high pair.
		if saleLow == nil {
			saleLow, saleHigh = sale, sale
		}
		if origLow == nil {
			origLow, origHigh = original, original
		}
		if saleLow == nil || origHigh == nil {
			return nil
		}
		deal.SalePriceLow = saleLow
		deal.SalePriceHigh = saleHigh
		deal.OriginalPriceLow = origLow
		deal.OriginalPriceHigh = origHigh
		deal.DiscountPercentUpTo = discountPercent(*saleLow, *origHigh)
		return deal
	}

	if sale == nil || original == nil {
		return nil
	}
	deal.SalePrice = sale
	deal.OriginalPrice = original
	deal.DiscountPercent = discountPercent(*sale, *original)
	return deal
}

// resolvePair extracts a low/high pair. If exactly one bound is present the
// pair is unusable and both are discarded; an inverted pair is swapped.
func resolvePair(raw catalog.RawListing, lowAliases, highAliases []string) (*float64, *float64) {
	low := rejectNonPositive(firstNumber(raw, lowAliases))
	high := rejectNonPositive(firstNumber(raw, highAliases))
	if low == nil || high == nil {
		return nil, nil
	}
	if *low > *high {
		low, high = high, low
	}
	return low, high
}

func rejectNonPositive(value *float64) *float64 {
	if value == nil || *value <= 0 {
		return nil
	}
	return value
}

// discountPercent computes the rounded percentage markdown, clamped to
// [0, 95]. Nil when the sale signal does not undercut the original.
func discountPercent(sale, original float64) *int {
	if sale >= original {
		return nil
	}
	pct := int(math.Round(100 * (original - sale) / original))
	if pct < discountFloor {
		pct = discountFloor
	}
	if pct > discountCeiling {
		pct = discountCeiling
	}
	return &pct
}
