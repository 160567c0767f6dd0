package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

// Field aliases are priority-ordered: earlier names win. The lists carry
// every historical synonym the source snapshots have used.
var (
	nameAliases = []string{"listingName", "listing_name", "name", "title", "productName", "product_name"}

	saleAliases     = []string{"salePrice", "sale_price", "price", "currentPrice", "current_price", "dealPrice", "deal_price"}
	originalAliases = []string{"originalPrice", "original_price", "msrp", "compareAtPrice", "compare_at_price", "listPrice", "list_price", "regularPrice", "regular_price", "wasPrice", "was"}

	saleLowAliases      = []string{"salePriceLow", "sale_price_low", "priceLow", "price_low", "minPrice", "min_price"}
	saleHighAliases     = []string{"salePriceHigh", "sale_price_high", "priceHigh", "price_high", "maxPrice", "max_price"}
	originalLowAliases  = []string{"originalPriceLow", "original_price_low", "msrpLow", "msrp_low"}
	originalHighAliases = []string{"originalPriceHigh", "original_price_high", "msrpHigh", "msrp_high"}

	brandAliases = []string{"brand", "brandName", "brand_name", "manufacturer"}
	modelAliases = []string{"model", "modelName", "model_name", "shoeModel", "shoe_model"}

	urlAliases   = []string{"listingURL", "listingUrl", "listing_url", "url", "link", "productURL", "productUrl", "product_url", "href"}
	imageAliases = []string{"imageURL", "imageUrl", "image_url", "image", "img", "thumbnail", "imageSrc", "image_src"}

	genderAliases   = []string{"gender", "department", "category"}
	shoeTypeAliases = []string{"shoeType", "shoe_type", "type", "surface", "terrain"}
)

var currencyJunk = regexp.MustCompile(`[$€£]|usd|\s`)
var europeanDecimal = regexp.MustCompile(`^\d+,\d{2}$`)

// firstString returns the first non-empty string value among the aliases.
func firstString(raw catalog.RawListing, aliases []string) string {
	for _, key := range aliases {
		if value, ok := raw[key]; ok {
			if s, ok := value.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// firstNumber resolves the first alias that parses to a number. Sources send
// prices as JSON numbers, "$129.99" strings, and occasionally "129,99".
func firstNumber(raw catalog.RawListing, aliases []string) *float64 {
	for _, key := range aliases {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if parsed, ok := parseNumeric(value); ok {
			return &parsed
		}
	}
	return nil
}

func parseNumeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		cleaned := currencyJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(v)), "")
		if cleaned == "" {
			return 0, false
		}
		if europeanDecimal.MatchString(cleaned) {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
		dec, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, false
		}
		return dec.InexactFloat64(), true
	}
	return 0, false
}

func parseGender(value string) catalog.Gender {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "women") || strings.Contains(v, "wmns") || v == "w" || v == "f":
		return catalog.GenderWomens
	case strings.Contains(v, "unisex"):
		return catalog.GenderUnisex
	case strings.Contains(v, "men") || v == "m":
		return catalog.GenderMens
	default:
		return catalog.GenderUnknown
	}
}

func parseShoeType(value string) catalog.ShoeType {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "trail"):
		return catalog.ShoeTypeTrail
	case strings.Contains(v, "track") || strings.Contains(v, "spike"):
		return catalog.ShoeTypeTrack
	case strings.Contains(v, "road"):
		return catalog.ShoeTypeRoad
	default:
		return catalog.ShoeTypeUnknown
	}
}

// knownBrands backs brand inference from the listing title when the source
// omits an explicit brand field.
var knownBrands = []string{
	"Brooks", "Saucony", "HOKA", "Hoka", "Nike", "Adidas", "adidas",
	"New Balance", "ASICS", "Asics", "Altra", "On", "Mizuno",
	"Topo Athletic", "Salomon", "La Sportiva", "Karhu", "Diadora", "Puma",
	"Under Armour", "Reebok", "Skechers", "361", "Craft", "inov-8",
}

func inferBrand(brand, title string) string {
	if brand != "" {
		return brand
	}
	for _, candidate := range knownBrands {
		pattern := `(?i)\b` + regexp.QuoteMeta(candidate) + `\b`
		if matched, _ := regexp.MatchString(pattern, title); matched {
			return candidate
		}
	}
	return "Unknown"
}
