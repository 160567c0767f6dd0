package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

// RejectionReason categorizes why a deal was filtered. Reasons feed the run
// log, not the published artifacts.
type RejectionReason string

const (
	ReasonStructural     RejectionReason = "structural"
	ReasonPriceBounds    RejectionReason = "price_bounds"
	ReasonDiscountBounds RejectionReason = "discount_bounds"
	ReasonNotAMarkdown   RejectionReason = "not_a_markdown"
	ReasonExcludedTerm   RejectionReason = "excluded_term"
)

// Bounds are the sanity gates on validated deals. Zero values fall back to
// the defaults below.
type Bounds struct {
	MinSalePrice       float64
	MaxSalePrice       float64
	MinDiscountPercent int
	MaxDiscountPercent int
}

const (
	defaultMinSalePrice = 10
	defaultMaxSalePrice = 1000
	defaultMinDiscount  = 5
	defaultMaxDiscount  = 95
)

// structuralDeal mirrors the required-field subset of a deal for the
// struct-tag validator.
type structuralDeal struct {
	ListingName string `validate:"required,min=3"`
	Store       string `validate:"required"`
	ListingURL  string `validate:"required,url"`
}

// excludedTerms drop listings that are not adult running shoes. Matched on
// word boundaries so "kids" never hits "Skids-free outsole".
var excludedTerms = []string{
	"apparel", "sock", "socks", "shirt", "shorts", "tights", "jacket", "vest",
	"hat", "cap", "gloves", "accessory", "accessories", "insole", "insoles",
	"hydration", "bottle", "flask", "nutrition", "gel", "chews",
	"kids", "kid's", "youth", "junior", "toddler", "infant",
	"gift card", "sold out", "out of stock",
}

type Validator struct {
	check   *validator.Validate
	bounds  Bounds
	exclude *regexp.Regexp
}

func New(bounds Bounds) *Validator {
	if bounds.MinSalePrice <= 0 {
		bounds.MinSalePrice = defaultMinSalePrice
	}
	if bounds.MaxSalePrice <= 0 {
		bounds.MaxSalePrice = defaultMaxSalePrice
	}
	if bounds.MinDiscountPercent <= 0 {
		bounds.MinDiscountPercent = defaultMinDiscount
	}
	if bounds.MaxDiscountPercent <= 0 {
		bounds.MaxDiscountPercent = defaultMaxDiscount
	}

	escaped := make([]string, len(excludedTerms))
	for i, term := range excludedTerms {
		escaped[i] = regexp.QuoteMeta(term)
	}
	pattern := `(?i)\b(` + strings.Join(escaped, "|") + `)\b`

	return &Validator{
		check:   validator.New(),
		bounds:  bounds,
		exclude: regexp.MustCompile(pattern),
	}
}

// Validate returns the subset of deals that pass every gate, preserving
// input order. Rejections are tallied by reason.
func (v *Validator) Validate(deals []catalog.Deal) ([]catalog.Deal, map[RejectionReason]int) {
	kept := make([]catalog.Deal, 0, len(deals))
	rejected := make(map[RejectionReason]int)

	for _, deal := range deals {
		if reason, ok := v.Check(&deal); !ok {
			rejected[reason]++
			continue
		}
		kept = append(kept, deal)
	}
	return kept, rejected
}

// Check runs one deal through the structural, numeric, and vocabulary gates.
func (v *Validator) Check(deal *catalog.Deal) (RejectionReason, bool) {
	structural := structuralDeal{
		ListingName: deal.ListingName,
		Store:       deal.Store,
		ListingURL:  deal.ListingURL,
	}
	if err := v.check.Struct(structural); err != nil {
		return ReasonStructural, false
	}

	sale, okSale := deal.SaleAnchor()
	_, okOriginal := deal.OriginalAnchor()
	if !okSale || !okOriginal {
		return ReasonStructural, false
	}
	if sale < v.bounds.MinSalePrice || sale > v.bounds.MaxSalePrice {
		return ReasonPriceBounds, false
	}

	discount, ok := deal.EffectiveDiscount()
	if !ok {
		return ReasonNotAMarkdown, false
	}
	if discount < v.bounds.MinDiscountPercent || discount > v.bounds.MaxDiscountPercent {
		return ReasonDiscountBounds, false
	}

	if v.exclude.MatchString(deal.ListingName) {
		return ReasonExcludedTerm, false
	}
	return "", true
}
