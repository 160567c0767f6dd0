package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

// Status grades a store's data quality. Grades only escalate while a store
// is evaluated; critical is terminal.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const topBrandCount = 25

// Quality thresholds, expressed as fractions of a store's deals.
const (
	unknownBrandCritical = 0.50
	unknownBrandWarning  = 0.20
	missingImageWarning  = 0.30
	missingURLWarning    = 0.10
	missingModelWarning  = 0.30
	minHealthyDealCount  = 5
)

// StoreReport summarizes one store's contribution and data quality.
type StoreReport struct {
	Store               string   `json:"store"`
	DealCount           int      `json:"dealCount"`
	Status              Status   `json:"status"`
	Issues              []string `json:"issues,omitempty"`
	AvgDiscountPercent  float64  `json:"avgDiscountPercent"`
	AvgDollarSavings    float64  `json:"avgDollarSavings"`
	UnknownBrandPercent float64  `json:"unknownBrandPercent"`
	MissingImagePercent float64  `json:"missingImagePercent"`
	MissingURLPercent   float64  `json:"missingURLPercent"`
	MissingModelPercent float64  `json:"missingModelPercent"`
}

// BrandReport rolls up deal counts, discount depth, and the observed price
// band per brand. Unknown-brand deals are excluded from brand reporting.
type BrandReport struct {
	Brand              string  `json:"brand"`
	DealCount          int     `json:"dealCount"`
	AvgDiscountPercent float64 `json:"avgDiscountPercent"`
	MinSalePrice       float64 `json:"minSalePrice"`
	MaxSalePrice       float64 `json:"maxSalePrice"`
}

// Pick is one globally selected deal plus the metric that won it the slot.
type Pick struct {
	Deal   catalog.Deal `json:"deal"`
	Metric float64      `json:"metric"`
}

// Picks are the headline selections surfaced on the stats artifact.
type Picks struct {
	BestPercentOff    *Pick `json:"bestPercentOff"`
	BestDollarSavings *Pick `json:"bestDollarSavings"`
	LowestPrice       *Pick `json:"lowestPrice"`
	BestValue         *Pick `json:"bestValue"`
}

// HistogramBucket is one sale-price band.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report is the published stats artifact; fully replaced on every run.
type Report struct {
	GeneratedAt    time.Time         `json:"generatedAt"`
	TotalDeals     int               `json:"totalDeals"`
	Stores         []StoreReport     `json:"stores"`
	Brands         []BrandReport     `json:"brands"`
	Picks          Picks             `json:"picks"`
	PriceHistogram []HistogramBucket `json:"priceHistogram"`
}

// Build computes the stats report from the final validated, deduplicated
// deal set. Output ordering is deterministic regardless of input order.
func Build(deals []catalog.Deal, now time.Time) *Report {
	return &Report{
		GeneratedAt:    now,
		TotalDeals:     len(deals),
		Stores:         buildStoreReports(deals),
		Brands:         buildBrandReports(deals),
		Picks:          buildPicks(deals),
		PriceHistogram: buildHistogram(deals),
	}
}

type storeTally struct {
	count        int
	unknownBrand int
	missingImage int
	missingURL   int
	missingModel int
	discountSum  int
	savingsSum   float64
	discounted   int
}

func buildStoreReports(deals []catalog.Deal) []StoreReport {
	tallies := make(map[string]*storeTally)
	for i := range deals {
		deal := &deals[i]
		tally := tallies[deal.Store]
		if tally == nil {
			tally = &storeTally{}
			tallies[deal.Store] = tally
		}
		tally.count++
		if deal.Brand == "" || deal.Brand == "Unknown" {
			tally.unknownBrand++
		}
		if !deal.HasUsableImage() {
			tally.missingImage++
		}
		if deal.ListingURL == "" {
			tally.missingURL++
		}
		if deal.Model == "" {
			tally.missingModel++
		}
		if discount, ok := deal.EffectiveDiscount(); ok {
			tally.discountSum += discount
			tally.discounted++
		}
		if savings, ok := deal.DollarSavings(); ok && savings > 0 {
			tally.savingsSum += savings
		}
	}

	reports := make([]StoreReport, 0, len(tallies))
	for store, tally := range tallies {
		reports = append(reports, gradeStore(store, tally))
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Store < reports[j].Store })
	return reports
}

// gradeStore applies the quality thresholds with monotonic escalation. A
// later check can worsen the grade but never improve it.
func gradeStore(store string, tally *storeTally) StoreReport {
	report := StoreReport{
		Store:     store,
		DealCount: tally.count,
		Status:    StatusHealthy,
	}
	if tally.count == 0 {
		report.Status = StatusCritical
		report.Issues = append(report.Issues, "no deals")
		return report
	}

	total := float64(tally.count)
	if tally.discounted > 0 {
		report.AvgDiscountPercent = float64(tally.discountSum) / float64(tally.discounted)
	}
	report.AvgDollarSavings = tally.savingsSum / total
	report.UnknownBrandPercent = 100 * float64(tally.unknownBrand) / total
	report.MissingImagePercent = 100 * float64(tally.missingImage) / total
	report.MissingURLPercent = 100 * float64(tally.missingURL) / total
	report.MissingModelPercent = 100 * float64(tally.missingModel) / total

	escalate := func(to Status, issue string) {
		report.Issues = append(report.Issues, issue)
		if report.Status == StatusCritical {
			return
		}
		if to == StatusCritical || report.Status == StatusHealthy {
			report.Status = to
		}
	}

	unknownFrac := float64(tally.unknownBrand) / total
	switch {
	case unknownFrac > unknownBrandCritical:
		escalate(StatusCritical, fmt.Sprintf("unknown brand on %.0f%% of deals", report.UnknownBrandPercent))
	case unknownFrac > unknownBrandWarning:
		escalate(StatusWarning, fmt.Sprintf("unknown brand on %.0f%% of deals", report.UnknownBrandPercent))
	}
	if float64(tally.missingImage)/total > missingImageWarning {
		escalate(StatusWarning, fmt.Sprintf("missing image on %.0f%% of deals", report.MissingImagePercent))
	}
	if float64(tally.missingURL)/total > missingURLWarning {
		escalate(StatusWarning, fmt.Sprintf("missing url on %.0f%% of deals", report.MissingURLPercent))
	}
	if float64(tally.missingModel)/total > missingModelWarning {
		escalate(StatusWarning, fmt.Sprintf("missing model on %.0f%% of deals", report.MissingModelPercent))
	}
	if tally.count < minHealthyDealCount {
		escalate(StatusWarning, fmt.Sprintf("only %d deals", tally.count))
	}
	return report
}

type brandTally struct {
	count        int
	discountSum  int
	discounted   int
	minSalePrice float64
	maxSalePrice float64
}

func buildBrandReports(deals []catalog.Deal) []BrandReport {
	tallies := make(map[string]*brandTally)
	for i := range deals {
		deal := &deals[i]
		if deal.Brand == "" || deal.Brand == "Unknown" {
			continue
		}
		tally := tallies[deal.Brand]
		if tally == nil {
			tally = &brandTally{}
			tallies[deal.Brand] = tally
		}
		tally.count++
		if discount, ok := deal.EffectiveDiscount(); ok {
			tally.discountSum += discount
			tally.discounted++
		}
		if sale, ok := deal.SaleAnchor(); ok {
			if tally.minSalePrice == 0 || sale < tally.minSalePrice {
				tally.minSalePrice = sale
			}
			if sale > tally.maxSalePrice {
				tally.maxSalePrice = sale
			}
		}
	}

	reports := make([]BrandReport, 0, len(tallies))
	for brand, tally := range tallies {
		report := BrandReport{
			Brand:        brand,
			DealCount:    tally.count,
			MinSalePrice: tally.minSalePrice,
			MaxSalePrice: tally.maxSalePrice,
		}
		if tally.discounted > 0 {
			report.AvgDiscountPercent = float64(tally.discountSum) / float64(tally.discounted)
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].DealCount != reports[j].DealCount {
			return reports[i].DealCount > reports[j].DealCount
		}
		return reports[i].Brand < reports[j].Brand
	})
	if len(reports) > topBrandCount {
		reports = reports[:topBrandCount]
	}
	return reports
}

// buildPicks selects the headline deals in a single pass. Ties keep the
// first-seen deal, so input order (stable across the pipeline) decides.
func buildPicks(deals []catalog.Deal) Picks {
	var picks Picks
	for i := range deals {
		deal := deals[i]
		discount, hasDiscount := deal.EffectiveDiscount()
		sale, hasSale := deal.SaleAnchor()
		savings, hasSavings := deal.DollarSavings()

		if hasDiscount {
			metric := float64(discount)
			if picks.BestPercentOff == nil || metric > picks.BestPercentOff.Metric {
				picks.BestPercentOff = &Pick{Deal: deal, Metric: metric}
			}
		}
		if hasSavings && savings > 0 {
			if picks.BestDollarSavings == nil || savings > picks.BestDollarSavings.Metric {
				picks.BestDollarSavings = &Pick{Deal: deal, Metric: savings}
			}
		}
		if hasSale {
			if picks.LowestPrice == nil || sale < picks.LowestPrice.Metric {
				picks.LowestPrice = &Pick{Deal: deal, Metric: sale}
			}
		}
		if hasDiscount && hasSavings && savings > 0 {
			score := float64(discount) + 0.5*savings
			if picks.BestValue == nil || score > picks.BestValue.Metric {
				picks.BestValue = &Pick{Deal: deal, Metric: score}
			}
		}
	}
	return picks
}

var histogramBounds = []struct {
	label string
	upper float64
}{
	{"under50", 50},
	{"50to74", 75},
	{"75to99", 100},
	{"100to124", 125},
	{"125to149", 150},
}

func buildHistogram(deals []catalog.Deal) []HistogramBucket {
	buckets := make([]HistogramBucket, 0, len(histogramBounds)+1)
	for _, bound := range histogramBounds {
		buckets = append(buckets, HistogramBucket{Label: bound.label})
	}
	buckets = append(buckets, HistogramBucket{Label: "150plus"})

	for i := range deals {
		sale, ok := deals[i].SaleAnchor()
		if !ok {
			continue
		}
		placed := false
		for idx, bound := range histogramBounds {
			if sale < bound.upper {
				buckets[idx].Count++
				placed = true
				break
			}
		}
		if !placed {
			buckets[len(buckets)-1].Count++
		}
	}
	return buckets
}
