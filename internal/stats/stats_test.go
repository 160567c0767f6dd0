package stats

import (
	"testing"
	"time"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func dealWith(store, brand string, sale, original float64, discount int) catalog.Deal {
	return catalog.Deal{
		ListingName:     brand + " shoe",
		Brand:           brand,
		Model:           "model",
		Store:           store,
		ListingURL:      "https://example.com/" + brand,
		ImageURL:        "https://example.com/" + brand + ".jpg",
		SalePrice:       ptr(sale),
		OriginalPrice:   ptr(original),
		DiscountPercent: ptr(discount),
	}
}

func TestBuildTotalsAndOrdering(t *testing.T) {
	now := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	deals := []catalog.Deal{
		dealWith("Zappos", "Brooks", 99, 140, 29),
		dealWith("Nike", "Nike", 89, 130, 32),
		dealWith("Nike", "Nike", 120, 160, 25),
	}

	report := Build(deals, now)
	if report.TotalDeals != 3 {
		t.Fatalf("expected totalDeals 3, got %d", report.TotalDeals)
	}
	if len(report.Stores) != 2 || report.Stores[0].Store != "Nike" || report.Stores[1].Store != "Zappos" {
		t.Fatalf("stores must be sorted by name: %+v", report.Stores)
	}
	if report.Brands[0].Brand != "Nike" || report.Brands[0].DealCount != 2 {
		t.Fatalf("brands must be sorted by count: %+v", report.Brands)
	}
	if report.Brands[0].MinSalePrice != 89 || report.Brands[0].MaxSalePrice != 120 {
		t.Fatalf("unexpected brand price band: %+v", report.Brands[0])
	}
	nike := report.Stores[0]
	if nike.AvgDiscountPercent != 28.5 {
		t.Fatalf("expected store avg discount 28.5, got %f", nike.AvgDiscountPercent)
	}
	// savings: (130-89) + (160-120) = 81 over 2 deals
	if nike.AvgDollarSavings != 40.5 {
		t.Fatalf("expected store avg savings 40.5, got %f", nike.AvgDollarSavings)
	}
}

func TestBrandsExcludeUnknown(t *testing.T) {
	report := Build([]catalog.Deal{
		dealWith("S", "Unknown", 50, 100, 50),
		dealWith("S", "", 50, 100, 50),
		dealWith("S", "Brooks", 99, 140, 29),
	}, time.Now())
	if len(report.Brands) != 1 || report.Brands[0].Brand != "Brooks" {
		t.Fatalf("unknown brands must not be reported: %+v", report.Brands)
	}
}

func TestStoreHealthEscalation(t *testing.T) {
	// 6 deals, 4 with unknown brand (67% > 50%): critical, and the later
	// missing-model warning must not downgrade it.
	deals := make([]catalog.Deal, 0, 6)
	for i := 0; i < 4; i++ {
		d := dealWith("Shady Store", "Unknown", 50, 100, 50)
		d.Model = ""
		deals = append(deals, d)
	}
	for i := 0; i < 2; i++ {
		deals = append(deals, dealWith("Shady Store", "Brooks", 50, 100, 50))
	}

	report := Build(deals, time.Now())
	store := report.Stores[0]
	if store.Status != StatusCritical {
		t.Fatalf("expected critical, got %s (issues: %v)", store.Status, store.Issues)
	}
	if len(store.Issues) < 2 {
		t.Fatalf("expected both issues recorded, got %v", store.Issues)
	}
}

func TestStoreHealthWarningThresholds(t *testing.T) {
	// 10 deals, 3 without brand (30%): warning band, not critical.
	deals := make([]catalog.Deal, 0, 10)
	for i := 0; i < 3; i++ {
		deals = append(deals, dealWith("Mid Store", "Unknown", 60, 100, 40))
	}
	for i := 0; i < 7; i++ {
		deals = append(deals, dealWith("Mid Store", "Saucony", 60, 100, 40))
	}

	report := Build(deals, time.Now())
	if report.Stores[0].Status != StatusWarning {
		t.Fatalf("expected warning, got %s", report.Stores[0].Status)
	}
}

func TestStoreHealthLowCountWarning(t *testing.T) {
	report := Build([]catalog.Deal{
		dealWith("Tiny Store", "Brooks", 99, 140, 29),
		dealWith("Tiny Store", "Saucony", 89, 130, 32),
	}, time.Now())
	store := report.Stores[0]
	if store.Status != StatusWarning {
		t.Fatalf("under 5 deals must warn, got %s", store.Status)
	}
}

func TestStoreHealthHealthy(t *testing.T) {
	deals := make([]catalog.Deal, 0, 6)
	for i := 0; i < 6; i++ {
		deals = append(deals, dealWith("Good Store", "Brooks", 99, 140, 29))
	}
	report := Build(deals, time.Now())
	if report.Stores[0].Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s (issues: %v)", report.Stores[0].Status, report.Stores[0].Issues)
	}
}

func TestPicksSinglePassFirstSeenTies(t *testing.T) {
	first := dealWith("A", "Brooks", 70, 140, 50)
	second := dealWith("B", "Saucony", 75, 150, 50)

	report := Build([]catalog.Deal{first, second}, time.Now())
	if report.Picks.BestPercentOff == nil {
		t.Fatal("expected a best-percent pick")
	}
	if report.Picks.BestPercentOff.Deal.Store != "A" {
		t.Fatal("equal discount must keep the first-seen deal")
	}
	// Dollar savings: A saves 70, B saves 75.
	if report.Picks.BestDollarSavings.Deal.Store != "B" {
		t.Fatal("expected B to win dollar savings")
	}
	if report.Picks.LowestPrice.Deal.Store != "A" {
		t.Fatal("expected A to win lowest price")
	}
}

func TestBestValueBlendsPercentAndDollars(t *testing.T) {
	// deep percent, shallow dollars: 60 + 0.5*30 = 75
	percentDeal := dealWith("A", "Brooks", 20, 50, 60)
	// shallow percent, deep dollars: 30 + 0.5*90 = 75 -> tie, first seen wins
	dollarDeal := dealWith("B", "Saucony", 210, 300, 30)
	// clear winner: 50 + 0.5*100 = 100
	winner := dealWith("C", "HOKA", 100, 200, 50)

	report := Build([]catalog.Deal{percentDeal, dollarDeal, winner}, time.Now())
	if report.Picks.BestValue.Deal.Store != "C" {
		t.Fatalf("expected C as best value, got %s", report.Picks.BestValue.Deal.Store)
	}
	if report.Picks.BestValue.Metric != 100 {
		t.Fatalf("expected blended score 100, got %f", report.Picks.BestValue.Metric)
	}
}

func TestPicksSkipNonMarkdowns(t *testing.T) {
	flat := dealWith("A", "Brooks", 140, 140, 0)
	flat.DiscountPercent = nil

	report := Build([]catalog.Deal{flat}, time.Now())
	if report.Picks.BestPercentOff != nil || report.Picks.BestDollarSavings != nil || report.Picks.BestValue != nil {
		t.Fatal("non-markdown deals must not win discount-based picks")
	}
	if report.Picks.LowestPrice == nil {
		t.Fatal("lowest price only needs a sale signal")
	}
}

func TestHistogramBuckets(t *testing.T) {
	deals := []catalog.Deal{
		dealWith("S", "A", 30, 60, 50),
		dealWith("S", "B", 50, 100, 50),
		dealWith("S", "C", 74.99, 150, 50),
		dealWith("S", "D", 99, 150, 34),
		dealWith("S", "E", 125, 200, 38),
		dealWith("S", "F", 149.99, 200, 25),
		dealWith("S", "G", 150, 250, 40),
		dealWith("S", "H", 400, 500, 20),
	}

	report := Build(deals, time.Now())
	counts := map[string]int{}
	total := 0
	for _, bucket := range report.PriceHistogram {
		counts[bucket.Label] = bucket.Count
		total += bucket.Count
	}
	if total != len(deals) {
		t.Fatalf("histogram must cover every priced deal: %d vs %d", total, len(deals))
	}
	if counts["under50"] != 1 || counts["50to74"] != 2 || counts["75to99"] != 1 {
		t.Fatalf("unexpected low buckets: %v", counts)
	}
	if counts["125to149"] != 2 || counts["150plus"] != 2 {
		t.Fatalf("unexpected high buckets: %v", counts)
	}
}

func TestRangeDealsUseAnchors(t *testing.T) {
	deal := catalog.Deal{
		ListingName:         "Saucony Endorphin Speed 4",
		Brand:               "Saucony",
		Model:               "Endorphin Speed 4",
		Store:               "Saucony",
		ListingURL:          "https://www.saucony.com/speed4",
		ImageURL:            "https://www.saucony.com/speed4.jpg",
		SalePriceLow:        ptr(89.0),
		SalePriceHigh:       ptr(119.0),
		OriginalPriceLow:    ptr(140.0),
		OriginalPriceHigh:   ptr(170.0),
		DiscountPercentUpTo: ptr(48),
	}
	report := Build([]catalog.Deal{deal}, time.Now())
	if report.Picks.LowestPrice == nil || report.Picks.LowestPrice.Metric != 89.0 {
		t.Fatal("range deal must anchor on its low sale bound")
	}
	if report.Picks.BestDollarSavings == nil || report.Picks.BestDollarSavings.Metric != 81.0 {
		t.Fatalf("range savings must be high original minus low sale, got %v", report.Picks.BestDollarSavings)
	}
}
