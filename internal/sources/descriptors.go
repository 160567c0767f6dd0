package sources

import "strings"

// Descriptor identifies one retail source snapshot segment. Several
// descriptors may share an ID when a retailer is scraped in segments
// (typically by gender); their counts and timestamps accumulate under
// the shared ID.
type Descriptor struct {
	ID          string
	DisplayName string
	SnapshotURL string
}

// DefaultRegistry returns the full source list with snapshot locations
// rooted at baseURL.
func DefaultRegistry(baseURL string) []Descriptor {
	baseURL = strings.TrimRight(baseURL, "/")
	segment := func(id, display, slug string) Descriptor {
		return Descriptor{
			ID:          id,
			DisplayName: display,
			SnapshotURL: baseURL + "/" + slug + ".json",
		}
	}

	return []Descriptor{
		segment("running-warehouse", "Running Warehouse", "running-warehouse-mens"),
		segment("running-warehouse", "Running Warehouse", "running-warehouse-womens"),
		segment("road-runner-sports", "Road Runner Sports", "road-runner-sports"),
		segment("fleet-feet", "Fleet Feet", "fleet-feet"),
		segment("brooks-outlet", "Brooks Outlet", "brooks-outlet"),
		segment("saucony-sale", "Saucony", "saucony-sale"),
		segment("hoka-clearance", "HOKA", "hoka-clearance"),
		segment("nike-sale", "Nike", "nike-sale-mens"),
		segment("nike-sale", "Nike", "nike-sale-womens"),
		segment("adidas-outlet", "Adidas", "adidas-outlet"),
		segment("new-balance-sale", "New Balance", "new-balance-sale"),
		segment("asics-outlet", "ASICS", "asics-outlet"),
		segment("altra-deals", "Altra", "altra-deals"),
		segment("on-running-sale", "On", "on-running-sale"),
		segment("mizuno-sale", "Mizuno", "mizuno-sale"),
		segment("topo-athletic", "Topo Athletic", "topo-athletic"),
		segment("rei-outlet", "REI Outlet", "rei-outlet"),
		segment("zappos-sale", "Zappos", "zappos-sale"),
		segment("holabird-sports", "Holabird Sports", "holabird-sports"),
		segment("jackrabbit", "JackRabbit", "jackrabbit"),
		segment("marathon-sports", "Marathon Sports", "marathon-sports"),
	}
}
