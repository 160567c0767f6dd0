package normalize

import "strings"

// storeBaseURLs maps store display names to the origin used to absolutize
// relative listing and image paths scraped from that store.
var storeBaseURLs = map[string]string{
	"Running Warehouse":  "https://www.runningwarehouse.com",
	"Road Runner Sports": "https://www.roadrunnersports.com",
	"Holabird Sports":    "https://www.holabirdsports.com",
	"Fleet Feet":         "https://www.fleetfeet.com",
	"Brooks Running":     "https://www.brooksrunning.com",
	"Saucony":            "https://www.saucony.com",
	"HOKA":               "https://www.hoka.com",
	"Nike":               "https://www.nike.com",
	"Adidas":             "https://www.adidas.com",
	"New Balance":        "https://www.newbalance.com",
	"ASICS":              "https://www.asics.com",
	"Altra":              "https://www.altrarunning.com",
	"On":                 "https://www.on.com",
	"Mizuno":             "https://www.mizunousa.com",
	"Topo Athletic":      "https://www.topoathletic.com",
	"REI":                "https://www.rei.com",
	"Zappos":             "https://www.zappos.com",
	"Dick's":             "https://www.dickssportinggoods.com",
	"JackRabbit":         "https://www.jackrabbit.com",
	"Marathon Sports":    "https://www.marathonsports.com",
	"Run In":             "https://www.runin.com",
}

// AbsolutizeURL resolves scraped URLs against the store's origin. Absolute
// URLs pass through untouched; protocol-relative URLs get https. A relative
// path from a store we have no base for passes through unresolved rather
// than being dropped.
func AbsolutizeURL(raw, store string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	base, ok := storeBaseURLs[store]
	if !ok {
		return raw
	}
	if strings.HasPrefix(raw, "/") {
		return base + raw
	}
	return base + "/" + raw
}
