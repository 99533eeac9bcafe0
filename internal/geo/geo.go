// Package geo maps witness names and URLs to approximate geographic
// locations. The table is a best-effort heuristic maintained by hand;
// it is consulted, never authoritative.
package geo

import "strings"

// Node categories used for map filtering.
const (
	CategorySuperRep = "Super Rep"
	CategoryExchange = "Exchange"
	CategoryCloud    = "Cloud"
)

// Location is a resolved geographic position for a witness.
type Location struct {
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Category string  `json:"category"`
}

// Unknown is the placeholder returned for unresolvable witnesses.
// Records with an unknown location are kept, never omitted.
var Unknown = Location{
	City:     "Unknown",
	Country:  "Unknown",
	Lat:      0,
	Lng:      0,
	Category: CategorySuperRep,
}

type entry struct {
	key string // lowercase substring matched against name and url
	loc Location
}

// Ordered so that resolution is deterministic when several keys match.
var locations = []entry{
	{"binance", Location{City: "Valletta", Country: "Malta", Lat: 35.9375, Lng: 14.3754, Category: CategoryExchange}},
	{"okex", Location{City: "Valletta", Country: "Malta", Lat: 35.8997, Lng: 14.5146, Category: CategoryExchange}},
	{"okx", Location{City: "Victoria", Country: "Seychelles", Lat: -4.6196, Lng: 55.4513, Category: CategoryExchange}},
	{"huobi", Location{City: "Singapore", Country: "Singapore", Lat: 1.3521, Lng: 103.8198, Category: CategoryExchange}},
	{"poloniex", Location{City: "Boston", Country: "United States", Lat: 42.3601, Lng: -71.0589, Category: CategoryExchange}},
	{"kucoin", Location{City: "Victoria", Country: "Seychelles", Lat: -4.6191, Lng: 55.4513, Category: CategoryExchange}},
	{"kraken", Location{City: "San Francisco", Country: "United States", Lat: 37.7749, Lng: -122.4194, Category: CategoryExchange}},
	{"bitget", Location{City: "Victoria", Country: "Seychelles", Lat: -4.6827, Lng: 55.48, Category: CategoryExchange}},
	{"tron foundat", Location{City: "Singapore", Country: "Singapore", Lat: 1.29, Lng: 103.85, Category: CategorySuperRep}},
	{"tronlink", Location{City: "Singapore", Country: "Singapore", Lat: 1.3, Lng: 103.83, Category: CategorySuperRep}},
	{"tronscan", Location{City: "Singapore", Country: "Singapore", Lat: 1.31, Lng: 103.86, Category: CategorySuperRep}},
	{"justlend", Location{City: "Singapore", Country: "Singapore", Lat: 1.28, Lng: 103.84, Category: CategorySuperRep}},
	{"sun.io", Location{City: "Singapore", Country: "Singapore", Lat: 1.32, Lng: 103.82, Category: CategorySuperRep}},
	{"apenft", Location{City: "Singapore", Country: "Singapore", Lat: 1.27, Lng: 103.85, Category: CategorySuperRep}},
	{"bittorrent", Location{City: "San Francisco", Country: "United States", Lat: 37.7858, Lng: -122.4064, Category: CategorySuperRep}},
	{"tron spark", Location{City: "Seoul", Country: "South Korea", Lat: 37.5665, Lng: 126.978, Category: CategorySuperRep}},
	{"crystal", Location{City: "Tokyo", Country: "Japan", Lat: 35.6762, Lng: 139.6503, Category: CategorySuperRep}},
	{"sesameseed", Location{City: "Cape Town", Country: "South Africa", Lat: -33.9249, Lng: 18.4241, Category: CategorySuperRep}},
	{"cryptoguy", Location{City: "Amsterdam", Country: "Netherlands", Lat: 52.3676, Lng: 4.9041, Category: CategorySuperRep}},
	{"tronwallet", Location{City: "Lisbon", Country: "Portugal", Lat: 38.7223, Lng: -9.1393, Category: CategorySuperRep}},
	{"infstones", Location{City: "Palo Alto", Country: "United States", Lat: 37.4419, Lng: -122.143, Category: CategoryCloud}},
	{"ant investme", Location{City: "Hangzhou", Country: "China", Lat: 30.2741, Lng: 120.1551, Category: CategorySuperRep}},
	{"google", Location{City: "Mountain View", Country: "United States", Lat: 37.386, Lng: -122.0838, Category: CategoryCloud}},
	{"aws", Location{City: "Ashburn", Country: "United States", Lat: 39.0438, Lng: -77.4874, Category: CategoryCloud}},
	{"alibaba", Location{City: "Hangzhou", Country: "China", Lat: 30.1741, Lng: 120.2, Category: CategoryCloud}},
}

// Resolve maps a witness name and URL to a location. Matching is a
// case-insensitive substring check against both values; the first
// match wins. Unresolvable witnesses get the Unknown placeholder.
func Resolve(name, url string) Location {
	haystack := strings.ToLower(name) + " " + strings.ToLower(url)

	for _, e := range locations {
		if strings.Contains(haystack, e.key) {
			return e.loc
		}
	}

	return Unknown
}

// Continent buckets a coordinate pair into a coarse continent name.
// The boxes are deliberately rough; this feeds a summary figure, not
// navigation.
func Continent(lat, lng float64) string {
	switch {
	case lat == 0 && lng == 0:
		return "Unknown"
	case lat <= -60:
		return "Antarctica"
	case lng >= -170 && lng <= -30 && lat >= 10:
		return "North America"
	case lng >= -90 && lng <= -30 && lat < 10:
		return "South America"
	case lng >= -30 && lng <= 60 && lat >= 35:
		return "Europe"
	case lng >= -30 && lng <= 60:
		return "Africa"
	case lng > 60 && lat <= -10:
		return "Oceania"
	default:
		return "Asia"
	}
}

// Distribution counts locations per continent.
func Distribution(locs []Location) map[string]int {
	counts := make(map[string]int, 8)

	for _, loc := range locs {
		counts[Continent(loc.Lat, loc.Lng)]++
	}

	return counts
}
