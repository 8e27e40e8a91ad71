package tools

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/motomarket/motorag/internal/domain"
)

// Fallbacks used when a value cannot be read from the query. They are
// rough guesses, not facts about the user's bike.
const (
	DefaultEngineSize    = 600
	DefaultPurchasePrice = 10000
	// DefaultCOEYears is added to today when no COE expiry is known.
	DefaultCOEYears = 10
)

var (
	engineSizePattern = regexp.MustCompile(`(\d{2,4})\s?cc\b`)
	pricePattern      = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s?(k\b)?`)
	betweenPattern    = regexp.MustCompile(`between\s+\$?\s?(\d[\d,]*(?:\.\d+)?)\s?(k\b)?\s*(?:and|-|to)\s*\$?\s?(\d[\d,]*(?:\.\d+)?)\s?(k\b)?`)
	maxPricePattern   = regexp.MustCompile(`(?:under|below|less than|cheaper than|max(?:imum)?|within)\s+\$?\s?(\d[\d,]*(?:\.\d+)?)\s?(k\b)?`)
	minPricePattern   = regexp.MustCompile(`(?:over|above|more than|at least|min(?:imum)?|from)\s+\$?\s?(\d[\d,]*(?:\.\d+)?)\s?(k\b)?`)
	licensePattern    = regexp.MustCompile(`class\s?(2b|2a|2)\b`)
	nowPattern        = regexp.MustCompile(`\bnow\b`)
)

// knownBrands is checked in order, so longer names that contain shorter ones
// come first.
var knownBrands = []struct {
	match string
	name  string
}{
	{"harley-davidson", "Harley-Davidson"},
	{"harley davidson", "Harley-Davidson"},
	{"harley", "Harley-Davidson"},
	{"royal enfield", "Royal Enfield"},
	{"mv agusta", "MV Agusta"},
	{"honda", "Honda"},
	{"yamaha", "Yamaha"},
	{"kawasaki", "Kawasaki"},
	{"suzuki", "Suzuki"},
	{"ducati", "Ducati"},
	{"bmw", "BMW"},
	{"ktm", "KTM"},
	{"triumph", "Triumph"},
	{"aprilia", "Aprilia"},
	{"vespa", "Vespa"},
	{"benelli", "Benelli"},
	{"husqvarna", "Husqvarna"},
	{"cfmoto", "CFMoto"},
	{"sym", "SYM"},
}

// Selection is the single tool chosen for a turn.
type Selection struct {
	Name string
	Args json.RawMessage
}

// Select picks at most one tool from fixed substring rules. Argument values
// are read from the query with regular expressions and fall back to the
// package defaults when nothing matches.
func Select(query string, intent domain.ClassifiedIntent, chatCtx *domain.ChatContext, now time.Time) (Selection, bool) {
	q := strings.ToLower(query)

	hasCOE := strings.Contains(q, "coe")
	switch {
	case hasCOE && (containsAny(q, "latest", "current", "today") || nowPattern.MatchString(q)):
		return selection(NameGetCOEPrice, struct{}{})

	case hasCOE && containsAny(q, "statistic", "stats", "trend", "history", "historical", "average"):
		return selection(NameGetCOEStatistics, struct{}{})

	case strings.Contains(q, "road tax") && (intent.Type == domain.IntentTool || intent.Type == domain.IntentRegulation):
		engine := ExtractEngineSize(q)
		if engine == 0 && chatCtx.HasListing() && chatCtx.Listing.EngineCC > 0 {
			engine = chatCtx.Listing.EngineCC
		}
		if engine == 0 {
			engine = DefaultEngineSize
		}
		return selection(NameCalculateRoadTax, RoadTaxArgs{EngineSize: engine})

	case strings.Contains(q, "depreciat"):
		return selection(NameCalculateDepreciation, depreciationArgs(q, chatCtx, now))

	case containsAny(q, "compare", "comparison", " vs ", "versus") && len(chatCtx.ListingIDs()) > 0:
		return selection(NameCompareBikes, CompareBikesArgs{ListingIDs: chatCtx.ListingIDs()})

	case (intent.Type == domain.IntentTool || intent.Type == domain.IntentMarket || intent.Type == domain.IntentListing) &&
		containsAny(q, "find", "search", "show me", "looking for", "available", "listing", "for sale"):
		return selection(NameSearchListings, searchArgs(q))
	}

	return Selection{}, false
}

func selection(name string, args any) (Selection, bool) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Selection{}, false
	}
	return Selection{Name: name, Args: raw}, true
}

func depreciationArgs(q string, chatCtx *domain.ChatContext, now time.Time) DepreciationArgs {
	price := ExtractPrice(q)
	expiry := now.AddDate(DefaultCOEYears, 0, 0)
	if chatCtx.HasListing() {
		if price == 0 {
			price = chatCtx.Listing.Price
		}
		if chatCtx.Listing.COEExpiry != nil {
			expiry = *chatCtx.Listing.COEExpiry
		}
	}
	if price == 0 {
		price = DefaultPurchasePrice
	}
	return DepreciationArgs{
		PurchasePrice: price,
		COEExpiryDate: expiry.Format(dateLayout),
		CurrentDate:   now.Format(dateLayout),
	}
}

func searchArgs(q string) SearchListingsArgs {
	minPrice, maxPrice := ExtractPriceRange(q)
	return SearchListingsArgs{
		Brand:        ExtractBrand(q),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		LicenseClass: ExtractLicenseClass(q),
		Limit:        defaultSearchLimit,
	}
}

// ExtractEngineSize returns the first "NNNcc" value, or 0.
func ExtractEngineSize(q string) int {
	m := engineSizePattern.FindStringSubmatch(strings.ToLower(q))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// ExtractPrice returns the first dollar amount such as "$12,500" or "$8k",
// or 0.
func ExtractPrice(q string) float64 {
	m := pricePattern.FindStringSubmatch(strings.ToLower(q))
	if m == nil {
		return 0
	}
	return parseAmount(m[1], m[2])
}

// ExtractPriceRange reads "between X and Y", "under X" and "over X" forms.
// Missing bounds are 0.
func ExtractPriceRange(q string) (minPrice, maxPrice float64) {
	q = strings.ToLower(q)
	if m := betweenPattern.FindStringSubmatch(q); m != nil {
		a, b := parseAmount(m[1], m[2]), parseAmount(m[3], m[4])
		if a > b {
			a, b = b, a
		}
		return a, b
	}
	if m := maxPricePattern.FindStringSubmatch(q); m != nil {
		maxPrice = parseAmount(m[1], m[2])
	}
	if m := minPricePattern.FindStringSubmatch(q); m != nil {
		minPrice = parseAmount(m[1], m[2])
	}
	return minPrice, maxPrice
}

// ExtractBrand returns the first known brand mentioned, in canonical case.
func ExtractBrand(q string) string {
	q = strings.ToLower(q)
	for _, b := range knownBrands {
		if containsWord(q, b.match) {
			return b.name
		}
	}
	return ""
}

// ExtractLicenseClass returns "2B", "2A" or "2" from a "class 2b" mention.
func ExtractLicenseClass(q string) string {
	m := licensePattern.FindStringSubmatch(strings.ToLower(q))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func parseAmount(num, suffix string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0
	}
	if strings.TrimSpace(suffix) == "k" {
		v *= 1000
	}
	return v
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
