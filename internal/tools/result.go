package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/motomarket/motorag/internal/domain"
)

// Result kinds.
const (
	KindListingSearch = "listing_search"
	KindCOEPrice      = "coe_price"
	KindRoadTax       = "road_tax"
	KindDepreciation  = "depreciation"
	KindCOEStatistics = "coe_statistics"
	KindComparison    = "comparison"
	KindError         = "error"
)

// Result is the output of a tool. Each tool has its own concrete type and
// renders itself as plain text for the prompt.
type Result interface {
	Kind() string
	Format() string
}

// ListingSummary is the trimmed listing shape returned to the model.
type ListingSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Brand        string     `json:"brand"`
	Model        string     `json:"model"`
	Year         int        `json:"year,omitempty"`
	Price        float64    `json:"price"`
	EngineCC     int        `json:"engineCc,omitempty"`
	LicenseClass string     `json:"licenseClass,omitempty"`
	Mileage      int        `json:"mileage,omitempty"`
	COEExpiry    *time.Time `json:"coeExpiry,omitempty"`
}

func summarize(l domain.Listing) ListingSummary {
	return ListingSummary{
		ID:           l.ID,
		Title:        l.Title,
		Brand:        l.Brand,
		Model:        l.Model,
		Year:         l.Year,
		Price:        l.Price,
		EngineCC:     l.EngineCC,
		LicenseClass: l.LicenseClass,
		Mileage:      l.Mileage,
		COEExpiry:    l.COEExpiry,
	}
}

func (s ListingSummary) line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s %s", s.Title, s.Brand, s.Model)
	if s.Year > 0 {
		fmt.Fprintf(&b, ", %d", s.Year)
	}
	b.WriteString(")")
	fmt.Fprintf(&b, ": %s", money(s.Price))
	if s.EngineCC > 0 {
		fmt.Fprintf(&b, ", %dcc", s.EngineCC)
	}
	if s.LicenseClass != "" {
		fmt.Fprintf(&b, ", class %s", s.LicenseClass)
	}
	if s.Mileage > 0 {
		fmt.Fprintf(&b, ", %d km", s.Mileage)
	}
	if s.COEExpiry != nil {
		fmt.Fprintf(&b, ", COE expires %s", s.COEExpiry.Format(dateLayout))
	}
	fmt.Fprintf(&b, " [id %s]", s.ID)
	return b.String()
}

type ListingSearchResult struct {
	Count    int              `json:"count"`
	Listings []ListingSummary `json:"listings"`
}

func (ListingSearchResult) Kind() string { return KindListingSearch }

func (r ListingSearchResult) Format() string {
	if r.Count == 0 {
		return "No active listings match the search."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d active listings:\n", r.Count)
	for _, l := range r.Listings {
		b.WriteString("- ")
		b.WriteString(l.line())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type COEPriceResult struct {
	Results []domain.COEResult `json:"results"`
}

func (COEPriceResult) Kind() string { return KindCOEPrice }

func (r COEPriceResult) Format() string {
	var b strings.Builder
	b.WriteString("Latest COE results:\n")
	for _, res := range r.Results {
		fmt.Fprintf(&b, "- Category %s (%s): premium %s, quota %d, bids %d\n",
			res.Category, res.BiddingDate.Format(dateLayout), money(res.Premium), res.Quota, res.BidsReceived)
	}
	return strings.TrimRight(b.String(), "\n")
}

type RoadTaxResult struct {
	EngineCC int     `json:"engineCc"`
	Annual   float64 `json:"annual"`
	HalfYear float64 `json:"halfYear"`
}

func (RoadTaxResult) Kind() string { return KindRoadTax }

func (r RoadTaxResult) Format() string {
	return fmt.Sprintf("Road tax for a %dcc motorcycle: %s per year (%s per six months).",
		r.EngineCC, money(r.Annual), money(r.HalfYear))
}

type DepreciationResult struct {
	PurchasePrice   float64 `json:"purchasePrice"`
	COEExpiryDate   string  `json:"coeExpiryDate"`
	CurrentDate     string  `json:"currentDate"`
	RemainingMonths int     `json:"remainingMonths"`
	Monthly         float64 `json:"monthly"`
	Annual          float64 `json:"annual"`
}

func (DepreciationResult) Kind() string { return KindDepreciation }

func (r DepreciationResult) Format() string {
	if r.RemainingMonths == 0 {
		return fmt.Sprintf("The COE expired or expires this month (%s); depreciation cannot be spread over remaining months.", r.COEExpiryDate)
	}
	return fmt.Sprintf("Purchase price %s with COE expiring %s: %d months remaining, depreciation %s per month (%s per year).",
		money(r.PurchasePrice), r.COEExpiryDate, r.RemainingMonths, money(r.Monthly), money(r.Annual))
}

type COEStatsResult struct {
	Statistics []domain.COEStatistics `json:"statistics"`
}

func (COEStatsResult) Kind() string { return KindCOEStatistics }

func (r COEStatsResult) Format() string {
	var b strings.Builder
	b.WriteString("COE statistics:\n")
	for _, s := range r.Statistics {
		fmt.Fprintf(&b, "- Category %s over %d exercises: average %s, min %s, max %s, latest %s on %s (%+.1f%% vs previous)\n",
			s.Category, s.Exercises, money(s.Average), money(s.Minimum), money(s.Maximum),
			money(s.Latest), s.LatestDate.Format(dateLayout), s.ChangePercent)
	}
	return strings.TrimRight(b.String(), "\n")
}

type ComparisonResult struct {
	Listings []ListingSummary `json:"listings"`
}

func (ComparisonResult) Kind() string { return KindComparison }

func (r ComparisonResult) Format() string {
	if len(r.Listings) == 0 {
		return "None of the requested listings were found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Comparing %d listings:\n", len(r.Listings))
	for _, l := range r.Listings {
		b.WriteString("- ")
		b.WriteString(l.line())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ErrorResult is returned instead of an error when the model should see why
// a tool produced nothing.
type ErrorResult struct {
	Message string `json:"message"`
}

func (ErrorResult) Kind() string { return KindError }

func (r ErrorResult) Format() string {
	return "Tool error: " + r.Message
}

// Envelope is the tagged JSON form of a Result.
type Envelope struct {
	Tool   string
	Result Result
}

type envelopeJSON struct {
	Tool string          `json:"tool"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Result == nil {
		return nil, fmt.Errorf("envelope for %s has no result", e.Tool)
	}
	data, err := json.Marshal(e.Result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelopeJSON{Tool: e.Tool, Type: e.Result.Kind(), Data: data})
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var res Result
	var err error
	switch raw.Type {
	case KindListingSearch:
		res, err = decodeResult[ListingSearchResult](raw.Data)
	case KindCOEPrice:
		res, err = decodeResult[COEPriceResult](raw.Data)
	case KindRoadTax:
		res, err = decodeResult[RoadTaxResult](raw.Data)
	case KindDepreciation:
		res, err = decodeResult[DepreciationResult](raw.Data)
	case KindCOEStatistics:
		res, err = decodeResult[COEStatsResult](raw.Data)
	case KindComparison:
		res, err = decodeResult[ComparisonResult](raw.Data)
	case KindError:
		res, err = decodeResult[ErrorResult](raw.Data)
	default:
		return fmt.Errorf("unknown tool result type %q", raw.Type)
	}
	if err != nil {
		return err
	}

	e.Tool = raw.Tool
	e.Result = res
	return nil
}

func decodeResult[T Result](data json.RawMessage) (Result, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

const dateLayout = "2006-01-02"

func money(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
