package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

type SearchListingsArgs struct {
	Brand        string  `json:"brand,omitempty"`
	MinPrice     float64 `json:"minPrice,omitempty"`
	MaxPrice     float64 `json:"maxPrice,omitempty"`
	LicenseClass string  `json:"licenseClass,omitempty"`
	Limit        int     `json:"limit,omitempty"`
}

type SearchListingsTool struct {
	source ListingSource
}

func NewSearchListingsTool(source ListingSource) *SearchListingsTool {
	return &SearchListingsTool{source: source}
}

func (t *SearchListingsTool) Name() string { return NameSearchListings }

func (t *SearchListingsTool) Description() string {
	return "Search active motorcycle listings by brand, price range and licence class."
}

func (t *SearchListingsTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"brand":        {Type: jsonschema.String, Description: "Brand name, matched case-insensitively"},
			"minPrice":     {Type: jsonschema.Number, Description: "Minimum price in SGD"},
			"maxPrice":     {Type: jsonschema.Number, Description: "Maximum price in SGD"},
			"licenseClass": {Type: jsonschema.String, Enum: []string{"2B", "2A", "2"}, Description: "Licence class"},
			"limit":        {Type: jsonschema.Integer, Description: "Maximum results, default 5"},
		},
	}
}

func (t *SearchListingsTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	if t.source == nil {
		return nil, domain.ErrDataSourceUnavailable
	}
	var in SearchListingsArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	listings, err := t.source.SearchListings(ctx, domain.ListingFilter{
		Brand:        strings.TrimSpace(in.Brand),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		LicenseClass: strings.ToUpper(strings.TrimSpace(in.LicenseClass)),
		Status:       domain.ListingStatusActive,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]ListingSummary, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, summarize(l))
	}
	return ListingSearchResult{Count: len(summaries), Listings: summaries}, nil
}

type CompareBikesArgs struct {
	ListingIDs []string `json:"listingIds"`
}

type CompareBikesTool struct {
	source ListingSource
}

func NewCompareBikesTool(source ListingSource) *CompareBikesTool {
	return &CompareBikesTool{source: source}
}

func (t *CompareBikesTool) Name() string { return NameCompareBikes }

func (t *CompareBikesTool) Description() string {
	return "Fetch several listings by ID for a side-by-side comparison."
}

func (t *CompareBikesTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"listingIds": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "IDs of the listings to compare",
			},
		},
		Required: []string{"listingIds"},
	}
}

func (t *CompareBikesTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var in CompareBikesArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.ListingIDs) == 0 {
		return ErrorResult{Message: domain.ErrEmptyListingIDs.Message}, nil
	}
	if t.source == nil {
		return nil, domain.ErrDataSourceUnavailable
	}

	listings, err := t.source.GetListingsByIDs(ctx, in.ListingIDs)
	if err != nil {
		return nil, err
	}
	summaries := make([]ListingSummary, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, summarize(l))
	}
	return ComparisonResult{Listings: summaries}, nil
}

type COEPriceTool struct {
	source COESource
}

func NewCOEPriceTool(source COESource) *COEPriceTool {
	return &COEPriceTool{source: source}
}

func (t *COEPriceTool) Name() string { return NameGetCOEPrice }

func (t *COEPriceTool) Description() string {
	return "Get the latest COE bidding results for every vehicle category."
}

func (t *COEPriceTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{}}
}

func (t *COEPriceTool) Execute(ctx context.Context, _ json.RawMessage) (Result, error) {
	if t.source == nil {
		return nil, domain.ErrDataSourceUnavailable
	}
	results, err := t.source.LatestCOEPrices(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNoCOEData
	}
	return COEPriceResult{Results: results}, nil
}

type COEStatisticsTool struct {
	source COESource
}

func NewCOEStatisticsTool(source COESource) *COEStatisticsTool {
	return &COEStatisticsTool{source: source}
}

func (t *COEStatisticsTool) Name() string { return NameGetCOEStatistics }

func (t *COEStatisticsTool) Description() string {
	return "Get historical COE premium statistics (average, range, latest and trend) per category."
}

func (t *COEStatisticsTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{}}
}

func (t *COEStatisticsTool) Execute(ctx context.Context, _ json.RawMessage) (Result, error) {
	if t.source == nil {
		return nil, domain.ErrDataSourceUnavailable
	}
	stats, err := t.source.COEStatistics(ctx)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, domain.ErrNoCOEData
	}
	return COEStatsResult{Statistics: stats}, nil
}
