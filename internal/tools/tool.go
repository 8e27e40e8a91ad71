// Package tools holds the named query and calculation functions the chat
// assistant can consult, plus the rules that pick one per turn.
package tools

import (
	"context"
	"encoding/json"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names.
const (
	NameSearchListings        = "search_listings"
	NameGetCOEPrice           = "get_coe_price"
	NameCalculateRoadTax      = "calculate_road_tax"
	NameCalculateDepreciation = "calculate_depreciation"
	NameGetCOEStatistics      = "get_coe_statistics"
	NameCompareBikes          = "compare_bikes"
)

// Tool is a named function with a JSON schema describing its arguments.
// The schema is advertised to clients but not enforced on Execute.
type Tool interface {
	Name() string
	Description() string
	Parameters() jsonschema.Definition
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// ListingSource is the read-only listing store used by listing tools.
type ListingSource interface {
	SearchListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error)
	GetListingsByIDs(ctx context.Context, ids []string) ([]domain.Listing, error)
}

// COESource is the read-only COE bidding history.
type COESource interface {
	LatestCOEPrices(ctx context.Context) ([]domain.COEResult, error)
	COEStatistics(ctx context.Context) ([]domain.COEStatistics, error)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid tool arguments", err)
	}
	return nil
}
