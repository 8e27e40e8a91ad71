package tools

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/sashabaranov/go-openai/jsonschema"
)

type roadTaxTier struct {
	maxCC  int
	annual float64
}

// roadTaxTiers are annual motorcycle road tax bands by engine capacity.
var roadTaxTiers = []roadTaxTier{
	{600, 372},
	{1000, 744},
	{1600, 1488},
	{3000, 2976},
}

const roadTaxTopTier = 3720

// daysPerMonth is the average month length used to count remaining months.
const daysPerMonth = 30.44

// CalculateRoadTax returns the annual and half-year road tax for an engine
// capacity in cc.
func CalculateRoadTax(engineCC int) RoadTaxResult {
	annual := float64(roadTaxTopTier)
	for _, tier := range roadTaxTiers {
		if engineCC <= tier.maxCC {
			annual = tier.annual
			break
		}
	}
	return RoadTaxResult{
		EngineCC: engineCC,
		Annual:   annual,
		HalfYear: annual / 2,
	}
}

// CalculateDepreciation spreads the purchase price over the whole months
// left until COE expiry. An expired COE gives zero months and zero
// depreciation.
func CalculateDepreciation(purchasePrice float64, coeExpiry, current time.Time) DepreciationResult {
	days := coeExpiry.Sub(current).Hours() / 24
	months := int(math.Floor(days / daysPerMonth))
	if months < 0 {
		months = 0
	}

	var monthly float64
	if months > 0 {
		monthly = purchasePrice / float64(months)
	}
	return DepreciationResult{
		PurchasePrice:   purchasePrice,
		COEExpiryDate:   coeExpiry.Format(dateLayout),
		CurrentDate:     current.Format(dateLayout),
		RemainingMonths: months,
		Monthly:         monthly,
		Annual:          monthly * 12,
	}
}

type RoadTaxArgs struct {
	EngineSize int `json:"engineSize"`
}

type RoadTaxTool struct{}

func NewRoadTaxTool() *RoadTaxTool {
	return &RoadTaxTool{}
}

func (t *RoadTaxTool) Name() string { return NameCalculateRoadTax }

func (t *RoadTaxTool) Description() string {
	return "Calculate annual and half-year motorcycle road tax from engine capacity in cc."
}

func (t *RoadTaxTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"engineSize": {Type: jsonschema.Integer, Description: "Engine capacity in cc"},
		},
		Required: []string{"engineSize"},
	}
}

func (t *RoadTaxTool) Execute(_ context.Context, args json.RawMessage) (Result, error) {
	var in RoadTaxArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.EngineSize <= 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "engineSize must be positive")
	}
	return CalculateRoadTax(in.EngineSize), nil
}

type DepreciationArgs struct {
	PurchasePrice float64 `json:"purchasePrice"`
	COEExpiryDate string  `json:"coeExpiryDate"`
	CurrentDate   string  `json:"currentDate,omitempty"`
}

type DepreciationTool struct {
	now func() time.Time
}

func NewDepreciationTool(now func() time.Time) *DepreciationTool {
	if now == nil {
		now = time.Now
	}
	return &DepreciationTool{now: now}
}

func (t *DepreciationTool) Name() string { return NameCalculateDepreciation }

func (t *DepreciationTool) Description() string {
	return "Calculate monthly and annual depreciation of a motorcycle from its purchase price and COE expiry date."
}

func (t *DepreciationTool) Parameters() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"purchasePrice": {Type: jsonschema.Number, Description: "Purchase price in SGD"},
			"coeExpiryDate": {Type: jsonschema.String, Description: "COE expiry date, YYYY-MM-DD"},
			"currentDate":   {Type: jsonschema.String, Description: "Date to calculate from, YYYY-MM-DD. Defaults to today"},
		},
		Required: []string{"purchasePrice", "coeExpiryDate"},
	}
}

func (t *DepreciationTool) Execute(_ context.Context, args json.RawMessage) (Result, error) {
	var in DepreciationArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.PurchasePrice < 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "purchasePrice must not be negative")
	}

	expiry, err := time.Parse(dateLayout, strings.TrimSpace(in.COEExpiryDate))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid coeExpiryDate", err)
	}

	current := t.now()
	if in.CurrentDate != "" {
		current, err = time.Parse(dateLayout, strings.TrimSpace(in.CurrentDate))
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid currentDate", err)
		}
	}

	return CalculateDepreciation(in.PurchasePrice, expiry, current), nil
}
