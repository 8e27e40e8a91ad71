package service

import (
	"math"
	"strings"

	"github.com/motomarket/motorag/internal/domain"
)

const (
	listingConfidence      = 0.9
	generalConfidence      = 0.5
	weakRegulationCeiling  = 0.5
	regulationThreshold    = 3
	toolThreshold          = 4
	marketThreshold        = 3
	regulationScale        = 15.0
	toolScale              = 12.0
	marketScale            = 12.0
	toolOverMarketFraction = 0.8
)

type keywordCategory struct {
	name     string
	keywords []string
}

// regulationKeywords is ordered; on equal scores the earlier category wins.
var regulationKeywords = []keywordCategory{
	{"coe", []string{"coe", "certificate of entitlement", "bidding", "quota", "pqp", "prevailing quota premium", "coe renewal"}},
	{"licensing", []string{"licence", "license", "class 2b", "class 2a", "class 2", "2b", "2a", "driving test", "riding test", "theory test", "btt", "ftt", "learner"}},
	{"road_tax", []string{"road tax", "vehicle tax", "tax rebate", "road tax renewal"}},
	{"insurance", []string{"insurance", "insure", "third party", "comprehensive", "ncd", "no claim", "claim"}},
	{"inspection", []string{"inspection", "vicom", "roadworthy", "periodic inspection", "emission test"}},
	{"registration", []string{"registration", "register", "ownership transfer", "transfer ownership", "log card", "deregister", "scrap"}},
	{"modification", []string{"modification", "modify", "modified", "exhaust", "aftermarket", "lta approved", "illegal mod"}},
	{"traffic", []string{"traffic", "speed limit", "summons", "demerit", "lane splitting", "helmet", "traffic fine", "expressway"}},
}

var marketKeywords = []string{
	"price", "cost", "worth", "value", "market", "resale", "cheap", "expensive", "afford",
	"budget", "deal", "trend", "popular", "recommend", "best bike", "second hand", "secondhand",
	"used bike", "buy", "sell",
}

var toolKeywords = []string{
	"calculate", "calculator", "how much", "current", "latest", "today", "coe price",
	"depreciation", "depreciate", "compare", "comparison", "search", "find", "show me",
	"listing", "statistics", "stats", "road tax for",
}

// ClassifyIntent scores a query against fixed keyword tables. A pinned
// listing in the caller context always wins. Each matched keyword adds its
// length to its table's score, so longer phrases weigh more.
func ClassifyIntent(query string, chatCtx *domain.ChatContext) domain.ClassifiedIntent {
	if chatCtx.HasListing() {
		return domain.ClassifiedIntent{
			Type:       domain.IntentListing,
			Confidence: listingConfidence,
			Keywords:   []string{},
		}
	}

	q := strings.ToLower(query)

	bestRegScore := 0
	bestRegCategory := ""
	var bestRegMatches []string
	for _, cat := range regulationKeywords {
		score, matches := scoreKeywords(q, cat.keywords)
		if score > bestRegScore {
			bestRegScore = score
			bestRegCategory = cat.name
			bestRegMatches = matches
		}
	}
	marketScore, marketMatches := scoreKeywords(q, marketKeywords)
	toolScore, toolMatches := scoreKeywords(q, toolKeywords)

	switch {
	case bestRegScore >= regulationThreshold && bestRegScore >= marketScore:
		return domain.ClassifiedIntent{
			Type:       domain.IntentRegulation,
			Confidence: math.Min(float64(bestRegScore)/regulationScale, 1),
			Category:   bestRegCategory,
			Keywords:   bestRegMatches,
		}
	case toolScore >= toolThreshold && float64(toolScore) > float64(marketScore)*toolOverMarketFraction:
		return domain.ClassifiedIntent{
			Type:       domain.IntentTool,
			Confidence: math.Min(float64(toolScore)/toolScale, 1),
			Keywords:   toolMatches,
		}
	case marketScore >= marketThreshold:
		return domain.ClassifiedIntent{
			Type:       domain.IntentMarket,
			Confidence: math.Min(float64(marketScore)/marketScale, 1),
			Keywords:   marketMatches,
		}
	case bestRegScore > 0:
		return domain.ClassifiedIntent{
			Type:       domain.IntentRegulation,
			Confidence: math.Min(float64(bestRegScore)/regulationScale, weakRegulationCeiling),
			Category:   bestRegCategory,
			Keywords:   bestRegMatches,
		}
	default:
		return domain.ClassifiedIntent{
			Type:       domain.IntentGeneral,
			Confidence: generalConfidence,
			Keywords:   []string{},
		}
	}
}

func scoreKeywords(query string, keywords []string) (int, []string) {
	score := 0
	matches := []string{}
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			score += len(kw)
			matches = append(matches, kw)
		}
	}
	return score, matches
}
