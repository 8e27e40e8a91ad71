package domain

import "time"

// COEResult is one bidding exercise result for a vehicle category.
type COEResult struct {
	BiddingDate  time.Time `json:"biddingDate"`
	Category     string    `json:"category"`
	Premium      float64   `json:"premium"`
	Quota        int       `json:"quota"`
	BidsReceived int       `json:"bidsReceived"`
}

// COEStatistics aggregates historical results for a category.
type COEStatistics struct {
	Category      string    `json:"category"`
	Exercises     int       `json:"exercises"`
	Average       float64   `json:"average"`
	Minimum       float64   `json:"minimum"`
	Maximum       float64   `json:"maximum"`
	Latest        float64   `json:"latest"`
	LatestDate    time.Time `json:"latestDate"`
	ChangePercent float64   `json:"changePercent"`
}
