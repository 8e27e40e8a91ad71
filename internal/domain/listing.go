package domain

import "time"

// ListingStatus mirrors the marketplace listing lifecycle.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "ACTIVE"
	ListingStatusSold   ListingStatus = "SOLD"
	ListingStatusDraft  ListingStatus = "DRAFT"
)

// Listing is the read-only view of a marketplace listing used by tools.
type Listing struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Brand        string        `json:"brand"`
	Model        string        `json:"model"`
	Year         int           `json:"year,omitempty"`
	Price        float64       `json:"price"`
	EngineCC     int           `json:"engineCc,omitempty"`
	LicenseClass string        `json:"licenseClass,omitempty"`
	Mileage      int           `json:"mileage,omitempty"`
	COEExpiry    *time.Time    `json:"coeExpiry,omitempty"`
	Status       ListingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ListingFilter narrows a listing search. Zero values mean "no filter".
type ListingFilter struct {
	Brand        string
	MinPrice     float64
	MaxPrice     float64
	LicenseClass string
	Status       ListingStatus
	Limit        int
}
