package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingActive   ListingStatus = "ACTIVE"
	ListingReserved ListingStatus = "RESERVED"
	ListingSold     ListingStatus = "SOLD"
)

var validListingStatuses = map[ListingStatus]struct{}{
	ListingActive:   {},
	ListingReserved: {},
	ListingSold:     {},
}

func (s ListingStatus) Valid() bool {
	_, ok := validListingStatuses[s]
	return ok
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Listing is a single item for sale. Status is mutated only by the
// availability gate or by admin order overrides; seller edits go through
// ListingPatch and never touch the status column.
type Listing struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"seller_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Status    ListingStatus   `json:"status"`
	Location  GeoPoint        `json:"location"`
	Images    []string        `json:"images"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListingPatch enumerates exactly which attributes a seller edit carries.
// A nil field means "leave the stored value alone", so an absent request
// field can never overwrite a column with a zero value.
type ListingPatch struct {
	Title    *string
	Price    *decimal.Decimal
	Images   *[]string
	Location *GeoPoint
}

func (p ListingPatch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Images == nil && p.Location == nil
}
