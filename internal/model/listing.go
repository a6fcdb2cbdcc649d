package model

import "time"

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingSold      ListingStatus = "SOLD"
	ListingWithdrawn ListingStatus = "WITHDRAWN"
	ListingModerated ListingStatus = "MODERATED"
)

// DeliveryMethod describes how the seller hands tickets to the buyer.
type DeliveryMethod string

const (
	DeliveryMobileTransfer DeliveryMethod = "MOBILE_TRANSFER"
	DeliveryPDF            DeliveryMethod = "PDF"
	DeliveryHardCopy       DeliveryMethod = "HARD_COPY"
)

// Valid reports whether d is a supported delivery method.
func (d DeliveryMethod) Valid() bool {
	switch d {
	case DeliveryMobileTransfer, DeliveryPDF, DeliveryHardCopy:
		return true
	}
	return false
}

// Listing is the sellable unit.  Quantity counts the tickets still
// available and never exceeds OriginalQuantity, which is fixed at creation.
// Status is SOLD exactly when a sale brought Quantity to zero.
type Listing struct {
	ID               uint64         `json:"id"`
	SellerID         uint64         `json:"seller_id"`
	SuiteID          uint64         `json:"suite_id"`
	EventTitle       string         `json:"event_title"`
	EventDate        time.Time      `json:"event_date"`
	Quantity         int            `json:"quantity"`
	OriginalQuantity int            `json:"original_quantity"`
	PriceCents       int64          `json:"price_cents"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	Notes            string         `json:"notes,omitempty"`
	Status           ListingStatus  `json:"status"`
	ModerationReason *string        `json:"moderation_reason,omitempty"`
	ViewCount        int64          `json:"view_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
