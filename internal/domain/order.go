package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderPendingPayment  OrderStatus = "pending_payment"
	OrderPendingShipment OrderStatus = "pending_shipment"
	OrderShipped         OrderStatus = "shipped"
	OrderCompleted       OrderStatus = "completed"
	OrderCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderPendingPayment:  {},
	OrderPendingShipment: {},
	OrderShipped:         {},
	OrderCompleted:       {},
	OrderCancelled:       {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// validNext is the buyer/seller transition table. The admin override path
// deliberately does not consult it; it has its own narrower rules.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPendingPayment:  {OrderShipped: true, OrderCancelled: true},
	OrderPendingShipment: {OrderShipped: true, OrderCancelled: true},
	OrderShipped:         {OrderCompleted: true, OrderCancelled: true},
	OrderCompleted:       {},
	OrderCancelled:       {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Order references exactly one listing. ListingID, SellerID and TotalAmount
// are fixed at creation and never recomputed.
type Order struct {
	ID              string          `json:"id"`
	ListingID       string          `json:"listing_id"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TrackingNumber  *string         `json:"tracking_number"`
	FundsReleasedAt *time.Time      `json:"funds_released_at"`
	PlacedAt        time.Time       `json:"placed_at"`
	ShippedAt       *time.Time      `json:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
}

// OrderItem is a snapshot of what was sold, captured at order creation so a
// later listing edit cannot retroactively change the record.
type OrderItem struct {
	OrderID  string          `json:"order_id"`
	Label    string          `json:"label"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// OrderSummary is the history row shown to buyers and sellers.
type OrderSummary struct {
	ID           string          `json:"id"`
	ListingID    string          `json:"listing_id"`
	ListingTitle string          `json:"listing_title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Price        decimal.Decimal `json:"price"`
	Status       OrderStatus     `json:"status"`
	SellerID     string          `json:"seller_id"`
	BuyerID      string          `json:"buyer_id"`
	PlacedAt     time.Time       `json:"placed_at"`
	ShippedAt    *time.Time      `json:"shipped_at"`
	DeliveredAt  *time.Time      `json:"delivered_at"`
}

const PayoutReady = "ready_for_payout"

// Payout is a synthetic accounting artifact emitted on completion; no real
// funds transfer happens here.
type Payout struct {
	OrderID    string          `json:"order_id"`
	ListingID  string          `json:"listing_id"`
	SellerID   string          `json:"seller_id"`
	BuyerID    string          `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ReleasedAt time.Time       `json:"released_at"`
	Status     string          `json:"status"`
	Note       string          `json:"note"`
}
