package domain

import "time"

// OrderStatusProcessing is the status of a freshly placed order until the
// first tracking call replaces it with the panel's own wording.
const OrderStatusProcessing = "processing"

// Order is the local record of an order placed upstream.
//
// Token is the only identifier handed to customers. Version is bumped by the
// store on every update and used to detect concurrent writers.
type Order struct {
	Token           string    `json:"token"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PackageID       string    `json:"package_id,omitempty"`
	ServiceID       int64     `json:"service_id"`
	UpstreamOrderID int64     `json:"upstream_order_id"`
	Quantity        int64     `json:"quantity,omitempty"`
	Link            string    `json:"link"`
	Price           float64   `json:"price"`
	Status          string    `json:"status"`

	// Filled by tracking.
	Remains    *int64   `json:"remains,omitempty"`
	Charge     *float64 `json:"charge,omitempty"`
	StartCount *int64   `json:"start_count,omitempty"`
	Currency   string   `json:"currency,omitempty"`

	Version int64 `json:"version"`
}

// EmailMismatch reports whether a tracking request must be refused: the order
// is bound to an email and the caller supplied a different one.
func (o *Order) EmailMismatch(email string) bool {
	return o.Email != "" && email != "" && o.Email != email
}
