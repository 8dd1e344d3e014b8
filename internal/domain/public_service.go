package domain

// PublicService is what the storefront exposes for one sellable service.
//
// Curated listings fill every field; the uncurated pass-through leaves
// Social, Description and SortOrder empty so they drop out of the JSON.
type PublicService struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Rate        float64 `json:"rate"` // price per 1000 units
	Min         int64   `json:"min"`
	Max         int64   `json:"max"`
	Refill      bool    `json:"refill"`
	Cancel      bool    `json:"cancel"`
	Social      string  `json:"social,omitempty"`
	Description string  `json:"description,omitempty"`
	SortOrder   *int    `json:"order,omitempty"`
}
