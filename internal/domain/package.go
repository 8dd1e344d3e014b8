package domain

import "strings"

// Package is a fixed storefront product backed by one upstream service (SKU).
type Package struct {
	ID        string   `json:"id" yaml:"id" validate:"required"`
	Platform  string   `json:"platform" yaml:"platform" validate:"required"`
	Type      string   `json:"type" yaml:"type"`
	Title     string   `json:"title" yaml:"title" validate:"required"`
	SKU       int64    `json:"sku" yaml:"sku" validate:"gt=0"`
	CostPer1K float64  `json:"cost_per_1k,omitempty" yaml:"cost_per_1k" validate:"gte=0"`
	SellPer1K float64  `json:"sell_per_1k" yaml:"sell_per_1k" validate:"gte=0"`
	Min       int64    `json:"min" yaml:"min" validate:"gte=1"`
	Max       int64    `json:"max" yaml:"max" validate:"gtefield=Min"`
	Tags      []string `json:"tags,omitempty" yaml:"tags"`
	Active    bool     `json:"active" yaml:"active"`
}

// Public returns a copy without the purchase cost.
func (p Package) Public() Package {
	p.CostPer1K = 0
	return p
}

// MatchesPlatform is an exact, case-insensitive platform check. An empty
// platform matches everything.
func (p Package) MatchesPlatform(platform string) bool {
	return platform == "" || strings.EqualFold(p.Platform, platform)
}

// DefaultPackages seeds an empty store.
func DefaultPackages() []Package {
	return []Package{
		{
			ID:        "ig_followers_5951",
			Platform:  "instagram",
			Type:      "followers",
			Title:     "IG Followers - Premium (USA/EU)",
			SKU:       5951,
			CostPer1K: 5.23,
			SellPer1K: 19.99,
			Min:       50,
			Max:       100000,
			Tags:      []string{"Popular", "Best Value"},
			Active:    true,
		},
		{
			ID:        "ig_likes_6073",
			Platform:  "instagram",
			Type:      "likes",
			Title:     "IG Likes - No-Drop",
			SKU:       6073,
			CostPer1K: 13.72,
			SellPer1K: 34.99,
			Min:       50,
			Max:       5000,
			Tags:      []string{"Bestseller"},
			Active:    true,
		},
		{
			ID:        "tt_views_3365",
			Platform:  "tiktok",
			Type:      "views",
			Title:     "TikTok Views - Exclusive (30-day Refill)",
			SKU:       3365,
			CostPer1K: 0.08,
			SellPer1K: 1.29,
			Min:       100,
			Max:       100000000,
			Tags:      []string{"Ultra Fast"},
			Active:    true,
		},
	}
}
