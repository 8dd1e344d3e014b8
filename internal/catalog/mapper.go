package catalog

import (
	"math"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
)

// MapEntry joins a curated entry with its upstream service.
//
// It is pure. No upstream record means no public service. Refill and cancel
// always come from upstream so curation cannot claim capabilities the
// provider lacks.
func MapEntry(e Entry, up *panel.Service, defaultMarkup float64) (domain.PublicService, bool) {
	if up == nil {
		return domain.PublicService{}, false
	}

	var rate float64
	if e.Price != nil {
		rate = *e.Price
	} else {
		markup := defaultMarkup
		if e.Markup != nil {
			markup = *e.Markup
		}
		rate = domain.RoundTo(up.Rate.Float64()*markup, 4)
	}

	name := e.Name
	if name == "" {
		name = up.Name
	}
	category := e.Category
	if category == "" {
		category = up.Category
	}

	lo := up.Min.Int64()
	if e.Min != nil {
		lo = e.Min.Int64()
	}
	hi := up.Max.Int64()
	if e.Max != nil {
		hi = e.Max.Int64()
	}

	return domain.PublicService{
		ID:          e.ID,
		Name:        name,
		Category:    category,
		Type:        up.Type,
		Rate:        math.Max(0, rate),
		Min:         lo,
		Max:         hi,
		Refill:      bool(up.Refill),
		Cancel:      bool(up.Cancel),
		Social:      e.Social,
		Description: e.Description,
		SortOrder:   e.Order,
	}, true
}

// FromUpstream is the uncurated pass-through record.
func FromUpstream(up panel.Service) domain.PublicService {
	return domain.PublicService{
		ID:       up.ID.Int64(),
		Name:     up.Name,
		Category: up.Category,
		Type:     up.Type,
		Rate:     up.Rate.Float64(),
		Min:      up.Min.Int64(),
		Max:      up.Max.Int64(),
		Refill:   bool(up.Refill),
		Cancel:   bool(up.Cancel),
	}
}
