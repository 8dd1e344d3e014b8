package shop

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/panelshop/internal/cache"
	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
)

const servicesCacheKey = "panel_services"

// Filters narrow a public listing. Both are optional.
type Filters struct {
	Social string // exact, case-insensitive
	Query  string // substring of name or category, case-insensitive
}

// Listing is the public catalog response.
type Listing struct {
	Services []domain.PublicService `json:"services"`
	Count    int                    `json:"count"`
	Curated  bool                   `json:"curated"`
}

type CatalogOptions struct {
	Panel       Panel
	Catalog     CatalogSource
	Cache       *cache.TTL[[]panel.Service]
	Markup      float64 // default markup for curated entries without price or markup
	CuratedOnly bool
	Logger      logger.Logger
}

// CatalogService joins the upstream service list with the curated catalog.
type CatalogService struct {
	panel       Panel
	catalog     CatalogSource
	cache       *cache.TTL[[]panel.Service]
	markup      float64
	curatedOnly bool
	logger      logger.Logger
}

func NewCatalogService(opts CatalogOptions) *CatalogService {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &CatalogService{
		panel:       opts.Panel,
		catalog:     opts.Catalog,
		cache:       opts.Cache,
		markup:      opts.Markup,
		curatedOnly: opts.CuratedOnly,
		logger:      opts.Logger,
	}
}

// Upstream returns the panel's service list, served from cache while fresh.
func (s *CatalogService) Upstream(ctx context.Context) ([]panel.Service, error) {
	if cached, ok := s.cache.Get(servicesCacheKey); ok {
		return cached, nil
	}

	services, err := s.panel.ListServices(ctx)
	if err != nil {
		s.logger.Error("failed to fetch upstream services", logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream services failed", Err: err}
	}
	s.cache.Set(servicesCacheKey, services)
	s.logger.Debug("upstream services refreshed", logger.Int("count", len(services)))
	return services, nil
}

// RawServices fetches the uncurated upstream list for operators. It always
// goes to the panel and leaves the cache alone.
func (s *CatalogService) RawServices(ctx context.Context) ([]panel.Service, error) {
	services, err := s.panel.ListServices(ctx)
	if err != nil {
		s.logger.Error("failed to fetch raw upstream services", logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream services failed", Err: err}
	}
	return services, nil
}

// Curation returns the active catalog. Curated-only deployments count as
// curated even without a file, which then allows nothing.
func (s *CatalogService) Curation() (*catalog.Catalog, bool) {
	c, ok := s.catalog.Load()
	if ok && !c.Empty() {
		return c, true
	}
	if s.curatedOnly {
		return &catalog.Catalog{}, true
	}
	return nil, false
}

// CuratedOnly reports the deployment mode.
func (s *CatalogService) CuratedOnly() bool { return s.curatedOnly }

// ListPublicServices builds the storefront listing.
func (s *CatalogService) ListPublicServices(ctx context.Context, f Filters) (Listing, error) {
	cat, curated := s.Curation()
	if curated && cat.Empty() {
		return Listing{Services: []domain.PublicService{}, Curated: true}, nil
	}

	upstream, err := s.Upstream(ctx)
	if err != nil {
		return Listing{}, err
	}

	var out []domain.PublicService
	if curated {
		out = s.curatedServices(cat, indexByID(upstream), f)
	} else {
		out = uncuratedServices(upstream, f)
	}
	if out == nil {
		out = []domain.PublicService{}
	}
	return Listing{Services: out, Count: len(out), Curated: curated}, nil
}

func (s *CatalogService) curatedServices(cat *catalog.Catalog, byID map[int64]*panel.Service, f Filters) []domain.PublicService {
	var out []domain.PublicService
	for _, e := range cat.Services {
		if !e.IsEnabled() || !e.IsVisible() {
			continue
		}
		ps, ok := catalog.MapEntry(e, byID[e.ID], s.markup)
		if !ok {
			continue
		}
		if ps.Min > ps.Max && ps.Max > 0 {
			s.logger.Warn("curated bounds are inverted",
				logger.Int64("service", ps.ID),
				logger.Int64("min", ps.Min),
				logger.Int64("max", ps.Max))
		}
		if !matchesSocial(ps.Social, f.Social) || !containsFold(f.Query, ps.Name, ps.Category) {
			continue
		}
		out = append(out, ps)
	}

	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := sortKey(out[i]), sortKey(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// uncuratedServices passes upstream through. Social has no curated value
// here, so it is matched against the upstream text like the query.
func uncuratedServices(upstream []panel.Service, f Filters) []domain.PublicService {
	var out []domain.PublicService
	for _, svc := range upstream {
		text := svc.Category + " " + svc.Name + " " + svc.Type
		if !containsFold(f.Social, text) || !containsFold(f.Query, text) {
			continue
		}
		out = append(out, catalog.FromUpstream(svc))
	}
	return out
}

// Resolve finds the sellable service for id as the storefront shows it.
func (s *CatalogService) Resolve(ctx context.Context, id int64) (*domain.PublicService, error) {
	upstream, err := s.Upstream(ctx)
	if err != nil {
		return nil, err
	}
	byID := indexByID(upstream)

	if cat, curated := s.Curation(); curated {
		e, ok := cat.Enabled(id)
		if !ok {
			return nil, nil
		}
		ps, ok := catalog.MapEntry(e, byID[id], s.markup)
		if !ok {
			return nil, nil
		}
		return &ps, nil
	}

	up, ok := byID[id]
	if !ok {
		return nil, nil
	}
	ps := catalog.FromUpstream(*up)
	return &ps, nil
}

func indexByID(services []panel.Service) map[int64]*panel.Service {
	byID := make(map[int64]*panel.Service, len(services))
	for i := range services {
		byID[services[i].ID.Int64()] = &services[i]
	}
	return byID
}

func sortKey(ps domain.PublicService) int {
	if ps.SortOrder == nil {
		return math.MaxInt
	}
	return *ps.SortOrder
}

func matchesSocial(social, want string) bool {
	return want == "" || strings.EqualFold(social, want)
}

// containsFold reports whether needle occurs in any of the haystacks.
func containsFold(needle string, haystacks ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
