package mastery

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

// CatalogSource loads mastery models and the organization's active school
// year. Results are cached for ttl; a zero ttl disables caching.
type CatalogSource interface {
	Catalog(ctx context.Context, orgID, modelID uuid.UUID) (*domain.Catalog, error)
	ActiveSchoolYear(ctx context.Context, orgID uuid.UUID) (*uuid.UUID, error)
	Invalidate(orgID, modelID uuid.UUID)
}

type catalogSource struct {
	models repos.MasteryModelRepo
	years  repos.SchoolYearRepo
	cache  *gocache.Cache
}

func NewCatalogSource(models repos.MasteryModelRepo, years repos.SchoolYearRepo, ttl time.Duration) CatalogSource {
	c := &catalogSource{models: models, years: years}
	if ttl > 0 {
		c.cache = gocache.New(ttl, 2*ttl)
	}
	return c
}

func catalogKey(orgID, modelID uuid.UUID) string {
	return "model:" + orgID.String() + ":" + modelID.String()
}
func yearKey(orgID uuid.UUID) string { return "year:" + orgID.String() }

func (c *catalogSource) Catalog(ctx context.Context, orgID, modelID uuid.UUID) (*domain.Catalog, error) {
	const op = "mastery.catalog.load"
	key := catalogKey(orgID, modelID)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(*domain.Catalog), nil
		}
	}
	dbc := dbctx.Background(ctx)
	model, err := c.models.GetByID(dbc, orgID, modelID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if model == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, "mastery model not found", nil)
	}
	levels, err := c.models.ListLevels(dbc, model.ID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	cat := &domain.Catalog{Model: *model, Levels: levels}
	if c.cache != nil {
		c.cache.SetDefault(key, cat)
	}
	return cat, nil
}

// ActiveSchoolYear returns nil when the organization has no active year.
func (c *catalogSource) ActiveSchoolYear(ctx context.Context, orgID uuid.UUID) (*uuid.UUID, error) {
	key := yearKey(orgID)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(*uuid.UUID), nil
		}
	}
	year, err := c.years.GetActive(dbctx.Background(ctx), orgID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "mastery.catalog.school_year", err)
	}
	var out *uuid.UUID
	if year != nil {
		id := year.ID
		out = &id
	}
	if c.cache != nil {
		c.cache.SetDefault(key, out)
	}
	return out, nil
}

func (c *catalogSource) Invalidate(orgID, modelID uuid.UUID) {
	if c.cache == nil {
		return
	}
	c.cache.Delete(catalogKey(orgID, modelID))
	c.cache.Delete(yearKey(orgID))
}
