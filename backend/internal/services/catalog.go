package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/storage"
)

const (
	autocompleteLimit  = 5
	autocompleteAll    = "all"
	catalogCachePrefix = "catalog:"
)

// searchTypes допустимые значения searchtype
var searchTypes = map[string]storage.Catalog{
	"skill":      storage.CatalogSkills,
	"skills":     storage.CatalogSkills,
	"location":   storage.CatalogLocations,
	"locations":  storage.CatalogLocations,
	"category":   storage.CatalogCategories,
	"categories": storage.CatalogCategories,
	"benefit":    storage.CatalogBenefits,
	"benefits":   storage.CatalogBenefits,
}

// CatalogService чтение справочников с кэшем в Redis
type CatalogService struct {
	db     *storage.Database
	cache  *storage.RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService cache может быть nil, тогда все чтения идут в БД
func NewCatalogService(db *storage.Database, cache *storage.RedisClient, ttl time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// List весь справочник
func (s *CatalogService) List(ctx context.Context, c storage.Catalog) ([]models.CatalogItem, error) {
	return s.cached(ctx, catalogCachePrefix+string(c)+":all", func() ([]models.CatalogItem, error) {
		return storage.NewCatalogRepository(s.db.Conn()).List(ctx, c)
	})
}

// Autocomplete до пяти элементов по префиксу имени или весь справочник для query=all
func (s *CatalogService) Autocomplete(ctx context.Context, searchType, query string) ([]models.CatalogItem, error) {
	verr := newValidationError()
	if searchType == "" {
		verr.Add("searchtype", "The searchtype field is required.")
	}
	c, ok := searchTypes[searchType]
	if searchType != "" && !ok {
		verr.Add("searchtype", "The selected searchtype is invalid.")
	}
	if query == "" {
		verr.Add("query", "The query field is required.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if query == autocompleteAll {
		return s.List(ctx, c)
	}

	key := fmt.Sprintf("%s%s:prefix:%s", catalogCachePrefix, c, strings.ToLower(query))
	return s.cached(ctx, key, func() ([]models.CatalogItem, error) {
		return storage.NewCatalogRepository(s.db.Conn()).SearchPrefix(ctx, c, query, autocompleteLimit)
	})
}

// Invalidate сбрасывает кэш справочников после их изменения
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) cached(ctx context.Context, key string, load func() ([]models.CatalogItem, error)) ([]models.CatalogItem, error) {
	if s.cache != nil {
		var items []models.CatalogItem
		err := s.cache.GetJSON(ctx, key, &items)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, items, s.ttl); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
