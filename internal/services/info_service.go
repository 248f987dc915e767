package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/cache"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/logger"
)

const infoCacheTTL = time.Minute

var infoCacheKey = cache.Key("info", "counters")

// Info holds the public counters shown on the landing page.
type Info struct {
	TotalChains int64 `json:"total_chains"`
	TotalUsers  int64 `json:"total_users"`
}

// InfoService computes the public counters. Results are cached when a store is supplied.
type InfoService struct {
	db       *gorm.DB
	accounts identity.Store
	cache    cache.Store
	log      *zap.Logger
}

// NewInfoService constructs an InfoService. store may be nil.
func NewInfoService(db *gorm.DB, accounts identity.Store, store cache.Store) (*InfoService, error) {
	if db == nil {
		return nil, errors.New("info service: db is required")
	}
	if accounts == nil {
		return nil, errors.New("info service: identity store is required")
	}
	return &InfoService{
		db:       db,
		accounts: accounts,
		cache:    store,
		log:      logger.WithModule("info"),
	}, nil
}

// Get returns the number of published chains and registered accounts.
func (s *InfoService) Get(ctx context.Context) (*Info, error) {
	ctx = ensureContext(ctx)

	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}

	var info Info
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&models.Chain{}).
			Where("published = ?", true).
			Count(&info.TotalChains).Error
	})
	g.Go(func() error {
		total, err := s.accounts.Count(gctx)
		if err != nil {
			return err
		}
		info.TotalUsers = total
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("info service: count: %w", err)
	}

	s.store(ctx, &info)
	return &info, nil
}

func (s *InfoService) cached(ctx context.Context) (*Info, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok, err := s.cache.Get(ctx, infoCacheKey)
	if err != nil {
		s.log.Warn("read info cache", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var info Info
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, false
	}
	return &info, true
}

func (s *InfoService) store(ctx context.Context, info *Info) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, infoCacheKey, payload, infoCacheTTL); err != nil {
		s.log.Warn("write info cache", zap.Error(err))
	}
}
