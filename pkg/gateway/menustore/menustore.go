// Package menustore loads tenant menus for the dialog engine. Items come
// from Postgres (or a static seed when no database is configured) and pass
// through a Redis snapshot cache so session setup stays fast.
package menustore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// Source yields the raw menu rows for one tenant.
type Source interface {
	Items(ctx context.Context, tenantRef string) ([]menu.Item, error)
}

// TenantConfig describes one tenant for session setup.
type TenantConfig struct {
	Ref            string
	Name           string
	BaseLang       string
	SupportedLangs []string
}

// TenantSource is implemented by sources that can describe tenants.
type TenantSource interface {
	Tenant(ctx context.Context, tenantRef string) (TenantConfig, error)
}

// Store builds language-specific menu snapshots, caching the item rows in
// Redis when a client is configured.
type Store struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New builds a store. rdb may be nil to disable caching.
func New(source Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{source: source, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(tenantRef, lang string) string {
	return fmt.Sprintf("menu:%s:%s", tenantRef, lang)
}

// Snapshot returns the resolver-ready menu for one tenant and language.
// Cache failures fall through to the source; they never fail a session.
func (s *Store) Snapshot(ctx context.Context, tenantRef, lang string) (*menu.Snapshot, error) {
	if items, ok := s.cachedItems(ctx, tenantRef, lang); ok {
		return menu.BuildSnapshot(tenantRef, lang, items), nil
	}

	items, err := s.source.Items(ctx, tenantRef)
	if err != nil {
		return nil, fmt.Errorf("load menu for %s: %w", tenantRef, err)
	}

	s.cacheItems(ctx, tenantRef, lang, items)
	return menu.BuildSnapshot(tenantRef, lang, items), nil
}

func (s *Store) cachedItems(ctx context.Context, tenantRef, lang string) ([]menu.Item, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, cacheKey(tenantRef, lang)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("menu cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var items []menu.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("menu cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return items, true
}

func (s *Store) cacheItems(ctx context.Context, tenantRef, lang string, items []menu.Item) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		s.logger.Warn("menu cache marshal failed", zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(tenantRef, lang), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("menu cache write failed", zap.Error(err))
	}
}

// Tenant resolves tenant details. Lookup failures fall back to a
// ref-derived default so a session can still open.
func (s *Store) Tenant(ctx context.Context, tenantRef, defaultLang string) TenantConfig {
	if ts, ok := s.source.(TenantSource); ok {
		tc, err := ts.Tenant(ctx, tenantRef)
		if err == nil {
			if tc.Name == "" {
				tc.Name = tc.Ref
			}
			if tc.BaseLang == "" {
				tc.BaseLang = defaultLang
			}
			if len(tc.SupportedLangs) == 0 {
				tc.SupportedLangs = []string{"en", "nl", "tr"}
			}
			return tc
		}
		s.logger.Warn("tenant lookup failed", zap.String("tenant", tenantRef), zap.Error(err))
	}
	return TenantConfig{
		Ref:            tenantRef,
		Name:           tenantRef,
		BaseLang:       defaultLang,
		SupportedLangs: []string{"en", "nl", "tr"},
	}
}

// Invalidate drops the cached rows for one tenant across languages.
func (s *Store) Invalidate(ctx context.Context, tenantRef string, langs ...string) {
	if s.rdb == nil {
		return
	}
	for _, lang := range langs {
		if err := s.rdb.Del(ctx, cacheKey(tenantRef, lang)).Err(); err != nil {
			s.logger.Warn("menu cache invalidate failed", zap.Error(err))
		}
	}
}
