package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/redis"
)

// Runtime setting keys. Values live in the settings table and are editable
// without a deploy; reads go through a short-TTL cache.
const (
	KeyTaxRate                 = "tax_rate"
	KeyProfessionalDiscountPct = "professional_discount_pct"
	KeyLoyaltyPointsPerEuro    = "loyalty_points_per_euro"
)

var defaults = map[string]string{
	KeyTaxRate:                 "21",
	KeyProfessionalDiscountPct: "10",
	KeyLoyaltyPointsPerEuro:    "1",
}

// Service reads and writes hot-reloadable settings.
type Service interface {
	Decimal(ctx context.Context, key string) (decimal.Decimal, error)
	Int(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]models.Setting, error)
}

type service struct {
	repo  Repository
	cache redis.SettingsCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService builds the settings service. The cache is optional; without it
// every read goes to the database.
func NewService(repo Repository, cache redis.SettingsCache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

// Decimal resolves a numeric setting, falling back to the seeded default when
// the key was never written. Cache failures degrade to database reads.
func (s *service) Decimal(ctx context.Context, key string) (decimal.Decimal, error) {
	raw, err := s.lookup(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting is not numeric").WithDetails(map[string]any{"key": key})
	}
	return value, nil
}

// Int resolves a whole-number setting. Fractional stored values are rejected
// rather than silently truncated.
func (s *service) Int(ctx context.Context, key string) (int64, error) {
	value, err := s.Decimal(ctx, key)
	if err != nil {
		return 0, err
	}
	if !value.Equal(value.Truncate(0)) {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "setting is not a whole number").WithDetails(map[string]any{"key": key})
	}
	return value.IntPart(), nil
}

func (s *service) lookup(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.cache.SettingsKey(key))
		if err == nil && cached != "" {
			return cached, nil
		}
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}

	var value string
	switch {
	case setting != nil:
		value = setting.Value
	default:
		fallback, ok := defaults[key]
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown setting").WithDetails(map[string]any{"key": key})
		}
		value = fallback
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.SettingsKey(key), value, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "setting_key", key), "settings cache write failed")
		}
	}
	return value, nil
}

// Set writes a setting and invalidates its cache entry so the next read sees
// the new value immediately.
func (s *service) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting value cannot be empty")
	}
	if _, err := decimal.NewFromString(value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting value must be numeric").WithDetails(map[string]any{"key": key})
	}

	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cache.SettingsKey(key)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "setting_key", key), "settings cache invalidation failed")
		}
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.List(ctx)
}
