package marketprice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Static category baselines, used whenever no live market price is
// available. Values are typical mission budgets per category.
var categoryDefaults = map[string]decimal.Decimal{
	"web-development":    decimal.NewFromInt(3000),
	"mobile-development": decimal.NewFromInt(5000),
	"design":             decimal.NewFromInt(1500),
	"marketing":          decimal.NewFromInt(2000),
	"ai-development":     decimal.NewFromInt(8000),
}

var fallbackDefault = decimal.NewFromInt(2500)

// Resolver answers "what does a mission in this category normally cost".
// When Redis is configured it consults live aggregates first and falls back
// to the static table on miss or error.
type Resolver struct {
	client *redis.Client
	logger *slog.Logger
}

// NewResolver creates a resolver. client may be nil, in which case only the
// static table is consulted.
func NewResolver(client *redis.Client, logger *slog.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// Resolve returns the reference market price for a category
func (r *Resolver) Resolve(ctx context.Context, category string) decimal.Decimal {
	category = strings.ToLower(strings.TrimSpace(category))

	if r.client != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()

		raw, err := r.client.Get(ctx, "marketprice:"+category).Result()
		if err == nil {
			price, perr := decimal.NewFromString(raw)
			if perr == nil && price.IsPositive() {
				return price
			}
			r.logger.Warn("Invalid market price in redis, using static baseline",
				slog.String("category", category),
				slog.String("value", raw))
		} else if err != redis.Nil {
			r.logger.Warn("Market price lookup failed, using static baseline",
				slog.String("category", category),
				slog.String("error", err.Error()))
		}
	}

	if price, ok := categoryDefaults[category]; ok {
		return price
	}
	return fallbackDefault
}
