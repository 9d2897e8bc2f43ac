package fyers

import (
	"context"

	"PulseTrade/internal/domain/models"
	drepo "PulseTrade/internal/domain/repository"
	"PulseTrade/pkg/logger"
)

// FallbackProvider decorates a primary provider with a secondary source.
// Symbols the primary could not serve are retried against the secondary,
// and anything it returns is flagged degraded so clients can tell fallback
// data from live data.
type FallbackProvider struct {
	primary   drepo.MarketDataProvider
	secondary drepo.MarketDataProvider
	log       *logger.Logger
}

func NewFallbackProvider(primary, secondary drepo.MarketDataProvider, log *logger.Logger) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary, log: log}
}

func (f *FallbackProvider) FetchQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	quotes, err := f.primary.FetchQuotes(ctx, symbols)
	if err != nil {
		f.log.Warn("primary provider unavailable, using fallback", logger.Error(err))
		quotes = map[string]*models.Quote{}
	}

	missing := make([]string, 0)
	for _, sym := range symbols {
		if _, ok := quotes[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) == 0 {
		return quotes, nil
	}

	fb, fbErr := f.secondary.FetchQuotes(ctx, missing)
	if fbErr != nil {
		if err != nil {
			// both sources down counts as a total outage
			return nil, err
		}
		f.log.Warn("fallback provider failed", logger.Error(fbErr), logger.Strings("symbols", missing))
		return quotes, nil
	}
	for sym, q := range fb {
		q.Degraded = true
		quotes[sym] = q
	}
	return quotes, nil
}
