package quiz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service loads quiz definitions, preferring the document cache over the source.
type Service struct {
	source Source
	cache  DocumentCache
	logger zerolog.Logger
}

// NewService builds a loader. cache may be nil.
func NewService(source Source, cache DocumentCache, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "quiz_loader").Logger(),
	}
}

// Load returns a validated quiz. A corrupt cached document falls through to
// the source; cache errors never fail the load.
func (s *Service) Load(ctx context.Context) (*Quiz, error) {
	key := s.source.Key()

	if s.cache != nil {
		doc, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("source", key).Msg("quiz cache read failed")
		case doc != nil:
			if q, err := Decode(doc); err == nil {
				s.logger.Debug().Str("source", key).Msg("quiz served from cache")
				return q, nil
			}
			s.logger.Warn().Str("source", key).Msg("cached quiz document invalid; refetching")
		}
	}

	doc, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch quiz: %w", err)
	}
	q, err := Decode(doc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, doc); err != nil {
			s.logger.Warn().Err(err).Str("source", key).Msg("quiz cache write failed")
		}
	}

	s.logger.Info().
		Str("source", key).
		Str("title", q.Title).
		Int("questions", len(q.Questions)).
		Msg("quiz loaded")
	return q, nil
}
