package questions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/abhisek/tutor/internal/failure"
	"github.com/abhisek/tutor/internal/logger"
)

// Source records where a supplied set came from.
type Source string

const (
	SourceAuthored  Source = "authored"
	SourceGenerated Source = "generated"
	SourceCached    Source = "cached"
	SourceFallback  Source = "fallback"
)

// Config tunes the Supplier.
type Config struct {
	// DefaultCount applies when Supply is asked for zero questions.
	DefaultCount int

	// CacheTTL is how long a generated set is reused. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultConfig returns the standard supplier settings.
func DefaultConfig() Config {
	return Config{DefaultCount: 5, CacheTTL: 30 * time.Minute}
}

// Supplier produces the question pool for a session. Supply never fails.
type Supplier struct {
	gen    Generator
	cfg    Config
	log    *logger.Logger
	cache  *cache.Cache
	flight singleflight.Group
}

// NewSupplier creates a Supplier. A nil gen means every module without
// authored questions gets the fallback set.
func NewSupplier(gen Generator, cfg Config, log *logger.Logger) *Supplier {
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = DefaultConfig().DefaultCount
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Supplier{gen: gen, cfg: cfg, log: log}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s
}

// Supply returns up to count questions for the module and kind. The
// result is never empty.
func (s *Supplier) Supply(ctx context.Context, m curriculum.Module, kind curriculum.Kind, count int, difficulty curriculum.Difficulty) []curriculum.Question {
	qs, _ := s.SupplyWithSource(ctx, m, kind, count, difficulty)
	return qs
}

// SupplyWithSource is Supply that also reports where the set came from.
func (s *Supplier) SupplyWithSource(ctx context.Context, m curriculum.Module, kind curriculum.Kind, count int, difficulty curriculum.Difficulty) ([]curriculum.Question, Source) {
	if count <= 0 {
		count = s.cfg.DefaultCount
	}

	if authored := m.AuthoredFor(kind); len(authored) > 0 {
		if qs := normalizeSet(m.ID, authored); len(qs) > 0 {
			return truncate(qs, count), SourceAuthored
		}
		s.log.Warn("authored questions unusable, falling back", "module", m.ID, "kind", kind)
		return Fallback(m), SourceFallback
	}

	key := fmt.Sprintf("%s|%s|%d|%s", m.ID, kind, count, difficulty)
	if s.cache != nil {
		if x, ok := s.cache.Get(key); ok {
			return slices.Clone(x.([]curriculum.Question)), SourceCached
		}
	}

	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.generate(ctx, GenerateInput{Module: m, Kind: kind, Count: count, Difficulty: difficulty})
	})
	if err != nil {
		s.log.Warn("question generation failed, using fallback set", "module", m.ID, "kind", kind, "error", err)
		return Fallback(m), SourceFallback
	}

	qs := v.([]curriculum.Question)
	if s.cache != nil {
		s.cache.SetDefault(key, qs)
	}
	s.log.Debug("question set generated", "module", m.ID, "kind", kind, "count", len(qs), "shared", shared)
	return slices.Clone(qs), SourceGenerated
}

func (s *Supplier) generate(ctx context.Context, input GenerateInput) ([]curriculum.Question, error) {
	if s.gen == nil {
		return nil, failure.Generation("supply questions", errors.New("no generator configured"))
	}
	raw, err := s.gen.Generate(ctx, input)
	if err != nil {
		return nil, failure.Generation("supply questions", err)
	}
	qs := normalizeSet(input.Module.ID, raw)
	if len(qs) == 0 {
		return nil, failure.Validation("supply questions", fmt.Errorf("none of %d generated questions were usable", len(raw)))
	}
	return truncate(qs, input.Count), nil
}

func truncate(qs []curriculum.Question, n int) []curriculum.Question {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}
