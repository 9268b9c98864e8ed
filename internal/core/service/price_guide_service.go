package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/pkg/retry"
)

type PriceGuideService struct {
	repo      ports.PriceGuideRepository
	generator *TrackingGenerator
	logger    zerolog.Logger
}

func NewPriceGuideService(repo ports.PriceGuideRepository, logger zerolog.Logger) *PriceGuideService {
	return &PriceGuideService{
		repo:      repo,
		generator: NewTrackingGenerator(PriceGuidePrefix),
		logger:    logger,
	}
}

// Create adds a price guide with a generated guide number. Admin only.
func (s *PriceGuideService) Create(ctx context.Context, caller ports.Caller, name string, price decimal.Decimal) (*domain.PriceGuide, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("guideName", "is required")
	}
	if !price.IsPositive() {
		return nil, domain.NewValidationError("price", "must be greater than 0")
	}

	guide := &domain.PriceGuide{
		ID:        uuid.NewString(),
		GuideName: name,
		Price:     price.Round(2),
		CreatedAt: time.Now().UTC(),
	}
	err := retry.Retry(ctx, func() error {
		guide.GuideNumber = s.generator.Next()
		return s.repo.Create(ctx, guide)
	}, retry.Config{
		MaxAttempts:     maxTrackingAttempts,
		Backoff:         &retry.ConstantBackoff{Interval: time.Millisecond},
		Logger:          s.logger,
		RetryableErrors: []error{domain.ErrDuplicateGuideNumber},
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateGuideNumber) {
			s.logger.Error().Err(err).Msg("exhausted guide number attempts")
		}
		return nil, fmt.Errorf("create price guide: %w", err)
	}

	s.logger.Info().Str("guide_number", guide.GuideNumber).Str("name", name).Msg("price guide created")
	return guide, nil
}

func (s *PriceGuideService) List(ctx context.Context) ([]*domain.PriceGuide, error) {
	guides, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list price guides: %w", err)
	}
	return guides, nil
}
