package numbering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// NumberingService allocates document numbers from configured sequences.
// Allocation increments under the configuration's row lock, so two
// concurrent requests for the same sequence always get distinct numbers.
// Numbers are not returned on rollback; gaps are acceptable.
type NumberingService struct {
	uow    ports.UnitOfWork
	logger *zap.Logger
	clock  shared.Clock
}

// NewNumberingService creates a numbering service
func NewNumberingService(uow ports.UnitOfWork, logger *zap.Logger, clock shared.Clock) *NumberingService {
	return &NumberingService{uow: uow, logger: logger, clock: clock}
}

// NextNumberTx allocates the next number inside the caller's transaction
// scope. Selection resolves user preference first, then location
// assignment, then the document type's default configuration.
func (s *NumberingService) NextNumberTx(ctx context.Context, r ports.Repos, documentType string, locationID *uint, userName string) (string, error) {
	selected, err := r.Numbering.Select(ctx, documentType, locationID, userName)
	if err != nil {
		var notFound *numbering.ErrConfigNotFound
		if errors.As(err, &notFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to select numbering config: %w", err)
	}

	// Re-read under the row lock; the unlocked Select result may be stale
	config, err := r.Numbering.FindForUpdate(ctx, selected.ID)
	if err != nil {
		return "", fmt.Errorf("failed to lock numbering config: %w", err)
	}

	year := s.clock.Now().Year()
	if config.ResetYearly && config.LastResetYear != year {
		config.CurrentNumber = 0
		config.LastResetYear = year
		s.logger.Info("numbering sequence reset",
			zap.String("document_type", documentType), zap.Int("year", year))
	}

	next := config.CurrentNumber + 1
	if config.MaxNumber > 0 && next > config.MaxNumber {
		return "", &numbering.ErrSequenceExhausted{
			DocumentType: documentType,
			MaxNumber:    config.MaxNumber,
		}
	}

	config.CurrentNumber = next
	if err := r.Numbering.Save(ctx, config); err != nil {
		return "", fmt.Errorf("failed to advance numbering sequence: %w", err)
	}
	return config.Format(next), nil
}

// NextNumber allocates the next number in its own transaction
func (s *NumberingService) NextNumber(ctx context.Context, documentType string, locationID *uint, userName string) (string, error) {
	var number string
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		number, err = s.NextNumberTx(ctx, r, documentType, locationID, userName)
		return err
	})
	return number, err
}

// Peek returns the number the next allocation would produce without
// advancing the sequence. Advisory only: a concurrent allocation can take
// the previewed number.
func (s *NumberingService) Peek(ctx context.Context, documentType string, locationID *uint, userName string) (string, error) {
	var number string
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		config, err := r.Numbering.Select(ctx, documentType, locationID, userName)
		if err != nil {
			return err
		}
		next := config.CurrentNumber + 1
		if config.ResetYearly && config.LastResetYear != s.clock.Now().Year() {
			next = 1
		}
		number = config.Format(next)
		return nil
	})
	return number, err
}
