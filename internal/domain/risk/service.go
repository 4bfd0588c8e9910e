package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store  StoreAPI
	Calc   *Calculator
	Logger *slog.Logger
}

func NewService(store StoreAPI, calc *Calculator, logger *slog.Logger) *Service {
	return &Service{Store: store, Calc: calc, Logger: logger}
}

func validEntityType(entityType string) bool {
	return entityType == EntityEmployer || entityType == EntityEmployee
}

func validateScores(scores FactorScores) error {
	supplied := 0
	for _, factors := range scores {
		for factor, value := range factors {
			// Zero is a valid score: maximum risk, not absence.
			if value < 0 || value > maxFactorScore {
				return fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, factor, value)
			}
			supplied++
		}
	}
	if supplied == 0 {
		return ErrNoScoresSupplied
	}
	return nil
}

// Review scores an entity against its weight table, appends a record
// to the score history, and copies the result onto the entity row so
// pricing reads never need a join.
func (s *Service) Review(ctx context.Context, entityType, entityID, reviewerID string, input ReviewInput) (Record, error) {
	if !validEntityType(entityType) {
		return Record{}, ErrUnknownEntity
	}
	if err := validateScores(input.Scores); err != nil {
		return Record{}, err
	}

	weights := s.Calc.Weights(entityType)
	crs := CompositeScore(input.Scores, weights)
	categories := map[string]float64{}
	for category := range weights {
		categories[category] = CategoryScore(input.Scores, weights, category)
	}

	rec := Record{
		ID:             uuid.NewString(),
		EntityType:     entityType,
		EntityID:       entityID,
		Scores:         input.Scores,
		CategoryScores: categories,
		Composite:      crs,
		Rating:         Rating(crs),
		FeePercentage:  ApplicationFee(crs),
		CreatedBy:      reviewerID,
		CalculatedAt:   time.Now().UTC(),
	}
	if err := s.apply(ctx, rec); err != nil {
		return Record{}, err
	}
	if err := s.Store.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	s.Logger.Info("risk review recorded",
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID),
		slog.Float64("composite", crs),
		slog.String("rating", rec.Rating))
	return rec, nil
}

// Override replaces the effective score with an admin-supplied value.
// The override is appended as its own record, keeping it in the same
// history as computed reviews, and the entity row takes the override.
func (s *Service) Override(ctx context.Context, entityType, entityID, reviewerID string, input OverrideInput) (Record, error) {
	if !validEntityType(entityType) {
		return Record{}, ErrUnknownEntity
	}
	if input.Score < 0 || input.Score > maxFactorScore {
		return Record{}, ErrScoreOutOfRange
	}
	if input.Reason == "" {
		return Record{}, ErrReasonRequired
	}

	prev, err := s.Store.Latest(ctx, entityType, entityID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}

	score := input.Score
	rec := Record{
		ID:             uuid.NewString(),
		EntityType:     entityType,
		EntityID:       entityID,
		Scores:         prev.Scores,
		CategoryScores: prev.CategoryScores,
		Composite:      prev.Composite,
		Rating:         Rating(score),
		FeePercentage:  ApplicationFee(score),
		Override:       &score,
		OverrideReason: input.Reason,
		CreatedBy:      reviewerID,
		CalculatedAt:   time.Now().UTC(),
	}
	if rec.Scores == nil {
		rec.Scores = FactorScores{}
	}
	if rec.CategoryScores == nil {
		rec.CategoryScores = map[string]float64{}
	}
	if err := s.apply(ctx, rec); err != nil {
		return Record{}, err
	}
	if err := s.Store.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	s.Logger.Info("risk score overridden",
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID),
		slog.Float64("score", score),
		slog.String("reviewer", reviewerID))
	return rec, nil
}

func (s *Service) apply(ctx context.Context, rec Record) error {
	effective := rec.EffectiveScore()
	if rec.EntityType == EntityEmployer {
		return s.Store.ApplyToEmployer(ctx, rec.EntityID, effective, rec.Rating, rec.Scores)
	}
	return s.Store.ApplyToEmployee(ctx, rec.EntityID, effective, rec.Rating)
}

func (s *Service) Latest(ctx context.Context, entityType, entityID string) (Record, error) {
	if !validEntityType(entityType) {
		return Record{}, ErrUnknownEntity
	}
	return s.Store.Latest(ctx, entityType, entityID)
}

func (s *Service) History(ctx context.Context, entityType, entityID string, limit int) ([]Record, error) {
	if !validEntityType(entityType) {
		return nil, ErrUnknownEntity
	}
	return s.Store.History(ctx, entityType, entityID, limit)
}

// EffectiveFee resolves the fee percentage to charge an entity right
// now. Entities that were never reviewed price at the neutral score.
func (s *Service) EffectiveFee(ctx context.Context, entityType, entityID string) (float64, float64, error) {
	rec, err := s.Store.Latest(ctx, entityType, entityID)
	if errors.Is(err, ErrRecordNotFound) {
		return NeutralScore, ApplicationFee(NeutralScore), nil
	}
	if err != nil {
		return 0, 0, err
	}
	score := rec.EffectiveScore()
	return score, ApplicationFee(score), nil
}
