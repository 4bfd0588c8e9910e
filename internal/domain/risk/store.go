package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ewa/internal/domain/core"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `id, entity_type, entity_id, scores, category_scores,
	composite_risk_score, risk_rating, application_fee_percentage,
	override_score, override_reason, created_by, calculated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var scores, categories []byte
	err := row.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &scores, &categories,
		&rec.Composite, &rec.Rating, &rec.FeePercentage,
		&rec.Override, &rec.OverrideReason, &rec.CreatedBy, &rec.CalculatedAt)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(scores, &rec.Scores); err != nil {
		return Record{}, fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal(categories, &rec.CategoryScores); err != nil {
		return Record{}, fmt.Errorf("decode category scores: %w", err)
	}
	return rec, nil
}

func (s *Store) Insert(ctx context.Context, rec Record) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	categories, err := json.Marshal(rec.CategoryScores)
	if err != nil {
		return fmt.Errorf("encode category scores: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO risk_scores (id, entity_type, entity_id, scores, category_scores,
			composite_risk_score, risk_rating, application_fee_percentage,
			override_score, override_reason, created_by, calculated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.ID, rec.EntityType, rec.EntityID, scores, categories,
		rec.Composite, rec.Rating, rec.FeePercentage,
		rec.Override, rec.OverrideReason, rec.CreatedBy, rec.CalculatedAt)
	if err != nil {
		return fmt.Errorf("insert risk record: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context, entityType, entityID string) (Record, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM risk_scores
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY calculated_at DESC
		LIMIT 1`, entityType, entityID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest risk record: %w", err)
	}
	return rec, nil
}

func (s *Store) History(ctx context.Context, entityType, entityID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+recordColumns+`
		FROM risk_scores
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY calculated_at DESC
		LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("risk history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("risk history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) ApplyToEmployer(ctx context.Context, employerID string, score float64, rating string, scores FactorScores) error {
	factors, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode risk factors: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `
		UPDATE employers
		SET risk_score = $1, risk_rating = $2, risk_factors = $3
		WHERE id = $4`, score, rating, factors, employerID)
	if err != nil {
		return fmt.Errorf("apply employer risk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrEmployerNotFound
	}
	return nil
}

func (s *Store) ApplyToEmployee(ctx context.Context, employeeID string, score float64, rating string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE employees
		SET risk_score = $1, risk_rating = $2
		WHERE id = $3`, score, rating, employeeID)
	if err != nil {
		return fmt.Errorf("apply employee risk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrEmployeeNotFound
	}
	return nil
}
