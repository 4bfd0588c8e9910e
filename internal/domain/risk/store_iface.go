package risk

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, rec Record) error
	Latest(ctx context.Context, entityType, entityID string) (Record, error)
	History(ctx context.Context, entityType, entityID string, limit int) ([]Record, error)
	ApplyToEmployer(ctx context.Context, employerID string, score float64, rating string, scores FactorScores) error
	ApplyToEmployee(ctx context.Context, employeeID string, score float64, rating string) error
}
