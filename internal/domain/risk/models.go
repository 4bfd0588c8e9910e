package risk

import "time"

const (
	EntityEmployer = "employer"
	EntityEmployee = "employee"
)

// Record is one completed risk review. Records are append-only; the
// latest record per entity is what pricing reads.
type Record struct {
	ID             string             `json:"id"`
	EntityType     string             `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	Scores         FactorScores       `json:"scores"`
	CategoryScores map[string]float64 `json:"category_scores"`
	Composite      float64            `json:"composite_score"`
	Rating         string             `json:"rating"`
	FeePercentage  float64            `json:"fee_percentage"`
	Override       *float64           `json:"override,omitempty"`
	OverrideReason string             `json:"override_reason,omitempty"`
	CreatedBy      string             `json:"created_by"`
	CalculatedAt   time.Time          `json:"calculated_at"`
}

// EffectiveScore is the override when set, otherwise the computed
// composite.
func (r Record) EffectiveScore() float64 {
	if r.Override != nil {
		return *r.Override
	}
	return r.Composite
}

type ReviewInput struct {
	Scores FactorScores `json:"scores"`
}

type OverrideInput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}
