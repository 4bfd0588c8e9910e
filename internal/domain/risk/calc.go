package risk

const (
	RatingA = "A"
	RatingB = "B"
	RatingC = "C"
	RatingD = "D"

	// NeutralScore is assumed for entities that have never been scored.
	NeutralScore = 3.0

	baseFeePercent    = 3.5
	riskFeeAdjustment = 3.0
	maxFactorScore    = 5
)

type WeightTable map[string]map[string]float64

type FactorScores map[string]map[string]int

// CompositeScore is a weighted average over the intersection of the
// supplied factor scores and the weight table. Factors missing from
// either side are skipped, not zero-filled, so a partially scored
// entity is rated only on what was actually scored. Returns 0 when no
// factor matches.
func CompositeScore(scores FactorScores, weights WeightTable) float64 {
	totalWeighted := 0.0
	totalWeight := 0.0
	for category, factors := range weights {
		scored, ok := scores[category]
		if !ok {
			continue
		}
		for factor, weight := range factors {
			value, ok := scored[factor]
			if !ok {
				continue
			}
			totalWeighted += float64(value) * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return totalWeighted / totalWeight
}

// Rating maps a composite score to a letter band. Band lower bounds
// are inclusive: A >= 4.0, B >= 3.0, C >= 2.6, else D.
func Rating(crs float64) string {
	switch {
	case crs >= 4.0:
		return RatingA
	case crs >= 3.0:
		return RatingB
	case crs >= 2.6:
		return RatingC
	default:
		return RatingD
	}
}

// ApplicationFee prices an advance fee percentage from a composite
// score: 3.5% at the minimum-risk score of 5, rising to 9.5% at 0.
func ApplicationFee(crs float64) float64 {
	return baseFeePercent + riskFeeAdjustment*(1-crs/5)
}

// CategoryScore computes the weighted average of a single category in
// isolation, for reporting alongside the composite.
func CategoryScore(scores FactorScores, weights WeightTable, category string) float64 {
	factors, ok := weights[category]
	if !ok {
		return 0
	}
	return CompositeScore(
		FactorScores{category: scores[category]},
		WeightTable{category: factors},
	)
}

type Calculator struct {
	employer WeightTable
	employee WeightTable
}

func NewCalculator(employer, employee WeightTable) *Calculator {
	return &Calculator{employer: employer, employee: employee}
}

func NewDefaultCalculator() *Calculator {
	return NewCalculator(EmployerWeights(), EmployeeWeights())
}

func (c *Calculator) Weights(entityType string) WeightTable {
	if entityType == EntityEmployer {
		return c.employer
	}
	return c.employee
}

func (c *Calculator) Score(entityType string, scores FactorScores) (float64, string) {
	crs := CompositeScore(scores, c.Weights(entityType))
	return crs, Rating(crs)
}
