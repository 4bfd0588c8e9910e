package risk

// Factor weight tables per entity type. Weights for each table sum to
// 1.0. These are fixed configuration; callers receive copies and the
// calculator is constructed with them rather than reading globals.

func EmployerWeights() WeightTable {
	return WeightTable{
		"legal_compliance": {"registration_status": 0.10, "tax_compliance": 0.07, "ewa_agreement": 0.03},
		"financial_health": {"audited_financials": 0.15, "liquidity_ratio": 0.10, "payroll_sustainability": 0.10},
		"operational":      {"employee_count": 0.05, "churn_rate": 0.05, "payroll_integration": 0.10},
		"sector_exposure":  {"industry_risk": 0.10, "regulatory_exposure": 0.05},
		"aml_transparency": {"beneficial_ownership": 0.05, "pep_screening": 0.05},
	}
}

func EmployeeWeights() WeightTable {
	return WeightTable{
		"legal_compliance": {"verification_status": 0.15, "tax_compliance": 0.10, "consent_data_rights": 0.10},
		"financial_health": {"account_verification": 0.45},
		"operational":      {"employment_status": 0.075, "employment_contract": 0.075, "recent_payslips": 0.025, "bank_statements": 0.025},
	}
}

// IndustryRisk maps industry codes to a 1-5 sector risk score
// (5 = lowest risk), used as reference data for employer reviews.
func IndustryRisk() map[string]int {
	return map[string]int{
		"agriculture": 3, "manufacturing": 3, "construction": 3, "mining": 1,
		"retail": 3, "hospitality": 3, "healthcare": 5, "education": 5,
		"financial_services": 5, "technology": 5, "transport": 3, "utilities": 5,
		"real_estate": 3, "professional_services": 5, "government": 5, "ngo": 3,
		"other": 3,
	}
}
