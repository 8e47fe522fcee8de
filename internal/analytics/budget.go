package analytics

import "gagyebu/internal/core"

// BudgetStatus overlays actual spend on a budget for one window.
type BudgetStatus struct {
	Budget       core.Budget `json:"budget"`
	Spent        int64       `json:"spent"`
	Remaining    int64       `json:"remaining"`
	Percentage   float64     `json:"percentage"`
	IsOverBudget bool        `json:"isOverBudget"`
}

// BudgetProgress computes spend against a budget ceiling. A zero-amount
// budget reports 0% rather than dividing by zero.
func BudgetProgress(b core.Budget, spent int64) BudgetStatus {
	pct := 0.0
	if b.Amount > 0 {
		pct = float64(spent) / float64(b.Amount) * 100
	}
	return BudgetStatus{
		Budget:       b,
		Spent:        spent,
		Remaining:    b.Amount - spent,
		Percentage:   pct,
		IsOverBudget: spent > b.Amount,
	}
}
