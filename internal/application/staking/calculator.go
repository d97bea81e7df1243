package staking

import (
	"fmt"

	"github.com/stakesol/api/internal/domain"
)

// Plan is a staking tier with a fixed annual rate. The rate table lives here,
// server-side, as the single source of truth.
type Plan struct {
	Name       string  `json:"name"`
	AnnualRate float64 `json:"annual_rate"`
	MinAmount  float64 `json:"min_amount"`
}

var plans = []Plan{
	{Name: "flexible", AnnualRate: 0.052, MinAmount: 1},
	{Name: "standard", AnnualRate: 0.068, MinAmount: 10},
	{Name: "premium", AnnualRate: 0.085, MinAmount: 100},
}

type EstimateRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Months int     `json:"months" validate:"required,min=1,max=60"`
	Plan   string  `json:"plan" validate:"required"`
}

type Estimate struct {
	Plan       string  `json:"plan"`
	AnnualRate float64 `json:"annual_rate"`
	Amount     float64 `json:"amount"`
	Months     int     `json:"months"`
	Earnings   float64 `json:"earnings"`
	Total      float64 `json:"total"`
}

// Plans returns the available staking tiers.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// Calculate returns the closed-form simple-interest projection for a plan:
// amount × rate × months/12.
func Calculate(req EstimateRequest) (*Estimate, error) {
	p, err := planByName(req.Plan)
	if err != nil {
		return nil, err
	}
	if req.Amount < p.MinAmount {
		return nil, fmt.Errorf("plan %s requires at least %g SOL: %w", p.Name, p.MinAmount, domain.ErrBadRequest)
	}
	earnings := req.Amount * p.AnnualRate * float64(req.Months) / 12
	return &Estimate{
		Plan:       p.Name,
		AnnualRate: p.AnnualRate,
		Amount:     req.Amount,
		Months:     req.Months,
		Earnings:   earnings,
		Total:      req.Amount + earnings,
	}, nil
}

func planByName(name string) (*Plan, error) {
	for i := range plans {
		if plans[i].Name == name {
			return &plans[i], nil
		}
	}
	return nil, fmt.Errorf("unknown plan %q: %w", name, domain.ErrBadRequest)
}
