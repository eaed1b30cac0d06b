// Package budget evaluates every active household of a configuration.
package budget

import (
	"fmt"

	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/internal/engine"
	"go.uber.org/zap"
)

// Report holds the validated input and the computed result of one household.
type Report struct {
	Name   string                 `json:"name"`
	Input  engine.HouseholdInput  `json:"input"`
	Result engine.HouseholdResult `json:"result"`
}

// Evaluate builds and computes every active household. The first invalid
// household aborts the run; no partial results are returned for it.
func Evaluate(logger *zap.Logger, conf config.Configuration) ([]Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	profile, err := conf.Profile.EngineProfile()
	if err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	var reports []Report
	for i, household := range conf.Households {
		name := household.Name
		if name == "" {
			name = fmt.Sprintf("household %d", i+1)
		}
		if !household.Active {
			logger.Debug(fmt.Sprintf("skipping household %s because it is inactive", name),
				zap.String("op", "budget.Evaluate"),
			)
			continue
		}

		in, err := household.Draft.Build(profile)
		if err != nil {
			return reports, fmt.Errorf("household %s: %w", name, err)
		}

		report := NewReport(name, in)
		logger.Debug("computed household",
			zap.String("op", "budget.Evaluate"),
			zap.String("household", name),
			zap.Float64("disposable", report.Result.DisposableAmount),
			zap.Float64("maxLoan", report.Result.MaxLoanAmount),
			zap.Float64("maxPurchasePrice", report.Result.MaxPurchasePrice),
		)
		reports = append(reports, report)
	}

	return reports, nil
}

// NewReport computes a single validated household.
func NewReport(name string, in engine.HouseholdInput) Report {
	return Report{Name: name, Input: in, Result: engine.Compute(in)}
}
