// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/household-budget/internal/budget"
)

// FindReport finds a household report by name in the results slice.
// Returns a pointer to the report if found, nil otherwise.
func FindReport(reports []budget.Report, name string) *budget.Report {
	for i := range reports {
		if reports[i].Name == name {
			return &reports[i]
		}
	}
	return nil
}
