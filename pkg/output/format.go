// Package output provides utilities for formatting and displaying household
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/household-budget/internal/budget"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/pkg/format"
	"github.com/iwvelando/household-budget/pkg/mathutil"
)

// chartWidth is the length of the longest bar in the pretty chart.
const chartWidth = 40

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, reports []budget.Report, f format.Formatter) {
	for i, report := range reports {
		res := report.Result
		fmt.Fprintf(w, "--- Results for household %s ---\n", report.Name)

		fmt.Fprintf(w, "Income\n")
		for _, item := range res.Income {
			row(w, "  "+item.Label, f.Currency(item.Amount))
		}
		row(w, "Total income", f.Currency(res.TotalIncome))

		fmt.Fprintf(w, "Expenses\n")
		for _, item := range res.Expenses {
			label := "  " + item.Label
			if stipendOverridden(report.Input, item.Key) {
				label += " (adjusted)"
			}
			row(w, label, f.Currency(item.Amount))
		}
		row(w, "Total expenses", f.Currency(res.TotalExpenses))
		row(w, "Disposable amount", f.Currency(res.DisposableAmount))

		fmt.Fprintf(w, "Financing\n")
		row(w, "  Annuity rate", f.Percent(res.AnnuityRatePct))
		row(w, "  Max loan amount", f.Currency(res.MaxLoanAmount))
		if res.PayoffMonths > 0 {
			row(w, "  Payoff", fmt.Sprintf("%d months", res.PayoffMonths))
		}
		if res.MaxLoanAmount > 0 {
			row(w, "  Residual debt after 10 years", f.Currency(res.ResidualDebt))
		}
		row(w, "  Transaction costs", f.Percent(res.TransactionCostPct))
		row(w, "  Max purchase price", f.Currency(res.MaxPurchasePrice))
		row(w, "  Transaction cost amount", f.Currency(res.TransactionCostAmount))

		if res.Target != nil {
			fmt.Fprintf(w, "Target property\n")
			row(w, "  Purchase price", f.Currency(report.Input.TargetPurchasePrice))
			row(w, "  Total investment", f.Currency(res.Target.Investment))
			row(w, "  Loan amount", f.Currency(res.Target.LoanAmount))
			row(w, "  Required rate", f.Currency(res.Target.RequiredRate))
			if res.Target.IsAffordable {
				row(w, "  Affordable", "yes")
			} else {
				row(w, "  Affordable", "no")
				row(w, "  Shortfall", f.Currency(res.Target.Shortfall))
			}
		}

		if res.RentVsBuyDelta != nil {
			row(w, "Rent vs buy", f.Currency(*res.RentVsBuyDelta))
		}

		if res.PlannedRate != nil {
			fmt.Fprintf(w, "Planned rate\n")
			row(w, "  Rate", f.Currency(res.PlannedRate.Rate))
			row(w, "  Remainder", f.Currency(res.PlannedRate.Remainder))
			if res.PlannedRate.RentVsBuyDelta != nil {
				row(w, "  Rent vs buy", f.Currency(*res.PlannedRate.RentVsBuyDelta))
			}
		}

		chart(w, res.ChartBars(), f)

		if i < len(reports)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-30s | %18s\n", label, value)
}

func chart(w io.Writer, bars [3]float64, f format.Formatter) {
	labels := [3]string{"Income", "Expenses", "Disposable"}
	longest := 0.0
	for _, bar := range bars {
		if bar > longest {
			longest = bar
		}
	}
	fmt.Fprintf(w, "Chart\n")
	for i, bar := range bars {
		n := 0
		if longest > 0 {
			n = int(bar / longest * chartWidth)
		}
		fmt.Fprintf(w, "  %-10s %-*s %s\n", labels[i], chartWidth, strings.Repeat("#", n), f.Currency(bar))
	}
}

func stipendOverridden(in engine.HouseholdInput, key string) bool {
	switch key {
	case engine.ItemLivingCost:
		return in.LivingCostStipend.Overridden()
	case engine.ItemOperatingCost:
		return in.OperatingCostStipend.Overridden()
	case engine.ItemMaintenance:
		return in.MaintenanceBuffer.Overridden()
	}
	return false
}

// CsvFormat outputs in comma-separated value format: one row per metric and
// one column per household. Metrics a household does not have are empty.
func CsvFormat(w io.Writer, reports []budget.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"metric"}
	for _, report := range reports {
		header = append(header, report.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, metric := range csvMetrics(reports) {
		record := []string{metric}
		for _, report := range reports {
			record = append(record, csvValue(report.Result, metric))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvMetrics(reports []budget.Report) []string {
	var metrics []string
	if len(reports) > 0 {
		for _, item := range reports[0].Result.Income {
			metrics = append(metrics, item.Key)
		}
		metrics = append(metrics, "total_income")
		for _, item := range reports[0].Result.Expenses {
			metrics = append(metrics, item.Key)
		}
	}
	return append(metrics,
		"total_expenses",
		"disposable_amount",
		"annuity_rate_pct",
		"max_loan_amount",
		"payoff_months",
		"residual_debt",
		"transaction_cost_pct",
		"max_purchase_price",
		"transaction_cost_amount",
		"target_investment",
		"target_loan_amount",
		"target_required_rate",
		"target_is_affordable",
		"target_shortfall",
		"rent_vs_buy_delta",
		"planned_rate",
		"planned_rate_remainder",
		"planned_rate_rent_vs_buy_delta",
	)
}

func csvValue(res engine.HouseholdResult, metric string) string {
	for _, items := range [][]engine.LineItem{res.Income, res.Expenses} {
		for _, item := range items {
			if item.Key == metric {
				return amount(item.Amount)
			}
		}
	}

	switch metric {
	case "total_income":
		return amount(res.TotalIncome)
	case "total_expenses":
		return amount(res.TotalExpenses)
	case "disposable_amount":
		return amount(res.DisposableAmount)
	case "annuity_rate_pct":
		return amount(res.AnnuityRatePct)
	case "max_loan_amount":
		return amount(res.MaxLoanAmount)
	case "payoff_months":
		return strconv.Itoa(res.PayoffMonths)
	case "residual_debt":
		return amount(res.ResidualDebt)
	case "transaction_cost_pct":
		return amount(res.TransactionCostPct)
	case "max_purchase_price":
		return amount(res.MaxPurchasePrice)
	case "transaction_cost_amount":
		return amount(res.TransactionCostAmount)
	case "rent_vs_buy_delta":
		return optional(res.RentVsBuyDelta)
	}

	if strings.HasPrefix(metric, "target_") {
		if res.Target == nil {
			return ""
		}
		switch metric {
		case "target_investment":
			return amount(res.Target.Investment)
		case "target_loan_amount":
			return amount(res.Target.LoanAmount)
		case "target_required_rate":
			return amount(res.Target.RequiredRate)
		case "target_is_affordable":
			return strconv.FormatBool(res.Target.IsAffordable)
		case "target_shortfall":
			return amount(res.Target.Shortfall)
		}
	}

	if strings.HasPrefix(metric, "planned_rate") {
		if res.PlannedRate == nil {
			return ""
		}
		switch metric {
		case "planned_rate":
			return amount(res.PlannedRate.Rate)
		case "planned_rate_remainder":
			return amount(res.PlannedRate.Remainder)
		case "planned_rate_rent_vs_buy_delta":
			return optional(res.PlannedRate.RentVsBuyDelta)
		}
	}

	return ""
}

func amount(v float64) string {
	v = mathutil.Round(v)
	if v == 0 {
		// drop the sign of -0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return amount(*v)
}

// JSONFormat outputs the full reports as indented JSON.
func JSONFormat(w io.Writer, reports []budget.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}
