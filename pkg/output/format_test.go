package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/household-budget/internal/budget"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/pkg/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReports(t *testing.T) []budget.Report {
	t.Helper()
	living := 1500.0
	single, err := engine.Draft{PrimarySalary: 3000, TargetPurchasePrice: 350000}.Build(engine.DefaultProfile())
	require.NoError(t, err)
	couple, err := engine.Draft{
		HouseholdType:     "couple",
		PrimarySalary:     3000,
		PartnerSalary:     1000,
		CurrentWarmRent:   1000,
		LivingCostStipend: &living,
		PlannedRate:       1200,
	}.Build(engine.DefaultProfile())
	require.NoError(t, err)
	return []budget.Report{
		budget.NewReport("Single", single),
		budget.NewReport("Couple", couple),
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, testReports(t), format.New("en"))
	output := buf.String()

	for _, expected := range []string{
		"--- Results for household Single ---",
		"--- Results for household Couple ---",
		"3,000.00 €",
		"1,930.00 €",
		"1,070.00 €",
		"5.80 %",
		"Target property",
		"Affordable",
		"Shortfall",
		"Living costs (adjusted)",
		"Rent vs buy",
		"Planned rate",
		"Chart",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("PrettyFormat output missing %q:\n%s", expected, output)
		}
	}
	if strings.Count(output, "Target property") != 1 {
		t.Errorf("only the single household has a target")
	}
}

func TestPrettyFormatGermanLocale(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, testReports(t)[:1], format.New("de"))
	assert.Contains(t, buf.String(), "3.000,00 €")
}

func TestPrettyFormatChartClampsNegativeDisposable(t *testing.T) {
	in, err := engine.Draft{PrimarySalary: 1000}.Build(engine.DefaultProfile())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrettyFormat(&buf, []budget.Report{budget.NewReport("Short", in)}, format.New("en"))
	assert.Regexp(t, `Disposable\s+0\.00 €`, buf.String())
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CsvFormat(&buf, testReports(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"metric", "Single", "Couple"}, records[0])

	rows := make(map[string][]string)
	for _, record := range records[1:] {
		require.Len(t, record, 3)
		rows[record[0]] = record[1:]
	}
	assert.Equal(t, []string{"3000.00", "4000.00"}, rows["total_income"])
	assert.Equal(t, []string{"1070.00", "1770.00"}, rows["disposable_amount"])
	assert.Equal(t, "1500.00", rows[engine.ItemLivingCost][1])
	assert.Equal(t, "", rows["target_investment"][1], "missing target leaves the cell empty")
	assert.Equal(t, "false", rows["target_is_affordable"][0])
	assert.Equal(t, "", rows["planned_rate"][0])
	assert.Equal(t, "1200.00", rows["planned_rate"][1])
}

func TestCsvAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{"Whole amount", 1070, "1070.00"},
		{"Rounded to cents", 12.3456, "12.35"},
		{"Rounding noise below zero", -0.001, "0.00"},
		{"Negative amount", -200, "-200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, amount(tt.value))
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormat(&buf, testReports(t)))

	var decoded []struct {
		Name   string `json:"name"`
		Result struct {
			DisposableAmount float64 `json:"disposable_amount"`
			Target           *struct {
				IsAffordable bool `json:"is_affordable"`
			} `json:"target"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Single", decoded[0].Name)
	assert.Equal(t, 1070.0, decoded[0].Result.DisposableAmount)
	require.NotNil(t, decoded[0].Result.Target)
	assert.False(t, decoded[0].Result.Target.IsAffordable)
	assert.Nil(t, decoded[1].Result.Target)
}
