package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usageTypes = []UsageType{OwnerOccupied, OwnerOccupiedWithRental, PureRentalInvestment}

// randomInputs returns n valid inputs drawn from a fixed seed.
func randomInputs(n int) []HouseholdInput {
	rng := rand.New(rand.NewSource(42))
	amount := func(max float64) float64 { return float64(rng.Intn(int(max))) }

	inputs := make([]HouseholdInput, 0, n)
	for i := 0; i < n; i++ {
		householdType := Single
		if rng.Intn(2) == 1 {
			householdType = Couple
		}
		in := HouseholdInput{
			HouseholdType:            householdType,
			NumChildren:              rng.Intn(4),
			UsageType:                usageTypes[rng.Intn(len(usageTypes))],
			LivingAreaM2:             amount(200),
			PrimarySalary:            amount(6000),
			PartnerSalary:            amount(4000),
			SideIncome:               amount(500),
			OtherIncome:              amount(500),
			ChildBenefitRate:         250,
			HasExistingProperty:      rng.Intn(2) == 1,
			ExistingRentIncome:       amount(1500),
			ExistingLoanPayment:      amount(1000),
			ExistingSavingsPayment:   amount(200),
			ExistingRentHaircutPct:   amount(90),
			CurrentWarmRent:          amount(2000),
			PlannedNewRentIncome:     amount(1500),
			NewRentHaircutPct:        amount(90),
			LivingCostStipend:        NewStipend(amount(3000), nil),
			OperatingCostStipend:     NewStipend(amount(800), nil),
			MaintenanceBuffer:        NewStipend(amount(400), nil),
			ConsumerLoanPayments:     amount(500),
			MandatorySavingsPayments: amount(300),
			Equity:                   amount(150000),
			InterestRatePct:          amount(6),
			AmortizationRatePct:      amount(4),
			PropertyTransferTaxPct:   amount(7),
			NotaryFeePct:             amount(3),
			BrokerFeePct:             amount(4),
			TargetPurchasePrice:      amount(600000),
			RenovationCost:           amount(50000),
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func TestComputeIsDeterministic(t *testing.T) {
	for _, in := range randomInputs(200) {
		require.NoError(t, in.Validate())
		assert.Equal(t, Compute(in), Compute(in))
	}
}

func TestComputeMonotonicity(t *testing.T) {
	incomeFields := map[string]func(*HouseholdInput){
		"primary_salary":          func(in *HouseholdInput) { in.PrimarySalary += 100 },
		"partner_salary":          func(in *HouseholdInput) { in.PartnerSalary += 100 },
		"side_income":             func(in *HouseholdInput) { in.SideIncome += 100 },
		"other_income":            func(in *HouseholdInput) { in.OtherIncome += 100 },
		"existing_rent_income":    func(in *HouseholdInput) { in.ExistingRentIncome += 100 },
		"planned_new_rent_income": func(in *HouseholdInput) { in.PlannedNewRentIncome += 100 },
	}
	expenseFields := map[string]func(*HouseholdInput){
		"living_cost_stipend":        func(in *HouseholdInput) { in.LivingCostStipend.Effective += 100 },
		"operating_cost_stipend":     func(in *HouseholdInput) { in.OperatingCostStipend.Effective += 100 },
		"maintenance_buffer":         func(in *HouseholdInput) { in.MaintenanceBuffer.Effective += 100 },
		"existing_loan_payment":      func(in *HouseholdInput) { in.ExistingLoanPayment += 100 },
		"consumer_loan_payments":     func(in *HouseholdInput) { in.ConsumerLoanPayments += 100 },
		"mandatory_savings_payments": func(in *HouseholdInput) { in.MandatorySavingsPayments += 100 },
		"current_warm_rent":          func(in *HouseholdInput) { in.CurrentWarmRent += 100 },
	}

	for _, in := range randomInputs(100) {
		base := Compute(in)

		for name, bump := range incomeFields {
			changed := in
			bump(&changed)
			assert.GreaterOrEqual(t, Compute(changed).TotalIncome, base.TotalIncome, name)
		}
		for name, bump := range expenseFields {
			changed := in
			bump(&changed)
			assert.GreaterOrEqual(t, Compute(changed).TotalExpenses, base.TotalExpenses, name)
		}

		richer := in
		richer.Equity += 10000
		assert.GreaterOrEqual(t, Compute(richer).MaxPurchasePrice, base.MaxPurchasePrice)
	}
}

func TestComputeDerivedPricesNonNegative(t *testing.T) {
	for _, in := range randomInputs(200) {
		res := Compute(in)
		assert.GreaterOrEqual(t, res.MaxLoanAmount, 0.0)
		assert.GreaterOrEqual(t, res.MaxPurchasePrice, 0.0)
		assert.GreaterOrEqual(t, res.TransactionCostAmount, 0.0)
		assert.GreaterOrEqual(t, res.ResidualDebt, 0.0)
		assert.LessOrEqual(t, res.ResidualDebt, res.MaxLoanAmount)
	}
}

func TestComputeZeroRateGuardHoldsForAllInputs(t *testing.T) {
	for _, in := range randomInputs(100) {
		in.InterestRatePct = 0
		in.AmortizationRatePct = 0
		assert.Equal(t, 0.0, Compute(in).MaxLoanAmount)
	}
}

func TestComputeOwnerOccupiedRentLinesAreInert(t *testing.T) {
	for _, in := range randomInputs(100) {
		in.UsageType = OwnerOccupied
		res := Compute(in)
		assert.Equal(t, 0.0, res.Rent.NewRentCredit)
		assert.Equal(t, 0.0, res.Rent.CurrentRentBurden)
	}
}

func TestComputeTargetConsistency(t *testing.T) {
	for _, in := range randomInputs(200) {
		res := Compute(in)
		if in.TargetPurchasePrice == 0 {
			assert.Nil(t, res.Target)
			continue
		}
		require.NotNil(t, res.Target)
		assert.Equal(t, res.Target.IsAffordable, res.Target.Shortfall == 0)
		expected := res.Target.RequiredRate - res.DisposableAmount
		if expected < 0 {
			expected = 0
		}
		assert.Equal(t, expected, res.Target.Shortfall)
	}
}
