// Package engine implements the household affordability calculation: the
// disposable monthly budget, the loan principal and purchase price it can
// carry, and the feasibility of a specific property.
//
// Every function in this package is pure. Compute never fails; an
// economically infeasible household is a normal result, not an error.
package engine

import "fmt"

// HouseholdType determines the base living-cost stipend.
type HouseholdType string

// Supported household types.
const (
	Single HouseholdType = "single"
	Couple HouseholdType = "couple"
)

// ParseHouseholdType converts a configured value into a HouseholdType. An
// empty value defaults to Single.
func ParseHouseholdType(value string) (HouseholdType, error) {
	switch HouseholdType(value) {
	case "", Single:
		return Single, nil
	case Couple:
		return Couple, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownHouseholdType, value)
	}
}

// Adults returns the number of adults the household type represents.
func (h HouseholdType) Adults() int {
	if h == Couple {
		return 2
	}
	return 1
}

// UsageType governs which rent lines apply to a household.
type UsageType string

// Supported usage types.
const (
	// OwnerOccupied: the buyers move in, the old rent ends and no rental
	// income exists.
	OwnerOccupied UsageType = "owner_occupied"
	// OwnerOccupiedWithRental: the buyers move in and let part of the
	// property.
	OwnerOccupiedWithRental UsageType = "owner_occupied_with_rental"
	// PureRentalInvestment: the property is let in full and the buyers keep
	// paying for their own residence.
	PureRentalInvestment UsageType = "pure_rental_investment"
)

// ParseUsageType converts a configured value into a UsageType. An empty value
// defaults to OwnerOccupied.
func ParseUsageType(value string) (UsageType, error) {
	switch UsageType(value) {
	case "", OwnerOccupied:
		return OwnerOccupied, nil
	case OwnerOccupiedWithRental:
		return OwnerOccupiedWithRental, nil
	case PureRentalInvestment:
		return PureRentalInvestment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUsageType, value)
	}
}

// Stipend pairs a bank-suggested default with the value actually used in the
// calculation, so callers can show "suggested vs. chosen".
type Stipend struct {
	Default   float64 `json:"default"`
	Effective float64 `json:"effective"`
}

// NewStipend returns a stipend seeded with def; a non-nil override replaces
// the effective value.
func NewStipend(def float64, override *float64) Stipend {
	s := Stipend{Default: def, Effective: def}
	if override != nil {
		s.Effective = *override
	}
	return s
}

// Overridden reports whether the effective value differs from the default.
func (s Stipend) Overridden() bool {
	return s.Effective != s.Default
}

// HouseholdInput is the complete, validated input of one calculation. All
// monetary amounts are monthly net values unless noted otherwise.
type HouseholdInput struct {
	HouseholdType HouseholdType `json:"household_type"`
	NumChildren   int           `json:"num_children"`
	UsageType     UsageType     `json:"usage_type"`
	LivingAreaM2  float64       `json:"living_area_m2"`

	PrimarySalary    float64 `json:"primary_salary"`
	PartnerSalary    float64 `json:"partner_salary"`
	SideIncome       float64 `json:"side_income"`
	OtherIncome      float64 `json:"other_income"`
	ChildBenefitRate float64 `json:"child_benefit_rate"`

	HasExistingProperty    bool    `json:"has_existing_property"`
	ExistingRentIncome     float64 `json:"existing_rent_income"`
	ExistingLoanPayment    float64 `json:"existing_loan_payment"`
	ExistingSavingsPayment float64 `json:"existing_savings_payment"`
	ExistingRentHaircutPct float64 `json:"existing_rent_haircut_pct"`

	CurrentWarmRent      float64 `json:"current_warm_rent"`
	PlannedNewRentIncome float64 `json:"planned_new_rent_income"`
	NewRentHaircutPct    float64 `json:"new_rent_haircut_pct"`

	LivingCostStipend    Stipend `json:"living_cost_stipend"`
	OperatingCostStipend Stipend `json:"operating_cost_stipend"`
	MaintenanceBuffer    Stipend `json:"maintenance_buffer"`

	ConsumerLoanPayments     float64 `json:"consumer_loan_payments"`
	MandatorySavingsPayments float64 `json:"mandatory_savings_payments"`

	Equity              float64 `json:"equity"`
	InterestRatePct     float64 `json:"interest_rate_pct"`
	AmortizationRatePct float64 `json:"amortization_rate_pct"`

	PropertyTransferTaxPct float64 `json:"property_transfer_tax_pct"`
	NotaryFeePct           float64 `json:"notary_fee_pct"`
	BrokerFeePct           float64 `json:"broker_fee_pct"`

	TargetPurchasePrice float64 `json:"target_purchase_price"`
	RenovationCost      float64 `json:"renovation_cost"`

	// PlannedRate is an installment quoted by a lender, checked against the
	// disposable amount. Zero disables the check.
	PlannedRate float64 `json:"planned_rate"`
}

// TransactionCostPct sums transfer tax, notary and broker percentages.
func (in HouseholdInput) TransactionCostPct() float64 {
	return in.PropertyTransferTaxPct + in.NotaryFeePct + in.BrokerFeePct
}

// NetIncome is the household's own monthly income before any rental credit;
// it selects the income tier of the living-cost stipend.
func (in HouseholdInput) NetIncome() float64 {
	partner := in.PartnerSalary
	if in.HouseholdType != Couple {
		partner = 0
	}
	return in.PrimarySalary + partner + in.SideIncome + in.OtherIncome +
		float64(in.NumChildren)*in.ChildBenefitRate
}

// RentCredit holds the scenario-dependent rent lines.
type RentCredit struct {
	CurrentRentBurden  float64 `json:"current_rent_burden"`
	ExistingRentCredit float64 `json:"existing_rent_credit"`
	NewRentCredit      float64 `json:"new_rent_credit"`
}

// LineItem is one itemized income or expense entry.
type LineItem struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// TargetResult is the feasibility check of a specific property.
type TargetResult struct {
	Investment   float64 `json:"investment"`
	LoanAmount   float64 `json:"loan_amount"`
	RequiredRate float64 `json:"required_rate"`
	IsAffordable bool    `json:"is_affordable"`
	Shortfall    float64 `json:"shortfall"`
}

// PlannedRateResult checks a lender-quoted installment against the budget.
type PlannedRateResult struct {
	Rate float64 `json:"rate"`
	// Remainder is what is left each month after paying the rate; negative
	// values are a monthly deficit.
	Remainder float64 `json:"remainder"`
	// RentVsBuyDelta compares rate plus housing costs with the current warm
	// rent. Nil when no comparison applies.
	RentVsBuyDelta *float64 `json:"rent_vs_buy_delta,omitempty"`
}

// HouseholdResult holds every derived figure of a calculation.
type HouseholdResult struct {
	ChildBenefit float64    `json:"child_benefit"`
	Rent         RentCredit `json:"rent"`
	Income       []LineItem `json:"income"`
	Expenses     []LineItem `json:"expenses"`

	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	DisposableAmount float64 `json:"disposable_amount"`

	AnnuityRatePct        float64 `json:"annuity_rate_pct"`
	MaxLoanAmount         float64 `json:"max_loan_amount"`
	PayoffMonths          int     `json:"payoff_months"`
	ResidualDebt          float64 `json:"residual_debt"`
	TransactionCostPct    float64 `json:"transaction_cost_pct"`
	MaxPurchasePrice      float64 `json:"max_purchase_price"`
	TransactionCostAmount float64 `json:"transaction_cost_amount"`

	Target         *TargetResult      `json:"target,omitempty"`
	RentVsBuyDelta *float64           `json:"rent_vs_buy_delta,omitempty"`
	PlannedRate    *PlannedRateResult `json:"planned_rate,omitempty"`
}

// ChartBars returns the three comparison figures of a report chart: income,
// expenses and the disposable amount floored at zero.
func (r HouseholdResult) ChartBars() [3]float64 {
	disposable := r.DisposableAmount
	if disposable < 0 {
		disposable = 0
	}
	return [3]float64{r.TotalIncome, r.TotalExpenses, disposable}
}
