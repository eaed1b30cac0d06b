package engine

import "fmt"

// Draft is a household as collected from a form, file or config, before
// validation. Nil pointers and empty strings fall back to the profile's
// defaults; nil stipends are derived from the policy.
//
// JSON keys are the flat persistence format; YAML keys match the household
// entries of the configuration file.
type Draft struct {
	HouseholdType string  `json:"household_type,omitempty" yaml:"householdType,omitempty"`
	NumChildren   int     `json:"num_children,omitempty" yaml:"numChildren,omitempty"`
	UsageType     string  `json:"usage_type,omitempty" yaml:"usageType,omitempty"`
	LivingAreaM2  float64 `json:"living_area_m2,omitempty" yaml:"livingAreaM2,omitempty"`

	PrimarySalary    float64  `json:"primary_salary,omitempty" yaml:"primarySalary,omitempty"`
	PartnerSalary    float64  `json:"partner_salary,omitempty" yaml:"partnerSalary,omitempty"`
	SideIncome       float64  `json:"side_income,omitempty" yaml:"sideIncome,omitempty"`
	OtherIncome      float64  `json:"other_income,omitempty" yaml:"otherIncome,omitempty"`
	ChildBenefitRate *float64 `json:"child_benefit_rate,omitempty" yaml:"childBenefitRate,omitempty"`

	HasExistingProperty    bool     `json:"has_existing_property,omitempty" yaml:"hasExistingProperty,omitempty"`
	ExistingRentIncome     float64  `json:"existing_rent_income,omitempty" yaml:"existingRentIncome,omitempty"`
	ExistingLoanPayment    float64  `json:"existing_loan_payment,omitempty" yaml:"existingLoanPayment,omitempty"`
	ExistingSavingsPayment float64  `json:"existing_savings_payment,omitempty" yaml:"existingSavingsPayment,omitempty"`
	ExistingRentHaircutPct *float64 `json:"existing_rent_haircut_pct,omitempty" yaml:"existingRentHaircutPct,omitempty"`

	CurrentWarmRent      float64  `json:"current_warm_rent,omitempty" yaml:"currentWarmRent,omitempty"`
	PlannedNewRentIncome float64  `json:"planned_new_rent_income,omitempty" yaml:"plannedNewRentIncome,omitempty"`
	NewRentHaircutPct    *float64 `json:"new_rent_haircut_pct,omitempty" yaml:"newRentHaircutPct,omitempty"`

	LivingCostStipend    *float64 `json:"living_cost_stipend,omitempty" yaml:"livingCostStipend,omitempty"`
	OperatingCostStipend *float64 `json:"operating_cost_stipend,omitempty" yaml:"operatingCostStipend,omitempty"`
	MaintenanceBuffer    *float64 `json:"maintenance_buffer,omitempty" yaml:"maintenanceBuffer,omitempty"`

	ConsumerLoanPayments     float64 `json:"consumer_loan_payments,omitempty" yaml:"consumerLoanPayments,omitempty"`
	MandatorySavingsPayments float64 `json:"mandatory_savings_payments,omitempty" yaml:"mandatorySavingsPayments,omitempty"`

	Equity              float64  `json:"equity,omitempty" yaml:"equity,omitempty"`
	InterestRatePct     *float64 `json:"interest_rate_pct,omitempty" yaml:"interestRatePct,omitempty"`
	AmortizationRatePct *float64 `json:"amortization_rate_pct,omitempty" yaml:"amortizationRatePct,omitempty"`

	PropertyTransferTaxPct *float64 `json:"property_transfer_tax_pct,omitempty" yaml:"propertyTransferTaxPct,omitempty"`
	NotaryFeePct           *float64 `json:"notary_fee_pct,omitempty" yaml:"notaryFeePct,omitempty"`
	BrokerFeePct           *float64 `json:"broker_fee_pct,omitempty" yaml:"brokerFeePct,omitempty"`

	TargetPurchasePrice float64 `json:"target_purchase_price,omitempty" yaml:"targetPurchasePrice,omitempty"`
	RenovationCost      float64 `json:"renovation_cost,omitempty" yaml:"renovationCost,omitempty"`
	PlannedRate         float64 `json:"planned_rate,omitempty" yaml:"plannedRate,omitempty"`
}

// Build resolves defaults from the profile, validates and normalizes the
// draft. No input is returned on error.
func (d Draft) Build(p Profile) (HouseholdInput, error) {
	householdType, err := ParseHouseholdType(d.HouseholdType)
	if err != nil {
		return HouseholdInput{}, fmt.Errorf("household_type: %w", err)
	}
	usageType, err := ParseUsageType(d.UsageType)
	if err != nil {
		return HouseholdInput{}, fmt.Errorf("usage_type: %w", err)
	}

	in := HouseholdInput{
		HouseholdType:            householdType,
		NumChildren:              d.NumChildren,
		UsageType:                usageType,
		LivingAreaM2:             d.LivingAreaM2,
		PrimarySalary:            d.PrimarySalary,
		PartnerSalary:            d.PartnerSalary,
		SideIncome:               d.SideIncome,
		OtherIncome:              d.OtherIncome,
		ChildBenefitRate:         valueOr(d.ChildBenefitRate, p.ChildBenefitRate),
		HasExistingProperty:      d.HasExistingProperty,
		ExistingRentIncome:       d.ExistingRentIncome,
		ExistingLoanPayment:      d.ExistingLoanPayment,
		ExistingSavingsPayment:   d.ExistingSavingsPayment,
		ExistingRentHaircutPct:   valueOr(d.ExistingRentHaircutPct, p.ExistingRentHaircutPct),
		CurrentWarmRent:          d.CurrentWarmRent,
		PlannedNewRentIncome:     d.PlannedNewRentIncome,
		NewRentHaircutPct:        valueOr(d.NewRentHaircutPct, p.NewRentHaircutPct),
		ConsumerLoanPayments:     d.ConsumerLoanPayments,
		MandatorySavingsPayments: d.MandatorySavingsPayments,
		Equity:                   d.Equity,
		InterestRatePct:          valueOr(d.InterestRatePct, p.InterestRatePct),
		AmortizationRatePct:      valueOr(d.AmortizationRatePct, p.AmortizationRatePct),
		PropertyTransferTaxPct:   valueOr(d.PropertyTransferTaxPct, p.PropertyTransferTaxPct),
		NotaryFeePct:             valueOr(d.NotaryFeePct, p.NotaryFeePct),
		BrokerFeePct:             valueOr(d.BrokerFeePct, p.BrokerFeePct),
		TargetPurchasePrice:      d.TargetPurchasePrice,
		RenovationCost:           d.RenovationCost,
		PlannedRate:              d.PlannedRate,
	}

	suggested := p.Suggest(in)
	in.LivingCostStipend = NewStipend(suggested.LivingCostStipend, d.LivingCostStipend)
	in.OperatingCostStipend = NewStipend(suggested.OperatingCostStipend, d.OperatingCostStipend)
	in.MaintenanceBuffer = NewStipend(suggested.MaintenanceBuffer, d.MaintenanceBuffer)

	if err := in.Validate(); err != nil {
		return HouseholdInput{}, err
	}
	return in.Normalize(), nil
}

// DraftFromInput converts an input back into a draft. Every value is written
// explicitly except stipends that still equal their default, which are left
// to be derived again.
func DraftFromInput(in HouseholdInput) Draft {
	d := Draft{
		HouseholdType:            string(in.HouseholdType),
		NumChildren:              in.NumChildren,
		UsageType:                string(in.UsageType),
		LivingAreaM2:             in.LivingAreaM2,
		PrimarySalary:            in.PrimarySalary,
		PartnerSalary:            in.PartnerSalary,
		SideIncome:               in.SideIncome,
		OtherIncome:              in.OtherIncome,
		ChildBenefitRate:         ptr(in.ChildBenefitRate),
		HasExistingProperty:      in.HasExistingProperty,
		ExistingRentIncome:       in.ExistingRentIncome,
		ExistingLoanPayment:      in.ExistingLoanPayment,
		ExistingSavingsPayment:   in.ExistingSavingsPayment,
		ExistingRentHaircutPct:   ptr(in.ExistingRentHaircutPct),
		CurrentWarmRent:          in.CurrentWarmRent,
		PlannedNewRentIncome:     in.PlannedNewRentIncome,
		NewRentHaircutPct:        ptr(in.NewRentHaircutPct),
		ConsumerLoanPayments:     in.ConsumerLoanPayments,
		MandatorySavingsPayments: in.MandatorySavingsPayments,
		Equity:                   in.Equity,
		InterestRatePct:          ptr(in.InterestRatePct),
		AmortizationRatePct:      ptr(in.AmortizationRatePct),
		PropertyTransferTaxPct:   ptr(in.PropertyTransferTaxPct),
		NotaryFeePct:             ptr(in.NotaryFeePct),
		BrokerFeePct:             ptr(in.BrokerFeePct),
		TargetPurchasePrice:      in.TargetPurchasePrice,
		RenovationCost:           in.RenovationCost,
		PlannedRate:              in.PlannedRate,
	}
	if in.LivingCostStipend.Overridden() {
		d.LivingCostStipend = ptr(in.LivingCostStipend.Effective)
	}
	if in.OperatingCostStipend.Overridden() {
		d.OperatingCostStipend = ptr(in.OperatingCostStipend.Effective)
	}
	if in.MaintenanceBuffer.Overridden() {
		d.MaintenanceBuffer = ptr(in.MaintenanceBuffer.Effective)
	}
	return d
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}
