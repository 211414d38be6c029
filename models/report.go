package models

// MonthlyReport is one month's flat financial snapshot for the group's KCB and
// Lofty accounts. Required fields must be present and non-negative; nothing
// checks that the totals add up.
type MonthlyReport struct {
	OpeningKCBBalance             *float64 `bson:"opening_kcb_balance" json:"opening_kcb_balance" yaml:"opening_kcb_balance" validate:"required,gte=0"`
	TotalMemberContributionsKCB   *float64 `bson:"total_member_contributions_kcb" json:"total_member_contributions_kcb" yaml:"total_member_contributions_kcb" validate:"required,gte=0"`
	TotalLoanRepaymentsKCB        *float64 `bson:"total_loan_repayments_kcb" json:"total_loan_repayments_kcb" yaml:"total_loan_repayments_kcb" validate:"required,gte=0"`
	TotalLoanDisbursementsKCB     *float64 `bson:"total_loan_disbursements_kcb" json:"total_loan_disbursements_kcb" yaml:"total_loan_disbursements_kcb" validate:"required,gte=0"`
	BankChargesKCB                *float64 `bson:"bank_charges_kcb" json:"bank_charges_kcb" yaml:"bank_charges_kcb" validate:"required,gte=0"`
	OpeningLoftyBalance           *float64 `bson:"opening_lofty_balance" json:"opening_lofty_balance" yaml:"opening_lofty_balance" validate:"required,gte=0"`
	TotalMemberContributionsLofty *float64 `bson:"total_member_contributions_lofty" json:"total_member_contributions_lofty" yaml:"total_member_contributions_lofty" validate:"required,gte=0"`
	TotalLoanDisbursementsLofty   *float64 `bson:"total_loan_disbursements_lofty" json:"total_loan_disbursements_lofty" yaml:"total_loan_disbursements_lofty" validate:"required,gte=0"`
	BankChargesLofty              *float64 `bson:"bank_charges_lofty" json:"bank_charges_lofty" yaml:"bank_charges_lofty" validate:"required,gte=0"`

	// optional
	TotalLoanRepaymentsLofty *float64 `bson:"total_loan_repayments_lofty,omitempty" json:"total_loan_repayments_lofty,omitempty" yaml:"total_loan_repayments_lofty,omitempty" validate:"omitempty,gte=0"`
	ClosingKCBBalance        *float64 `bson:"closing_kcb_balance,omitempty" json:"closing_kcb_balance,omitempty" yaml:"closing_kcb_balance,omitempty"`
	ClosingLoftyBalance      *float64 `bson:"closing_lofty_balance,omitempty" json:"closing_lofty_balance,omitempty" yaml:"closing_lofty_balance,omitempty"`
	TotalBalance             *float64 `bson:"total_balance,omitempty" json:"total_balance,omitempty" yaml:"total_balance,omitempty"`
}

// Inflows is money that entered both accounts during the month.
func (r MonthlyReport) Inflows() float64 {
	return val(r.TotalMemberContributionsKCB) + val(r.TotalLoanRepaymentsKCB) +
		val(r.TotalMemberContributionsLofty) + val(r.TotalLoanRepaymentsLofty)
}

// Outflows is money that left both accounts during the month.
func (r MonthlyReport) Outflows() float64 {
	return val(r.TotalLoanDisbursementsKCB) + val(r.BankChargesKCB) +
		val(r.TotalLoanDisbursementsLofty) + val(r.BankChargesLofty)
}

func val(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
