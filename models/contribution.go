package models

// MemberContribution is one member's running total plus the per-month breakdown.
// MemberName is the only identity key.
type MemberContribution struct {
	MemberName           string             `bson:"member_name" json:"member_name" yaml:"member_name"`
	Amount               float64            `bson:"amount" json:"amount" yaml:"amount"`
	Shares               float64            `bson:"shares" json:"shares" yaml:"shares"`
	LastContributionDate string             `bson:"last_contribution_date" json:"last_contribution_date" yaml:"last_contribution_date"` // YYYY-MM-DD
	Contributions        map[string]float64 `bson:"contributions" json:"contributions" yaml:"contributions"`                            // month -> amount
}

// ContributionInput is the payload of an addMemberContribution request.
// Amount must be present and positive but is not stored: the member's amount is
// always recomputed from Contributions, and only Contributions[month] is merged.
type ContributionInput struct {
	MemberName           string             `json:"member_name" validate:"required"`
	Amount               *float64           `json:"amount" validate:"required,gt=0"`
	Contributions        map[string]float64 `json:"contributions" validate:"required"`
	Shares               *float64           `json:"shares,omitempty" validate:"omitempty,gte=0"`
	LastContributionDate string             `json:"last_contribution_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
