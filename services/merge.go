package services

import (
	"github.com/shopspring/decimal"

	models "github.com/phillip/chama-tracker-go/models"
)

// SharePrice is the KES value of one share when the caller does not supply shares.
const SharePrice = 1000

// MergeContribution applies a validated contribution for month to doc and
// returns the resulting member record. The month's value is overwritten, never
// accumulated, and the running amount is recomputed from all months.
func MergeContribution(doc *models.Document, month string, in *models.ContributionInput, today string) models.MemberContribution {
	idx := -1
	for i, m := range doc.MemberContributions {
		if m.MemberName == in.MemberName {
			idx = i
			break
		}
	}

	var member models.MemberContribution
	if idx >= 0 {
		member = doc.MemberContributions[idx]
	} else {
		member = models.MemberContribution{MemberName: in.MemberName}
	}
	if member.Contributions == nil {
		member.Contributions = map[string]float64{}
	}

	member.Contributions[month] = in.Contributions[month]
	member.Amount = SumContributions(member.Contributions)

	if in.Shares != nil {
		member.Shares = *in.Shares
	} else {
		member.Shares = decimal.NewFromFloat(member.Amount).Div(decimal.NewFromInt(SharePrice)).InexactFloat64()
	}
	if in.LastContributionDate != "" {
		member.LastContributionDate = in.LastContributionDate
	} else {
		member.LastContributionDate = today
	}

	if idx >= 0 {
		doc.MemberContributions[idx] = member
	} else {
		doc.MemberContributions = append(doc.MemberContributions, member)
	}
	return member
}

// UpsertMonthlyReport replaces whatever is stored for month.
func UpsertMonthlyReport(doc *models.Document, month string, report models.MonthlyReport) {
	if doc.MonthlyReports == nil {
		doc.MonthlyReports = map[string]models.MonthlyReport{}
	}
	doc.MonthlyReports[month] = report
}

// SumContributions adds the per-month amounts without float drift.
func SumContributions(contributions map[string]float64) float64 {
	sum := decimal.Zero
	for _, v := range contributions {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}
