package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	models "github.com/phillip/chama-tracker-go/models"
)

type MonthSummary struct {
	Month         string  `json:"month"`
	Inflows       float64 `json:"inflows"`
	Outflows      float64 `json:"outflows"`
	Net           float64 `json:"net"`
	Contributions float64 `json:"member_contributions"`
}

type MemberTotal struct {
	MemberName string  `json:"member_name"`
	Amount     float64 `json:"amount"`
	Shares     float64 `json:"shares"`
}

// Summary is the dashboard view of the document.
type Summary struct {
	Inflows                  float64        `json:"inflows"`
	Outflows                 float64        `json:"outflows"`
	TotalBalance             float64        `json:"total_balance"`
	TotalMemberContributions float64        `json:"total_member_contributions"`
	TotalShares              float64        `json:"total_shares"`
	MemberCount              int            `json:"member_count"`
	LatestMonth              string         `json:"latest_month,omitempty"`
	Months                   []MonthSummary `json:"months"`
	Members                  []MemberTotal  `json:"members"`
}

// Summarize totals inflows and outflows across months; total_balance is their difference.
func Summarize(doc *models.Document) *Summary {
	perMonth := map[string]decimal.Decimal{}
	totalContrib, totalShares := decimal.Zero, decimal.Zero
	members := make([]MemberTotal, 0, len(doc.MemberContributions))
	for _, m := range doc.MemberContributions {
		totalContrib = totalContrib.Add(decimal.NewFromFloat(m.Amount))
		totalShares = totalShares.Add(decimal.NewFromFloat(m.Shares))
		members = append(members, MemberTotal{MemberName: m.MemberName, Amount: m.Amount, Shares: m.Shares})
		for month, v := range m.Contributions {
			perMonth[month] = perMonth[month].Add(decimal.NewFromFloat(v))
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Amount != members[j].Amount {
			return members[i].Amount > members[j].Amount
		}
		return strings.ToLower(members[i].MemberName) < strings.ToLower(members[j].MemberName)
	})

	monthSet := map[string]struct{}{}
	for month := range doc.MonthlyReports {
		monthSet[month] = struct{}{}
	}
	for month := range perMonth {
		monthSet[month] = struct{}{}
	}
	keys := make([]string, 0, len(monthSet))
	for month := range monthSet {
		keys = append(keys, month)
	}
	sort.Strings(keys)

	in, out := decimal.Zero, decimal.Zero
	months := make([]MonthSummary, 0, len(keys))
	for _, month := range keys {
		ms := MonthSummary{Month: month, Contributions: perMonth[month].InexactFloat64()}
		if r, ok := doc.MonthlyReports[month]; ok {
			mi, mo := decimal.NewFromFloat(r.Inflows()), decimal.NewFromFloat(r.Outflows())
			in, out = in.Add(mi), out.Add(mo)
			ms.Inflows = mi.InexactFloat64()
			ms.Outflows = mo.InexactFloat64()
			ms.Net = mi.Sub(mo).InexactFloat64()
		}
		months = append(months, ms)
	}

	s := &Summary{
		Inflows:                  in.InexactFloat64(),
		Outflows:                 out.InexactFloat64(),
		TotalBalance:             in.Sub(out).InexactFloat64(),
		TotalMemberContributions: totalContrib.InexactFloat64(),
		TotalShares:              totalShares.InexactFloat64(),
		MemberCount:              len(doc.MemberContributions),
		Months:                   months,
		Members:                  members,
	}
	if len(keys) > 0 {
		s.LatestMonth = keys[len(keys)-1]
	}
	return s
}
