package models

// Document is the whole persisted store. It is always read and written in full.
type Document struct {
	MonthlyReports      map[string]MonthlyReport `bson:"monthly_reports" json:"monthly_reports" yaml:"monthly_reports"`
	MemberContributions []MemberContribution     `bson:"member_contributions" json:"member_contributions" yaml:"member_contributions"`
}

// NewDocument returns the empty defaults used when nothing has been stored yet.
func NewDocument() *Document {
	return &Document{
		MonthlyReports:      map[string]MonthlyReport{},
		MemberContributions: []MemberContribution{},
	}
}

// Normalize replaces nil collections so the document always serializes as
// {"monthly_reports": {}, "member_contributions": []}.
func (d *Document) Normalize() *Document {
	if d.MonthlyReports == nil {
		d.MonthlyReports = map[string]MonthlyReport{}
	}
	if d.MemberContributions == nil {
		d.MemberContributions = []MemberContribution{}
	}
	for i := range d.MemberContributions {
		if d.MemberContributions[i].Contributions == nil {
			d.MemberContributions[i].Contributions = map[string]float64{}
		}
	}
	return d
}

// Clone returns a copy whose collections can be mutated independently.
func (d *Document) Clone() *Document {
	out := &Document{
		MonthlyReports:      make(map[string]MonthlyReport, len(d.MonthlyReports)),
		MemberContributions: make([]MemberContribution, len(d.MemberContributions)),
	}
	for k, v := range d.MonthlyReports {
		out.MonthlyReports[k] = v
	}
	for i, m := range d.MemberContributions {
		c := make(map[string]float64, len(m.Contributions))
		for k, v := range m.Contributions {
			c[k] = v
		}
		m.Contributions = c
		out.MemberContributions[i] = m
	}
	return out
}
