package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	importer "github.com/phillip/chama-tracker-go/importer"
	models "github.com/phillip/chama-tracker-go/models"
)

// ImportMembersCmd merges every non-empty month cell through the contribution merge.
type ImportMembersCmd struct {
	Input string `short:"i" long:"input" required:"true" description:"CSV path or afs URL with member_name,YYYY-MM... columns"`
	Month string `short:"m" long:"month" description:"only import this YYYY-MM column"`
}

func (c *ImportMembersCmd) Execute(_ []string) error {
	ctx := context.Background()
	if c.Month != "" {
		if err := models.CheckMonth(c.Month); err != nil {
			return err
		}
	}
	data, err := download(ctx, c.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Input, err)
	}
	rows, err := importer.ReadMembers(bytes.NewReader(data))
	if err != nil {
		return err
	}
	app, err := appSingleton(ctx)
	if err != nil {
		return err
	}

	merged := 0
	for _, row := range rows {
		months := make([]string, 0, len(row.Contributions))
		for month := range row.Contributions {
			if c.Month == "" || month == c.Month {
				months = append(months, month)
			}
		}
		sort.Strings(months)
		for _, month := range months {
			amount := row.Contributions[month]
			in := &models.ContributionInput{
				MemberName:    row.MemberName,
				Amount:        &amount,
				Contributions: map[string]float64{month: amount},
			}
			if _, err := app.Ledger.AddContribution(ctx, month, in); err != nil {
				return fmt.Errorf("line %d %s %s: %w", row.Line, row.MemberName, month, err)
			}
			merged++
		}
	}
	fmt.Fprintf(stdout, "merged %d contributions for %d members into %s\n", merged, len(rows), app.Store.Name())
	return nil
}

// ImportReportsCmd upserts one balance sheet per CSV row.
type ImportReportsCmd struct {
	Input string `short:"i" long:"input" required:"true" description:"CSV path or afs URL with month,<report field>... columns"`
}

func (c *ImportReportsCmd) Execute(_ []string) error {
	ctx := context.Background()
	data, err := download(ctx, c.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Input, err)
	}
	rows, err := importer.ReadReports(bytes.NewReader(data))
	if err != nil {
		return err
	}
	app, err := appSingleton(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		report := row.Report
		if err := app.Ledger.UpdateBalanceSheet(ctx, row.Month, &report); err != nil {
			return fmt.Errorf("line %d %s: %w", row.Line, row.Month, err)
		}
	}
	fmt.Fprintf(stdout, "upserted %d monthly reports into %s\n", len(rows), app.Store.Name())
	return nil
}
