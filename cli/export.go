package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	models "github.com/phillip/chama-tracker-go/models"
	store "github.com/phillip/chama-tracker-go/store"
)

// ExportCmd writes the document (or its summary) to stdout or an afs location.
type ExportCmd struct {
	Output  string `short:"o" long:"output" description:"destination path or afs URL; stdout when empty"`
	Format  string `long:"format" choice:"json" choice:"yaml" default:"json" description:"output encoding"`
	Summary bool   `long:"summary" description:"export inflow/outflow totals instead of the raw document"`
}

func (c *ExportCmd) Execute(_ []string) error {
	ctx := context.Background()
	app, err := appSingleton(ctx)
	if err != nil {
		return err
	}

	var payload any
	if c.Summary {
		summary, err := app.Ledger.Summary(ctx)
		if err != nil {
			return err
		}
		payload = summary
	} else {
		snap, err := app.Ledger.Snapshot(ctx)
		if err != nil {
			return err
		}
		payload = snap.Document
	}

	data, err := encode(payload, c.Format)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = stdout.Write(data)
		return err
	}
	loc, err := location(c.Output)
	if err != nil {
		return err
	}
	if err := fs.Upload(ctx, loc, 0644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", c.Output, err)
	}
	fmt.Fprintf(stdout, "exported %d bytes to %s\n", len(data), loc)
	return nil
}

func encode(payload any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(payload)
	case "", "json":
		if doc, ok := payload.(*models.Document); ok {
			return store.Encode(doc)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
