package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/shopsmart/backend/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	maxTitleWidth = 60
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("%w: unsupported format %q (table, json, yaml)", domain.ErrValidation, format)
}

// render writes v in the requested format. Table output is only defined for
// views; other values fall back to YAML.
func render(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	}

	if view, ok := v.(domain.View); ok {
		return writeViewTable(w, view)
	}
	return writeYAML(w, v)
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeViewTable(w io.Writer, view domain.View) error {
	if view.Total == 0 {
		_, err := fmt.Fprintln(w, "No products found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tPRICE\tSOURCE\tCATEGORY\tRATING")
	for i, p := range view.Visible {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, truncate(p.Title, maxTitleWidth), p.Price, p.Source, p.Category, p.Rating)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nShowing %d of %d products\n", view.Count, view.Total)
	if view.BestDeal != nil {
		fmt.Fprintf(w, "Best deal: %s at %s (%s)\n", view.BestDeal.Title, view.BestDeal.Price, view.BestDeal.Source)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
