package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"cinepwa/proj/internal/cli/appctx"
	"cinepwa/proj/internal/domain/models"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type output struct {
	w      io.Writer
	format string
}

func newOutput(app *appctx.App) (*output, error) {
	switch app.Config.Output {
	case "", formatTable:
		return &output{w: app.Out, format: formatTable}, nil
	case formatJSON, formatYAML:
		return &output{w: app.Out, format: app.Config.Output}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", app.Config.Output)
}

// print renders data as JSON or YAML, or headers and rows as a table.
func (o *output) print(data any, headers []string, rows [][]string) error {
	switch o.format {
	case formatJSON:
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case formatYAML:
		plain, err := toPlain(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(o.w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(plain)
	}
	return o.table(headers, rows)
}

// message is printed in table mode only.
func (o *output) message(format string, args ...any) {
	if o.format == formatTable {
		fmt.Fprintf(o.w, format+"\n", args...)
	}
}

func (o *output) table(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(o.w, "(empty)")
		return err
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	writeRow(tw, headers)
	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}

// toPlain round trips through JSON so YAML keys follow the json tags.
func toPlain(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}

func contentRow(item models.ContentItem, extra ...string) []string {
	year := item.ReleaseDate
	if year == "" {
		year = item.FirstAirDate
	}
	if len(year) > 4 {
		year = year[:4]
	}
	return append([]string{strconv.Itoa(item.ID), string(item.MediaType), item.DisplayTitle(), year}, extra...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
