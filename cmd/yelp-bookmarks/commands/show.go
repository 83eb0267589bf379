package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"yelp-bookmarks/internal/bookmarks"
	"yelp-bookmarks/internal/yelpsite"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <result.json>",
		Short: "Prints a previously exported result as a table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []map[string]any
			if err := json.Unmarshal(contents, &records); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			renderTable(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

type summary struct {
	name    string
	source  bookmarks.Source
	rating  string
	price   string
	address string
}

// summarize reads a record in either of the two shapes it is exported in,
// page records are the only ones carrying a bizid field.
func summarize(record map[string]any) summary {
	text := func(key string) string {
		value, ok := record[key]
		if !ok || value == nil {
			return ""
		}
		return fmt.Sprint(value)
	}

	if _, ok := record[yelpsite.FieldBizID]; ok {
		return summary{
			name:    text(yelpsite.FieldName),
			source:  bookmarks.SourcePage,
			rating:  text(yelpsite.FieldRating),
			price:   text(yelpsite.FieldPriceRange),
			address: text(yelpsite.FieldAddress),
		}
	}

	var address []string
	if location, ok := record["location"].(map[string]any); ok {
		if lines, ok := location["display_address"].([]any); ok {
			for _, line := range lines {
				address = append(address, fmt.Sprint(line))
			}
		}
	}
	price := text("price")
	if price == "" {
		price = "N/A"
	}
	return summary{
		name:    text("name"),
		source:  bookmarks.SourceAPI,
		rating:  text("rating"),
		price:   price,
		address: strings.Join(address, ", "),
	}
}

func renderTable(w io.Writer, records []map[string]any) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Source", "Rating", "Price", "Address"})

	for _, record := range records {
		s := summarize(record)
		t.AppendRow(table.Row{s.name, s.source, s.rating, s.price, s.address})
	}

	t.AppendFooter(table.Row{"", "", "", "Total", len(records)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
