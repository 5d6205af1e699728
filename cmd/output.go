package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lepinkainen/marquee/internal/catalog"
	"gopkg.in/yaml.v3"
)

// writeEntries renders entries as a table, JSON array or YAML list.
func writeEntries(w io.Writer, format string, entries []catalog.Entry) error {
	if entries == nil {
		entries = []catalog.Entry{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tGENRES")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Title, e.ReleaseDate, strings.Join(e.GenreNames(), ", "))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
