package inspect

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user supplied export format.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", value)
	}
}

// ExportName returns the default export file name for a filter and time.
func ExportName(filter Filter, format Format, now time.Time) string {
	return fmt.Sprintf("dbcheck-%s-%s.%s", filter, now.Format("2006-01-02_15-04-05"), format)
}

// Export writes entries to w in the requested format.
func Export(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatCSV:
		return exportCSV(w, entries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if entries == nil {
			entries = []Entry{}
		}
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func exportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Status", "File Path", "Hash", "Last Checked", "Message", "Mtime"}); err != nil {
		return err
	}
	for _, e := range entries {
		checked := ""
		if !e.LastChecked.IsZero() {
			checked = e.LastChecked.Format(time.RFC3339)
		}
		mtime := ""
		if e.Mtime != nil {
			mtime = strconv.FormatFloat(*e.Mtime, 'f', -1, 64)
		}
		if err := cw.Write([]string{e.State, e.Path, e.Hash, checked, e.Message, mtime}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
