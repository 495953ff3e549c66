package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bankfacts/internal/model"
)

// ReadOptions configures tabular batch parsing.
type ReadOptions struct {
	SheetName string // xlsx: defaults to the first sheet
	Charset   string // csv: source encoding label, e.g. "big5"; empty means UTF-8
}

// ReadFile parses a batch file by extension: .yaml, .yml, .json, .xlsx, .csv.
func ReadFile(path string, opts ReadOptions) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return readStructured(path)
	case ".xlsx":
		rows, err := readXLSX(path, opts.SheetName)
		if err != nil {
			return nil, err
		}
		return recordsFromRows(path, rows)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: open csv")
		}
		defer f.Close()
		rows, err := readCSV(f, opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s", path)
		}
		return recordsFromRows(path, rows)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

// readStructured handles YAML and JSON; JSON documents parse as YAML.
func readStructured(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read file")
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", path)
	}
	return b.Candidates, nil
}

func readXLSX(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found in %s", sheetName, path)
		}
		sheet = s
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSV(r io.Reader, charset string) ([][]string, error) {
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "unknown charset %q", charset)
		}
		r = enc.NewDecoder().Reader(r)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	return rows, eris.Wrap(err, "read csv")
}

// recordsFromRows maps a header row plus data rows onto records. Header
// names match the YAML field names; unknown columns are ignored and blank
// rows skipped.
func recordsFromRows(path string, rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["metric"]; !ok {
		return nil, eris.Errorf("ingest: %s header has no metric column", path)
	}
	if _, ok := cols["value"]; !ok {
		return nil, eris.Errorf("ingest: %s header has no value column", path)
	}

	var out []Record
	for n, row := range rows[1:] {
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if blank(row) {
			continue
		}

		var r Record
		r.Metric = get("metric")
		r.Unit = model.Unit(get("unit"))
		r.Currency = model.Currency(get("currency"))
		r.Period = get("period")
		r.Frequency = model.Frequency(get("frequency"))
		r.Bank = model.Bank(get("bank"))
		r.SourceDoc = get("source_doc")
		r.ExtractionContext = get("extraction_context")
		r.OriginalSegment = get("original_segment")
		r.Segment = model.Segment(get("standardized_segment"))
		r.RawSnippet = get("raw_extract_snippet")
		r.DocType = get("doc_type")

		line := n + 2
		var err error
		if r.Value, err = parseNumber(get("value")); err != nil {
			return nil, eris.Wrapf(err, "ingest: %s row %d value", path, line)
		}
		if r.Year, err = parseInt(get("year")); err != nil {
			return nil, eris.Wrapf(err, "ingest: %s row %d year", path, line)
		}
		if r.Priority, err = parseInt(get("doc_type_priority")); err != nil {
			return nil, eris.Wrapf(err, "ingest: %s row %d doc_type_priority", path, line)
		}
		if r.Page, err = parseInt(get("page_number")); err != nil {
			return nil, eris.Wrapf(err, "ingest: %s row %d page_number", path, line)
		}
		out = append(out, r)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts thousands separators and accounting negatives "(123)".
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if neg {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	return v, eris.Wrapf(err, "parse %q", s)
}
