package export

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

// FormatCell renders a cell as review text: grouped whole units for
// amounts, two decimals for ratios, labels for the non-value states.
func FormatCell(p *message.Printer, c overlay.Cell) string {
	if c.State != overlay.CellValue {
		return c.Label()
	}
	if c.Unit.IsPercent() {
		return p.Sprintf("%.2f%%", c.Value)
	}
	return p.Sprintf("%.0f", c.Value)
}

func (t Table) unitLabel() string {
	if t.Currency == "" {
		return "m"
	}
	return string(t.Currency) + " m"
}

// WriteText writes the table as aligned plain text.
func (t Table) WriteText(w io.Writer) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, 0, len(t.Banks)+1)
	header = append(header, p.Sprintf("%s / %s (%s)", t.Period, t.Segment, t.unitLabel()))
	for _, b := range t.Banks {
		header = append(header, string(b))
	}
	writeLine(tw, header)

	for _, sec := range t.Sections {
		writeLine(tw, []string{"[" + string(sec.Name) + "]"})
		for _, row := range sec.Rows {
			line := []string{rowLabel(row.Metric)}
			for _, c := range row.Cells {
				line = append(line, FormatCell(p, c))
			}
			writeLine(tw, line)
		}
	}
	return eris.Wrap(tw.Flush(), "export: write text")
}

func writeLine(w io.Writer, cols []string) {
	io.WriteString(w, strings.Join(cols, "\t")+"\t\n") //nolint:errcheck
}

func rowLabel(m model.MetricSpec) string {
	if m.IsBreakdown {
		return "  " + m.Name
	}
	return m.Name
}

// WriteXLSX writes the table to a workbook with one sheet. Values are
// numeric cells; non-value states are written as their labels.
func (t Table) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName(t))
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Metric (" + t.unitLabel() + ")")
	for _, b := range t.Banks {
		header.AddCell().SetString(string(b))
	}

	for _, sec := range t.Sections {
		sheet.AddRow().AddCell().SetString(string(sec.Name))
		for _, row := range sec.Rows {
			r := sheet.AddRow()
			r.AddCell().SetString(rowLabel(row.Metric))
			for _, c := range row.Cells {
				cell := r.AddCell()
				if c.State != overlay.CellValue {
					cell.SetString(c.Label())
					continue
				}
				if c.Unit.IsPercent() {
					cell.SetFloatWithFormat(c.Value, "0.00")
				} else {
					cell.SetFloatWithFormat(c.Value, "#,##0")
				}
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// sheetName keeps within the 31-character sheet name limit.
func sheetName(t Table) string {
	name := strings.NewReplacer("/", "-", ":", "-", "?", "", "*", "", "[", "(", "]", ")").Replace(t.Period + " " + string(t.Segment))
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
