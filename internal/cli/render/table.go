package render

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// newTable returns a borderless table writer with a bold header
func newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Format.Header = text.FormatDefault
	t.Style().Box = table.BoxStyle{
		PaddingRight:     "   ",
		MiddleHorizontal: "─",
	}
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

// titleCase turns enum style values like BASE_AND_PROXY into "Base And Proxy"
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}

// shortHex abbreviates long hex strings for table cells
func shortHex(s string, keep int) string {
	if len(s) <= 2+2*keep+3 {
		return s
	}
	return s[:2+keep] + "…" + s[len(s)-keep:]
}
