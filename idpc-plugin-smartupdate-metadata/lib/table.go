package smartupdate

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders packages as a text table, one row per package.
func Table(pkgs []*Metadata) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Name", "Version", "Date", "Category", "Content", "Languages"})
	for _, m := range pkgs {
		date := "-"
		if !m.Date.IsZero() {
			date = m.Date.Format("2006-01-02")
		}
		t.AppendRow(table.Row{
			m.FileName,
			m.Name,
			m.Version,
			date,
			m.Category,
			m.Content,
			strings.Join(m.Languages, ","),
		})
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}
