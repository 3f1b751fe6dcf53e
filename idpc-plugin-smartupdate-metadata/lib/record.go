package smartupdate

import (
	"time"

	"github.com/gorpher/idpc-plugins/report"
)

// Metadata describes one Smart Update component.
type Metadata struct {
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Version      string    `json:"version"`
	Date         time.Time `json:"date"`
	Manufacturer string    `json:"manufacturer"`
	Languages    []string  `json:"languages"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	FileName     string    `json:"file_name"`
}

var metadataFields = []string{
	"name", "content", "version", "date", "manufacturer", "languages", "category", "description",
}

func optional(s string) report.Value {
	if s == "" {
		return report.Null{}
	}
	return report.String(s)
}

// Emit writes m as a "package" block keyed by its file name.
func (m *Metadata) Emit(em *report.Emitter) error {
	values := map[string]report.Value{
		"name":         optional(m.Name),
		"content":      optional(m.Content),
		"version":      optional(m.Version),
		"date":         report.Of(m.Date),
		"manufacturer": optional(m.Manufacturer),
		"category":     optional(m.Category),
		"description":  optional(m.Description),
		"languages":    report.Null{},
	}
	if len(m.Languages) > 0 {
		values["languages"] = report.Of(m.Languages)
	}
	return em.WithBlock("package", map[string]string{"file": m.FileName}, func() error {
		return em.Collect(metadataFields, report.MapLookup(values))
	})
}
