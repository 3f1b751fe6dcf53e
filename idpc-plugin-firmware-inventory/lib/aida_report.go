package inventory

import "encoding/xml"

// aidaReport is the layout of an AIDA64 report saved with /XML.
type aidaReport struct {
	XMLName xml.Name   `xml:"Report"`
	Lang    string     `xml:"Lang"`
	Page    []aidaPage `xml:"Page"`
}

type aidaPage struct {
	Title     string       `xml:"Title"`
	MenuTitle string       `xml:"MenuTitle"`
	Item      []aidaItem   `xml:"Item"`
	Group     []aidaGroup  `xml:"Group"`
	Device    []aidaDevice `xml:"Device"`
}

type aidaDevice struct {
	Title string      `xml:"Title"`
	Item  []aidaItem  `xml:"Item"`
	Group []aidaGroup `xml:"Group"`
}

type aidaGroup struct {
	Title string     `xml:"Title"`
	Item  []aidaItem `xml:"Item"`
}

type aidaItem struct {
	Title string `xml:"Title"`
	ID    int    `xml:"ID"`
	Value string `xml:"Value"`
}

// aidaKey addresses the items titled Item inside groups titled Group.
type aidaKey struct {
	Group string
	Item  string
}

// values returns every item value under k, in report order, from all pages
// and devices.
func (r *aidaReport) values(k aidaKey) []string {
	var out []string
	collect := func(groups []aidaGroup) {
		for _, g := range groups {
			if g.Title != k.Group {
				continue
			}
			for _, it := range g.Item {
				if it.Title == k.Item {
					out = append(out, it.Value)
				}
			}
		}
	}
	for _, p := range r.Page {
		collect(p.Group)
		for _, d := range p.Device {
			collect(d.Group)
		}
	}
	return out
}
