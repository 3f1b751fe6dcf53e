package smartupdate

import (
	"encoding/xml"
	"strings"
	"time"
)

// cpqPackage is the descriptor a Smart Update component carries as
// <id>.xml next to its payload.
type cpqPackage struct {
	XMLName      xml.Name    `xml:"cpq_package"`
	Filename     string      `xml:"filename"`
	Version      cpqVersion  `xml:"version"`
	ReleaseDate  cpqDate     `xml:"release_date"`
	Manufacturer string      `xml:"manufacturer_name"`
	Languages    string      `xml:"languages"`
	Name         localized   `xml:"name"`
	Description  localized   `xml:"description"`
	Category     localized   `xml:"category"`
	Divisions    []localized `xml:"divisions>division"`
}

type cpqVersion struct {
	Value    string `xml:"value,attr"`
	Revision string `xml:"revision,attr"`
}

func (v cpqVersion) String() string {
	value := strings.TrimSpace(v.Value)
	if rev := strings.TrimSpace(v.Revision); rev != "" && value != "" {
		return value + "(" + rev + ")"
	}
	return value
}

type cpqDate struct {
	Year   int `xml:"year"`
	Month  int `xml:"month"`
	Day    int `xml:"day"`
	Hour   int `xml:"hour"`
	Minute int `xml:"minute"`
	Second int `xml:"second"`
}

func (d cpqDate) Time() time.Time {
	if d.Year == 0 {
		return time.Time{}
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// xlate is one language variant, e.g. <name_xlate lang="en">.
type xlate struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// localized collects every *_xlate child of an element.
type localized struct {
	Variants []xlate `xml:",any"`
}

// pick returns the lang variant, else the fallback variant, else the first
// non-empty one.
func (l localized) pick(lang, fallback string) string {
	for _, want := range []string{lang, fallback} {
		if want == "" {
			continue
		}
		for _, v := range l.Variants {
			if strings.EqualFold(v.Lang, want) {
				if s := strings.TrimSpace(v.Text); s != "" {
					return s
				}
			}
		}
	}
	for _, v := range l.Variants {
		if s := strings.TrimSpace(v.Text); s != "" {
			return s
		}
	}
	return ""
}
