package report

import "strings"

// A Replacer makes a single pass, so '&' in an entity produced by another
// replacement is never escaped again.
var (
	xmlNameReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
		" ", "&#x20;",
		"\t", "&#x9;",
	)
	xmlValueReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
)

// EscapeXMLName makes s safe as an element or attribute name.
func EscapeXMLName(s string) string {
	return xmlNameReplacer.Replace(s)
}

// EscapeXMLValue makes s safe as element content or an attribute value.
func EscapeXMLValue(s string) string {
	return xmlValueReplacer.Replace(s)
}
