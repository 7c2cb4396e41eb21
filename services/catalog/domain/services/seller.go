package services

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DeriveSeller guesses a display name for the seller from the product URL's
// host: "https://www.grailed.com/listings/123" -> "Grailed". Returns "" when
// no sensible name can be derived; the seller field is optional.
func DeriveSeller(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}

	// The label left of the TLD is the brand in practice; for multi-part
	// public suffixes like .co.uk step one label further in.
	name := labels[len(labels)-2]
	if (name == "co" || name == "com") && len(labels) >= 3 {
		name = labels[len(labels)-3]
	}
	if name == "" {
		return ""
	}
	return titleCaser.String(name)
}
