// Package scan enumerates receipt files under the slip share. Directory
// trees are laid out facility/year/month/files, so the same name predicate
// governs descent at every depth.
package scan

import "regexp"

// facilityCodePattern is the shape of a point-of-sale facility code used as
// a directory name: one letter + three digits, or two letters + two digits.
var facilityCodePattern = regexp.MustCompile(`^(?i:[A-Z]\d{3}|[A-Z]{2}\d{2})$`)

// allMonths are the two-digit month directory names accepted when no
// explicit month selection is configured.
var allMonths = []string{
	"01", "02", "03", "04", "05", "06",
	"07", "08", "09", "10", "11", "12",
}

// Accepts reports whether a directory name belongs to the year/month
// selection or looks like a facility code. Months defaults to all twelve
// when empty.
func Accepts(name string, years, months []string) bool {
	if len(months) == 0 {
		months = allMonths
	}
	for _, m := range months {
		if name == m {
			return true
		}
	}
	for _, y := range years {
		if name == y {
			return true
		}
	}
	return facilityCodePattern.MatchString(name)
}
