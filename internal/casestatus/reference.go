package casestatus

import (
	"regexp"
	"strings"
)

// viewHistory('<case number>','<cnr>',<court code>,...
//
// only the first call in the fragment is considered, when a listing has several rows the
// reference belongs to the first row with a view link (see CaseListing.PrimaryRow).
var viewHistoryRegex = regexp.MustCompile(`viewHistory\('([^']+)','([^']+)',([^,]+),`)

// ExtractReference finds the identifiers needed to request the details of a case, it returns
// nil unless all three are present.
func ExtractReference(fragment string) *CaseReference {
	groups := viewHistoryRegex.FindStringSubmatch(fragment)
	if len(groups) < 4 {
		return nil
	}

	ref := CaseReference{
		CaseNumber: strings.TrimSpace(groups[1]),
		Cnr:        strings.TrimSpace(groups[2]),
		CourtCode:  strings.Trim(groups[3], " \t\r\n'\""),
	}
	if ref.CaseNumber == "" || ref.Cnr == "" || ref.CourtCode == "" {
		return nil
	}
	return &ref
}
