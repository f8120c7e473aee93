package casestatus

import (
	"strings"

	"ecourts-casestatus/lib/htmlutil"
	"ecourts-casestatus/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseListing parses the results fragment returned by submitCaseNo.
//
// It returns nil when the fragment is empty or cannot be traversed at all. A fragment that
// parses but doesn't contain the results table still yields a listing, with no rows and
// whatever summary could be found.
func ParseListing(fragment string) (listing *CaseListing) {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}

	defer func() {
		if recover() != nil {
			listing = nil
		}
	}()

	doc, err := htmlutil.NewDocument(fragment)
	if err != nil {
		return nil
	}

	listing = &CaseListing{
		Summary: parseSummary(doc),
		Rows:    []CaseRow{},
	}

	table := doc.Find("table#dispTable").First()
	if table.Length() == 0 {
		return listing
	}

	currentCourt := ""
	table.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")

		switch cells.Length() {
		case 2:
			colspan, _ := cells.First().Attr("colspan")
			if strings.TrimSpace(colspan) != "3" {
				return
			}
			currentCourt = htmlutil.Text(cells.First())
		case 4:
			serial := htmlutil.Text(cells.Eq(0))
			caseId := htmlutil.Text(cells.Eq(1))
			if serial == "" || caseId == "" {
				return
			}
			hasReference := false
			row.Find("[onclick]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
				hasReference = ExtractReference(link.AttrOr("onclick", "")) != nil
				return !hasReference
			})
			listing.Rows = append(listing.Rows, CaseRow{
				Serial:       serial,
				CaseId:       caseId,
				Parties:      textutil.NormalizeParties(cells.Eq(2).Text()),
				CourtName:    currentCourt,
				HasReference: hasReference,
			})
		}
	})

	return listing
}

// the first .h2class heading carries the establishment count and the last one carries the
// case count, when there is a single heading both numbers come from it.
func parseSummary(doc *goquery.Document) ListingSummary {
	headings := doc.Find(".h2class")

	courtComplex := htmlutil.Text(doc.Find(".text-center a").First())
	if courtComplex == "" {
		courtComplex = UNKNOWN_COURT
	}

	return ListingSummary{
		TotalEstablishments: textutil.FirstNumber(headings.First().Text()),
		TotalCases:          textutil.FirstNumber(headings.Last().Text()),
		CourtComplex:        courtComplex,
	}
}
