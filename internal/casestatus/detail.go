package casestatus

import (
	"regexp"
	"strings"

	"ecourts-casestatus/lib/htmlutil"
	"ecourts-casestatus/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const DETAIL_PARSE_FAILED = "parsing failed"

var (
	dateLikeRegex       = regexp.MustCompile(`^(\d{2}[-/]\d{2}[-/]\d{4}|\d{1,2}(st|nd|rd|th)\s+[A-Za-z]+\s+\d{4})$`)
	advocateSplitRegex  = regexp.MustCompile(`(?i)advocate[-:]?`)
	partyIndexRegex     = regexp.MustCompile(`^\d+\)\s*`)
	displayPdfRegex     = regexp.MustCompile(`displayPdf\('([^']+)'`)
	cnrRegex            = regexp.MustCompile(`\b([A-Z]{4}\d{12})\b`)
	filingNumberRegex   = regexp.MustCompile(`(?i)filing number\s*:?\s*([0-9/]+)`)
	registrationNoRegex = regexp.MustCompile(`(?i)registration number\s*:?\s*([0-9/]+)`)
)

func newDetailRecord() DetailRecord {
	return DetailRecord{
		Petitioners:   []Party{},
		Respondents:   []Party{},
		Acts:          []Act{},
		Processes:     []Process{},
		History:       []HistoryEntry{},
		InterimOrders: []InterimOrder{},
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(textutil.CollapseWhitespace(s))
}

func cellText(sel *goquery.Selection) string {
	return textutil.CollapseWhitespace(sel.Text())
}

func headerLabels(table *goquery.Selection) []string {
	var labels []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		labels = append(labels, normalizeLabel(th.Text()))
	})
	return labels
}

// skipFirst drops the header row of a table.
func skipFirst(rows *goquery.Selection) *goquery.Selection {
	if rows.Length() == 0 {
		return rows
	}
	return rows.Slice(1, goquery.ToEnd)
}

func anyContains(labels []string, needles ...string) bool {
	for _, l := range labels {
		for _, n := range needles {
			if strings.Contains(l, n) {
				return true
			}
		}
	}
	return false
}

// ParseDetail parses the html returned by viewHistory. Fields that cannot be found are left
// empty, a failure while walking the document yields an empty record with Error set.
func ParseDetail(fragment string) (record DetailRecord) {
	defer func() {
		if recover() != nil {
			record = newDetailRecord()
			record.Error = DETAIL_PARSE_FAILED
		}
	}()

	record = newDetailRecord()

	doc, err := htmlutil.NewDocument(fragment)
	if err != nil {
		record.Error = DETAIL_PARSE_FAILED
		return record
	}

	tables := doc.Find("table")

	tables.Each(func(_ int, table *goquery.Selection) {
		if anyContains(headerLabels(table), "process id", "order number", "business on date") {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			pairs := 1
			if cells.Length() >= 4 {
				pairs = cells.Length() / 2
			}
			for i := 0; i < pairs && 2*i+1 < cells.Length(); i++ {
				label := normalizeLabel(cells.Eq(2 * i).Text())
				value := cellText(cells.Eq(2*i + 1))
				if label == "" || value == "" {
					continue
				}
				assignDetailField(&record, label, value)
			}
		})
	})

	heading := doc.Find("#chHeading").First()
	if heading.Length() == 0 {
		heading = doc.Find("h2").First()
	}
	if text := cellText(heading); text != "" {
		record.CourtName = text
	}

	tables.Each(func(_ int, table *goquery.Selection) {
		class := strings.ToLower(table.AttrOr("class", ""))
		switch {
		case strings.Contains(class, "petitioner_advocate_table"):
			if len(record.Petitioners) == 0 {
				record.Petitioners = parseParties(table)
			}
		case strings.Contains(class, "respondent_advocate_table"):
			if len(record.Respondents) == 0 {
				record.Respondents = parseParties(table)
			}
		}
	})

	record.Acts = parseActs(tables)
	record.Processes = parseProcesses(tables)
	record.History = parseHistory(tables)
	record.InterimOrders = parseInterimOrders(tables)

	text := strings.Join(htmlutil.GetTextLines(doc.Get(0)), " ")
	if record.CnrNumber == "" {
		if groups := cnrRegex.FindStringSubmatch(text); len(groups) > 1 {
			record.CnrNumber = groups[1]
		}
	}
	if record.FilingNumber == "" {
		if groups := filingNumberRegex.FindStringSubmatch(text); len(groups) > 1 {
			record.FilingNumber = groups[1]
		}
	}
	if record.RegistrationNumber == "" {
		if groups := registrationNoRegex.FindStringSubmatch(text); len(groups) > 1 {
			record.RegistrationNumber = groups[1]
		}
	}

	return record
}

// the first label that matches wins, later duplicates (the page repeats some fields in its
// mobile layout) are ignored.
func assignDetailField(record *DetailRecord, label, value string) {
	setOnce := func(target *string, v string) {
		if *target == "" {
			*target = v
		}
	}

	switch {
	case textutil.MatchName(label, []string{"casetype"}):
		setOnce(&record.CaseType, value)
	case textutil.MatchName(label, []string{"filingnumber"}):
		setOnce(&record.FilingNumber, value)
	case textutil.MatchName(label, []string{"filingdate"}):
		setOnce(&record.FilingDate, value)
	case textutil.MatchName(label, []string{"registrationnumber"}):
		setOnce(&record.RegistrationNumber, value)
	case textutil.MatchName(label, []string{"registrationdate"}):
		setOnce(&record.RegistrationDate, value)
	case textutil.MatchName(label, []string{"cnrnumber"}):
		// "HPCH010018042025 (Note the CNR number for future reference)"
		cnr, _, _ := strings.Cut(value, "(")
		setOnce(&record.CnrNumber, strings.TrimSpace(cnr))
	case textutil.MatchName(label, []string{"courtnumber"}):
		if !dateLikeRegex.MatchString(value) {
			setOnce(&record.Judge, value)
		}
	case textutil.MatchName(label, []string{"nexthearingdate", "nextdate"}):
		setOnce(&record.NextDate, value)
	case textutil.MatchName(label, []string{"firsthearing"}):
		setOnce(&record.FirstHearingDate, value)
	case textutil.MatchName(label, []string{"stage", "status"}):
		setOnce(&record.Stage, value)
	}
}

// each cell holds one party in the form "1) Name <br> Advocate- Name".
func parseParties(table *goquery.Selection) []Party {
	parties := []Party{}
	table.Find("td").Each(func(_ int, cell *goquery.Selection) {
		lines := htmlutil.GetTextLines(cell.Get(0))
		if len(lines) == 0 {
			return
		}
		buffer := strings.Join(lines, " ")

		segments := advocateSplitRegex.Split(buffer, -1)
		party := Party{}
		if len(segments) >= 2 {
			party.Name = segments[0]
			party.Advocate = strings.Trim(segments[1], " -:")
		} else {
			party.Name = buffer
		}
		party.Name = strings.Trim(partyIndexRegex.ReplaceAllString(party.Name, ""), " -:")
		parties = append(parties, party)
	})
	return parties
}

func parseActs(tables *goquery.Selection) []Act {
	acts := []Act{}
	tables.Each(func(_ int, table *goquery.Selection) {
		if !anyContains(headerLabels(table), "under act") {
			return
		}
		skipFirst(table.Find("tr")).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}
			name := cellText(cells.Eq(0))
			sections := cellText(cells.Eq(1))
			if name == "" || sections == "" {
				return
			}
			acts = append(acts, Act{Name: name, Sections: sections})
		})
	})
	return acts
}

func parseProcesses(tables *goquery.Selection) []Process {
	processes := []Process{}

	table := tables.FilterFunction(func(_ int, t *goquery.Selection) bool {
		return anyContains(headerLabels(t), "process id")
	}).First()
	if table.Length() == 0 {
		return processes
	}

	// process tables sometimes put every cell in a single row, so cells are consumed in
	// groups of three regardless of row boundaries.
	var cells []*goquery.Selection
	skipFirst(table.Find("tr")).Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, td)
	})
	if len(cells) == 0 {
		table.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td)
		})
	}

	for i := 0; i < len(cells); i += 3 {
		end := min(i+3, len(cells))
		chunk := cells[i:end]
		if len(chunk) < 2 {
			continue
		}
		p := Process{
			Id:    cellText(chunk[0]),
			Title: cellText(chunk[1]),
		}
		if len(chunk) > 2 {
			p.Date = cellText(chunk[2])
		}
		if p.Id == "" && p.Title == "" {
			continue
		}
		processes = append(processes, p)
	}
	return processes
}

func parseHistory(tables *goquery.Selection) []HistoryEntry {
	history := []HistoryEntry{}

	table := tables.FilterFunction(func(_ int, t *goquery.Selection) bool {
		if strings.Contains(t.AttrOr("class", ""), "history_table") {
			return true
		}
		headers := strings.Join(headerLabels(t), " ")
		return strings.Contains(headers, "business on date") || strings.Contains(headers, "hearing date")
	}).First()
	if table.Length() == 0 {
		return history
	}

	skipFirst(table.Find("tr")).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		entry := HistoryEntry{
			Judge:        cellText(cells.Eq(0)),
			BusinessDate: cellText(cells.Eq(1)),
			HearingDate:  cellText(cells.Eq(2)),
		}
		if cells.Length() > 3 {
			entry.Purpose = cellText(cells.Eq(3))
		}
		history = append(history, entry)
	})
	return history
}

func parseInterimOrders(tables *goquery.Selection) []InterimOrder {
	orders := []InterimOrder{}

	table := tables.FilterFunction(func(_ int, t *goquery.Selection) bool {
		headers := headerLabels(t)
		if len(headers) > 0 {
			return anyContains(headers, "order number")
		}
		firstRow := normalizeLabel(t.Find("tr").First().Find("td").Text())
		return strings.Contains(firstRow, "order number")
	}).First()
	if table.Length() == 0 {
		return orders
	}

	rows := table.Find("tr")
	if strings.Contains(normalizeLabel(rows.First().Text()), "order number") {
		rows = skipFirst(rows)
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		order := InterimOrder{
			Number: strings.Trim(cellText(cells.Eq(0)), " ."),
			Date:   cellText(cells.Eq(1)),
		}

		detailsCell := cells.Eq(1)
		if cells.Length() > 2 {
			detailsCell = cells.Eq(2)
		}
		anchor := detailsCell.Find("a[onclick]").First()
		if anchor.Length() > 0 {
			order.Details = cellText(anchor)
			if groups := displayPdfRegex.FindStringSubmatch(anchor.AttrOr("onclick", "")); len(groups) > 1 {
				order.DisplayPdfArg = groups[1]
			}
		}
		if order.Details == "" {
			order.Details = cellText(detailsCell)
		}

		if order.Number == "" && order.Date == "" && order.Details == "" {
			return
		}
		orders = append(orders, order)
	})
	return orders
}
