package casestatus

import (
	"encoding/json"
	"fmt"
	"regexp"

	"ecourts-casestatus/internal/assert"
	"ecourts-casestatus/internal/chrono"
)

const NOT_AVAILABLE = "N/A"

const (
	SOURCE_DETAIL  = "detail"
	SOURCE_LISTING = "listing"
	SOURCE_NONE    = "none"
)

// the layout the upstream site uses for its own timestamps (en-IN locale)
const GENERATED_ON_LAYOUT = "2/1/2006, 3:04:05 pm"

type ReportCaseDetails struct {
	Source string `json:"source"`

	CaseNumber         string `json:"case_number"`
	CaseType           string `json:"case_type"`
	FilingNumber       string `json:"filing_number"`
	FilingDate         string `json:"filing_date"`
	RegistrationNumber string `json:"registration_number"`
	RegistrationDate   string `json:"registration_date"`
	CnrNumber          string `json:"cnr_number"`
	CourtName          string `json:"court_name"`
	Judge              string `json:"judge"`
	Stage              string `json:"stage"`
	NextDate           string `json:"next_date"`
	FirstHearingDate   string `json:"first_hearing_date"`
	Petitioner         string `json:"petitioner"`
	Respondent         string `json:"respondent"`

	Petitioners   []Party        `json:"petitioners"`
	Respondents   []Party        `json:"respondents"`
	Acts          []Act          `json:"acts"`
	Processes     []Process      `json:"processes"`
	History       []HistoryEntry `json:"case_history"`
	InterimOrders []InterimOrder `json:"interim_orders"`

	CourtComplex        string    `json:"court_complex"`
	TotalEstablishments int       `json:"total_establishments"`
	TotalCases          int       `json:"total_cases"`
	Cases               []CaseRow `json:"cases"`
}

type ReportCriteria struct {
	CaseNumber       string `json:"caseNumber"`
	RegistrationYear string `json:"registrationYear"`
	State            string `json:"state"`
	District         string `json:"district"`
	CourtComplex     string `json:"courtComplex"`
	CaseType         string `json:"caseType"`
}

type ReportPayload struct {
	CaseDetails    ReportCaseDetails `json:"caseDetails"`
	GeneratedOn    string            `json:"generatedOn"`
	SearchCriteria ReportCriteria    `json:"searchCriteria"`
}

func (p ReportPayload) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Assembler turns a search result into the exported report. Apart from generatedOn, the
// same inputs always produce the same payload.
type Assembler struct {
	time chrono.TimeAPI
}

func NewAssembler(time chrono.TimeAPI) Assembler {
	assert.NotNil(time)
	return Assembler{time: time}
}

func orNA(s string) string {
	if s == "" {
		return NOT_AVAILABLE
	}
	return s
}

func (a Assembler) Assemble(result MergedCaseResult, criteria SearchCriteria) ReportPayload {
	return ReportPayload{
		CaseDetails:    flattenResult(result),
		GeneratedOn:    a.time.Now().Format(GENERATED_ON_LAYOUT),
		SearchCriteria: flattenCriteria(criteria),
	}
}

func flattenCriteria(criteria SearchCriteria) ReportCriteria {
	return ReportCriteria{
		CaseNumber:       orNA(criteria.CaseNumber),
		RegistrationYear: orNA(criteria.RegistrationYear),
		State:            orNA(criteria.StateLabel),
		District:         orNA(criteria.DistrictLabel),
		CourtComplex:     orNA(criteria.CourtComplexLabel),
		CaseType:         orNA(criteria.CaseTypeLabel),
	}
}

func flattenResult(result MergedCaseResult) ReportCaseDetails {
	summary := result.Summary()

	out := ReportCaseDetails{
		Source:        SOURCE_NONE,
		CaseNumber:    summary.CaseNumber,
		CaseType:      summary.CaseType,
		CourtName:     summary.CourtName,
		Petitioner:    summary.Petitioner,
		Respondent:    summary.Respondent,
		Petitioners:   []Party{},
		Respondents:   []Party{},
		Acts:          []Act{},
		Processes:     []Process{},
		History:       []HistoryEntry{},
		InterimOrders: []InterimOrder{},
		Cases:         []CaseRow{},
	}

	if result.Listing != nil {
		out.Source = SOURCE_LISTING
		out.CourtComplex = result.Listing.Summary.CourtComplex
		out.TotalEstablishments = result.Listing.Summary.TotalEstablishments
		out.TotalCases = result.Listing.Summary.TotalCases
		for _, row := range result.Listing.Rows {
			out.Cases = append(out.Cases, CaseRow{
				Serial:    orNA(row.Serial),
				CaseId:    orNA(row.CaseId),
				Parties:   orNA(row.Parties),
				CourtName: orNA(row.CourtName),
			})
		}
	}
	if result.Reference != nil {
		out.CnrNumber = result.Reference.Cnr
	}

	if d := result.Detail; d != nil {
		out.Source = SOURCE_DETAIL
		out.FilingNumber = d.FilingNumber
		out.FilingDate = d.FilingDate
		out.RegistrationNumber = d.RegistrationNumber
		out.RegistrationDate = d.RegistrationDate
		if d.CnrNumber != "" {
			out.CnrNumber = d.CnrNumber
		}
		out.Judge = d.Judge
		out.Stage = d.Stage
		out.NextDate = d.NextDate
		out.FirstHearingDate = d.FirstHearingDate

		for _, p := range d.Petitioners {
			out.Petitioners = append(out.Petitioners, Party{Name: orNA(p.Name), Advocate: orNA(p.Advocate)})
		}
		for _, p := range d.Respondents {
			out.Respondents = append(out.Respondents, Party{Name: orNA(p.Name), Advocate: orNA(p.Advocate)})
		}
		for _, act := range d.Acts {
			out.Acts = append(out.Acts, Act{Name: orNA(act.Name), Sections: orNA(act.Sections)})
		}
		for _, p := range d.Processes {
			out.Processes = append(out.Processes, Process{Id: orNA(p.Id), Title: orNA(p.Title), Date: orNA(p.Date)})
		}
		for _, h := range d.History {
			out.History = append(out.History, HistoryEntry{
				Judge:        orNA(h.Judge),
				BusinessDate: orNA(h.BusinessDate),
				HearingDate:  orNA(h.HearingDate),
				Purpose:      orNA(h.Purpose),
			})
		}
		for _, o := range d.InterimOrders {
			out.InterimOrders = append(out.InterimOrders, InterimOrder{
				Number:        orNA(o.Number),
				Date:          orNA(o.Date),
				Details:       orNA(o.Details),
				DisplayPdfArg: o.DisplayPdfArg,
			})
		}
	}

	if out.CourtComplex == "" {
		out.CourtComplex = UNKNOWN_COURT
	}
	for _, field := range []*string{
		&out.CaseNumber, &out.CaseType, &out.FilingNumber, &out.FilingDate,
		&out.RegistrationNumber, &out.RegistrationDate, &out.CnrNumber, &out.CourtName,
		&out.Judge, &out.Stage, &out.NextDate, &out.FirstHearingDate,
		&out.Petitioner, &out.Respondent,
	} {
		*field = orNA(*field)
	}

	return out
}

var unsafeFilenameRegex = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ReportFilename is the name a report should be downloaded as.
func ReportFilename(criteria SearchCriteria) string {
	return fmt.Sprintf(
		"case_report_%s_%s.json",
		unsafeFilenameRegex.ReplaceAllString(criteria.CaseNumber, "_"),
		unsafeFilenameRegex.ReplaceAllString(criteria.RegistrationYear, "_"),
	)
}
