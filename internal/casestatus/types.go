package casestatus

import (
	"strings"

	"ecourts-casestatus/lib/textutil"
)

const UNKNOWN_COURT = "Unknown Court"

type ListingSummary struct {
	TotalEstablishments int    `json:"totalEstablishments"`
	TotalCases          int    `json:"totalCases"`
	CourtComplex        string `json:"courtComplex"`
}

// CaseRow is one data row of the results table, CourtName is inherited from the closest
// group header above it.
type CaseRow struct {
	Serial    string `json:"sr"`
	CaseId    string `json:"caseId"`
	Parties   string `json:"parties"`
	CourtName string `json:"courtName"`
	// HasReference is set when the row's view link carries a complete case reference.
	HasReference bool `json:"hasReference,omitempty"`
}

// the case id is displayed as "<case type>/<number>/<year>", the case type may itself be empty.
func (r CaseRow) caseIdParts() []string {
	parts := strings.Split(r.CaseId, "/")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// CaseType returns the case type portion of the case id, or "" if the id doesn't have the
// expected three segments.
func (r CaseRow) CaseType() string {
	parts := r.caseIdParts()
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}

// CaseNumber returns "<number>/<year>" from the case id, or the whole id if it doesn't have
// the expected three segments.
func (r CaseRow) CaseNumber() string {
	parts := r.caseIdParts()
	if len(parts) < 3 {
		return strings.TrimSpace(r.CaseId)
	}
	return parts[1] + "/" + parts[2]
}

func (r CaseRow) Petitioner() string {
	p, _ := textutil.SplitParties(r.Parties)
	return p
}

func (r CaseRow) Respondent() string {
	_, res := textutil.SplitParties(r.Parties)
	return res
}

type CaseListing struct {
	Summary ListingSummary `json:"summary"`
	Rows    []CaseRow      `json:"cases"`
}

// PrimaryRow returns the first row carrying a case reference, which is the case the
// reference of the listing describes. Without such a row it falls back to the first row.
func (l *CaseListing) PrimaryRow() (CaseRow, bool) {
	if l == nil || len(l.Rows) == 0 {
		return CaseRow{}, false
	}
	for _, row := range l.Rows {
		if row.HasReference {
			return row, true
		}
	}
	return l.Rows[0], true
}

// CaseReference carries the identifiers needed to request the full details of a case. A
// reference is either fully populated or absent.
type CaseReference struct {
	CaseNumber string `json:"case_no"`
	Cnr        string `json:"cino"`
	CourtCode  string `json:"court_code"`
}

type Party struct {
	Name     string `json:"name"`
	Advocate string `json:"advocate"`
}

type Act struct {
	Name     string `json:"act_name"`
	Sections string `json:"sections"`
}

type Process struct {
	Id    string `json:"process_id"`
	Title string `json:"process_title"`
	Date  string `json:"process_date"`
}

type HistoryEntry struct {
	Judge        string `json:"judge"`
	BusinessDate string `json:"business_date"`
	HearingDate  string `json:"hearing_date"`
	Purpose      string `json:"purpose_of_hearing"`
}

type InterimOrder struct {
	Number  string `json:"order_number"`
	Date    string `json:"order_date"`
	Details string `json:"order_details"`
	// DisplayPdfArg is the raw argument of the displayPdf('...') handler, it is what the
	// upstream needs to produce the order pdf.
	DisplayPdfArg string `json:"display_pdf_arg"`
}

// DetailRecord is the parsed viewHistory page. Every field is optional, empty strings and
// empty lists mean the upstream did not provide the value.
type DetailRecord struct {
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

	Petitioners   []Party        `json:"petitioners"`
	Respondents   []Party        `json:"respondents"`
	Acts          []Act          `json:"acts"`
	Processes     []Process      `json:"processes"`
	History       []HistoryEntry `json:"case_history"`
	InterimOrders []InterimOrder `json:"interim_orders"`

	Error string `json:"error,omitempty"`
}

// SearchContext is everything the user submitted for a case number search.
type SearchContext struct {
	StateCode        string `json:"state_code"`
	DistCode         string `json:"dist_code"`
	CourtComplexCode string `json:"court_complex_code"`
	CaseType         string `json:"case_type"`
	CaseNo           string `json:"case_no"`
	RgYear           string `json:"rgyear"`
	CaptchaCode      string `json:"captcha_code"`
	EstCode          string `json:"est_code,omitempty"`
}

// SearchCriteria is the SearchContext together with the human readable labels of the
// selected codes, labels are what end up in reports.
type SearchCriteria struct {
	CaseNumber        string `json:"caseNumber"`
	RegistrationYear  string `json:"registrationYear"`
	StateLabel        string `json:"state"`
	DistrictLabel     string `json:"district"`
	CourtComplexLabel string `json:"courtComplex"`
	CaseTypeLabel     string `json:"caseType"`
}

type ListingRequest = SearchContext

type CaseStatusData struct {
	RawHtml string `json:"raw_html"`
}

type ListingResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message,omitempty"`
	CaseStatusData CaseStatusData `json:"case_status_data"`
}

type DetailRequest struct {
	CourtCode        string `json:"court_code"`
	StateCode        string `json:"state_code"`
	DistCode         string `json:"dist_code"`
	CourtComplexCode string `json:"court_complex_code"`
	CaseNo           string `json:"case_no"`
	Cino             string `json:"cino"`
	SearchFlag       string `json:"search_flag"`
	SearchBy         string `json:"search_by"`
}

type DetailResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message,omitempty"`
	CaseDetails *DetailRecord `json:"case_details"`
	RawHtml     string        `json:"raw_html"`
}
