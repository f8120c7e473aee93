package casestatus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ecourts-casestatus/internal/assert"
	"ecourts-casestatus/internal/telemetry"
)

const (
	report_resolver_fetch_listing     = "resolver.fetch-listing"
	report_resolver_parse_listing     = "resolver.parse-listing"
	report_resolver_extract_reference = "resolver.extract-reference"
	report_resolver_fetch_detail      = "resolver.fetch-detail"
)

const (
	SEARCH_BY_CASE_NUMBER = "CScaseNumber"

	MESSAGE_SUBMISSION_FAILED = "Submission failed"
	WARNING_NO_REFERENCE      = "could not extract case reference from listing, showing listing only"
	WARNING_DETAIL_FAILED     = "could not retrieve case details, showing listing only"
)

// Upstream is the network boundary of a search, the resolver never talks to the court
// system directly.
type Upstream interface {
	FetchCaseListing(ctx context.Context, req ListingRequest) (ListingResponse, error)
	FetchCaseDetail(ctx context.Context, req DetailRequest) (DetailResponse, error)
}

// UpstreamFuncs adapts two plain functions into an Upstream.
type UpstreamFuncs struct {
	Listing func(ctx context.Context, req ListingRequest) (ListingResponse, error)
	Detail  func(ctx context.Context, req DetailRequest) (DetailResponse, error)
}

func (u UpstreamFuncs) FetchCaseListing(ctx context.Context, req ListingRequest) (ListingResponse, error) {
	return u.Listing(ctx, req)
}

func (u UpstreamFuncs) FetchCaseDetail(ctx context.Context, req DetailRequest) (DetailResponse, error) {
	return u.Detail(ctx, req)
}

type Outcome int

const (
	// OutcomeFailed means the listing itself could not be obtained.
	OutcomeFailed Outcome = iota
	// OutcomeListing means a listing was obtained but no detail, either because there was
	// nothing to look up or because the lookup failed.
	OutcomeListing
	OutcomeListingWithDetail
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeListing:
		return "listing"
	case OutcomeListingWithDetail:
		return "listing_with_detail"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "failed":
		*o = OutcomeFailed
	case "listing":
		*o = OutcomeListing
	case "listing_with_detail":
		*o = OutcomeListingWithDetail
	default:
		return fmt.Errorf("unknown outcome %q", string(text))
	}
	return nil
}

// MergedCaseResult is the result of one search. It is built once by Resolve and not
// modified afterwards.
type MergedCaseResult struct {
	Outcome        Outcome        `json:"outcome"`
	Listing        *CaseListing   `json:"listing,omitempty"`
	Detail         *DetailRecord  `json:"detail,omitempty"`
	Reference      *CaseReference `json:"reference,omitempty"`
	RawListingHtml string         `json:"raw_listing_html,omitempty"`
	Message        string         `json:"message,omitempty"`
	Warning        string         `json:"warning,omitempty"`
}

// Success is false only when the listing could not be obtained, a missing detail is still
// a successful search.
func (r MergedCaseResult) Success() bool {
	return r.Outcome != OutcomeFailed
}

func (r MergedCaseResult) MarshalJSON() ([]byte, error) {
	type plain MergedCaseResult
	return json.Marshal(struct {
		Success bool `json:"success"`
		plain
	}{
		Success: r.Success(),
		plain:   plain(r),
	})
}

// CaseSummary holds the fields shown at the top of a result, detail values take precedence
// over the ones derived from the listing.
type CaseSummary struct {
	CaseNumber string `json:"case_number"`
	CaseType   string `json:"case_type"`
	CourtName  string `json:"court_name"`
	Petitioner string `json:"petitioner"`
	Respondent string `json:"respondent"`
}

func (r MergedCaseResult) Summary() CaseSummary {
	var summary CaseSummary

	if row, ok := r.Listing.PrimaryRow(); ok {
		summary = CaseSummary{
			CaseNumber: row.CaseNumber(),
			CaseType:   row.CaseType(),
			CourtName:  row.CourtName,
			Petitioner: row.Petitioner(),
			Respondent: row.Respondent(),
		}
	}
	if summary.CourtName == "" && r.Listing != nil && r.Listing.Summary.CourtComplex != UNKNOWN_COURT {
		summary.CourtName = r.Listing.Summary.CourtComplex
	}

	if r.Detail == nil {
		return summary
	}

	prefer := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	prefer(&summary.CaseNumber, r.Detail.RegistrationNumber)
	prefer(&summary.CaseNumber, r.Detail.CaseNumber)
	prefer(&summary.CaseType, r.Detail.CaseType)
	prefer(&summary.CourtName, r.Detail.CourtName)
	if len(r.Detail.Petitioners) > 0 {
		prefer(&summary.Petitioner, r.Detail.Petitioners[0].Name)
	}
	if len(r.Detail.Respondents) > 0 {
		prefer(&summary.Respondent, r.Detail.Respondents[0].Name)
	}
	return summary
}

// Resolver runs a case number search: it fetches the listing and, when the listing carries
// a case reference, the case detail.
type Resolver struct {
	upstream Upstream
	tel      telemetry.API
}

func NewResolver(upstream Upstream, tel telemetry.API) Resolver {
	assert.NotNil(upstream)
	assert.NotNil(tel)
	return Resolver{
		upstream: upstream,
		tel:      telemetry.NewScopedAPI("casestatus", tel),
	}
}

func (r Resolver) Resolve(ctx context.Context, search SearchContext) MergedCaseResult {
	res, err := r.upstream.FetchCaseListing(ctx, search)
	if err != nil {
		r.tel.ReportBroken(report_resolver_fetch_listing, err)
		return MergedCaseResult{
			Outcome: OutcomeFailed,
			Message: MESSAGE_SUBMISSION_FAILED,
		}
	}
	if !res.Success {
		message := res.Message
		if message == "" {
			message = MESSAGE_SUBMISSION_FAILED
		}
		return MergedCaseResult{
			Outcome: OutcomeFailed,
			Message: message,
		}
	}

	rawHtml := res.CaseStatusData.RawHtml
	listing := ParseListing(rawHtml)
	if listing == nil {
		if strings.TrimSpace(rawHtml) != "" {
			r.tel.ReportWarning(report_resolver_parse_listing, "could not parse listing html")
		}
		listing = &CaseListing{
			Summary: ListingSummary{CourtComplex: UNKNOWN_COURT},
			Rows:    []CaseRow{},
		}
	}

	listingOnly := func(ref *CaseReference, warning string) MergedCaseResult {
		return MergedCaseResult{
			Outcome:        OutcomeListing,
			Listing:        listing,
			Reference:      ref,
			RawListingHtml: rawHtml,
			Warning:        warning,
		}
	}

	if len(listing.Rows) == 0 {
		return listingOnly(nil, "")
	}

	ref := ExtractReference(rawHtml)
	if ref == nil {
		r.tel.ReportWarning(report_resolver_extract_reference, search.CaseNo, search.RgYear)
		return listingOnly(nil, WARNING_NO_REFERENCE)
	}

	detailRes, err := r.upstream.FetchCaseDetail(ctx, DetailRequest{
		CourtCode:        ref.CourtCode,
		StateCode:        search.StateCode,
		DistCode:         search.DistCode,
		CourtComplexCode: search.CourtComplexCode,
		CaseNo:           ref.CaseNumber,
		Cino:             ref.Cnr,
		SearchFlag:       SEARCH_BY_CASE_NUMBER,
		SearchBy:         SEARCH_BY_CASE_NUMBER,
	})
	var reason string
	switch {
	case err != nil:
		reason = err.Error()
	case !detailRes.Success:
		reason = detailRes.Message
		if reason == "" {
			reason = "detail lookup was unsuccessful"
		}
	case detailRes.CaseDetails == nil:
		reason = "no case details in response"
	}
	if reason != "" {
		r.tel.ReportWarning(report_resolver_fetch_detail, ref.Cnr, reason)
		return listingOnly(ref, fmt.Sprintf("%s: %s", WARNING_DETAIL_FAILED, reason))
	}

	detail := *detailRes.CaseDetails
	return MergedCaseResult{
		Outcome:        OutcomeListingWithDetail,
		Listing:        listing,
		Detail:         &detail,
		Reference:      ref,
		RawListingHtml: rawHtml,
	}
}
