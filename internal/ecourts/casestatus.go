package ecourts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/lib/htmlutil"
)

const (
	endpointSubmitCase  = "/ecourtindia_v6/?p=casestatus/submitCaseNo"
	endpointViewHistory = "/ecourtindia_v6/?p=home/viewHistory"

	DEFAULT_EST_CODE = "null"

	MESSAGE_EMPTY_LISTING    = "Empty case listing"
	MESSAGE_RECORD_NOT_FOUND = "Record not found"
	MESSAGE_NO_DETAILS       = "No case details found in response"
)

// Submission is the listing page returned for a case number search.
type Submission struct {
	CaseHtml    string
	CaptchaHtml string
}

func isRecordNotFound(caseHtml string) bool {
	doc, err := htmlutil.NewDocument(caseHtml)
	if err != nil {
		return false
	}
	if doc.Find("#nodata").Length() > 0 {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Text()), "record not found")
}

// SubmitCase posts a case number search. ErrEmptyListing is returned when the upstream
// answers without listing html (most often a wrong captcha), ErrRecordNotFound when the
// listing says there is no such case.
func (c *Client) SubmitCase(ctx context.Context, req casestatus.ListingRequest) (Submission, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return Submission{}, err
	}

	estCode := req.EstCode
	if estCode == "" {
		estCode = DEFAULT_EST_CODE
	}
	body, err := c.postAjax(ctx, endpointSubmitCase, map[string]string{
		"case_type":          req.CaseType,
		"search_case_no":     req.CaseNo,
		"rgyear":             req.RgYear,
		"case_captcha_code":  req.CaptchaCode,
		"state_code":         req.StateCode,
		"dist_code":          req.DistCode,
		"court_complex_code": req.CourtComplexCode,
		"est_code":           estCode,
		"case_no":            req.CaseNo,
	})
	if err != nil {
		c.tel.ReportBroken(report_client_submit_case, err)
		return Submission{}, err
	}

	submission := Submission{
		CaseHtml:    body.str("case_data", "case_html"),
		CaptchaHtml: body.str("div_captcha"),
	}
	if submission.CaseHtml == "" {
		for _, key := range []string{"data", "result", "html"} {
			value := body.str(key)
			if strings.Contains(value, "<table") {
				submission.CaseHtml = value
				break
			}
		}
	}

	if strings.TrimSpace(submission.CaseHtml) == "" {
		c.tel.ReportDebug("submission returned no listing", req.CaseNo, req.RgYear)
		return submission, ErrEmptyListing
	}
	if isRecordNotFound(submission.CaseHtml) {
		return submission, ErrRecordNotFound
	}
	return submission, nil
}

// FetchCaseListing is SubmitCase in the shape the resolver expects: upstream rejections are
// reported as an unsuccessful response while transport failures stay errors.
func (c *Client) FetchCaseListing(ctx context.Context, req casestatus.ListingRequest) (casestatus.ListingResponse, error) {
	submission, err := c.SubmitCase(ctx, req)
	switch {
	case errors.Is(err, ErrEmptyListing):
		return casestatus.ListingResponse{Success: false, Message: MESSAGE_EMPTY_LISTING}, nil
	case errors.Is(err, ErrRecordNotFound):
		return casestatus.ListingResponse{
			Success:        false,
			Message:        MESSAGE_RECORD_NOT_FOUND,
			CaseStatusData: casestatus.CaseStatusData{RawHtml: submission.CaseHtml},
		}, nil
	case err != nil:
		return casestatus.ListingResponse{}, err
	}

	return casestatus.ListingResponse{
		Success:        true,
		Message:        "Case found",
		CaseStatusData: casestatus.CaseStatusData{RawHtml: submission.CaseHtml},
	}, nil
}

// FetchCaseDetail loads and parses the viewHistory page of a case.
func (c *Client) FetchCaseDetail(ctx context.Context, req casestatus.DetailRequest) (casestatus.DetailResponse, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return casestatus.DetailResponse{}, err
	}

	searchFlag := req.SearchFlag
	if searchFlag == "" {
		searchFlag = casestatus.SEARCH_BY_CASE_NUMBER
	}
	searchBy := req.SearchBy
	if searchBy == "" {
		searchBy = casestatus.SEARCH_BY_CASE_NUMBER
	}

	body, err := c.postAjax(ctx, endpointViewHistory, map[string]string{
		"court_code":         req.CourtCode,
		"state_code":         req.StateCode,
		"dist_code":          req.DistCode,
		"court_complex_code": req.CourtComplexCode,
		"case_no":            req.CaseNo,
		"cino":               req.Cino,
		"hideparty":          "",
		"search_flag":        searchFlag,
		"search_by":          searchBy,
	})
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_detail, fmt.Errorf("viewHistory: %w", err), req.Cino)
		return casestatus.DetailResponse{}, err
	}

	dataList := body.str("data_list")
	if strings.TrimSpace(dataList) == "" {
		return casestatus.DetailResponse{Success: false, Message: MESSAGE_NO_DETAILS}, nil
	}

	detail := casestatus.ParseDetail(dataList)
	if detail.Error != "" {
		c.tel.ReportBroken(report_client_fetch_detail, "parse detail", detail.Error, req.Cino)
	}
	return casestatus.DetailResponse{
		Success:     true,
		Message:     "Case details retrieved successfully",
		CaseDetails: &detail,
		RawHtml:     dataList,
	}, nil
}
