package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/chrono"
	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/internal/querylog"
	"ecourts-casestatus/internal/telemetry"
	"ecourts-casestatus/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const listingFragment = `<h2 class="h2class">Total Number of Establishments in Court Complex : 1</h2>
<div class="text-center"><a class="noToken">Shimla District Court Complex</a></div>
<h2 class="h2class">Total Number of Cases : 1</h2>
<table id="dispTable"><tbody>
<tr><td colspan="3">Court of Civil Judge, Shimla</td><td></td></tr>
<tr><td>1</td><td>CS/133/2025</td><td>Ram Kumar Vs State of H.P.</td>
<td><a onclick="viewHistory('200100001332025','HPCH010018042025',1,'','CScaseNumber',1,'','','')">View</a></td></tr>
</tbody></table>`

var now = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

type fakeUpstream struct {
	listing    casestatus.ListingResponse
	listingErr error
	detail     casestatus.DetailResponse
	detailErr  error
	pdf        ecourts.OrderPdf
	pdfErr     error

	stateCalls int
	cleared    bool
}

func (f *fakeUpstream) FetchCaseListing(ctx context.Context, req casestatus.ListingRequest) (casestatus.ListingResponse, error) {
	return f.listing, f.listingErr
}

func (f *fakeUpstream) FetchCaseDetail(ctx context.Context, req casestatus.DetailRequest) (casestatus.DetailResponse, error) {
	return f.detail, f.detailErr
}

func (f *fakeUpstream) Status() ecourts.SessionStatus {
	return ecourts.SessionStatus{Initialized: true, HasToken: true}
}

func (f *fakeUpstream) Warm(ctx context.Context) (string, error) {
	return "token-warm", nil
}

func (f *fakeUpstream) ClearCache() {
	f.cleared = true
}

func (f *fakeUpstream) States(ctx context.Context) ([]ecourts.Option, string) {
	f.stateCalls++
	return []ecourts.Option{
		{Value: "5", Text: "Himachal Pradesh"},
		{Value: "1", Text: "Maharashtra"},
	}, "token-1"
}

func (f *fakeUpstream) Districts(ctx context.Context, stateCode string) ([]ecourts.Option, string, error) {
	if stateCode != "5" {
		return nil, "", fmt.Errorf("%w: status 500", ecourts.ErrUpstream)
	}
	return []ecourts.Option{{Value: "2", Text: "Shimla"}}, "token-2", nil
}

func (f *fakeUpstream) CourtComplexes(ctx context.Context, stateCode, distCode string) ([]ecourts.Option, string, error) {
	return []ecourts.Option{{Value: "1050001", RawValue: "1050001@1,2@N", Text: "Shimla Court Complex"}}, "token-3", nil
}

func (f *fakeUpstream) CaseTypes(ctx context.Context, req ecourts.CaseTypesRequest) ([]ecourts.Option, string, error) {
	return []ecourts.Option{{Value: "11", Text: "CS - Civil Suit"}}, "token-4", nil
}

func (f *fakeUpstream) CaptchaImage(ctx context.Context) (ecourts.CaptchaImage, error) {
	return ecourts.CaptchaImage{ContentType: "image/png", Content: []byte("png")}, nil
}

func (f *fakeUpstream) FetchOrderPdf(ctx context.Context, pdfRequest string) (ecourts.OrderPdf, error) {
	return f.pdf, f.pdfErr
}

type testEnv struct {
	upstream *fakeUpstream
	logs     querylog.Store
	tel      *telemetry.Recorder
	handler  http.Handler
	ctx      context.Context
}

func newTestEnv(t *testing.T) testEnv {
	ctx := testutil.Context(t, time.Second*5)
	clock := chrono.FixedTime{At: now}
	logs, err := querylog.NewStore(ctx, testutil.OpenMemoryDB(t, ""), clock)
	if err != nil {
		t.Fatal(err)
	}

	upstream := &fakeUpstream{}
	tel := telemetry.NewRecorder()
	server := NewServer(upstream, logs, clock, tel)

	return testEnv{
		upstream: upstream,
		logs:     logs,
		tel:      tel,
		handler:  server.Handler(nil),
		ctx:      ctx,
	}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch body := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(body))
	default:
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var search = casestatus.SearchContext{
	StateCode:        "5",
	DistCode:         "2",
	CourtComplexCode: "1050001",
	CaseType:         "11",
	CaseNo:           "133",
	RgYear:           "2025",
	CaptchaCode:      "ab12c",
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", decode[map[string]string](t, rec)["status"])

	rec = env.do(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[healthResponse](t, rec)
	if diff := cmp.Diff(healthResponse{
		Status:             "healthy",
		SessionInitialized: true,
		AppTokenAvailable:  true,
		Timestamp:          "2025-04-02T15:00:00+05:30",
	}, health); diff != "" {
		t.Fatal(diff)
	}
}

func TestDropdowns(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/get-states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	states := decode[struct {
		States   []ecourts.Option `json:"states"`
		AppToken string           `json:"app_token"`
	}](t, rec)
	require.Len(t, states.States, 2)
	require.Equal(t, "token-1", states.AppToken)

	rec = env.do(t, "POST", "/api/get-districts", map[string]string{"state_code": "5"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Shimla"`)

	rec = env.do(t, "POST", "/api/get-districts", map[string]string{"state_code": "9"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, "POST", "/api/get-districts", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "state_code is required", decode[errorResponse](t, rec).Detail)

	rec = env.do(t, "POST", "/api/get-court-complexes", map[string]string{"state_code": "5", "dist_code": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"raw_value":"1050001@1,2@N"`)

	rec = env.do(t, "POST", "/api/get-case-types", map[string]string{
		"state_code":         "5",
		"dist_code":          "2",
		"court_complex_code": "1050001",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"case_types"`)

	rec = env.do(t, "POST", "/api/get-case-types", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/api/get-case-types", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "request body is required", decode[errorResponse](t, rec).Detail)
}

func TestCaptcha(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/captcha-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	url := decode[map[string]string](t, rec)["captcha_url"]
	require.True(t, strings.HasPrefix(url, CAPTCHA_IMAGE_PATH+"?rand="), url)
	require.Len(t, strings.TrimPrefix(url, CAPTCHA_IMAGE_PATH+"?rand="), captchaCacheBusterSz)

	rec = env.do(t, "GET", "/api/captcha-image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "png", rec.Body.String())
}

func TestSubmitCase(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.listing = casestatus.ListingResponse{
		Success:        true,
		Message:        "Case found",
		CaseStatusData: casestatus.CaseStatusData{RawHtml: listingFragment},
	}

	rec := env.do(t, "POST", "/api/submit-case", search)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[casestatus.ListingResponse](t, rec).Success)

	missing := search
	missing.CaptchaCode = ""
	rec = env.do(t, "POST", "/api/submit-case", missing)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "captcha_code is required", decode[errorResponse](t, rec).Detail)

	env.upstream.listing = casestatus.ListingResponse{Success: false, Message: ecourts.MESSAGE_RECORD_NOT_FOUND}
	rec = env.do(t, "POST", "/api/submit-case", search)
	require.Equal(t, http.StatusOK, rec.Code)

	env.upstream.listingErr = fmt.Errorf("%w: status 503", ecourts.ErrUpstream)
	rec = env.do(t, "POST", "/api/submit-case", search)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	entries, err := env.logs.List(env.ctx, querylog.DEFAULT_LIMIT)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// entries share a timestamp, so the newest id comes first.
	require.Equal(t, querylog.STATUS_FAILED, entries[0].Status)
	require.Equal(t, "CS - Civil Suit 133/2025", entries[0].CaseNumber)
	require.Equal(t, querylog.STATUS_FAILED, entries[1].Status)

	first := entries[2]
	require.Equal(t, querylog.STATUS_SUCCESS, first.Status)
	require.Equal(t, "Himachal Pradesh", first.State)
	require.Equal(t, "Shimla", first.District)
	require.Equal(t, "CS/133/2025", first.CaseNumber)
	require.Contains(t, first.RawJsonResponse, `"success":true`)

	// state labels are looked up once and then served from the label cache.
	require.Equal(t, 1, env.upstream.stateCalls)
}

func TestSubmitCaseLogsReferencedRow(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.listing = casestatus.ListingResponse{
		Success: true,
		CaseStatusData: casestatus.CaseStatusData{RawHtml: `<table id="dispTable"><tbody>
<tr><td>1</td><td>CS/12/2024</td><td>Orphan Vs Row</td><td></td></tr>
<tr><td>2</td><td>CS/133/2025</td><td>Ram Kumar Vs State of H.P.</td>
<td><a onclick="viewHistory('200100001332025','HPCH010018042025',1,'','CScaseNumber',1,'','','')">View</a></td></tr>
</tbody></table>`},
	}

	rec := env.do(t, "POST", "/api/submit-case", search)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := env.logs.List(env.ctx, querylog.DEFAULT_LIMIT)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "CS/133/2025", entries[0].CaseNumber)
}

func TestGetCaseDetails(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.detail = casestatus.DetailResponse{
		Success:     true,
		CaseDetails: &casestatus.DetailRecord{CnrNumber: "HPCH010018042025"},
	}

	rec := env.do(t, "POST", "/api/get-case-details", casestatus.DetailRequest{
		CourtCode: "1",
		StateCode: "5",
		DistCode:  "2",
		CaseNo:    "200100001332025",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[casestatus.DetailResponse](t, rec)
	require.Equal(t, "HPCH010018042025", res.CaseDetails.CnrNumber)

	rec = env.do(t, "POST", "/api/get-case-details", casestatus.DetailRequest{StateCode: "5"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "court_code is required", decode[errorResponse](t, rec).Detail)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.listing = casestatus.ListingResponse{
		Success:        true,
		CaseStatusData: casestatus.CaseStatusData{RawHtml: listingFragment},
	}
	env.upstream.detail = casestatus.DetailResponse{
		Success: true,
		CaseDetails: &casestatus.DetailRecord{
			CaseType:    "CS - Civil Suit",
			CnrNumber:   "HPCH010018042025",
			Petitioners: []casestatus.Party{{Name: "Ram Kumar"}},
		},
	}

	rec := env.do(t, "POST", "/api/search", map[string]string{
		"state_code":          search.StateCode,
		"dist_code":           search.DistCode,
		"court_complex_code":  search.CourtComplexCode,
		"case_type":           search.CaseType,
		"case_no":             search.CaseNo,
		"rgyear":              search.RgYear,
		"captcha_code":        search.CaptchaCode,
		"court_complex_label": "Shimla",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[struct {
		Result   casestatus.MergedCaseResult `json:"result"`
		Criteria casestatus.SearchCriteria   `json:"criteria"`
		Summary  casestatus.CaseSummary      `json:"summary"`
	}](t, rec)
	require.Equal(t, casestatus.OutcomeListingWithDetail, res.Result.Outcome)
	if diff := cmp.Diff(casestatus.SearchCriteria{
		CaseNumber:        "133",
		RegistrationYear:  "2025",
		StateLabel:        "Himachal Pradesh",
		DistrictLabel:     "Shimla",
		CourtComplexLabel: "Shimla",
		CaseTypeLabel:     "CS - Civil Suit",
	}, res.Criteria); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "133/2025", res.Summary.CaseNumber)
	require.Equal(t, "Ram Kumar", res.Summary.Petitioner)

	entries, err := env.logs.List(env.ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, querylog.STATUS_SUCCESS, entries[0].Status)
	require.Equal(t, "133/2025", entries[0].CaseNumber)
	require.Equal(t, "Himachal Pradesh", entries[0].State)

	env.upstream.listingErr = fmt.Errorf("%w: status 503", ecourts.ErrUpstream)
	rec = env.do(t, "POST", "/api/search", search)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
	require.True(t, env.tel.Has(telemetry.REPORT_BROKEN, "fetch-listing"))

	stats, err := env.logs.Stats(env.ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.FailedQueries)
}

func TestReport(t *testing.T) {
	env := newTestEnv(t)

	criteria := casestatus.SearchCriteria{
		CaseNumber:       "133",
		RegistrationYear: "2025",
		StateLabel:       "Himachal Pradesh",
	}
	rec := env.do(t, "POST", "/api/report", map[string]any{
		"result": casestatus.MergedCaseResult{
			Outcome: casestatus.OutcomeListing,
			Listing: casestatus.ParseListing(listingFragment),
		},
		"criteria": criteria,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="case_report_133_2025.json"`, rec.Header().Get("Content-Disposition"))

	payload := decode[casestatus.ReportPayload](t, rec)
	require.Equal(t, "Himachal Pradesh", payload.SearchCriteria.State)
	require.Equal(t, casestatus.NOT_AVAILABLE, payload.SearchCriteria.District)
	require.Equal(t, "133/2025", payload.CaseDetails.CaseNumber)
}

func TestGetOrderPdf(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.pdf = ecourts.OrderPdf{Content: []byte("%PDF-1.4")}

	rec := env.do(t, "POST", "/api/get-order-pdf", map[string]string{"pdf_request": "orders/1.pdf"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="order.pdf"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "%PDF-1.4", rec.Body.String())

	fragment := strings.Repeat("a", 130)
	env.upstream.pdfErr = ecourts.ErrPdfUnavailable
	rec = env.do(t, "POST", "/api/get-order-pdf", map[string]string{"pdf_request": fragment})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(
		t,
		"PDF not available for request fragment: "+strings.Repeat("a", 120)+"...",
		decode[errorResponse](t, rec).Detail,
	)

	rec = env.do(t, "POST", "/api/get-order-pdf", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/warm-session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "token-warm", decode[map[string]any](t, rec)["app_token"])

	rec = env.do(t, "POST", "/api/clear-cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Caches cleared and session reset", decode[map[string]any](t, rec)["message"])
	require.True(t, env.upstream.cleared)
}

func TestQueryLogRoutes(t *testing.T) {
	env := newTestEnv(t)
	for _, state := range []string{"Goa", "Goa", "Kerala"} {
		_, err := env.logs.Insert(env.ctx, querylog.Entry{State: state, Status: querylog.STATUS_SUCCESS})
		require.NoError(t, err)
	}

	rec := env.do(t, "GET", "/api/query-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]querylog.Entry](t, rec), 3)

	rec = env.do(t, "GET", "/api/query-logs?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]querylog.Entry](t, rec), 2)

	for _, limit := range []string{"0", "501", "abc"} {
		rec = env.do(t, "GET", "/api/query-logs?limit="+limit, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}

	rec = env.do(t, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[querylog.Stats](t, rec)
	require.Equal(t, int64(3), stats.TotalQueries)
	require.Equal(t, float64(100), stats.SuccessRate)
	require.Equal(t, querylog.StateCount{State: "Goa", Count: 2}, stats.MostSearched[0])

	rec = env.do(t, "POST", "/api/reset-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(3), decode[map[string]any](t, rec)["deleted"])
}

func TestCors(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
