package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/internal/querylog"

	"github.com/mazen160/go-random"
)

const (
	MESSAGE_READY        = "eCourts case status API"
	CAPTCHA_IMAGE_PATH   = "/api/captcha-image"
	pdfFragmentPreview   = 120
	captchaCacheBusterSz = 16
)

func upstreamStatus(err error) int {
	if errors.Is(err, ecourts.ErrUpstream) || errors.Is(err, ecourts.ErrSessionInit) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{
		"message": MESSAGE_READY,
		"status":  "ready",
	})
}

type healthResponse struct {
	Status             string `json:"status"`
	SessionInitialized bool   `json:"session_initialized"`
	AppTokenAvailable  bool   `json:"app_token_available"`
	Timestamp          string `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := s.upstream.Status()
	writeJson(w, http.StatusOK, healthResponse{
		Status:             "healthy",
		SessionInitialized: status.Initialized,
		AppTokenAvailable:  status.HasToken,
		Timestamp:          s.time.Now().Format(time.RFC3339),
	})
}

func (s *Server) getStates(w http.ResponseWriter, r *http.Request) {
	states, token := s.upstream.States(r.Context())
	writeJson(w, http.StatusOK, map[string]any{
		"states":    states,
		"app_token": token,
	})
}

func (s *Server) getDistricts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StateCode string `json:"state_code"`
	}
	if !readJson(w, r, &req) || !requireFields(w, requiredField{"state_code", req.StateCode}) {
		return
	}

	districts, token, err := s.upstream.Districts(r.Context(), req.StateCode)
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch districts: %s", err.Error()))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"districts": districts,
		"app_token": token,
	})
}

func (s *Server) getCourtComplexes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StateCode string `json:"state_code"`
		DistCode  string `json:"dist_code"`
	}
	if !readJson(w, r, &req) {
		return
	}
	if !requireFields(w, requiredField{"state_code", req.StateCode}, requiredField{"dist_code", req.DistCode}) {
		return
	}

	complexes, token, err := s.upstream.CourtComplexes(r.Context(), req.StateCode, req.DistCode)
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch court complexes: %s", err.Error()))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"complexes": complexes,
		"app_token": token,
	})
}

func (s *Server) getCaseTypes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StateCode        string `json:"state_code"`
		DistCode         string `json:"dist_code"`
		CourtComplexCode string `json:"court_complex_code"`
		EstCode          string `json:"est_code"`
		SearchType       string `json:"search_type"`
	}
	if !readJson(w, r, &req) {
		return
	}
	if !requireFields(
		w,
		requiredField{"state_code", req.StateCode},
		requiredField{"dist_code", req.DistCode},
		requiredField{"court_complex_code", req.CourtComplexCode},
	) {
		return
	}

	caseTypes, token, err := s.upstream.CaseTypes(r.Context(), ecourts.CaseTypesRequest{
		StateCode:        req.StateCode,
		DistCode:         req.DistCode,
		CourtComplexCode: req.CourtComplexCode,
		EstCode:          req.EstCode,
		SearchType:       req.SearchType,
	})
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch case types: %s", err.Error()))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"case_types": caseTypes,
		"app_token":  token,
	})
}

func (s *Server) captchaUrl(w http.ResponseWriter, r *http.Request) {
	rand, err := random.String(captchaCacheBusterSz)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate captcha url")
		return
	}
	writeJson(w, http.StatusOK, map[string]string{
		"captcha_url": fmt.Sprintf("%s?rand=%s", CAPTCHA_IMAGE_PATH, rand),
	})
}

func (s *Server) captchaImage(w http.ResponseWriter, r *http.Request) {
	image, err := s.upstream.CaptchaImage(r.Context())
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch captcha: %s", err.Error()))
		return
	}
	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Content)
}

func validateSearch(w http.ResponseWriter, search casestatus.SearchContext) bool {
	return requireFields(
		w,
		requiredField{"state_code", search.StateCode},
		requiredField{"dist_code", search.DistCode},
		requiredField{"court_complex_code", search.CourtComplexCode},
		requiredField{"case_type", search.CaseType},
		requiredField{"case_no", search.CaseNo},
		requiredField{"rgyear", search.RgYear},
		requiredField{"captcha_code", search.CaptchaCode},
	)
}

func (s *Server) submitCase(w http.ResponseWriter, r *http.Request) {
	var search casestatus.SearchContext
	if !readJson(w, r, &search) || !validateSearch(w, search) {
		return
	}

	res, err := s.upstream.FetchCaseListing(r.Context(), search)
	if err != nil {
		s.logQuery(r.Context(), search, Labels{}, "", false, map[string]string{"detail": err.Error()})
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to submit case: %s", err.Error()))
		return
	}

	caseNumber := ""
	if row, ok := casestatus.ParseListing(res.CaseStatusData.RawHtml).PrimaryRow(); ok {
		caseNumber = strings.TrimSpace(row.CaseId)
	}
	s.logQuery(r.Context(), search, Labels{}, caseNumber, res.Success, res)
	writeJson(w, http.StatusOK, res)
}

func (s *Server) getCaseDetails(w http.ResponseWriter, r *http.Request) {
	var req casestatus.DetailRequest
	if !readJson(w, r, &req) {
		return
	}
	if !requireFields(
		w,
		requiredField{"court_code", req.CourtCode},
		requiredField{"state_code", req.StateCode},
		requiredField{"dist_code", req.DistCode},
		requiredField{"case_no", req.CaseNo},
	) {
		return
	}

	res, err := s.upstream.FetchCaseDetail(r.Context(), req)
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch case details: %s", err.Error()))
		return
	}
	writeJson(w, http.StatusOK, res)
}

type searchRequest struct {
	casestatus.SearchContext
	Labels
}

type searchResponse struct {
	Result   casestatus.MergedCaseResult `json:"result"`
	Criteria casestatus.SearchCriteria   `json:"criteria"`
	Summary  casestatus.CaseSummary      `json:"summary"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !readJson(w, r, &req) || !validateSearch(w, req.SearchContext) {
		return
	}

	result := s.resolver.Resolve(r.Context(), req.SearchContext)
	criteria := s.labels.criteria(r.Context(), req.SearchContext, req.Labels)
	summary := result.Summary()

	labels := req.Labels
	labels.State = criteria.StateLabel
	labels.District = criteria.DistrictLabel
	labels.CaseType = criteria.CaseTypeLabel
	s.logQuery(r.Context(), req.SearchContext, labels, summary.CaseNumber, result.Success(), result)

	writeJson(w, http.StatusOK, searchResponse{
		Result:   result,
		Criteria: criteria,
		Summary:  summary,
	})
}

type reportRequest struct {
	Result   casestatus.MergedCaseResult `json:"result"`
	Criteria casestatus.SearchCriteria   `json:"criteria"`
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !readJson(w, r, &req) {
		return
	}

	payload := s.assembler.Assemble(req.Result, req.Criteria)
	body, err := payload.Marshal()
	if err != nil {
		s.tel.ReportBroken(report_api_report, err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, casestatus.ReportFilename(req.Criteria)),
	)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func previewFragment(fragment string) string {
	runes := []rune(fragment)
	if len(runes) <= pdfFragmentPreview {
		return fragment
	}
	return string(runes[:pdfFragmentPreview]) + "..."
}

func (s *Server) getOrderPdf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PdfRequest string `json:"pdf_request"`
	}
	if !readJson(w, r, &req) || !requireFields(w, requiredField{"pdf_request", req.PdfRequest}) {
		return
	}

	pdf, err := s.upstream.FetchOrderPdf(r.Context(), req.PdfRequest)
	if errors.Is(err, ecourts.ErrPdfUnavailable) {
		writeError(
			w,
			http.StatusNotFound,
			fmt.Sprintf("PDF not available for request fragment: %s", previewFragment(req.PdfRequest)),
		)
		return
	}
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to fetch order pdf: %s", err.Error()))
		return
	}

	filename := pdf.Filename
	if filename == "" {
		filename = ecourts.DEFAULT_ORDER_FILENAME
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Content)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	s.upstream.ClearCache()
	s.labels.purge()
	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Caches cleared and session reset",
	})
}

func (s *Server) warmSession(w http.ResponseWriter, r *http.Request) {
	token, err := s.upstream.Warm(r.Context())
	if err != nil {
		writeError(w, upstreamStatus(err), fmt.Sprintf("failed to warm session: %s", err.Error()))
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"success":   true,
		"app_token": token,
	})
}

func (s *Server) queryLogs(w http.ResponseWriter, r *http.Request) {
	limit := querylog.DEFAULT_LIMIT
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	entries, err := s.logs.List(r.Context(), limit)
	if errors.Is(err, querylog.ErrInvalidLimit) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_api_query_log, err)
		writeError(w, http.StatusInternalServerError, "failed to list query logs")
		return
	}
	writeJson(w, http.StatusOK, entries)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.logs.Stats(r.Context())
	if err != nil {
		s.tel.ReportBroken(report_api_query_log, err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJson(w, http.StatusOK, stats)
}

func (s *Server) resetLogs(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.logs.Reset(r.Context())
	if err != nil {
		s.tel.ReportBroken(report_api_query_log, err)
		writeError(w, http.StatusInternalServerError, "failed to reset query logs")
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": deleted,
	})
}
