package api

import (
	"context"
	"encoding/json"
	"fmt"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/querylog"
)

// logQuery records a search submission. Failing to write the log never fails the request.
func (s *Server) logQuery(ctx context.Context, search casestatus.SearchContext, labels Labels, caseNumber string, success bool, response any) {
	if labels.State == "" {
		labels.State = s.labels.state(ctx, search.StateCode)
	}
	if labels.District == "" {
		labels.District = s.labels.district(ctx, search.StateCode, search.DistCode)
	}
	if caseNumber == "" {
		caseType := labels.CaseType
		if caseType == "" {
			caseType = s.labels.caseType(ctx, search)
		}
		caseNumber = fmt.Sprintf("%s %s/%s", caseType, search.CaseNo, search.RgYear)
	}

	raw, err := json.Marshal(response)
	if err != nil {
		s.tel.ReportBroken(report_api_query_log, "marshal response", err)
	}

	_, err = s.logs.Insert(ctx, querylog.Entry{
		State:           labels.State,
		District:        labels.District,
		CaseNumber:      caseNumber,
		Status:          querylog.StatusOf(success),
		RawJsonResponse: string(raw),
	})
	if err != nil {
		s.tel.ReportBroken(report_api_query_log, err)
	}
}
