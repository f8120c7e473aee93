package api

import (
	"context"
	"net/http"

	"ecourts-casestatus/internal/assert"
	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/chrono"
	"ecourts-casestatus/internal/ecourts"
	"ecourts-casestatus/internal/querylog"
	"ecourts-casestatus/internal/telemetry"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	report_api_query_log = "api.query-log"
	report_api_report    = "api.report"
)

// Upstream is everything the api needs from the court system, *ecourts.Client implements it.
type Upstream interface {
	casestatus.Upstream

	Status() ecourts.SessionStatus
	Warm(ctx context.Context) (string, error)
	ClearCache()

	States(ctx context.Context) ([]ecourts.Option, string)
	Districts(ctx context.Context, stateCode string) ([]ecourts.Option, string, error)
	CourtComplexes(ctx context.Context, stateCode, distCode string) ([]ecourts.Option, string, error)
	CaseTypes(ctx context.Context, req ecourts.CaseTypesRequest) ([]ecourts.Option, string, error)

	CaptchaImage(ctx context.Context) (ecourts.CaptchaImage, error)
	FetchOrderPdf(ctx context.Context, pdfRequest string) (ecourts.OrderPdf, error)
}

// Server serves the json api used by the case status frontend.
type Server struct {
	upstream  Upstream
	resolver  casestatus.Resolver
	assembler casestatus.Assembler
	logs      querylog.Store
	labels    *labelCache
	time      chrono.TimeAPI
	tel       telemetry.API
}

func NewServer(upstream Upstream, logs querylog.Store, time chrono.TimeAPI, tel telemetry.API) *Server {
	assert.NotNil(upstream)
	assert.NotNil(time)
	assert.NotNil(tel)

	return &Server{
		upstream:  upstream,
		resolver:  casestatus.NewResolver(upstream, tel),
		assembler: casestatus.NewAssembler(time),
		logs:      logs,
		labels:    newLabelCache(upstream),
		time:      time,
		tel:       telemetry.NewScopedAPI("api", tel),
	}
}

func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", s.root).Methods("GET")
	router.HandleFunc("/api/health", s.health).Methods("GET")

	// dropdowns
	router.HandleFunc("/api/get-states", s.getStates).Methods("GET")
	router.HandleFunc("/api/get-districts", s.getDistricts).Methods("POST")
	router.HandleFunc("/api/get-court-complexes", s.getCourtComplexes).Methods("POST")
	router.HandleFunc("/api/get-case-types", s.getCaseTypes).Methods("POST")

	router.HandleFunc("/api/captcha-url", s.captchaUrl).Methods("GET")
	router.HandleFunc("/api/captcha-image", s.captchaImage).Methods("GET")

	// searching
	router.HandleFunc("/api/submit-case", s.submitCase).Methods("POST")
	router.HandleFunc("/api/get-case-details", s.getCaseDetails).Methods("POST")
	router.HandleFunc("/api/search", s.search).Methods("POST")
	router.HandleFunc("/api/report", s.report).Methods("POST")
	router.HandleFunc("/api/get-order-pdf", s.getOrderPdf).Methods("POST")

	// session
	router.HandleFunc("/api/clear-cache", s.clearCache).Methods("POST")
	router.HandleFunc("/api/warm-session", s.warmSession).Methods("POST")

	// query logs
	router.HandleFunc("/api/query-logs", s.queryLogs).Methods("GET")
	router.HandleFunc("/api/stats", s.stats).Methods("GET")
	router.HandleFunc("/api/reset-logs", s.resetLogs).Methods("POST")
}

// Handler returns the routes wrapped in CORS handling for the given origins, no origins means
// any origin is allowed.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	s.RegisterRoutes(router)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return c.Handler(router)
}
