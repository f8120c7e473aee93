// client.go contains the session handling shared by every request to the eCourts case status
// pages, the individual endpoints live in their own files.

package ecourts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"ecourts-casestatus/internal/assert"
	"ecourts-casestatus/internal/telemetry"
	"ecourts-casestatus/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	report_client_init_session    = "client.init-session"
	report_client_refresh_session = "client.refresh-session"
	report_client_states          = "client.states"
	report_client_districts       = "client.districts"
	report_client_court_complexes = "client.court-complexes"
	report_client_case_types      = "client.case-types"
	report_client_captcha         = "client.captcha"
	report_client_submit_case     = "client.submit-case"
	report_client_fetch_detail    = "client.fetch-case-detail"
	report_client_order_pdf       = "client.order-pdf"
)

const (
	DEFAULT_BASE_URL = "https://services.ecourts.gov.in/"

	endpointIndex = "/ecourtindia_v6/?p=casestatus/index"
	endpointHome  = "/ecourtindia_v6/"
)

var (
	ErrSessionInit    = errors.New("failed to initialize session")
	ErrUpstream       = errors.New("upstream request failed")
	ErrEmptyListing   = errors.New("empty case listing")
	ErrRecordNotFound = errors.New("record not found")
	ErrPdfUnavailable = errors.New("pdf not available")
)

type Config struct {
	BaseUrl           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CacheTtlSeconds   int     `json:"cache_ttl_seconds"`
	// DumpDir, when set, receives a copy of every request/response pair made while debug
	// logging is enabled.
	DumpDir string `json:"dump_dir"`
}

func DefaultConfig() Config {
	return Config{
		BaseUrl:           DEFAULT_BASE_URL,
		TimeoutSeconds:    15,
		RequestsPerSecond: 2,
		CacheTtlSeconds:   300,
	}
}

// SessionStatus is a snapshot of the upstream session.
type SessionStatus struct {
	Initialized bool
	HasToken    bool
}

// Client is a stateful session against the eCourts services site. The site ties the
// captcha, the listing and the detail pages to the same cookie session and rotates an
// `app_token` on most responses, so a single Client must be shared by everything that
// belongs to one search.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	jar     *sessionJar
	tel     telemetry.API

	mutex       sync.Mutex
	appToken    string
	initialized bool

	states    *expirable.LRU[string, []Option]
	caseTypes *expirable.LRU[string, []Option]
}

func NewClient(config Config, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("ecourts", tel)

	defaults := DefaultConfig()
	if config.BaseUrl == "" {
		config.BaseUrl = defaults.BaseUrl
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if config.CacheTtlSeconds <= 0 {
		config.CacheTtlSeconds = defaults.CacheTtlSeconds
	}

	parsedBaseUrl, err := url.Parse(config.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(config.BaseUrl)
	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	httpClient.SetHeader("accept-language", "en-US,en;q=0.5")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(time.Duration(config.TimeoutSeconds) * time.Second)

	// a non-positive rate disables the limiter, max burst >= rate means no requests are dropped
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	var output restyutil.InstrumentOutput
	if config.DumpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(config.DumpDir)
		if err != nil {
			return nil, err
		}
		output = fsOutput
	}
	restyutil.InstrumentClient(httpClient, nil, output)

	ttl := time.Duration(config.CacheTtlSeconds) * time.Second
	return &Client{
		baseUrl:   parsedBaseUrl,
		http:      httpClient,
		jar:       jar,
		tel:       tel,
		states:    expirable.NewLRU[string, []Option](1, nil, ttl),
		caseTypes: expirable.NewLRU[string, []Option](64, nil, ttl),
	}, nil
}

func (c *Client) token() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.appToken
}

// updateToken stores a rotated app_token, empty tokens never overwrite a known one.
func (c *Client) updateToken(token string) {
	if token == "" {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.appToken = token
}

func (c *Client) Status() SessionStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return SessionStatus{
		Initialized: c.initialized,
		HasToken:    c.appToken != "",
	}
}

var appTokenRegex = regexp.MustCompile(`name=["']app_token["']\s+value=["']([^"']+)["']`)

func extractAppToken(page []byte) string {
	groups := appTokenRegex.FindSubmatch(page)
	if len(groups) == 2 {
		return string(groups[1])
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("input[name=app_token]").AttrOr("value", ""))
}

// EnsureSession loads the case status index once per session to obtain cookies and the
// initial app_token.
func (c *Client) EnsureSession(ctx context.Context) error {
	c.mutex.Lock()
	initialized := c.initialized
	c.mutex.Unlock()
	if initialized {
		return nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpointIndex)
	if err != nil {
		c.tel.ReportBroken(report_client_init_session, fmt.Errorf("fetch index: %w", err))
		return fmt.Errorf("%w: %w", ErrSessionInit, err)
	}
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportBroken(report_client_init_session, "unexpected status", res.StatusCode())
		return fmt.Errorf("%w: status %d", ErrSessionInit, res.StatusCode())
	}

	token := extractAppToken(res.Body())
	if token == "" {
		c.tel.ReportWarning(report_client_init_session, "index page did not contain an app_token")
	}

	c.mutex.Lock()
	if token != "" {
		c.appToken = token
	}
	c.initialized = true
	c.mutex.Unlock()
	return nil
}

// resetSession forgets the cookies, the token and every cached option.
func (c *Client) resetSession() {
	err := c.jar.reset()
	if err != nil {
		c.tel.ReportBroken(report_client_refresh_session, "reset cookies", err)
	}

	c.mutex.Lock()
	c.appToken = ""
	c.initialized = false
	c.mutex.Unlock()
}

// refreshSession tries to pick up a fresh app_token while keeping the cookies, and falls back
// to a completely new session.
func (c *Client) refreshSession(ctx context.Context) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get(endpointHome)
	if err == nil && res.StatusCode() == http.StatusOK {
		token := extractAppToken(res.Body())
		if token != "" {
			c.updateToken(token)
			c.tel.ReportDebug("session token refreshed in place")
			return nil
		}
	}

	c.tel.ReportWarning(report_client_refresh_session, "falling back to a new session")
	c.resetSession()
	return c.EnsureSession(ctx)
}

// ClearCache drops every cached option list and starts a new upstream session on the next
// request.
func (c *Client) ClearCache() {
	c.states.Purge()
	c.caseTypes.Purge()
	c.resetSession()
}

// Warm initializes the session and fills the state cache ahead of the first user request,
// it returns the current app_token.
func (c *Client) Warm(ctx context.Context) (string, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return "", err
	}
	_, token := c.States(ctx)
	return token, nil
}

// ajaxResponse is the loosely typed json object every ajax endpoint answers with.
type ajaxResponse map[string]any

func (r ajaxResponse) str(keys ...string) string {
	for _, key := range keys {
		value, ok := r[key].(string)
		if ok && value != "" {
			return value
		}
	}
	return ""
}

// ok interprets the various ways the endpoints spell a successful status.
func (r ajaxResponse) ok() bool {
	for _, key := range []string{"status", "Status", "success"} {
		switch value := r[key].(type) {
		case float64:
			if value == 1 {
				return true
			}
		case string:
			if value == "1" || value == "success" {
				return true
			}
		case bool:
			if value {
				return true
			}
		}
	}
	return false
}

var trailingObjectRegex = regexp.MustCompile(`(?s)\{.*\}$`)

// decodeAjax parses a json response body, some endpoints prefix the json with stray output
// so the trailing object is tried when the whole body does not parse.
func decodeAjax(body []byte) (ajaxResponse, error) {
	var out ajaxResponse
	err := json.Unmarshal(body, &out)
	if err == nil {
		return out, nil
	}
	trailing := trailingObjectRegex.Find(bytes.TrimSpace(body))
	if trailing == nil {
		return nil, err
	}
	var retry ajaxResponse
	if json.Unmarshal(trailing, &retry) != nil {
		return nil, err
	}
	return retry, nil
}

// postAjax posts a form the way the site's own javascript does and decodes the json reply,
// a rotated app_token in the reply is stored.
func (c *Client) postAjax(ctx context.Context, endpoint string, form map[string]string) (ajaxResponse, error) {
	data := make(map[string]string, len(form)+2)
	for k, v := range form {
		data[k] = v
	}
	data["ajax_req"] = "true"
	data["app_token"] = c.token()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(data).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstream, res.StatusCode())
	}

	body, err := decodeAjax(res.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	c.updateToken(body.str("app_token", "token", "csrf_token"))
	return body, nil
}
