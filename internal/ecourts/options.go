package ecourts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"ecourts-casestatus/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	endpointStates         = "/ecourtindia_v6/?p=casestatus/getStates"
	endpointDistricts      = "/ecourtindia_v6/?p=casestatus/fillDistrict"
	endpointCourtComplexes = "/ecourtindia_v6/?p=casestatus/fillcomplex"
	endpointCaseTypes      = "/ecourtindia_v6/?p=casestatus/fillCaseType"

	SEARCH_TYPE_CASE_NUMBER = "c_no"

	statesCacheKey = "states"
)

// Option is one entry of a dropdown on the case status page. Court complex values are
// encoded as "<code>@<establishment list>@<flag>", Value holds only the code and the other
// segments are split into EstList and Flag.
type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	RawValue string `json:"raw_value,omitempty"`
	EstList  string `json:"est_list,omitempty"`
	Flag     string `json:"flag,omitempty"`
}

func newOption(raw, text string) Option {
	parts := strings.Split(raw, "@")
	opt := Option{
		Value:    parts[0],
		Text:     text,
		RawValue: raw,
	}
	if len(parts) > 1 {
		opt.EstList = parts[1]
	}
	if len(parts) > 2 {
		opt.Flag = parts[2]
	}
	return opt
}

// placeholder options ("Select State", value "0") are not real choices.
func isPlaceholder(value, text string) bool {
	return value == "" ||
		value == "0" ||
		strings.HasPrefix(strings.ToLower(text), "select")
}

func optionsFromSelection(sel *goquery.Selection) []Option {
	var options []Option
	sel.Each(func(_ int, option *goquery.Selection) {
		value := strings.TrimSpace(option.AttrOr("value", ""))
		text := htmlutil.Text(option)
		if isPlaceholder(value, text) {
			return
		}
		options = append(options, newOption(value, text))
	})
	return options
}

// ParseOptions turns the `<option>` markup returned by the dropdown endpoints into options.
// Some deployments answer with "value|text" lines instead, those are understood as well.
func ParseOptions(fragment string) []Option {
	if strings.TrimSpace(fragment) == "" {
		return []Option{}
	}

	doc, err := htmlutil.NewDocument(fragment)
	if err == nil {
		found := doc.Find("option")
		if found.Length() > 0 {
			options := optionsFromSelection(found)
			if options == nil {
				return []Option{}
			}
			return options
		}
	}

	options := []Option{}
	for _, line := range strings.Split(fragment, "\n") {
		value, text, found := strings.Cut(strings.TrimSpace(line), "|")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		text = strings.TrimSpace(text)
		if isPlaceholder(value, text) {
			continue
		}
		options = append(options, newOption(value, text))
	}
	return options
}

var stateIndicators = []string{"andhra", "karnataka", "tamil", "kerala", "gujarat", "maharashtra", "delhi", "punjab"}

// findStateSelect locates the state dropdown on the index page, falling back to any large
// dropdown whose first few entries look like Indian states.
func findStateSelect(doc *goquery.Document) *goquery.Selection {
	known := doc.Find("select#state_code, select[name=state_code], select.state_code, select#state, select[name=state]").First()
	if known.Length() > 0 {
		return known
	}

	var found *goquery.Selection
	doc.Find("select").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		options := sel.Find("option")
		if options.Length() <= 10 {
			return true
		}
		sample := strings.ToLower(htmlutil.Text(options.Slice(1, 6)))
		for _, indicator := range stateIndicators {
			if strings.Contains(sample, indicator) {
				found = sel
				return false
			}
		}
		return true
	})
	return found
}

// States returns the list of states together with the current app_token. The list is read
// from the index page, then from the getStates endpoint, and if the upstream is unreachable a
// built in list is returned. Only upstream results are cached.
func (c *Client) States(ctx context.Context) ([]Option, string) {
	cached, hit := c.states.Get(statesCacheKey)
	if hit {
		return cached, c.token()
	}

	err := c.EnsureSession(ctx)
	if err != nil {
		c.tel.ReportWarning(report_client_states, "using fallback states", err)
		return FallbackStates(), ""
	}

	states := c.statesFromIndex(ctx)
	if len(states) == 0 {
		states = c.statesFromEndpoint(ctx)
	}
	if len(states) == 0 {
		c.tel.ReportWarning(report_client_states, "using fallback states")
		return FallbackStates(), c.token()
	}

	c.states.Add(statesCacheKey, states)
	return states, c.token()
}

func (c *Client) statesFromIndex(ctx context.Context) []Option {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		Get(endpointIndex)
	if err != nil {
		c.tel.ReportBroken(report_client_states, fmt.Errorf("fetch index: %w", err))
		return nil
	}
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportBroken(report_client_states, "unexpected status", res.StatusCode())
		return nil
	}

	c.updateToken(extractAppToken(res.Body()))

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_states, fmt.Errorf("parse index: %w", err))
		return nil
	}
	sel := findStateSelect(doc)
	if sel == nil {
		c.tel.ReportWarning(report_client_states, "could not find state dropdown on index page")
		return nil
	}

	var states []Option
	sel.Find("option").Each(func(_ int, option *goquery.Selection) {
		value := strings.TrimSpace(option.AttrOr("value", ""))
		text := htmlutil.Text(option)
		if isPlaceholder(value, text) {
			return
		}
		states = append(states, Option{Value: value, Text: text})
	})
	return states
}

func (c *Client) statesFromEndpoint(ctx context.Context) []Option {
	body, err := c.postAjax(ctx, endpointStates, nil)
	if err != nil {
		c.tel.ReportBroken(report_client_states, fmt.Errorf("getStates: %w", err))
		return nil
	}
	if !body.ok() {
		return nil
	}
	return ParseOptions(body.str("state_list"))
}

func (c *Client) Districts(ctx context.Context, stateCode string) ([]Option, string, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return nil, "", err
	}

	body, err := c.postAjax(ctx, endpointDistricts, map[string]string{
		"state_code": stateCode,
	})
	if err != nil {
		c.tel.ReportBroken(report_client_districts, err, stateCode)
		return nil, "", err
	}
	if !body.ok() {
		c.tel.ReportWarning(report_client_districts, "unsuccessful status", stateCode)
		return []Option{}, c.token(), nil
	}
	return ParseOptions(body.str("dist_list")), c.token(), nil
}

func (c *Client) CourtComplexes(ctx context.Context, stateCode, distCode string) ([]Option, string, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return nil, "", err
	}

	body, err := c.postAjax(ctx, endpointCourtComplexes, map[string]string{
		"state_code": stateCode,
		"dist_code":  distCode,
	})
	if err != nil {
		c.tel.ReportBroken(report_client_court_complexes, err, stateCode, distCode)
		return nil, "", err
	}
	if !body.ok() {
		c.tel.ReportWarning(report_client_court_complexes, "unsuccessful status", stateCode, distCode)
		return []Option{}, c.token(), nil
	}
	fragment := body.str("complex_list", "complexes", "court_complexes", "data", "result")
	return ParseOptions(fragment), c.token(), nil
}

type CaseTypesRequest struct {
	StateCode        string `json:"state_code"`
	DistCode         string `json:"dist_code"`
	CourtComplexCode string `json:"court_complex_code"`
	EstCode          string `json:"est_code,omitempty"`
	SearchType       string `json:"search_type,omitempty"`
}

func (r CaseTypesRequest) cacheKey() string {
	return strings.Join([]string{r.StateCode, r.DistCode, r.CourtComplexCode, r.EstCode, r.SearchType}, "|")
}

func (c *Client) CaseTypes(ctx context.Context, req CaseTypesRequest) ([]Option, string, error) {
	if req.SearchType == "" {
		req.SearchType = SEARCH_TYPE_CASE_NUMBER
	}
	cached, hit := c.caseTypes.Get(req.cacheKey())
	if hit {
		return cached, c.token(), nil
	}

	err := c.EnsureSession(ctx)
	if err != nil {
		return nil, "", err
	}

	body, err := c.postAjax(ctx, endpointCaseTypes, map[string]string{
		"state_code":         req.StateCode,
		"dist_code":          req.DistCode,
		"court_complex_code": req.CourtComplexCode,
		"est_code":           req.EstCode,
		"search_type":        req.SearchType,
	})
	if err != nil {
		c.tel.ReportBroken(report_client_case_types, err, req.cacheKey())
		return nil, "", err
	}
	if !body.ok() {
		c.tel.ReportWarning(report_client_case_types, "unsuccessful status", req.cacheKey())
		return []Option{}, c.token(), nil
	}

	fragment := body.str("casetype_list", "case_type_list", "case_types", "types", "data", "result")
	caseTypes := ParseOptions(fragment)
	if len(caseTypes) > 0 {
		c.caseTypes.Add(req.cacheKey(), caseTypes)
	}
	return caseTypes, c.token(), nil
}
