package ecourts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const DEFAULT_ORDER_FILENAME = "order.pdf"

var (
	directPdfRegex = regexp.MustCompile(`(?i)^/?(reports|orders)/.+\.pdf$`)
	filenameRegex  = regexp.MustCompile(`filename=([^&]+)`)
)

type OrderPdf struct {
	Filename string
	Content  []byte
}

func isPdf(res *http.Response, body []byte) bool {
	if bytes.HasPrefix(body, []byte("%PDF")) {
		return true
	}
	return res != nil && strings.HasPrefix(strings.ToLower(res.Header.Get("Content-Type")), "application/pdf")
}

// getPdf downloads a pdf by its path relative to the site root.
func (c *Client) getPdf(ctx context.Context, relative string) ([]byte, bool) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.baseUrl.String()).
		Get("/" + strings.TrimLeft(relative, "/"))
	if err != nil {
		c.tel.ReportWarning(report_client_order_pdf, fmt.Errorf("get %s: %w", relative, err))
		return nil, false
	}
	if res.StatusCode() != http.StatusOK || !isPdf(res.RawResponse, res.Body()) {
		c.tel.ReportDebug("not a pdf", relative, res.StatusCode())
		return nil, false
	}
	return res.Body(), true
}

// splitPdfRequest splits a displayPdf argument like
// "home/display_pdf&normal_v=1&filename=/orders/2025/x.pdf" into its page and query.
func splitPdfRequest(pdfRequest string) (page string, query string) {
	page, query, _ = strings.Cut(pdfRequest, "&")
	return strings.Trim(page, "/"), query
}

// queryForm decodes every non-empty key=value pair of the query, the display_pdf page wants
// them both in the url and in the form body.
func queryForm(query string) map[string]string {
	form := map[string]string{}
	for _, pair := range strings.Split(query, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" || value == "" {
			continue
		}
		unescaped, err := url.QueryUnescape(value)
		if err == nil {
			value = unescaped
		}
		form[key] = value
	}
	return form
}

func isOrderPath(order string) bool {
	return order != "" && strings.HasSuffix(strings.ToLower(order), ".pdf")
}

// FetchOrderPdf downloads an interim order given the raw argument of its displayPdf handler.
// An already resolved "orders/..." or "reports/..." path is downloaded directly, otherwise
// the display_pdf page is asked to render the order and the resulting path is downloaded.
func (c *Client) FetchOrderPdf(ctx context.Context, pdfRequest string) (OrderPdf, error) {
	pdfRequest = strings.TrimSpace(pdfRequest)
	if pdfRequest == "" {
		return OrderPdf{}, fmt.Errorf("%w: empty request", ErrPdfUnavailable)
	}

	err := c.EnsureSession(ctx)
	if err != nil {
		return OrderPdf{}, err
	}

	if directPdfRegex.MatchString(pdfRequest) {
		content, ok := c.getPdf(ctx, pdfRequest)
		if !ok {
			return OrderPdf{}, fmt.Errorf("%w: %s", ErrPdfUnavailable, pdfRequest)
		}
		return OrderPdf{Filename: path.Base(pdfRequest), Content: content}, nil
	}

	page, query := splitPdfRequest(pdfRequest)
	endpoint := "/ecourtindia_v6/?p=" + page
	if query != "" {
		endpoint += "&" + query
	}

	if groups := filenameRegex.FindStringSubmatch(query); len(groups) == 2 {
		filename := groups[1]
		unescaped, err := url.QueryUnescape(filename)
		if err == nil {
			filename = unescaped
		}
		if directPdfRegex.MatchString(filename) {
			content, ok := c.getPdf(ctx, filename)
			if ok {
				return OrderPdf{Filename: path.Base(filename), Content: content}, nil
			}
		}
	}

	order, err := c.renderOrder(ctx, endpoint, queryForm(query))
	if err != nil {
		c.tel.ReportWarning(report_client_order_pdf, err)
	}

	if !isOrderPath(order) {
		pdf, ok := c.renderOrderWithGet(ctx, endpoint)
		if ok && pdf.Content != nil {
			return pdf, nil
		}
		order = pdf.Filename
	}
	if !isOrderPath(order) {
		return OrderPdf{}, fmt.Errorf("%w: %s", ErrPdfUnavailable, pdfRequest)
	}

	relative := strings.TrimLeft(order, "/")
	candidates := []string{relative}
	if !strings.HasPrefix(relative, "ecourtindia_v6/") {
		candidates = append(candidates, "ecourtindia_v6/"+relative)
	}
	for _, candidate := range candidates {
		content, ok := c.getPdf(ctx, candidate)
		if ok {
			return OrderPdf{Filename: path.Base(relative), Content: content}, nil
		}
	}
	return OrderPdf{}, fmt.Errorf("%w: %s", ErrPdfUnavailable, pdfRequest)
}

// renderOrder posts to the display_pdf page which answers with the path of a freshly
// generated pdf, a session timeout is retried once with a refreshed session.
func (c *Client) renderOrder(ctx context.Context, endpoint string, form map[string]string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		body, err := c.postAjax(ctx, endpoint, form)
		if err != nil {
			return "", err
		}
		order := body.str("order")
		if isOrderPath(order) {
			return order, nil
		}

		errorMessage := strings.ToLower(body.str("errormsg"))
		if attempt == 0 && strings.Contains(errorMessage, "session timeout") {
			err = c.refreshSession(ctx)
			if err != nil {
				return "", err
			}
			continue
		}
		if errorMessage != "" {
			return "", fmt.Errorf("display_pdf: %s", errorMessage)
		}
		return "", fmt.Errorf("display_pdf: no order path in response")
	}
	return "", fmt.Errorf("display_pdf: session timeout")
}

// renderOrderWithGet is used by deployments that serve display_pdf over GET, they answer
// with either the pdf itself (Content is set) or the json holding its path (only Filename
// is set).
func (c *Client) renderOrderWithGet(ctx context.Context, endpoint string) (OrderPdf, bool) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.baseUrl.JoinPath(endpointHome).String()+"?p=casestatus/index").
		Get(endpoint)
	if err != nil || res.StatusCode() != http.StatusOK {
		return OrderPdf{}, false
	}

	body, err := decodeAjax(res.Body())
	if err == nil {
		order := body.str("order")
		if isOrderPath(order) {
			return OrderPdf{Filename: order}, true
		}
		return OrderPdf{}, false
	}
	if isPdf(res.RawResponse, res.Body()) {
		return OrderPdf{Filename: DEFAULT_ORDER_FILENAME, Content: res.Body()}, true
	}
	return OrderPdf{}, false
}
