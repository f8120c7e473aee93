package ecourts

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mazen160/go-random"
)

const endpointCaptcha = "/ecourtindia_v6/vendor/securimage/securimage_show.php"

type CaptchaImage struct {
	ContentType string
	Content     []byte
}

// CaptchaImage fetches a fresh captcha within the client's session, the answer is only
// accepted by the upstream when the search is submitted with the same cookies.
func (c *Client) CaptchaImage(ctx context.Context) (CaptchaImage, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return CaptchaImage{}, err
	}

	cacheBuster, err := random.String(32)
	if err != nil {
		return CaptchaImage{}, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.baseUrl.JoinPath(endpointHome).String()).
		Get(endpointCaptcha + "?" + cacheBuster)
	if err != nil {
		c.tel.ReportBroken(report_client_captcha, err)
		return CaptchaImage{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportBroken(report_client_captcha, "unexpected status", res.StatusCode())
		return CaptchaImage{}, fmt.Errorf("%w: HTTP %d", ErrUpstream, res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return CaptchaImage{
		ContentType: contentType,
		Content:     res.Body(),
	}, nil
}
