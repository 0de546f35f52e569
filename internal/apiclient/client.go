// internal/apiclient/client.go
//
// HTTP adapter for the remote shortening / QR service.
//
// Context
// -------
// One method per remote capability.  Each takes a typed request, performs
// exactly one outbound call, and returns either a typed payload or an
// *Error (see errors.go).  There are no retries, no caching, and no client
// timeout: callers bound a call with their context.  The transport is a
// go-cleanhttp pooled client so no global http.DefaultTransport state leaks
// in.
//
// Instrumentation
// ---------------
//   • DEBUG span per call (op, status, duration).
//   • shortly_api_request_duration_seconds{op,outcome}.

package apiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/metrics"
)

// Operation names, used for logs, metrics, and Error.Op.
const (
	OpShorten   = "shorten"
	OpQR        = "qr"
	OpQRImage   = "qr_image"
	OpAnalytics = "analytics"
)

// DefaultQRPath is used when Options.QRPath is empty.
const DefaultQRPath = "/qr"

// ErrBaseURL is returned by New for a missing or relative base URL.
var ErrBaseURL = errors.New("apiclient: base URL must be absolute")

// Options configures a Client.
type Options struct {
	BaseURL    string       // required, e.g. https://api.link-shortener.com
	QRPath     string       // "/qr" or "/dynamic/qr"
	Token      string       // optional bearer token
	HTTPClient *http.Client // defaults to cleanhttp.DefaultPooledClient()
}

// Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	qrPath string
	token  string
	http   *http.Client
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, opts.BaseURL)
	}
	qrPath := opts.QRPath
	if qrPath == "" {
		qrPath = DefaultQRPath
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	return &Client{base: u, qrPath: qrPath, token: opts.Token, http: hc}, nil
}

/*──────────────────────────── operations ──────────────────────────────────*/

// ShortenURL calls POST /url/shorten.
func (c *Client) ShortenURL(ctx context.Context, req ShortenRequest) (ShortenedLink, error) {
	var out ShortenedLink
	res, err := c.do(ctx, OpShorten, http.MethodPost, c.endpoint("/url/shorten", ""), req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(res.body, &out); err != nil || out.ShortURL == "" {
		return out, malformed(OpShorten, res, err)
	}
	return out, nil
}

// GenerateQRCode calls POST {QRPath} and accepts both the hosted-image and
// the inline-image response shape.
func (c *Client) GenerateQRCode(ctx context.Context, req QRRequest) (QRCode, error) {
	res, err := c.do(ctx, OpQR, http.MethodPost, c.endpoint(c.qrPath, ""), req)
	if err != nil {
		return QRCode{}, err
	}

	var raw qrResponse
	if err := json.Unmarshal(res.body, &raw); err != nil {
		return QRCode{}, malformed(OpQR, res, err)
	}
	if !raw.Success && raw.QRCodeURL == "" && raw.Data == "" {
		return QRCode{}, normalize(OpQR, res.status, res.body, nil)
	}

	switch {
	case raw.QRCodeURL != "":
		return QRCode{Success: raw.Success, ImageURL: raw.QRCodeURL}, nil
	case raw.Data != "":
		img, ctype, err := decodeImageData(raw.Data)
		if err != nil {
			return QRCode{}, malformed(OpQR, res, err)
		}
		return QRCode{Success: raw.Success, Image: img, ContentType: ctype}, nil
	default:
		return QRCode{}, malformed(OpQR, res, nil)
	}
}

// FetchQRImage calls POST /qr/image and returns the raw image bytes.
func (c *Client) FetchQRImage(ctx context.Context, req QRRequest) (Image, error) {
	res, err := c.do(ctx, OpQRImage, http.MethodPost, c.endpoint("/qr/image", ""), req)
	if err != nil {
		return Image{}, err
	}
	if len(res.body) == 0 {
		return Image{}, malformed(OpQRImage, res, nil)
	}
	ctype := res.header.Get("Content-Type")
	if ctype == "" || strings.HasPrefix(ctype, "application/octet-stream") {
		ctype = mimetype.Detect(res.body).String()
	}
	return Image{Data: res.body, ContentType: ctype}, nil
}

// FetchAnalytics calls GET /analytics/{shortURL}.  The JSON body is returned
// untouched.
func (c *Client) FetchAnalytics(ctx context.Context, shortURL string) (Analytics, error) {
	ep := c.endpoint("/analytics/"+shortURL, "/analytics/"+url.PathEscape(shortURL))
	res, err := c.do(ctx, OpAnalytics, http.MethodGet, ep, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(res.body) {
		return nil, malformed(OpAnalytics, res, nil)
	}
	return Analytics(res.body), nil
}

/*──────────────────────────── transport ───────────────────────────────────*/

type response struct {
	status int
	header http.Header
	body   []byte
}

// do performs one call.  Marshal and request-construction failures are
// returned unwrapped; everything after the request leaves is normalised.
func (c *Client) do(ctx context.Context, op, method string, ep *url.URL, payload any) (res response, err error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return res, fmt.Errorf("apiclient: encode %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.String(), body)
	if err != nil {
		return res, fmt.Errorf("apiclient: build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, image/*")
	req.Header.Set("User-Agent", "shortly/1")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := logger.FromContext(ctx)
	start := time.Now()
	defer func() { observe(log, op, res.status, start, err) }()

	resp, err := c.http.Do(req)
	if err != nil {
		return res, normalize(op, 0, nil, err)
	}
	defer resp.Body.Close()

	res.status = resp.StatusCode
	res.header = resp.Header
	res.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return res, normalize(op, res.status, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, normalize(op, res.status, res.body, statusError(res.status))
	}
	return res, nil
}

func malformed(op string, res response, cause error) *Error {
	if cause != nil {
		cause = fmt.Errorf("%w: %v", ErrMalformedResponse, cause)
	} else {
		cause = ErrMalformedResponse
	}
	return normalize(op, res.status, nil, cause)
}

// endpoint joins path onto the base URL, keeping any base path prefix.
// rawPath carries an escaped form when path contains caller input.
func (c *Client) endpoint(path, rawPath string) *url.URL {
	u := *c.base
	prefix := strings.TrimRight(c.base.Path, "/")
	u.Path = prefix + path
	if rawPath != "" {
		u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + rawPath
	} else {
		u.RawPath = ""
	}
	u.RawQuery = ""
	return &u
}

func observe(log *zap.SugaredLogger, op string, status int, start time.Time, err error) {
	took := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.APIRequestDuration.WithLabelValues(op, outcome).Observe(took.Seconds())
	log.Debugw("api call", "op", op, "status", status, "took", took, "err", err)
}

// decodeImageData accepts bare base64 or a data: URI.
func decodeImageData(s string) ([]byte, string, error) {
	ctype := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", errors.New("unsupported data URI")
		}
		ctype = strings.TrimSuffix(meta, ";base64")
		s = data
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", err
	}
	if ctype == "" {
		ctype = mimetype.Detect(b).String()
	}
	return b, ctype, nil
}
