// internal/flow/workspace.go
//
// Per-visitor bundle of both flows plus their shared notification center,
// and the request builders that turn validated form values into API
// requests.

package flow

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/notify"
)

// Success notification texts.
const (
	ShortenedMessage = "URL Shortened Successfully!"
	GeneratedMessage = "QR Code Generated Successfully!"
)

// QR logo defaults sent with every QR request.
const (
	LogoSizePercent      = 20
	LogoPadding          = 0
	LogoBackgroundShape  = "rounded_square"
	LogoBackgroundColour = "#FFFFFF"
)

// API is the part of *apiclient.Client the flows call.
type API interface {
	ShortenURL(ctx context.Context, req apiclient.ShortenRequest) (apiclient.ShortenedLink, error)
	GenerateQRCode(ctx context.Context, req apiclient.QRRequest) (apiclient.QRCode, error)
}

// Hooks run after a successful submission, outside the controller lock.
type Hooks struct {
	Shortened func(ctx context.Context, req apiclient.ShortenRequest, link apiclient.ShortenedLink)
	Generated func(ctx context.Context, req apiclient.QRRequest, qr apiclient.QRCode)
}

// Options configures NewWorkspace.
type Options struct {
	NotifyDuration time.Duration
	NotifyOptions  notify.Options
	Now            func() time.Time
	Hooks          Hooks
}

// ShortenController and QRController name the two concrete flows.
type (
	ShortenController = Controller[apiclient.ShortenRequest, apiclient.ShortenedLink]
	QRController      = Controller[apiclient.QRRequest, apiclient.QRCode]
)

// Workspace is everything one visitor interacts with.
type Workspace struct {
	Shorten *ShortenController
	QR      *QRController
	Notices *notify.Center
}

// NewWorkspace builds a fresh workspace whose flows call api.
func NewWorkspace(api API, opts Options) *Workspace {
	notices := NewNotices(opts)

	var shortHooks []func(context.Context, apiclient.ShortenRequest, apiclient.ShortenedLink)
	if opts.Hooks.Shortened != nil {
		shortHooks = append(shortHooks, opts.Hooks.Shortened)
	}
	var qrHooks []func(context.Context, apiclient.QRRequest, apiclient.QRCode)
	if opts.Hooks.Generated != nil {
		qrHooks = append(qrHooks, opts.Hooks.Generated)
	}

	return &Workspace{
		Shorten: NewController(Config[apiclient.ShortenRequest, apiclient.ShortenedLink]{
			Name:           form.Shorten.ID,
			Schema:         form.Shorten,
			Build:          BuildShorten,
			Call:           api.ShortenURL,
			Notices:        notices,
			SuccessMessage: ShortenedMessage,
			Now:            opts.Now,
			OnSuccess:      shortHooks,
		}),
		QR: NewController(Config[apiclient.QRRequest, apiclient.QRCode]{
			Name:           form.QR.ID,
			Schema:         form.QR,
			Build:          BuildQR,
			Call:           api.GenerateQRCode,
			Notices:        notices,
			SuccessMessage: GeneratedMessage,
			Now:            opts.Now,
			OnSuccess:      qrHooks,
		}),
		Notices: notices,
	}
}

// NewNotices returns the notification center a workspace would use.
func NewNotices(opts Options) *notify.Center {
	no := opts.NotifyOptions
	if no.Now == nil {
		no.Now = opts.Now
	}
	return notify.NewCenter(opts.NotifyDuration, no)
}

// Close releases the workspace's timers.
func (w *Workspace) Close() { w.Notices.Close() }

/*──────────────────────────── builders ────────────────────────────────────*/

// DaysUntil returns the whole number of days from now to t, rounding any
// partial day up.
func DaysUntil(t, now time.Time) int {
	const day = 24 * time.Hour
	d := t.Sub(now)
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}

// BuildShorten maps validated shorten-form values to a request.
func BuildShorten(v form.Values, now time.Time) (apiclient.ShortenRequest, error) {
	req := apiclient.ShortenRequest{
		OriginalURL: v.Text(form.FieldURL),
		CustomAlias: v.Text(form.FieldCustomAlias),
	}
	if raw := v.Text(form.FieldExpiryDate); raw != "" {
		t, err := form.ParseDate(raw)
		if err != nil {
			return req, fmt.Errorf("flow: expiry date: %w", err)
		}
		days := DaysUntil(t, now)
		req.ExpireAfterDays = &days
	}
	return req, nil
}

// BuildQR maps validated QR-form values to a request.  An uploaded logo is
// inlined as a data: URI.
func BuildQR(v form.Values, _ time.Time) (apiclient.QRRequest, error) {
	size, err := strconv.Atoi(v.Text(form.FieldSize))
	if err != nil {
		f, ferr := strconv.ParseFloat(v.Text(form.FieldSize), 64)
		if ferr != nil {
			return apiclient.QRRequest{}, fmt.Errorf("flow: size: %w", err)
		}
		size = int(f)
	}

	sizePct, padding := LogoSizePercent, LogoPadding
	req := apiclient.QRRequest{
		URL:                  v.Text(form.FieldURL),
		ForegroundColor:      v.Text(form.FieldForegroundColor),
		BackgroundColor:      v.Text(form.FieldBackgroundColor),
		Width:                size,
		Height:               size,
		LogoSizePercent:      &sizePct,
		LogoPadding:          &padding,
		LogoBackgroundShape:  LogoBackgroundShape,
		LogoBackgroundColour: LogoBackgroundColour,
	}
	if f := v.File(form.FieldLogo); f != nil && len(f.Data) > 0 {
		uri := "data:" + form.DetectType(f) + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
		req.LogoURL = &uri
	}
	return req, nil
}
