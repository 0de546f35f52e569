// internal/present/present.go
//
// shortly – Result presentation.
//
// Context
//   Presentation only reads controller snapshots and dispatches intents.
//   BuildPage turns a Workspace into a template-ready view model; Copy and
//   Download are the two result actions.
//
// Notes
//   •  Field errors are shown only for touched fields, so a fresh form does
//      not open covered in red.
//   •  A clipboard failure raises its own notification and never touches the
//      submission state of either flow.
//
//------------------------------------------------------------------------------

package present

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/flow"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/notify"
)

// Copy notification texts.
const (
	CopiedMessage     = "Copied to clipboard!"
	CopyFailedMessage = "Failed to copy to clipboard"
)

// ErrNoResult is returned by Download when there is nothing to download.
var ErrNoResult = errors.New("present: no QR code to download")

// Field is one rendered input.
type Field struct {
	Name  string
	Value string
	Error string // only for touched fields
}

// Flow is the part of the view shared by both forms.
type Flow struct {
	ID        string
	Status    string
	Busy      bool
	CanSubmit bool
	Fields    map[string]Field
	Error     string // last flow-level error
	Overlay   bool
}

// Shorten is the URL-shortening section.
type Shorten struct {
	Flow
	Result *apiclient.ShortenedLink
}

// QRImage is a renderable QR result.
type QRImage struct {
	Src         string // remote URL or data: URI
	ContentType string
	Remote      bool
}

// QR is the QR-generation section.
type QR struct {
	Flow
	Result *QRImage
}

// Page is the full home-page model.
type Page struct {
	Shorten Shorten
	QR      QR
	Notice  *notify.Notification
}

// BuildPage snapshots ws.
func BuildPage(ws *flow.Workspace) Page {
	s := ws.Shorten.Snapshot()
	q := ws.QR.Snapshot()

	p := Page{
		Shorten: Shorten{Flow: flowView(form.Shorten.ID, s.Status, s.Values, s.Touched, s.Errors, s.CanSubmit, s.Error, s.Overlay)},
		QR:      QR{Flow: flowView(form.QR.ID, q.Status, q.Values, q.Touched, q.Errors, q.CanSubmit, q.Error, q.Overlay)},
	}
	if s.HasResult {
		link := s.Result
		p.Shorten.Result = &link
	}
	if q.HasResult {
		p.QR.Result = qrImage(q.Result)
	}
	if n, ok := ws.Notices.Current(); ok {
		p.Notice = &n
	}
	return p
}

func flowView(id string, st flow.Status, values form.Values, touched map[string]bool,
	errs form.Result, canSubmit bool, lastErr string, overlay bool) Flow {

	fields := make(map[string]Field, len(values))
	for name, v := range values {
		f := Field{Name: name, Value: v.Text}
		if v.File != nil {
			f.Value = v.File.Name
		}
		if touched[name] {
			f.Error = errs[name]
		}
		fields[name] = f
	}
	return Flow{
		ID:        id,
		Status:    st.String(),
		Busy:      st == flow.InFlight,
		CanSubmit: canSubmit,
		Fields:    fields,
		Error:     lastErr,
		Overlay:   overlay,
	}
}

func qrImage(qr apiclient.QRCode) *QRImage {
	if qr.Embedded() {
		ct := qr.ContentType
		if ct == "" {
			ct = mimetype.Detect(qr.Image).String()
		}
		return &QRImage{
			Src:         "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(qr.Image),
			ContentType: ct,
		}
	}
	return &QRImage{Src: qr.ImageURL, Remote: true}
}

/*──────────────────────────── actions ─────────────────────────────────────*/

// Clipboard writes text somewhere the visitor can paste from.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Copy writes text to cb and reports the outcome as its own notification.
func Copy(ctx context.Context, cb Clipboard, text string, notices *notify.Center) error {
	if err := cb.WriteText(ctx, text); err != nil {
		notices.Show(CopyFailedMessage, notify.Error)
		return fmt.Errorf("present: copy: %w", err)
	}
	notices.Show(CopiedMessage, notify.Success)
	return nil
}

// ImageFetcher re-fetches QR image bytes.
type ImageFetcher interface {
	FetchQRImage(ctx context.Context, req apiclient.QRRequest) (apiclient.Image, error)
}

// Download returns the bytes of a QR result.  Inline images are returned
// directly; hosted ones are re-rendered through f using the request that
// produced them.
func Download(ctx context.Context, f ImageFetcher, qr apiclient.QRCode, req apiclient.QRRequest) (apiclient.Image, error) {
	if qr.Embedded() {
		ct := qr.ContentType
		if ct == "" {
			ct = mimetype.Detect(qr.Image).String()
		}
		return apiclient.Image{Data: qr.Image, ContentType: ct}, nil
	}
	if qr.ImageURL == "" {
		return apiclient.Image{}, ErrNoResult
	}
	return f.FetchQRImage(ctx, req)
}

// Filename picks a download name matching contentType.
func Filename(contentType string) string {
	ext := ".png"
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}
	return "qrcode" + ext
}
