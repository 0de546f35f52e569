// internal/web/handlers.go
//
// Route handlers.  Every POST verifies the form's CSRF token before any
// field reaches a controller.  Browser fetches that only need a status
// (notification dismissal, clipboard reports) send X-Requested-With and get
// 204; plain form posts are redirected back to the page.

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/history"
	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/notify"
	"github.com/yanizio/shortly/internal/present"
	"github.com/yanizio/shortly/internal/requestinfo"
	"github.com/yanizio/shortly/internal/session"
)

const (
	csrfField = "csrf_token"

	// maxUpload bounds a whole QR form post.  Only the first
	// MaxLogoBytes+1 bytes of a logo are kept; the rest is counted and
	// discarded so validation can report an oversized file inline.
	maxUpload = 8 * form.MaxLogoBytes

	// maxFieldBytes bounds one text part of a multipart post.
	maxFieldBytes = 4 << 10

	recentLimit = 20
)

/*──────────────────────────── pages ───────────────────────────────────────*/

type homeData struct {
	Page           present.Page
	CSRF           string
	NotifyDuration time.Duration
	Info           *requestinfo.RequestInfo
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ws := session.FromContext(r.Context())
	tok, ok := s.token(w, r)
	if !ok {
		return
	}
	render(w, r, "home", homeData{
		Page:           present.BuildPage(ws),
		CSRF:           tok,
		NotifyDuration: s.notify,
		Info:           requestinfo.FromContext(r.Context()),
	})
}

type dashboardData struct {
	Enabled        bool
	Stats          history.Stats
	Recent         []history.Link
	Error          string
	Notice         *notify.Notification
	CSRF           string
	NotifyDuration time.Duration
	Info           *requestinfo.RequestInfo
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ws := session.FromContext(r.Context())
	tok, ok := s.token(w, r)
	if !ok {
		return
	}
	data := dashboardData{
		Enabled:        s.history != nil,
		CSRF:           tok,
		NotifyDuration: s.notify,
		Info:           requestinfo.FromContext(r.Context()),
	}
	if n, ok := ws.Notices.Current(); ok {
		data.Notice = &n
	}
	if s.history != nil {
		if err := s.loadHistory(r.Context(), &data); err != nil {
			logger.FromContext(r.Context()).Errorw("dashboard history", "err", err)
			data.Error = "History is unavailable right now."
		}
	}
	render(w, r, "dashboard", data)
}

func (s *Server) loadHistory(ctx context.Context, data *dashboardData) error {
	stats, err := s.history.Stats(ctx)
	if err != nil {
		return err
	}
	recent, err := s.history.Recent(ctx, recentLimit)
	if err != nil {
		return err
	}
	data.Stats, data.Recent = stats, recent
	return nil
}

/*──────────────────────────── shorten flow ────────────────────────────────*/

var shortenFields = []string{form.FieldURL, form.FieldCustomAlias, form.FieldExpiryDate}

func (s *Server) handleShorten(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	ws := session.FromContext(r.Context())
	for _, f := range shortenFields {
		ws.Shorten.Edit(f, form.Text(r.PostForm.Get(f)))
	}
	submit(r, "shorten", ws.Shorten.Submit)
	back(w, r, "/#url-shortener")
}

func (s *Server) handleShortenDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	session.FromContext(r.Context()).Shorten.Dismiss()
	back(w, r, "/#url-shortener")
}

func (s *Server) handleShortenClose(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	session.FromContext(r.Context()).Shorten.CloseOverlay()
	back(w, r, "/#url-shortener")
}

/*──────────────────────────── QR flow ─────────────────────────────────────*/

var qrFields = []string{form.FieldURL, form.FieldForegroundColor, form.FieldBackgroundColor, form.FieldSize}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	fields, logo, err := readQRPost(r)
	if err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	if !s.verifyToken(w, fields.Get(csrfField)) {
		return
	}

	ws := session.FromContext(r.Context())
	for _, f := range qrFields {
		if _, ok := fields[f]; ok {
			ws.QR.Edit(f, form.Text(fields.Get(f)))
		}
	}
	ws.QR.Edit(form.FieldLogo, logo)

	submit(r, "qr", ws.QR.Submit)
	back(w, r, "/#qr-generator")
}

// readQRPost streams the QR form.  Text parts are bounded by maxFieldBytes
// and the logo by MaxLogoBytes+1; the logo's full size is still counted.
// When the body limit cuts the post short, the parts read so far are
// returned.  Urlencoded posts are accepted too and carry no logo.
func readQRPost(r *http.Request) (url.Values, form.Value, error) {
	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, form.Value{}, err
		}
		return r.PostForm, form.Value{}, nil
	}
	if err != nil {
		return nil, form.Value{}, err
	}

	fields := url.Values{}
	var logo form.Value
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) || tooLarge(err) {
			break
		}
		if err != nil {
			return nil, form.Value{}, err
		}

		name := part.FormName()
		switch {
		case name == form.FieldLogo:
			file, err := readLogo(part)
			if err != nil {
				return nil, form.Value{}, err
			}
			if file != nil {
				logo = form.Value{File: file}
			}
		case name != "" && part.FileName() == "":
			b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if tooLarge(err) {
				return fields, logo, nil
			}
			if err != nil {
				return nil, form.Value{}, err
			}
			fields.Add(name, string(b))
		}
		_ = part.Close()
	}
	return fields, logo, nil
}

// readLogo keeps the first MaxLogoBytes+1 bytes of part and counts the
// rest.  It returns nil for an empty file input.  Hitting the body limit
// while counting is not an error: the file is already known to be too
// large.
func readLogo(part *multipart.Part) (*form.File, error) {
	data, err := io.ReadAll(io.LimitReader(part, form.MaxLogoBytes+1))
	if err != nil && !tooLarge(err) {
		return nil, err
	}
	size := int64(len(data))
	switch {
	case err != nil:
		// Cut off by the body limit: the real size is unknown but too big.
		size = max(size, form.MaxLogoBytes+1)
	case size > form.MaxLogoBytes:
		n, cerr := io.Copy(io.Discard, part)
		if cerr != nil && !tooLarge(cerr) {
			return nil, cerr
		}
		size += n
	}
	if part.FileName() == "" && size == 0 {
		return nil, nil
	}
	return &form.File{
		Name:        part.FileName(),
		Size:        size,
		ContentType: part.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (s *Server) handleQRDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	session.FromContext(r.Context()).QR.Dismiss()
	back(w, r, "/#qr-generator")
}

func (s *Server) handleQRClose(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	session.FromContext(r.Context()).QR.CloseOverlay()
	back(w, r, "/#qr-generator")
}

func (s *Server) handleQRDownload(w http.ResponseWriter, r *http.Request) {
	ws := session.FromContext(r.Context())
	snap := ws.QR.Snapshot()
	if !snap.HasResult {
		http.NotFound(w, r)
		return
	}

	img, err := present.Download(r.Context(), s.api, snap.Result, snap.Request)
	if err != nil {
		var ae *apiclient.Error
		if errors.As(err, &ae) {
			ws.Notices.Show(ae.Message, notify.Error)
			http.Error(w, ae.Message, http.StatusBadGateway)
			return
		}
		logger.FromContext(r.Context()).Errorw("qr download", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+present.Filename(img.ContentType)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	_, _ = w.Write(img.Data)
}

/*──────────────────────────── notifications ───────────────────────────────*/

type noticeJSON struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := session.FromContext(r.Context()).Notices.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, noticeJSON{ID: n.ID, Message: n.Message, Kind: string(n.Kind), ExpiresAt: n.Expires})
}

func (s *Server) handleNotificationDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	id, err := strconv.ParseUint(r.PostForm.Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad notification id", http.StatusBadRequest)
		return
	}
	session.FromContext(r.Context()).Notices.Dismiss(id)
	back(w, r, "/")
}

// browserClipboard replays a clipboard write the browser already attempted.
type browserClipboard struct {
	ok     bool
	reason string
}

func (b browserClipboard) WriteText(context.Context, string) error {
	if b.ok {
		return nil
	}
	if b.reason == "" {
		return errors.New("clipboard unavailable")
	}
	return errors.New(b.reason)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	if !s.parseAndVerify(w, r) {
		return
	}
	cb := browserClipboard{ok: r.PostForm.Get("ok") == "1", reason: r.PostForm.Get("reason")}
	ws := session.FromContext(r.Context())
	if err := present.Copy(r.Context(), cb, r.PostForm.Get("text"), ws.Notices); err != nil {
		logger.FromContext(r.Context()).Debugw("clipboard write failed", "err", err)
	}
	back(w, r, "/")
}

/*──────────────────────────── analytics ───────────────────────────────────*/

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	data, err := s.api.FetchAnalytics(r.Context(), code)
	if err != nil {
		var ae *apiclient.Error
		if !errors.As(err, &ae) {
			logger.FromContext(r.Context()).Errorw("analytics", "code", code, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": apiclient.GenericMessage})
			return
		}
		status := http.StatusBadGateway
		if ae.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"message": ae.Message})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (s *Server) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok, err := s.keys.GenerateToken()
	if err != nil {
		logger.FromContext(r.Context()).Errorw("csrf token", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", false
	}
	return tok, true
}

func (s *Server) parseAndVerify(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return false
	}
	return s.verify(w, r)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) bool {
	return s.verifyToken(w, r.PostForm.Get(csrfField))
}

func (s *Server) verifyToken(w http.ResponseWriter, tok string) bool {
	if !s.keys.VerifyToken(tok) {
		http.Error(w, "This form has expired.  Reload the page and try again.", http.StatusForbidden)
		return false
	}
	return true
}

// submit runs a flow submission.  API failures are already reflected in
// the workspace; only programming errors reach the log here.
func submit(r *http.Request, name string, fn func(context.Context) (bool, error)) {
	accepted, err := fn(r.Context())
	log := logger.FromContext(r.Context())
	switch {
	case err != nil:
		log.Errorw("submission error", "flow", name, "err", err)
	case !accepted:
		log.Debugw("submission rejected", "flow", name)
	}
}

// back ends a POST: 204 for script callers, 303 to target otherwise.
func back(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("X-Requested-With") != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Compile-time assertions.
var (
	_ API     = (*apiclient.Client)(nil)
	_ History = (*history.Recorder)(nil)
)
