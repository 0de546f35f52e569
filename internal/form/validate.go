// internal/form/validate.go
//
// shortly – Forms subsystem: field validation.
//
// Context
//   Both flows validate on every edit, so validation is a pure function of
//   the current Values and the instant it runs at.  Nothing is cached and
//   nothing is written; calling it twice with the same input yields the same
//   Result.
//
// Workflow
//   •  The Values map is copied into a tagged input struct (shortenInput or
//      qrInput).  Struct tags carry the rules; custom tags are registered on a
//      package-level validator.Validate.
//   •  The validation instant travels in the context given to StructCtx so
//      the “future” rule stays deterministic.
//   •  validator.ValidationErrors are folded into a Result keyed by form
//      field name.  The first failing rule per field wins.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// Field names shared by the templates, the validator, and the flows.
const (
	FieldURL             = "url"
	FieldCustomAlias     = "customAlias"
	FieldExpiryDate      = "expiryDate"
	FieldForegroundColor = "foregroundColor"
	FieldBackgroundColor = "backgroundColor"
	FieldSize            = "size"
	FieldLogo            = "logo"
)

// Limits enforced by the QR form.
const (
	MinSize      = 100
	MaxSize      = 500
	MaxLogoBytes = 1 << 20
)

// -----------------------------------------------------------------------------
// Result types
// -----------------------------------------------------------------------------

// Result maps field name to a user-facing message.  A field absent from the
// map currently passes.
type Result map[string]string

// Valid reports whether no field failed.
func (r Result) Valid() bool { return len(r) == 0 }

// -----------------------------------------------------------------------------
// Schemas
// -----------------------------------------------------------------------------

// Schema ties a form's initial values to its validation function.
type Schema struct {
	ID       string
	Initial  Values
	Validate func(Values, time.Time) Result
}

// Shorten is the URL-shortening form.
var Shorten = Schema{
	ID: "shorten",
	Initial: Values{
		FieldURL:         Text(""),
		FieldCustomAlias: Text(""),
		FieldExpiryDate:  Text(""),
	},
	Validate: ValidateShorten,
}

// QR is the QR-generation form.
var QR = Schema{
	ID: "qr",
	Initial: Values{
		FieldURL:             Text(""),
		FieldForegroundColor: Text("#000000"),
		FieldBackgroundColor: Text("#FFFFFF"),
		FieldSize:            Text("200"),
		FieldLogo:            {},
	},
	Validate: ValidateQR,
}

type shortenInput struct {
	URL         string `form:"url"         validate:"required,absurl"`
	CustomAlias string `form:"customAlias" validate:"omitempty,min=3,alias"`
	ExpiryDate  string `form:"expiryDate"  validate:"omitempty,isodate,future"`
}

type qrInput struct {
	URL             string `form:"url"             validate:"required,absurl"`
	ForegroundColor string `form:"foregroundColor" validate:"required,qrcolor"`
	BackgroundColor string `form:"backgroundColor" validate:"required,qrcolor"`
	Size            string `form:"size"            validate:"required,numeric,minpx=100,maxpx=500"`
	LogoSize        int64  `form:"logo"            validate:"max=1048576"`
	LogoType        string `form:"logo"            validate:"omitempty,oneof=image/jpeg image/png image/gif"`
}

// ValidateShorten checks the URL-shortening form as of now.
func ValidateShorten(v Values, now time.Time) Result {
	return run(&shortenInput{
		URL:         v.Text(FieldURL),
		CustomAlias: v.Text(FieldCustomAlias),
		ExpiryDate:  v.Text(FieldExpiryDate),
	}, now)
}

// ValidateQR checks the QR-generation form.  now is unused by the QR rules
// but kept so both schemas share one signature.
func ValidateQR(v Values, now time.Time) Result {
	in := &qrInput{
		URL:             v.Text(FieldURL),
		ForegroundColor: v.Text(FieldForegroundColor),
		BackgroundColor: v.Text(FieldBackgroundColor),
		Size:            v.Text(FieldSize),
	}
	if f := v.File(FieldLogo); f != nil {
		in.LogoSize = FileSize(f)
		in.LogoType = DetectType(f)
	}
	return run(in, now)
}

// -----------------------------------------------------------------------------
// Validator wiring
// -----------------------------------------------------------------------------

type nowKey struct{}

var (
	aliasRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	colorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("form") })

	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("form: register validation: %v", err))
		}
	}
	must(v.RegisterValidation("absurl", func(fl validator.FieldLevel) bool {
		return isAbsoluteURL(fl.Field().String())
	}))
	must(v.RegisterValidation("qrcolor", func(fl validator.FieldLevel) bool {
		return colorRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
		return aliasRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidationCtx("future", func(ctx context.Context, fl validator.FieldLevel) bool {
		t, err := ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		now, _ := ctx.Value(nowKey{}).(time.Time)
		return t.After(now)
	}))
	must(v.RegisterValidation("minpx", func(fl validator.FieldLevel) bool {
		return comparePx(fl, func(n, lim float64) bool { return n >= lim })
	}))
	must(v.RegisterValidation("maxpx", func(fl validator.FieldLevel) bool {
		return comparePx(fl, func(n, lim float64) bool { return n <= lim })
	}))
	return v
}

func run(input any, now time.Time) Result {
	res := Result{}
	ctx := context.WithValue(context.Background(), nowKey{}, now)

	err := validate.StructCtx(ctx, input)
	if err == nil {
		return res
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		// Only reachable when input is not a struct pointer.
		panic(fmt.Sprintf("form: validate %T: %v", input, err))
	}
	for _, fe := range ves {
		name := fe.Field()
		if _, seen := res[name]; seen {
			continue
		}
		res[name] = message(name, fe.Tag())
	}
	return res
}

// -----------------------------------------------------------------------------
// Rule helpers
// -----------------------------------------------------------------------------

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func comparePx(fl validator.FieldLevel, ok func(n, lim float64) bool) bool {
	n, err := strconv.ParseFloat(fl.Field().String(), 64)
	if err != nil {
		return false
	}
	lim, err := strconv.ParseFloat(fl.Param(), 64)
	if err != nil {
		return false
	}
	return ok(n, lim)
}

// ParseDate accepts a calendar date (“2006-01-02”, midnight UTC), an HTML
// datetime-local value, or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("form: unrecognised date %q", s)
}

// FileSize returns the larger of the declared size and the bytes held.
func FileSize(f *File) int64 {
	if n := int64(len(f.Data)); n > f.Size {
		return n
	}
	return f.Size
}

// DetectType sniffs the MIME type from content when bytes are present and
// falls back to the declared type.  Parameters such as charset are dropped.
func DetectType(f *File) string {
	t := f.ContentType
	if len(f.Data) > 0 {
		t = mimetype.Detect(f.Data).String()
	}
	t, _, _ = strings.Cut(t, ";")
	t = strings.TrimSpace(t)
	if t == "" {
		return "application/octet-stream"
	}
	return t
}

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

var messages = map[string]map[string]string{
	FieldURL: {
		"required": "URL is required",
		"absurl":   "Please enter a valid URL",
	},
	FieldCustomAlias: {
		"min":   "Alias must be at least 3 characters",
		"alias": "Only letters, numbers, hyphen and underscore allowed",
	},
	FieldExpiryDate: {
		"isodate": "Please enter a valid date",
		"future":  "Expiry date must be in the future",
	},
	FieldForegroundColor: {
		"required": "Foreground color is required",
		"qrcolor":  "Invalid color format",
	},
	FieldBackgroundColor: {
		"required": "Background color is required",
		"qrcolor":  "Invalid color format",
	},
	FieldSize: {
		"required": "Size is required",
		"numeric":  "Size must be a number",
		"minpx":    "Size must be at least 100px",
		"maxpx":    "Size cannot exceed 500px",
	},
	FieldLogo: {
		"max":   "File too large",
		"oneof": "Unsupported format",
	},
}

func message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return "Invalid input."
}
