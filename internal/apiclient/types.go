// internal/apiclient/types.go
//
// Wire records for the remote shortening / QR API.

package apiclient

import "encoding/json"

// ShortenRequest is the body of POST /url/shorten.
type ShortenRequest struct {
	OriginalURL     string `json:"originalUrl"`
	CustomAlias     string `json:"customAlias,omitempty"`
	ExpireAfterDays *int   `json:"expireAfterDays,omitempty"`
}

// ShortenedLink is the response of POST /url/shorten.
type ShortenedLink struct {
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	ExpireAt    string `json:"expireAt"`
}

// QRRequest is the body shared by the QR endpoints.  Field names, including
// the mixed-case logoBackGround* keys, are fixed by the remote API.
type QRRequest struct {
	URL                  string  `json:"url"`
	ForegroundColor      string  `json:"foregroundColor"`
	BackgroundColor      string  `json:"backgroundColor"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	LogoSizePercent      *int    `json:"logoSizePercent,omitempty"`
	LogoPadding          *int    `json:"logoPadding,omitempty"`
	LogoBackgroundShape  string  `json:"logoBackGroundShape,omitempty"`
	LogoBackgroundColour string  `json:"logoBackGroundColour,omitempty"`
	LogoURL              *string `json:"logoUrl"`
}

// QRCode is the normalised QR result.  Exactly one of ImageURL or Image is
// set: deployments answer either with a link to a hosted image or with the
// image inline.
type QRCode struct {
	Success     bool
	ImageURL    string
	Image       []byte
	ContentType string
}

// Embedded reports whether the image bytes came back inline.
func (q QRCode) Embedded() bool { return len(q.Image) > 0 }

// Image is a raw image download.
type Image struct {
	Data        []byte
	ContentType string
}

// Analytics is passed through untouched; its shape belongs to the server.
type Analytics = json.RawMessage

// qrResponse accepts both observed response shapes.
type qrResponse struct {
	Success   bool   `json:"success"`
	QRCodeURL string `json:"qrCodeUrl"`
	Data      string `json:"data"`
}

// errorBody is the subset of an error response we read.
type errorBody struct {
	Message string `json:"message"`
}
