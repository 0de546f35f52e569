// internal/history/history.go
//
// Link and QR history.
//
// Context
// -------
// Recorder writes one row per successful submission and serves the two
// dashboard queries.  Flow success hooks call RecordLink / RecordQR; a
// failed write is logged by the caller and never affects the submission.
//
// Schema
// ------
//
//	link     (id, short_url, original_url, alias, expire_at, created_at)
//	qr_code  (id, url, width, foreground, background, image_url, embedded,
//	          created_at)
//
// Notes
// -----
//   - Every query is a single parameterised statement.
//   - expire_at is stored as received; the API's value is opaque text.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/shortly/internal/apiclient"
)

// Schema creates the history tables.  Applied by Migrate.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS link (id BIGINT AUTO_INCREMENT PRIMARY KEY, short_url VARCHAR(2048) NOT NULL, original_url VARCHAR(2048) NOT NULL, alias VARCHAR(255) NULL, expire_at VARCHAR(64) NULL, created_at DATETIME NOT NULL, INDEX idx_link_created (created_at))`,
	`CREATE TABLE IF NOT EXISTS qr_code (id BIGINT AUTO_INCREMENT PRIMARY KEY, url VARCHAR(2048) NOT NULL, width INT NOT NULL, foreground VARCHAR(7) NOT NULL, background VARCHAR(7) NOT NULL, image_url VARCHAR(2048) NULL, embedded BOOLEAN NOT NULL, created_at DATETIME NOT NULL)`,
}

// Link is one recorded shortening.
type Link struct {
	ID          int64          `db:"id"`
	ShortURL    string         `db:"short_url"`
	OriginalURL string         `db:"original_url"`
	Alias       sql.NullString `db:"alias"`
	ExpireAt    sql.NullString `db:"expire_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Stats are the dashboard totals.
type Stats struct {
	TotalLinks   int64 `db:"total_links"`
	TotalQRCodes int64 `db:"total_qr_codes"`
	CustomLinks  int64 `db:"custom_links"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open pool.
func New(db *sqlx.DB) *Recorder {
	return &Recorder{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate applies Schema.
func (r *Recorder) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w", err)
		}
	}
	return nil
}

// RecordLink stores a successful shortening.
func (r *Recorder) RecordLink(ctx context.Context, req apiclient.ShortenRequest, link apiclient.ShortenedLink) error {
	const q = `INSERT INTO link (short_url, original_url, alias, expire_at, created_at) VALUES (?, ?, ?, ?, ?)`
	original := link.OriginalURL
	if original == "" {
		original = req.OriginalURL
	}
	_, err := r.db.ExecContext(ctx, q,
		link.ShortURL, original, nullString(req.CustomAlias), nullString(link.ExpireAt), r.now())
	if err != nil {
		return fmt.Errorf("history: record link: %w", err)
	}
	return nil
}

// RecordQR stores a successful QR generation.
func (r *Recorder) RecordQR(ctx context.Context, req apiclient.QRRequest, qr apiclient.QRCode) error {
	const q = `INSERT INTO qr_code (url, width, foreground, background, image_url, embedded, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		req.URL, req.Width, req.ForegroundColor, req.BackgroundColor,
		nullString(qr.ImageURL), qr.Embedded(), r.now())
	if err != nil {
		return fmt.Errorf("history: record qr: %w", err)
	}
	return nil
}

// Recent returns up to limit links, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Link, error) {
	const q = `SELECT id, short_url, original_url, alias, expire_at, created_at FROM link ORDER BY created_at DESC, id DESC LIMIT ?`
	var rows []Link
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return rows, nil
}

// Stats returns the dashboard totals.
func (r *Recorder) Stats(ctx context.Context) (Stats, error) {
	const q = `SELECT (SELECT COUNT(*) FROM link) AS total_links, (SELECT COUNT(*) FROM qr_code) AS total_qr_codes, (SELECT COUNT(*) FROM link WHERE alias IS NOT NULL) AS custom_links`
	var s Stats
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		return Stats{}, fmt.Errorf("history: stats: %w", err)
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
