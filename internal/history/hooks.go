package history

import (
	"context"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/flow"
	"github.com/yanizio/shortly/internal/logger"
)

// Hooks returns flow success hooks that record into r.  Write failures are
// logged and otherwise ignored; history never fails a submission.
func Hooks(r *Recorder) flow.Hooks {
	return flow.Hooks{
		Shortened: func(ctx context.Context, req apiclient.ShortenRequest, link apiclient.ShortenedLink) {
			if err := r.RecordLink(ctx, req, link); err != nil {
				logger.FromContext(ctx).Warnw("history write failed", "kind", "link", "err", err)
			}
		},
		Generated: func(ctx context.Context, req apiclient.QRRequest, qr apiclient.QRCode) {
			if err := r.RecordQR(ctx, req, qr); err != nil {
				logger.FromContext(ctx).Warnw("history write failed", "kind", "qr", "err", err)
			}
		},
	}
}
