package journal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier is the delivery contract the recorder wraps.
type Notifier interface {
	Send(ctx context.Context, text string) bool
}

// RecordingNotifier forwards to the wrapped Notifier and journals the outcome.
// Journal failures are logged; they never change the reported delivery result.
type RecordingNotifier struct {
	next    Notifier
	client  *Client
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewRecordingNotifier(next Notifier, client *Client, logger *zap.Logger) *RecordingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingNotifier{
		next:    next,
		client:  client,
		logger:  logger.Named("journal"),
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

func (r *RecordingNotifier) Send(ctx context.Context, text string) bool {
	sentAt := r.now()
	ok := r.next.Send(ctx, text)

	// The delivery context may already be spent; use a short one of our own.
	dbCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	record := &DeliveryRecord{
		Text:      text,
		Delivered: ok,
		SentAt:    sentAt,
	}
	if err := r.client.InsertDelivery(dbCtx, record); err != nil {
		r.logger.Warn("failed to journal delivery", zap.Bool("delivered", ok), zap.Error(err))
	}

	return ok
}
