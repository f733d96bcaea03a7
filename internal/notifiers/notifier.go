package notifiers

import (
	"context"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
)

// Notifier defines the interface for delivering a bulk report to the operator.
type Notifier interface {
	// Notify delivers the report.
	Notify(ctx context.Context, report *model.BulkReport) error
}
