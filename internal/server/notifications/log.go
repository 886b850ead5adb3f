package notifications

import (
	"context"

	"github.com/avramov/authgate/internal/logging"
)

// LogProducer writes notifications to the log instead of a queue. Used in
// development when no queue URL is configured.
type LogProducer struct {
	logger logging.Logger
}

func NewLogProducer(logger logging.Logger) *LogProducer {
	return &LogProducer{logger: logger}
}

func (p *LogProducer) Send(ctx context.Context, msg Message) error {
	p.logger.Info(ctx, "notification (queue disabled)",
		"to", msg.To,
		"template_slug", msg.TemplateSlug,
		"priority", msg.Priority,
		"language", msg.Language,
		"data", msg.Data,
	)
	return nil
}
