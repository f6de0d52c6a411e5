package events

import (
	"context"
	"fmt"

	rediscommon "ctam-data/common/redis"
)

const DefaultStream = "ctam:assessment:events"

// StreamPublisher XADD to a redis stream, trimmed to about maxLen entries.
type StreamPublisher struct {
	client rediscommon.StreamAdder
	stream string
	maxLen int64
}

func NewStreamPublisher(client rediscommon.StreamAdder, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev TransitionEvent) error {
	_, err := rediscommon.PublishToStream(ctx, p.client, p.stream, p.maxLen, map[string]any{
		"assessment_id": ev.AssessmentID,
		"action":        ev.Action,
		"from_status":   string(ev.FromStatus),
		"to_status":     string(ev.ToStatus),
		"performed_by":  ev.PerformedBy,
		"version":       ev.Version,
		"data":          ev,
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
