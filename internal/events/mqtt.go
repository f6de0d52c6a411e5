package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTopicPrefix topics are <prefix>/<assessment_id>/status.
const DefaultTopicPrefix = "ctam/assessments"

// MQTTClient the publish subset of common/mqtt.Client.
type MQTTClient interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTPublisher retained per-assessment status messages, so a late subscriber
// sees the current status.
type MQTTPublisher struct {
	client MQTTClient
	prefix string
}

func NewMQTTPublisher(client MQTTClient, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic for assessmentID.
func (p *MQTTPublisher) Topic(assessmentID string) string {
	return fmt.Sprintf("%s/%s/status", p.prefix, assessmentID)
}

func (p *MQTTPublisher) Publish(_ context.Context, ev TransitionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(p.Topic(ev.AssessmentID), true, payload); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}
