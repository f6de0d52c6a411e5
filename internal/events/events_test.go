package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ctam-data/internal/domain"
)

type fakeMQTT struct {
	topic    string
	retained bool
	payload  []byte
	err      error
}

func (f *fakeMQTT) Publish(topic string, retained bool, payload []byte) error {
	f.topic, f.retained, f.payload = topic, retained, payload
	return f.err
}

func sampleEvent() TransitionEvent {
	a := &domain.Assessment{ID: "a-1", HospitalID: "h-1", FiscalYear: 2025, Period: "1", Status: domain.StatusApprovedProvincial, Version: 5}
	return NewTransitionEvent(a, domain.StatusSubmitted, domain.ApprovalHistory{
		Action: domain.ActionApprove, PerformedBy: "prov-1", Comment: "ok",
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestNewTransitionEvent(t *testing.T) {
	ev := sampleEvent()
	assert.Equal(t, "h-1", ev.FacilityID)
	assert.Equal(t, domain.StatusSubmitted, ev.FromStatus)
	assert.Equal(t, domain.StatusApprovedProvincial, ev.ToStatus)
	assert.Equal(t, 5, ev.Version)
}

func TestMQTTPublisher(t *testing.T) {
	c := &fakeMQTT{}
	p := NewMQTTPublisher(c, "")

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "ctam/assessments/a-1/status", c.topic)
	assert.True(t, c.retained)

	var got TransitionEvent
	require.NoError(t, json.Unmarshal(c.payload, &got))
	assert.Equal(t, domain.ActionApprove, got.Action)
}

func TestLogged_SwallowsErrors(t *testing.T) {
	c := &fakeMQTT{err: errors.New("broker down")}
	l := NewLogged(NewMQTTPublisher(c, "x/y/"), zap.NewNop())

	assert.NoError(t, l.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "x/y/a-1/status", c.topic)
}

func TestStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer c.Close()

	p := NewStreamPublisher(c, "", 100)
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	msgs, err := c.XRange(context.Background(), DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "a-1", msgs[0].Values["assessment_id"])
	assert.Equal(t, "approved_provincial", msgs[0].Values["to_status"])
	assert.Equal(t, "5", msgs[0].Values["version"])
}
