package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"atelier/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *recordingAck) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func deliveryFor(t *testing.T, ev Event, ack amqp.Acknowledger, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body, Redelivered: redelivered}
}

func TestFromRequest(t *testing.T) {
	r := &models.DesignRequest{
		ID:           7,
		OwnerID:      3,
		Owner:        &models.User{ID: 3, Email: "owner@example.com", DisplayName: "Анна"},
		Title:        "Kitchen",
		Status:       models.RequestStatusAccepted,
		AdminComment: "starting",
	}
	ev := FromRequest(RequestAccepted, r)
	assert.Equal(t, RequestAccepted, ev.Type)
	assert.Equal(t, uint(7), ev.RequestID)
	assert.Equal(t, "owner@example.com", ev.OwnerEmail)
	assert.Equal(t, "accepted", ev.Status)
	assert.False(t, ev.OccurredAt.IsZero())

	ev = FromRequest(RequestDeleted, &models.DesignRequest{ID: 1, OwnerID: 2})
	assert.Empty(t, ev.OwnerEmail)
}

func TestTypeForStatus(t *testing.T) {
	typ, ok := TypeForStatus(models.RequestStatusCompleted)
	assert.True(t, ok)
	assert.Equal(t, RequestCompleted, typ)

	_, ok = TypeForStatus(models.RequestStatusNew)
	assert.False(t, ok)
}

func TestDispatchAcksOnSuccess(t *testing.T) {
	ack := &recordingAck{}
	var got Event
	Dispatch(context.Background(), deliveryFor(t, Event{Type: RequestCompleted, RequestID: 9}, ack, false),
		func(_ context.Context, ev Event) error {
			got = ev
			return nil
		})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, uint(9), got.RequestID)
}

func TestDispatchRequeuesFirstFailureOnly(t *testing.T) {
	failing := func(context.Context, Event) error { return errors.New("smtp down") }

	ack := &recordingAck{}
	Dispatch(context.Background(), deliveryFor(t, Event{Type: RequestAccepted}, ack, false), failing)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)

	ack = &recordingAck{}
	Dispatch(context.Background(), deliveryFor(t, Event{Type: RequestAccepted}, ack, true), failing)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestDispatchDropsMalformed(t *testing.T) {
	ack := &recordingAck{}
	called := false
	Dispatch(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("{")},
		func(context.Context, Event) error {
			called = true
			return nil
		})
	assert.False(t, called)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
