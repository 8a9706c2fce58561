package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jwalitptl/records-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(chan []byte)
	return ch, args.Error(1)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func TestEventPublisherWrapsPayload(t *testing.T) {
	broker := new(mockBroker)
	m := metrics.NewMetrics(prometheus.NewRegistry(), "records", "test")
	p := NewEventPublisher(broker, "records.events", m)
	p.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }

	broker.On("Publish", mock.Anything, "records.events", mock.MatchedBy(func(msg Message) bool {
		return msg.Type == PatientCreated &&
			msg.ID != "" &&
			msg.OccurredAt.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) &&
			msg.Payload == "payload"
	})).Return(nil).Once()

	require.NoError(t, p.Publish(context.Background(), PatientCreated, "payload"))
	broker.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(PatientCreated, "success")))
}

func TestEventPublisherReturnsBrokerError(t *testing.T) {
	broker := new(mockBroker)
	p := NewEventPublisher(broker, "records.events", nil)

	broker.On("Publish", mock.Anything, "records.events", mock.Anything).Return(errors.New("circuit breaker is open")).Once()

	err := p.Publish(context.Background(), NoteDeleted, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), NoteDeleted)
}

func TestConsume(t *testing.T) {
	broker := new(mockBroker)
	ch := make(chan []byte, 3)

	good, err := json.Marshal(Message{ID: "1", Type: NoteCreated})
	require.NoError(t, err)
	ch <- []byte("not json")
	ch <- good
	close(ch)

	broker.On("Subscribe", mock.Anything, "records.events").Return(ch, nil).Once()

	var got []Message
	var errs []error
	err = Consume(context.Background(), broker, "records.events",
		func(msg Message) error {
			got = append(got, msg)
			return nil
		},
		func(err error) { errs = append(errs, err) },
	)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, NoteCreated, got[0].Type)
	assert.Len(t, errs, 1)
}

func TestConsumeSubscribeError(t *testing.T) {
	broker := new(mockBroker)
	broker.On("Subscribe", mock.Anything, "records.events").Return(nil, errors.New("connection refused")).Once()

	err := Consume(context.Background(), broker, "records.events",
		func(Message) error { return nil },
		func(error) {},
	)
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), PatientDeleted, nil))
}
