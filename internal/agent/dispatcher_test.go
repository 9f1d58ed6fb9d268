package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

type echoService struct {
	err error
}

func (s *echoService) ProcessMessage(_ context.Context, req MessageRequest) (*Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Response{ConversationID: req.ConversationID, Message: "echo: " + req.Message}, nil
}

func (s *echoService) GetHistory(context.Context, string) ([]StoredMessage, error) {
	return nil, nil
}

func TestQueueDispatcherRoundTrip(t *testing.T) {
	d := NewQueueDispatcher(&echoService{}, NewMemoryQueue(8), logging.New("error"), WithWorkerCount(1))
	defer func() { _ = d.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	resp, err := d.ProcessMessage(ctx, MessageRequest{ConversationID: "conv-1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "echo: hi", resp.Message)
}

func TestQueueDispatcherPropagatesErrors(t *testing.T) {
	d := NewQueueDispatcher(&echoService{err: errors.New("engine down")}, NewMemoryQueue(8), logging.New("error"), WithWorkerCount(1))
	defer func() { _ = d.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, err := d.ProcessMessage(ctx, MessageRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine down")
}

func TestQueueDispatcherShutdown(t *testing.T) {
	d := NewQueueDispatcher(&echoService{}, NewMemoryQueue(8), logging.New("error"), WithWorkerCount(2))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
}

func TestMemoryQueueReceiveTimeout(t *testing.T) {
	q := NewMemoryQueue(1)

	messages, err := q.Receive(t.Context(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMemoryQueueBatching(t *testing.T) {
	q := NewMemoryQueue(8)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Send(t.Context(), "msg"))
	}

	messages, err := q.Receive(t.Context(), 5, 1)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}
