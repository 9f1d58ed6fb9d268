package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestNotifyApprovalNeeded(t *testing.T) {
	sender := &recordingSender{}
	n := NewApprovalNotifier(sender, "ferris@sickdaywithferris.band", "Ferris", "https://booking.sickdaywithferris.band/", logging.New("error"))
	require.NotNil(t, n)

	err := n.NotifyApprovalNeeded(context.Background(), "conv-1", "pending_approval", "We accept the $1,500 offer.")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "ferris@sickdaywithferris.band", msg.To)
	assert.Equal(t, "Booking agent needs approval: pending_approval", msg.Subject)
	assert.Contains(t, msg.Body, "Conversation: conv-1")
	assert.Contains(t, msg.Body, "We accept the $1,500 offer.")
	assert.Contains(t, msg.Body, "https://booking.sickdaywithferris.band/agent/conversations/conv-1/messages")
}

func TestNotifyApprovalNeededSendFailure(t *testing.T) {
	n := NewApprovalNotifier(&recordingSender{err: errors.New("smtp down")}, "ferris@sickdaywithferris.band", "", "", logging.New("error"))
	require.NotNil(t, n)

	err := n.NotifyApprovalNeeded(context.Background(), "conv-1", "contract_approval_needed", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval notification failed")
}

func TestNewApprovalNotifierUnconfigured(t *testing.T) {
	assert.Nil(t, NewApprovalNotifier(nil, "ferris@sickdaywithferris.band", "", "", nil))
	assert.Nil(t, NewApprovalNotifier(&recordingSender{}, "  ", "", "", nil))
}
