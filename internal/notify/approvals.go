package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// ApprovalNotifier emails the band admin when the agent drafts a reply that
// needs human sign-off.
type ApprovalNotifier struct {
	email      EmailSender
	adminEmail string
	adminName  string
	baseURL    string
	logger     *logging.Logger
}

// NewApprovalNotifier creates an approval notifier. Returns nil when no
// admin email is configured so callers can wire it unconditionally.
func NewApprovalNotifier(email EmailSender, adminEmail, adminName, baseURL string, logger *logging.Logger) *ApprovalNotifier {
	if email == nil || strings.TrimSpace(adminEmail) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ApprovalNotifier{
		email:      email,
		adminEmail: adminEmail,
		adminName:  adminName,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// NotifyApprovalNeeded sends the held draft to the admin for review.
func (n *ApprovalNotifier) NotifyApprovalNeeded(ctx context.Context, conversationID, nextAction, summary string) error {
	subject := fmt.Sprintf("Booking agent needs approval: %s", nextAction)

	var body strings.Builder
	fmt.Fprintf(&body, "The booking agent drafted a reply that needs your approval.\n\n")
	fmt.Fprintf(&body, "Conversation: %s\n", conversationID)
	fmt.Fprintf(&body, "Action: %s\n\n", nextAction)
	if summary != "" {
		fmt.Fprintf(&body, "Draft:\n%s\n", summary)
	}
	if n.baseURL != "" {
		fmt.Fprintf(&body, "\nReview: %s/agent/conversations/%s/messages\n", n.baseURL, conversationID)
	}

	if err := n.email.Send(ctx, EmailMessage{
		To:      n.adminEmail,
		ToName:  n.adminName,
		Subject: subject,
		Body:    body.String(),
	}); err != nil {
		return fmt.Errorf("notify: approval notification failed: %w", err)
	}

	n.logger.Info("approval notification sent",
		"conversation_id", conversationID, "next_action", nextAction)
	return nil
}
