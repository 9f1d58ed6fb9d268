package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// SESSender delivers through the AWS SES v2 API.
type SESSender struct {
	client *sesv2.Client
	from   string
	logger *logging.Logger
}

// SESConfig holds the SES sender identity.
type SESConfig struct {
	FromEmail string
	FromName  string
}

// NewSESSender returns nil when no SES client is available so callers can
// fall through to another provider.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SESSender{
		client: client,
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

var _ EmailSender = (*SESSender)(nil)

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	body := &types.Body{}
	if msg.Body != "" {
		body.Text = sesContent(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = sesContent(msg.HTML)
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: sesContent(msg.Subject),
				Body:    body,
			},
		},
	})
	if err != nil {
		s.logger.Error("ses send failed", "to", msg.To, "error", err)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("email sent",
		"provider", "ses", "to", msg.To, "subject", msg.Subject,
		"message_id", aws.ToString(out.MessageId))
	return nil
}

func sesContent(data string) *types.Content {
	return &types.Content{
		Data:    aws.String(data),
		Charset: aws.String("UTF-8"),
	}
}
