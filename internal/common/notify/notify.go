// Package notify delivers advice replies by SMS (AWS SNS) and email (AWS SES).
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"margadarshak/internal/common/config"
	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	emailSubject = "Your Margadarshak business advice"
	smsMaxLength = 1600
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Recipient is where a reply should go. Empty fields are skipped.
type Recipient struct {
	Phone string
	Email string
}

// Result lists the channels a reply was delivered on.
type Result struct {
	Sent   []string
	Failed map[string]error
}

type Notifier struct {
	emailEnabled bool
	smsEnabled   bool
	fromEmail    string
	senderID     string
	ses          SESService
	sns          SNSService
	logger       logger.Logger
}

// New loads the default AWS credential chain for the configured region. It
// returns a nil Notifier when neither channel is enabled.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewWithClients(cfg, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), log), nil
}

func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		emailEnabled: cfg.Email.Enabled,
		smsEnabled:   cfg.SMS.Enabled,
		fromEmail:    cfg.Email.FromEmail,
		senderID:     cfg.SMS.SenderID,
		ses:          sesClient,
		sns:          snsClient,
		logger:       log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Deliver sends message on every enabled channel the recipient has. A nil
// Notifier delivers nothing.
func (n *Notifier) Deliver(ctx context.Context, to Recipient, message string) Result {
	res := Result{Failed: map[string]error{}}
	if n == nil {
		return res
	}

	if n.smsEnabled && to.Phone != "" {
		if err := n.sendSMS(ctx, to.Phone, message); err != nil {
			res.Failed[ChannelSMS] = apperrors.NewNotificationSendFailedError(ChannelSMS, err)
			n.logger.Warn("SMS send failed", map[string]interface{}{"error": err})
		} else {
			res.Sent = append(res.Sent, ChannelSMS)
		}
	}

	if n.emailEnabled && to.Email != "" {
		if err := n.sendEmail(ctx, to.Email, message); err != nil {
			res.Failed[ChannelEmail] = apperrors.NewNotificationSendFailedError(ChannelEmail, err)
			n.logger.Warn("email send failed", map[string]interface{}{"error": err})
		} else {
			res.Sent = append(res.Sent, ChannelEmail)
		}
	}

	return res
}

func (n *Notifier) sendEmail(ctx context.Context, to, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(emailSubject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	if r := []rune(message); len(r) > smsMaxLength {
		message = string(r[:smsMaxLength])
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(strings.TrimSpace(to)),
		Message:     aws.String(message),
	}
	if n.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.senderID)},
		}
	}

	if _, err := n.sns.Publish(ctx, input); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}
	return nil
}
