package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	appconfig "riskeval/internal/common/config"
	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/logger"
	"riskeval/internal/models"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier announces finished evaluations over email and SMS. Each channel is
// independently config-gated; a disabled channel is skipped silently, a failed
// send is reported but does not block the other channel.
type Notifier struct {
	cfg       appconfig.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewNotifier(ctx context.Context, cfg appconfig.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{
		cfg: cfg,
		logger: log.With(map[string]interface{}{
			"component": "notifier",
		}),
	}

	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return n, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	n.sesClient = ses.NewFromConfig(awsCfg)
	n.snsClient = sns.NewFromConfig(awsCfg)

	return n, nil
}

// EvaluationCompleted sends the completion notice for a finished record on
// every enabled channel. It returns the last channel error, if any; callers
// treat notification failures as non-fatal.
func (n *Notifier) EvaluationCompleted(ctx context.Context, record *models.EvaluationRecord) error {
	subject := fmt.Sprintf("Evaluación financiera completada: %s", record.CompanyName)
	body := n.messageBody(record)

	var lastErr error

	if n.cfg.Email.Enabled {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			n.logger.Error("email notification failed", map[string]interface{}{
				"sessionId": record.SessionID,
				"error":     err.Error(),
			})
			lastErr = stderrors.NewNotificationSendFailedError("email", err)
		}
	}

	if n.cfg.SMS.Enabled {
		if err := n.sendSMS(ctx, n.smsBody(record)); err != nil {
			n.logger.Error("SMS notification failed", map[string]interface{}{
				"sessionId": record.SessionID,
				"error":     err.Error(),
			})
			lastErr = stderrors.NewNotificationSendFailedError("sms", err)
		}
	}

	return lastErr
}

func (n *Notifier) messageBody(record *models.EvaluationRecord) string {
	degraded := record.DegradedCount(models.Categories())
	body := fmt.Sprintf(
		"La evaluación de %s (sector %s) ha finalizado.\n\nNivel de riesgo: %s\nPuntuación: %d/100\nPerfil de aprobador: %s\nSesión: %s",
		record.CompanyName, record.Sector,
		record.OverallRiskLevel, record.OverallScore,
		record.ApproverProfile.Profile, record.SessionID,
	)
	if degraded > 0 {
		body += fmt.Sprintf("\n\nAdvertencia: %d análisis degradados por fallas del servicio.", degraded)
	}
	return body
}

func (n *Notifier) smsBody(record *models.EvaluationRecord) string {
	return fmt.Sprintf("Evaluación %s: %s (%d/100). Aprobador: %s.",
		record.CompanyName, record.OverallRiskLevel, record.OverallScore, record.ApproverProfile.Profile)
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.cfg.Email.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(n.cfg.SMS.PhoneNumber),
		Message:     aws.String(message),
	}
	if n.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.cfg.SMS.SenderID),
			},
		}
	}
	_, err := n.snsClient.Publish(ctx, input)
	return err
}
