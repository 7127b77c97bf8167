package notify

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"

	appconfig "riskeval/internal/common/config"
	stderrors "riskeval/internal/common/errors"
	"riskeval/internal/common/logger"
	"riskeval/internal/models"
)

// ==========================
// Mocks
// ==========================

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	input *sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func notifyConfig(email, sms bool) appconfig.NotificationConfig {
	var cfg appconfig.NotificationConfig
	cfg.Email.Enabled = email
	cfg.Email.FromEmail = "noreply@riskeval.example"
	cfg.Email.ToEmail = "riesgos@riskeval.example"
	cfg.SMS.Enabled = sms
	cfg.SMS.PhoneNumber = "+5215555555555"
	cfg.AWS.Region = "us-east-1"
	return cfg
}

func notifyRecord() *models.EvaluationRecord {
	record := &models.EvaluationRecord{
		SessionID:        "session-1",
		CompanyName:      "Acme SA",
		Sector:           "manufactura",
		OverallRiskLevel: models.RiskAdvanced,
		OverallScore:     25,
		ApproverProfile:  models.ApproverFor(models.RiskAdvanced),
		CreatedAt:        time.Now().UTC(),
	}
	for _, cat := range models.Categories() {
		record.StageResults = append(record.StageResults, models.StageResult{
			Category: cat,
			Status:   models.StageSucceeded,
			Payload:  map[string]interface{}{},
		})
	}
	return record
}

// ==========================
// Tests
// ==========================

func TestEvaluationCompleted_EmailOnly(t *testing.T) {
	sesMock := &mockSES{}
	n := &Notifier{cfg: notifyConfig(true, false), logger: logger.Nop(), sesClient: sesMock}

	err := n.EvaluationCompleted(context.Background(), notifyRecord())

	assert.NoError(t, err)
	assert.NotNil(t, sesMock.input)
	assert.Equal(t, "noreply@riskeval.example", *sesMock.input.Source)
	assert.Contains(t, sesMock.input.Destination.ToAddresses, "riesgos@riskeval.example")
	assert.Contains(t, *sesMock.input.Message.Subject.Data, "Acme SA")
	assert.Contains(t, *sesMock.input.Message.Body.Text.Data, "AVANZADO")
}

func TestEvaluationCompleted_BothChannels(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := &Notifier{cfg: notifyConfig(true, true), logger: logger.Nop(), sesClient: sesMock, snsClient: snsMock}

	err := n.EvaluationCompleted(context.Background(), notifyRecord())

	assert.NoError(t, err)
	assert.NotNil(t, sesMock.input)
	assert.NotNil(t, snsMock.input)
	assert.Equal(t, "+5215555555555", *snsMock.input.PhoneNumber)
	assert.Contains(t, *snsMock.input.Message, "25/100")
}

func TestEvaluationCompleted_EmailFailureDoesNotBlockSMS(t *testing.T) {
	sesMock := &mockSES{err: assert.AnError}
	snsMock := &mockSNS{}
	n := &Notifier{cfg: notifyConfig(true, true), logger: logger.Nop(), sesClient: sesMock, snsClient: snsMock}

	err := n.EvaluationCompleted(context.Background(), notifyRecord())

	assert.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeNotificationSendFailed, stderrors.CodeOf(err))
	assert.NotNil(t, snsMock.input, "SMS should still be attempted")
}

func TestEvaluationCompleted_AllDisabled(t *testing.T) {
	n := &Notifier{cfg: notifyConfig(false, false), logger: logger.Nop()}

	assert.NoError(t, n.EvaluationCompleted(context.Background(), notifyRecord()))
}

func TestMessageBody_DegradedWarning(t *testing.T) {
	n := &Notifier{cfg: notifyConfig(true, false), logger: logger.Nop()}
	record := notifyRecord()
	record.StageResults[0].Status = models.StageDegraded
	record.StageResults[1].Status = models.StageDegraded

	body := n.messageBody(record)

	assert.Contains(t, body, "2 análisis degradados")
}
