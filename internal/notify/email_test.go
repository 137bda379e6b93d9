package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "clinic@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "clinic@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != defaultFromName {
		t.Errorf("expected default from name %q, got %q", defaultFromName, sender.fromName)
	}
}

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSender_SendsAttachment(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := &SendGridSender{client: fake, fromEmail: "clinic@example.com", fromName: "Clinic", logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "patient@example.com",
		ToName:  "Rahim",
		Subject: "Appointment confirmed (2025-10-01-001)",
		Body:    "text",
		HTML:    "<p>html</p>",
		Attachments: []Attachment{{
			Filename:    "appointment-2025-10-01-001.html",
			ContentType: "text/html",
			Content:     []byte("<p>slip</p>"),
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, fake.sent)
	assert.Equal(t, "Appointment confirmed (2025-10-01-001)", fake.sent.Subject)
	require.Len(t, fake.sent.Attachments, 1)
	assert.Equal(t, "appointment-2025-10-01-001.html", fake.sent.Attachments[0].Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("<p>slip</p>")), fake.sent.Attachments[0].Content)
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	sender := &SendGridSender{client: &fakeSendGrid{status: 401}, logger: logging.Default()}
	err := sender.Send(context.Background(), EmailMessage{To: "patient@example.com"})
	assert.Error(t, err)

	sender = &SendGridSender{client: &fakeSendGrid{err: errors.New("dial tcp")}, logger: logging.Default()}
	err = sender.Send(context.Background(), EmailMessage{To: "patient@example.com"})
	assert.Error(t, err)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{client: nil}
	if err := sender.Send(context.Background(), EmailMessage{To: "patient@example.com"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "patient@example.com", Subject: "s"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, input *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "clinic@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "patient@example.com",
		Subject: "Appointment request received (2025-10-01-001)",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinic Appointments <clinic@example.com>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"patient@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "plain", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
}

func TestSESSender_Error(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{}, nil)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "patient@example.com"}))
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
