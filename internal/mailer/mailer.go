package mailer

import (
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

// Mailer delivers transactional email. The auth flows only depend on
// this narrow contract; template rendering stays with the provider.
type Mailer interface {
	SendWelcome(user *models.User, url string) error
	SendPasswordReset(user *models.User, resetURL string) error
}

// SendgridMailer sends through the SendGrid API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgrid(apiKey, fromAddress string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Natours Team", fromAddress),
	}
}

func (m *SendgridMailer) SendWelcome(user *models.User, url string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to the Natours family! Visit %s to complete your profile.",
		firstName(user), url,
	)
	return m.send(user, "Welcome to the Natours Family!", body)
}

func (m *SendgridMailer) SendPasswordReset(user *models.User, resetURL string) error {
	body := fmt.Sprintf(
		"Forgot your password? Submit a request with your new password and password confirmation to: %s\n"+
			"If you didn't forget your password, please ignore this email!",
		resetURL,
	)
	return m.send(user, "Your password reset token (valid for only 10 mins)", body)
}

func (m *SendgridMailer) send(user *models.User, subject, text string) error {
	to := mail.NewEmail(user.Name, user.Email)
	message := mail.NewSingleEmail(m.from, subject, to, text, "")

	response, err := m.client.Send(message)
	if err != nil {
		logger.Log.Error("Failed to send email",
			zap.String("to", user.Email),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}
	if response.StatusCode >= 400 {
		logger.Log.Error("Mail provider rejected email",
			zap.String("to", user.Email),
			zap.Int("status_code", response.StatusCode),
			zap.String("body", response.Body),
		)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	logger.Log.Debug("Email sent",
		zap.String("to", user.Email),
		zap.String("subject", subject),
	)
	return nil
}

func firstName(user *models.User) string {
	if parts := strings.Fields(user.Name); len(parts) > 0 {
		return parts[0]
	}
	return user.Name
}
