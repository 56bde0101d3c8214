package mail

import (
	"context"
	"fmt"
	"html"
	"regexp"

	"go.uber.org/zap"
)

// Sender delivers a single HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

var verificationCodePattern = regexp.MustCompile(`인증번호는 (\d{6}) 입니다`)

// VerificationBody renders the HTML body carrying a verification code.
func VerificationBody(code string) string {
	return fmt.Sprintf("<h2>인증번호는 %s 입니다</h2>", html.EscapeString(code))
}

// CodeFromBody extracts the code embedded by VerificationBody.
func CodeFromBody(body string) (string, bool) {
	m := verificationCodePattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender constructs a sender for local development.
func NewLogSender(from string, logger *zap.Logger) *LogSender {
	return &LogSender{from: from, logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("mail.send",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", htmlBody))
	return nil
}
