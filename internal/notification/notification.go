// Package notification is the delivery boundary for auth emails. Dispatch is
// fire-and-forget: the core flows never block on, or retry, email delivery.
package notification

import (
	"context"
	"log/slog"

	"github.com/xvariate/auth-api/internal/notification/templates"
)

// emailSender sends a rendered email. Not exposed outside the package.
type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service is the notification sink the auth flows depend on.
type Service interface {
	// SendVerification emails a verification link for confirming an address.
	SendVerification(ctx context.Context, email, link, firstName string)

	// SendTwoFactorOTP emails a 6-digit two-factor code.
	SendTwoFactorOTP(ctx context.Context, email, otp string)

	// SendPasswordReset emails a password reset link.
	SendPasswordReset(ctx context.Context, email, link, firstName string)
}

type service struct {
	log    *slog.Logger
	engine *templates.Engine
	sender emailSender
}

// NewService creates the notification service backed by the given sender.
func NewService(log *slog.Logger, engine *templates.Engine, sender emailSender) Service {
	return &service{log: log, engine: engine, sender: sender}
}

func (s *service) SendVerification(ctx context.Context, email, link, firstName string) {
	s.dispatch(ctx, email, templates.VerifyEmail.ID(), templates.VerifyEmailData{
		FirstName: firstName,
		Link:      link,
	})
}

func (s *service) SendTwoFactorOTP(ctx context.Context, email, otp string) {
	s.dispatch(ctx, email, templates.TwoFactorOTP.ID(), templates.TwoFactorOTPData{
		OTP: otp,
	})
}

func (s *service) SendPasswordReset(ctx context.Context, email, link, firstName string) {
	s.dispatch(ctx, email, templates.PasswordReset.ID(), templates.PasswordResetData{
		FirstName: firstName,
		Link:      link,
	})
}

// dispatch renders the scenario and sends it on a separate goroutine.
// Failures are logged for monitoring; they never propagate to the caller.
func (s *service) dispatch(ctx context.Context, recipient, templateID string, data any) {
	rendered, err := s.engine.RenderAny(ctx, templateID, data)
	if err != nil {
		s.log.Error("failed to render notification template", "template", templateID, "error", err)
		return
	}

	go func() {
		s.log.Info("dispatching email notification", "recipient", recipient, "template", templateID)
		if err := s.sender.Send(context.WithoutCancel(ctx), recipient, rendered.Subject, rendered.EmailHTML); err != nil {
			s.log.Error("failed to send notification", "recipient", recipient, "template", templateID, "error", err)
		}
	}()
}
