// internal/tester/tester.go
//
// Test-email sender.
//
// Context
// -------
// Operators use the test endpoint to prove the install can send mail.
// Sender validates the address, fills in a default subject and body when
// the caller leaves them empty, sanitizes caller input, and hands the
// message to the Transport.  The outcome is always a Result; the request
// layer reads Result.Err to pick a status code.
//
// Notes
// -----
//   - An invalid address short-circuits: the transport is never called.
//   - HTML is chosen per send through the Transport's html flag, so it
//     never changes the default for later sends.
//   - The send goes through the mailer's hooks, so a test email is logged
//     like any other.
package tester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/metrics"
	"github.com/yanizio/maillog/internal/sanitize"
	"github.com/yanizio/maillog/internal/validation"
)

// ErrSendFailed wraps every transport failure.
var ErrSendFailed = errors.New("test email send failed")

// Transport is the send primitive.  *mailer.Mailer satisfies it.
type Transport interface {
	Send(ctx context.Context, to, subject, body string, html bool) error
}

// Site feeds the default subject and body.
type Site struct {
	Name string
	URL  string
}

// Result is the outcome reported to callers.  Err is nil on success, a
// *validation.Error for bad input, or wraps ErrSendFailed.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Sender is safe for concurrent use.
type Sender struct {
	transport Transport
	site      Site
	log       *zap.SugaredLogger
	now       func() time.Time
}

// New returns a Sender.  log may be nil.
func New(t Transport, site Site, log *zap.SugaredLogger) *Sender {
	if log == nil {
		log = zap.S()
	}
	return &Sender{transport: t, site: site, log: log, now: time.Now}
}

// Validate checks a recipient address.
func (s *Sender) Validate(addr string) error {
	return validation.Email(addr)
}

// SendPlain sends a plain-text test email.
func (s *Sender) SendPlain(ctx context.Context, to, subject, body string) Result {
	return s.send(ctx, to, subject, body, false)
}

// SendHTML sends an HTML test email.
func (s *Sender) SendHTML(ctx context.Context, to, subject, body string) Result {
	return s.send(ctx, to, subject, body, true)
}

// variant holds the per-format wording.
type variant struct {
	format string
	sent   string
	failed string
}

var (
	plainVariant = variant{
		format: "plain",
		sent:   "Test email sent successfully to %s",
		failed: "Failed to send test email. Please check your email configuration.",
	}
	htmlVariant = variant{
		format: "html",
		sent:   "HTML test email sent successfully to %s",
		failed: "Failed to send HTML test email. Please check your email configuration.",
	}
)

func (s *Sender) send(ctx context.Context, to, subject, body string, html bool) Result {
	vr := plainVariant
	if html {
		vr = htmlVariant
	}
	format := vr.format

	if err := s.Validate(to); err != nil {
		metrics.TestEmailTotal.WithLabelValues(format, "invalid").Inc()
		return Result{Message: err.Error(), Err: err}
	}

	to = sanitize.Address(to)
	if subject == "" {
		subject = s.defaultSubject()
	}
	subject = sanitize.Text(subject)

	switch {
	case body == "" && html:
		body = s.defaultHTML()
	case body == "":
		body = s.defaultPlain()
	case html:
		body = sanitize.HTML(body)
	default:
		body = sanitize.StripTags(body)
	}

	if err := s.transport.Send(ctx, to, subject, body, html); err != nil {
		metrics.TestEmailTotal.WithLabelValues(format, "error").Inc()
		s.log.Warnw("test email failed", "to", to, "format", format, "err", err)
		return Result{
			Message: vr.failed,
			Err:     fmt.Errorf("%w: %w", ErrSendFailed, err),
		}
	}

	metrics.TestEmailTotal.WithLabelValues(format, "ok").Inc()
	s.log.Infow("test email sent", "to", to, "format", format)
	return Result{
		Success: true,
		Message: fmt.Sprintf(vr.sent, to),
	}
}
