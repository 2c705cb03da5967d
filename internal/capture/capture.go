// internal/capture/capture.go
//
// Pre-send mail capture.
//
// Context
// -------
// The mailer calls Hook() for every outgoing message just before it dials
// SMTP.  Capture turns the message into one `email_log` row and writes it
// through the store.  It must never disturb delivery: every error and
// panic is recovered, logged, counted, and dropped.
//
// Workflow
// --------
//  1. Skip when the settings switch is off.
//  2. Extract recipients, subject, and body (see Extract).
//  3. Insert with status "Sent" under capture.timeout.
//
// Notes
// -----
//   - The row is written before delivery resolves, so a send that later
//     fails is still logged as "Sent".  Nothing corrects it afterwards.
//   - There are no retries.
//   - Oxford commas, two spaces after periods.
package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/metrics"
)

// DefaultTimeout bounds one capture insert.
const DefaultTimeout = 2 * time.Second

// Message is the read-only view of an outgoing mail the capturer needs.
type Message interface {
	ToAddresses() []string
	CcAddresses() []string
	BccAddresses() []string
	Subject() string
	Body() string
	AltBody() string
}

// Inserter is the single store call capture makes.
type Inserter interface {
	Insert(ctx context.Context, f logstore.Fields) (int64, error)
}

// Capturer records outgoing mail.  Safe for concurrent use.
type Capturer struct {
	store   Inserter
	log     *zap.SugaredLogger
	timeout time.Duration
	enabled func() bool
}

// Option customises a Capturer.
type Option func(*Capturer)

// WithLogger sets the logger.  Default is zap.S().
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Capturer) { c.log = l }
}

// WithTimeout bounds each insert.  Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSwitch makes capture consult fn before every message.  It is read
// per call so a config reload takes effect immediately.
func WithSwitch(fn func() bool) Option {
	return func(c *Capturer) { c.enabled = fn }
}

// New returns a Capturer writing to store.
func New(store Inserter, opts ...Option) *Capturer {
	c := &Capturer{
		store:   store,
		timeout: DefaultTimeout,
		enabled: func() bool { return true },
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.S()
	}
	return c
}

// Capture records msg.  It never returns an error and never panics.
func (c *Capturer) Capture(ctx context.Context, msg Message) {
	if !c.enabled() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.CaptureErrorsTotal.Inc()
			c.log.Errorw("mail capture panic", "panic", fmt.Sprint(r))
		}
	}()

	f := Extract(msg)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.store.Insert(ctx, f)
	if err != nil {
		metrics.CaptureErrorsTotal.Inc()
		c.log.Errorw("mail capture failed", "to", f.ToEmail, "err", err)
		return
	}
	metrics.CapturedTotal.Inc()
	c.log.Debugw("mail captured", "id", id, "to", f.ToEmail)
}

// Hook adapts Capture to the mailer's pre-send hook signature.
func (c *Capturer) Hook() func(context.Context, Message) {
	return c.Capture
}

// Extract maps a message onto log fields.  Recipients come from the first
// non-empty tier of To, Cc, and Bcc; tiers are never mixed.  The body is
// Body, or AltBody when Body is empty.
func Extract(msg Message) logstore.Fields {
	to := msg.ToAddresses()
	if len(nonEmpty(to)) == 0 {
		to = msg.CcAddresses()
	}
	if len(nonEmpty(to)) == 0 {
		to = msg.BccAddresses()
	}

	body := msg.Body()
	if body == "" {
		body = msg.AltBody()
	}

	return logstore.Fields{
		ToEmail: strings.Join(nonEmpty(to), ", "),
		Subject: msg.Subject(),
		Body:    body,
		Status:  logstore.StatusSent,
	}
}

func nonEmpty(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
