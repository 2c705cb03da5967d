// internal/mailer/mailer.go
//
// SMTP send primitive with pre-send hooks.
//
// Context
// -------
// Mailer is the one place maillog talks SMTP.  Before every send it runs
// the registered hooks with a read-only view of the message; the capture
// hook uses that to write the log row.  Hooks cannot veto or alter a send,
// and a panicking hook is recovered.
//
// Workflow
// --------
//  1. Build an Envelope (Send does this for single-recipient callers).
//  2. Render a gomail message.  HTML bodies get a text/plain alternative.
//  3. Run hooks synchronously, in registration order.
//  4. Dial, send, close.
//
// Notes
// -----
//   - Content type is per message.  Selecting HTML for one send never
//     changes the configured default.
//   - gomail has no context support; ctx is checked before dialling only.
//   - Oxford commas, two spaces after periods.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/yanizio/maillog/internal/capture"
	"github.com/yanizio/maillog/internal/config"
	"github.com/yanizio/maillog/internal/metrics"
	"github.com/yanizio/maillog/internal/sanitize"
)

// Content types accepted by Envelope.
const (
	TextPlain = "text/plain"
	TextHTML  = "text/html"
)

// ErrNoRecipients is returned when an envelope has no To, Cc, or Bcc.
var ErrNoRecipients = errors.New("mailer: message has no recipients")

// Dialer opens an SMTP session.  *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Hook observes a message just before it is sent.
type Hook func(ctx context.Context, msg capture.Message)

// Envelope is one outgoing message.
type Envelope struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	ContentType string // empty means the configured default
}

// Mailer is safe for concurrent use once hooks are registered.
type Mailer struct {
	from        string
	contentType string
	dialer      Dialer
	hooks       []Hook
	log         *zap.SugaredLogger
}

// New builds a Mailer from cfg.  A nil dialer means a real gomail dialer
// for cfg.Host.
func New(cfg config.Mail, d Dialer, log *zap.SugaredLogger) *Mailer {
	if log == nil {
		log = zap.S()
	}
	if d == nil {
		gd := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		gd.TLSConfig = &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.SkipTLSVerify,
		}
		if cfg.SkipTLSVerify {
			log.Warnw("smtp tls verification disabled", "host", cfg.Host)
		}
		d = gd
	}
	ct := cfg.ContentType
	if ct == "" {
		ct = TextPlain
	}
	return &Mailer{from: cfg.From, contentType: ct, dialer: d, log: log}
}

// Use registers a pre-send hook.  Call during wiring, before any send.
func (m *Mailer) Use(h Hook) {
	m.hooks = append(m.hooks, h)
}

// Send delivers one message.  to may be a comma-separated list.  html
// selects text/html for this message only.
func (m *Mailer) Send(ctx context.Context, to, subject, body string, html bool) error {
	env := Envelope{To: splitList(to), Subject: subject, Body: body}
	if html {
		env.ContentType = TextHTML
	}
	return m.SendMessage(ctx, env)
}

// SendMessage delivers env.
func (m *Mailer) SendMessage(ctx context.Context, env Envelope) error {
	if len(env.To)+len(env.Cc)+len(env.Bcc) == 0 {
		return ErrNoRecipients
	}
	if env.ContentType == "" {
		env.ContentType = m.contentType
	}

	view := newView(env)
	for _, h := range m.hooks {
		m.runHook(ctx, h, view)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	sc, err := m.dialer.Dial()
	if err != nil {
		metrics.MailSentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("mailer: dial: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m.render(env, view.alt)); err != nil {
		metrics.MailSentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("mailer: send: %w", err)
	}
	metrics.MailSentTotal.WithLabelValues("ok").Inc()
	m.log.Infow("mail sent", "to", strings.Join(env.To, ", "), "content_type", env.ContentType)
	return nil
}

func (m *Mailer) render(env Envelope, alt string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	if len(env.To) > 0 {
		msg.SetHeader("To", env.To...)
	}
	if len(env.Cc) > 0 {
		msg.SetHeader("Cc", env.Cc...)
	}
	if len(env.Bcc) > 0 {
		msg.SetHeader("Bcc", env.Bcc...)
	}
	msg.SetHeader("Subject", env.Subject)

	if env.ContentType == TextHTML {
		msg.SetBody(TextPlain, alt)
		msg.AddAlternative(TextHTML, env.Body)
	} else {
		msg.SetBody(TextPlain, env.Body)
	}
	return msg
}

func (m *Mailer) runHook(ctx context.Context, h Hook, v view) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("mail hook panic", "panic", fmt.Sprint(r))
		}
	}()
	h(ctx, v)
}

/*──────────────────────────── hook view ───────────────────────────────────*/

// view exposes an Envelope as a capture.Message.
type view struct {
	env Envelope
	alt string
}

func newView(env Envelope) view {
	v := view{env: env}
	if env.ContentType == TextHTML {
		v.alt = sanitize.StripTags(env.Body)
	}
	return v
}

func (v view) ToAddresses() []string  { return mailboxes(v.env.To) }
func (v view) CcAddresses() []string  { return mailboxes(v.env.Cc) }
func (v view) BccAddresses() []string { return mailboxes(v.env.Bcc) }
func (v view) Subject() string        { return v.env.Subject }
func (v view) Body() string           { return v.env.Body }
func (v view) AltBody() string        { return v.alt }

// mailboxes returns the addr-spec of each recipient, the same mailbox SMTP
// is given as RCPT TO.
func mailboxes(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = sanitize.Mailbox(s)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
