// Package mail renders notification templates and delivers them without blocking the caller.
package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"quizblog/logging"
	"quizblog/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateWelcome              = "welcome"
	TemplateRequestResetPassword = "requestResetPassword"
	TemplateResetPassword        = "resetPassword"
	TemplateSubscribe            = "subscribe"
	TemplateContact              = "contact"
	TemplateContactAdmin         = "contactAdmin"
	TemplateReply                = "reply"
	TemplateBroadcast            = "broadcast"
	TemplateNewQuiz              = "newquiz"
)

// Data is the payload a template is rendered against.
type Data map[string]any

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport hands a rendered message to the outside world.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Notifier is what the services depend on.
type Notifier interface {
	Send(to, subject, templateName string, data Data)
}

type Dispatcher struct {
	transport Transport
	templates *template.Template
	limiter   *rate.Limiter
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

// WithRate paces deliveries to perSecond messages, bursting up to burst.
func WithRate(perSecond float64, burst int) Option {
	return func(d *Dispatcher) { d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func NewDispatcher(transport Transport, opts ...Option) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		transport: transport,
		templates: tmpl,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		timeout:   30 * time.Second,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Render executes the named template against data.
func (d *Dispatcher) Render(templateName string, data Data) (string, error) {
	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, templateName+".html", data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// Send renders and delivers in the background. Failures are logged and counted, never retried.
func (d *Dispatcher) Send(to, subject, templateName string, data Data) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logging.Warn().Str("to", to).Str("template", templateName).Msg("mail dispatcher closed, dropping message")
		metrics.MailSentTotal.WithLabelValues(templateName, "rejected").Inc()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(to, subject, templateName, data)
	}()
}

func (d *Dispatcher) deliver(to, subject, templateName string, data Data) {
	log := logging.With().Str("to", to).Str("template", templateName).Logger()

	html, err := d.Render(templateName, data)
	if err != nil {
		log.Error().Err(err).Msg("mail render failed")
		metrics.MailSentTotal.WithLabelValues(templateName, "failed").Inc()
		return
	}

	if err := d.limiter.Wait(d.ctx); err != nil {
		log.Warn().Err(err).Msg("mail dropped while waiting for send slot")
		metrics.MailSentTotal.WithLabelValues(templateName, "rejected").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	if err := d.transport.Deliver(ctx, Message{To: to, Subject: subject, HTML: html}); err != nil {
		log.Warn().Err(err).Msg("mail delivery failed")
		metrics.MailSentTotal.WithLabelValues(templateName, "failed").Inc()
		return
	}

	log.Debug().Msg("mail sent")
	metrics.MailSentTotal.WithLabelValues(templateName, "ok").Inc()
}

// Close stops accepting messages and waits for in-flight deliveries.
// If ctx expires first the remaining deliveries are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return errors.Join(errors.New("mail dispatcher closed before all deliveries finished"), ctx.Err())
	}
}
