// Package metrics holds Prometheus instruments shared by maillog.  All
// collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CapturedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maillog_captured_total",
			Help: "Outgoing messages recorded by the capture hook.",
		})

	CaptureErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maillog_capture_errors_total",
			Help: "Capture attempts that failed or panicked.  Delivery continued.",
		})

	MailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maillog_mail_sent_total",
			Help: "SMTP send attempts by outcome (ok or error).",
		}, []string{"outcome"})

	TestEmailTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maillog_test_email_total",
			Help: "Test emails by format (plain or html) and outcome.",
		}, []string{"format", "outcome"})

	SweepDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maillog_sweep_deleted_total",
			Help: "Log records removed by the retention sweep.",
		})

	SweepErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maillog_sweep_errors_total",
			Help: "Retention sweeps that failed.",
		})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maillog_http_request_duration_seconds",
			Help:    "API latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		CapturedTotal,
		CaptureErrorsTotal,
		MailSentTotal,
		TestEmailTotal,
		SweepDeletedTotal,
		SweepErrorsTotal,
		HTTPRequestDuration,
	)
}
