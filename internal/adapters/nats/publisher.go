package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/looopone/internal/core/domain"
)

const (
	// ReportSubjects matches every report event.
	ReportSubjects = "waste.reports.>"
	// AlertSubjects matches every alert event.
	AlertSubjects = "waste.alerts.>"
)

// ReportSubject returns the subject a report of category c is published on.
func ReportSubject(c domain.ReportCategory) string {
	return "waste.reports." + strings.ToLower(string(c))
}

// AlertSubject returns the subject an alert of type t is published on.
func AlertSubject(t domain.AlertType) string {
	return "waste.alerts." + string(t)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the report and alert streams
// exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "WASTE_REPORTS",
			Subjects:  []string{ReportSubjects},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "WASTE_ALERTS",
			Subjects:  []string{AlertSubjects},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishReport publishes an accepted report. The report ID is used as the
// message ID so JetStream drops duplicates.
func (p *Publisher) PublishReport(ctx context.Context, r *domain.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ReportSubject(r.Category), data, nats.MsgId(r.ID), nats.Context(ctx))
	return err
}

// PublishAlert publishes a raised alert.
func (p *Publisher) PublishAlert(ctx context.Context, a *domain.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(AlertSubject(a.Type), data,
		nats.MsgId(fmt.Sprintf("alert-%d", a.ID)), nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection (e.g. for the WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("looopone"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
