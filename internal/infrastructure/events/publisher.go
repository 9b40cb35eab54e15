package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	"github.com/mdm-gateway/mdm-gateway/internal/tenant"
)

// Subjects for device lifecycle events.
const (
	SubjectDeviceEnrolled    = "mdm.device.enrolled"
	SubjectDeviceUpdated     = "mdm.device.updated"
	SubjectDeviceDisenrolled = "mdm.device.disenrolled"
)

type deviceEvent struct {
	Identifier string    `json:"identifier"`
	Type       string    `json:"type"`
	Owner      string    `json:"owner,omitempty"`
	Tenant     string    `json:"tenant"`
	At         time.Time `json:"at"`
}

// Publisher emits device lifecycle events to NATS. Publication is
// best-effort; a failed publish never fails the protocol exchange.
type Publisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// Connect dials NATS and returns a publisher.
func Connect(url string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("mdm-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, logger: logger.With().Str("component", "events").Logger()}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(ctx context.Context, subject string, d *device.Device) {
	payload, err := json.Marshal(deviceEvent{
		Identifier: d.Identifier,
		Type:       d.Type,
		Owner:      d.Enrolment.Owner,
		Tenant:     tenant.FromContext(ctx),
		At:         time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("encode device event")
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("publish device event")
	}
}

func (p *Publisher) DeviceEnrolled(ctx context.Context, d *device.Device) {
	p.publish(ctx, SubjectDeviceEnrolled, d)
}

func (p *Publisher) DeviceUpdated(ctx context.Context, d *device.Device) {
	p.publish(ctx, SubjectDeviceUpdated, d)
}

func (p *Publisher) DeviceDisenrolled(ctx context.Context, d *device.Device) {
	p.publish(ctx, SubjectDeviceDisenrolled, d)
}

// Noop discards all events. Used when NATS is not configured and in tests.
type Noop struct{}

func (Noop) DeviceEnrolled(context.Context, *device.Device)    {}
func (Noop) DeviceUpdated(context.Context, *device.Device)     {}
func (Noop) DeviceDisenrolled(context.Context, *device.Device) {}
