package operations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/operation"
	"github.com/mdm-gateway/mdm-gateway/internal/syncml"
)

// Service manages the per-device operation queue that session-level message
// exchanges drain.
type Service struct {
	ops     operation.Repository
	devices device.Repository
	logger  zerolog.Logger
}

// NewService creates an operations service.
func NewService(ops operation.Repository, devices device.Repository, logger zerolog.Logger) *Service {
	return &Service{
		ops:     ops,
		devices: devices,
		logger:  logger.With().Str("service", "operations").Logger(),
	}
}

// Queue validates and enqueues an operation for a device.
func (s *Service) Queue(ctx context.Context, op *operation.Operation) error {
	d, err := s.devices.GetByIdentifier(ctx, op.DeviceIdentifier)
	if err != nil {
		return &ResolverError{Reason: "failed to look up device", cause: err}
	}
	if d == nil {
		return &ResolverError{Reason: "device not found: " + op.DeviceIdentifier}
	}
	switch op.Type {
	case operation.TypeGet, operation.TypeExec, operation.TypeConfig, operation.TypeInstall, operation.TypeRemove:
	default:
		return &ResolverError{Reason: "unknown operation type: " + string(op.Type)}
	}
	if op.OperationID == uuid.Nil {
		op.OperationID = uuid.New()
	}
	op.Status = operation.StatusPending
	op.CreatedAt = time.Now().UTC()
	if err := s.ops.Create(ctx, op); err != nil {
		return &ResolverError{Reason: "failed to queue operation", cause: err}
	}
	s.logger.Info().
		Str("device", op.DeviceIdentifier).
		Str("operation_id", op.OperationID.String()).
		Str("type", string(op.Type)).
		Msg("operation queued")
	return nil
}

// Exchange resolves the pending operations for the device behind a
// session-level message and marks them delivered. The returned slice is
// never nil; a device with an empty queue gets an empty exchange. Device
// acknowledgements carried in the message body are recorded before the
// queue is drained.
func (s *Service) Exchange(ctx context.Context, doc *syncml.Document) ([]*operation.Operation, error) {
	identifier := device.IdentifierFromURI(doc.Header.Source.URI)
	if identifier == "" {
		return nil, &ResolverError{Reason: "message carries no device identifier"}
	}

	s.recordAcknowledgements(identifier, doc)

	pending, err := s.ops.Pending(ctx, identifier)
	if err != nil {
		return nil, &ResolverError{Reason: "failed to load pending operations", cause: err}
	}
	if len(pending) == 0 {
		return []*operation.Operation{}, nil
	}

	ids := make([]int64, 0, len(pending))
	now := time.Now().UTC()
	for _, op := range pending {
		ids = append(ids, op.ID)
		op.Status = operation.StatusDelivered
		op.DeliveredAt = &now
	}
	if err := s.ops.MarkDelivered(ctx, identifier, ids); err != nil {
		return nil, &ResolverError{Reason: "failed to mark operations delivered", cause: err}
	}

	s.logger.Info().Str("device", identifier).Int("count", len(pending)).Msg("operations delivered")
	return pending, nil
}

// ListByDevice returns a page of a device's operation history.
func (s *Service) ListByDevice(ctx context.Context, identifier string, limit, offset int) ([]*operation.Operation, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ops, err := s.ops.ListByDevice(ctx, identifier, limit, offset)
	if err != nil {
		return nil, err
	}
	if ops == nil {
		ops = []*operation.Operation{}
	}
	return ops, nil
}

// ReplyCommands renders delivered operations as reply body commands,
// preserving queue order.
func ReplyCommands(ops []*operation.Operation) []syncml.ReplyCommand {
	cmds := make([]syncml.ReplyCommand, 0, len(ops))
	for _, op := range ops {
		cmd := syncml.ReplyCommand{
			Elem: op.Type.Element(),
			Data: op.Payload,
		}
		for _, uri := range op.Items {
			cmd.Items = append(cmd.Items, syncml.Item{Name: uri})
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// recordAcknowledgements logs per-command status and result reports the
// device sent for previously delivered operations.
func (s *Service) recordAcknowledgements(identifier string, doc *syncml.Document) {
	for _, st := range doc.Body.Statuses {
		if st.Cmd == "SyncHdr" {
			continue
		}
		s.logger.Debug().
			Str("device", identifier).
			Str("cmd", st.Cmd).
			Int("cmd_ref", st.CmdRef).
			Str("status", st.Data).
			Msg("operation acknowledged")
	}
	if doc.Body.Results != nil {
		s.logger.Debug().
			Str("device", identifier).
			Int("cmd_ref", doc.Body.Results.CmdRef).
			Int("items", len(doc.Body.Results.Items)).
			Msg("operation results received")
	}
}
