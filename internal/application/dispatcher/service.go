package dispatcher

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mdm-gateway/mdm-gateway/internal/application/enrollment"
	"github.com/mdm-gateway/mdm-gateway/internal/application/operations"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
	domainEnrollment "github.com/mdm-gateway/mdm-gateway/internal/domain/enrollment"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/operation"
	"github.com/mdm-gateway/mdm-gateway/internal/syncml"
)

// ContentType is the media type of every protocol request and reply body.
const ContentType = "application/vnd.syncml.dm+xml"

// Enroller is the enrollment engine the dispatcher drives.
type Enroller interface {
	FirstContact(ctx context.Context, doc *syncml.Document) (*device.Device, error)
	MergeProperties(ctx context.Context, doc *syncml.Document) (*device.Device, error)
	Disenroll(ctx context.Context, identifier string) error
}

// OperationResolver drains the pending operation queue for the device behind
// a session-level message.
type OperationResolver interface {
	Exchange(ctx context.Context, doc *syncml.Document) ([]*operation.Operation, error)
}

// Result is the HTTP-level outcome of one message exchange. Body is empty
// on every non-200 code.
type Result struct {
	Code        int
	Body        []byte
	ContentType string
}

// Service is the message-pair state machine: it classifies each inbound
// message by stage, drives the matching backend engine, and renders exactly
// one reply per accepted message.
type Service struct {
	enroller  Enroller
	resolver  OperationResolver
	tokens    domainEnrollment.TokenStore
	serverURI string
	logger    zerolog.Logger
}

// NewService creates a dispatcher.
func NewService(enroller Enroller, resolver OperationResolver, tokens domainEnrollment.TokenStore, serverURI string, logger zerolog.Logger) *Service {
	return &Service{
		enroller:  enroller,
		resolver:  resolver,
		tokens:    tokens,
		serverURI: serverURI,
		logger:    logger.With().Str("service", "dispatcher").Logger(),
	}
}

// Dispatch processes one raw protocol message and returns the reply to send.
// It never returns an error: every failure maps onto a status code in the
// Result, with nothing written to the backend for malformed input.
func (s *Service) Dispatch(ctx context.Context, raw []byte) *Result {
	doc, err := syncml.Parse(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected unparseable message")
		return &Result{Code: http.StatusBadRequest}
	}

	stage := Classify(doc)
	logger := s.logger.With().
		Int("session_id", doc.Header.SessionID).
		Int("msg_id", doc.Header.MsgID).
		Str("stage", stage.String()).
		Logger()

	switch stage {
	case StageHandshake:
		return s.handshake(ctx, doc, logger)
	case StagePropertySync:
		return s.propertySync(ctx, doc, logger)
	case StageDisenroll:
		return s.disenroll(ctx, doc, logger)
	case StageOperationExchange:
		return s.operationExchange(ctx, doc, logger)
	default:
		logger.Warn().Msg("message fits no protocol stage")
		return &Result{Code: http.StatusBadRequest}
	}
}

// handshake authenticates the first-contact token, enrolls the device, and
// replies with the device-information requests the next message answers.
func (s *Service) handshake(ctx context.Context, doc *syncml.Document, logger zerolog.Logger) *Result {
	cred := doc.Header.Credential
	if cred == "" {
		logger.Warn().Msg("first contact without credential")
		return &Result{Code: http.StatusUnauthorized}
	}
	token, err := s.tokens.Get(ctx, cred)
	if err != nil {
		logger.Error().Err(err).Msg("token lookup failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	if token == nil {
		logger.Warn().Msg("unknown or expired enrollment token")
		return &Result{Code: http.StatusUnauthorized}
	}
	if token.Username != doc.Header.Source.Name {
		logger.Warn().
			Str("token_user", token.Username).
			Str("message_user", doc.Header.Source.Name).
			Msg("token issued to a different user")
		return &Result{Code: http.StatusUnauthorized}
	}

	d, err := s.enroller.FirstContact(ctx, doc)
	if err != nil {
		logger.Error().Err(err).Msg("first contact enrollment failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	logger.Info().Str("device", d.Identifier).Msg("handshake complete")

	return s.reply(doc, operations.ReplyCommands(operation.DeviceInfoOperations()), logger)
}

// propertySync overwrites the device's property set with the reported
// values and acknowledges with a status-only reply.
func (s *Service) propertySync(ctx context.Context, doc *syncml.Document, logger zerolog.Logger) *Result {
	if _, err := s.enroller.MergeProperties(ctx, doc); err != nil {
		var confErr *enrollment.ConfigurationError
		if errors.As(err, &confErr) {
			logger.Error().Err(err).Msg("policy computation failed after property sync")
			return &Result{Code: http.StatusInternalServerError}
		}
		logger.Error().Err(err).Msg("property sync failed")
		return &Result{Code: http.StatusNotModified}
	}
	return s.reply(doc, nil, logger)
}

// disenroll ends management for the device named by the alert's source.
func (s *Service) disenroll(ctx context.Context, doc *syncml.Document, logger zerolog.Logger) *Result {
	identifier := device.IdentifierFromURI(doc.Header.Source.URI)
	if err := s.enroller.Disenroll(ctx, identifier); err != nil {
		if errors.Is(err, enrollment.ErrDeviceNotFound) {
			logger.Warn().Str("device", identifier).Msg("disenroll for unknown device")
			return &Result{Code: http.StatusNotFound}
		}
		logger.Error().Err(err).Msg("disenroll failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	logger.Info().Str("device", identifier).Msg("device left management")
	return s.reply(doc, nil, logger)
}

// operationExchange records the device's acknowledgements and delivers its
// pending operation queue.
func (s *Service) operationExchange(ctx context.Context, doc *syncml.Document, logger zerolog.Logger) *Result {
	ops, err := s.resolver.Exchange(ctx, doc)
	if err != nil {
		logger.Error().Err(err).Msg("operation exchange failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	return s.reply(doc, operations.ReplyCommands(ops), logger)
}

func (s *Service) reply(doc *syncml.Document, commands []syncml.ReplyCommand, logger zerolog.Logger) *Result {
	out, err := syncml.BuildReply(syncml.ReplyContext{
		Request:   doc,
		ServerURI: s.serverURI,
		Commands:  commands,
	})
	if err != nil {
		logger.Error().Err(err).Msg("reply build failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	body, err := syncml.Marshal(out)
	if err != nil {
		logger.Error().Err(err).Msg("reply render failed")
		return &Result{Code: http.StatusInternalServerError}
	}
	return &Result{Code: http.StatusOK, Body: body, ContentType: ContentType}
}
