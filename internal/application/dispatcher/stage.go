package dispatcher

import "github.com/mdm-gateway/mdm-gateway/internal/syncml"

// Stage is the protocol state a message lands in. The stage is derived from
// the (message id, session id) pair plus the body variant; there is no
// server-side session record.
type Stage int

const (
	StageUnknown Stage = iota
	StageHandshake
	StagePropertySync
	StageDisenroll
	StageOperationExchange
)

func (s Stage) String() string {
	switch s {
	case StageHandshake:
		return "handshake"
	case StagePropertySync:
		return "property-sync"
	case StageDisenroll:
		return "disenroll"
	case StageOperationExchange:
		return "operation-exchange"
	default:
		return "unknown"
	}
}

// Classify maps a parsed message onto its protocol stage.
func Classify(doc *syncml.Document) Stage {
	msgID := doc.Header.MsgID
	sessionID := doc.Header.SessionID

	switch {
	case msgID == syncml.FirstMessageID && sessionID == syncml.FirstSessionID:
		if doc.Body.Kind() == syncml.BodyReplace {
			return StageHandshake
		}
		return StageUnknown
	case msgID == syncml.SecondMessageID && sessionID == syncml.FirstSessionID:
		if doc.Body.Kind() == syncml.BodyResults {
			return StagePropertySync
		}
		return StageUnknown
	case sessionID >= syncml.SecondSessionID:
		if a := doc.Body.Alert; a != nil && a.Data == syncml.DisenrollAlertData {
			return StageDisenroll
		}
		return StageOperationExchange
	default:
		return StageUnknown
	}
}
