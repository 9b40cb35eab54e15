package syncml

// Protocol version identifiers carried in every message header.
const (
	Namespace = "SYNCML:SYNCML1.2"
	VerDTD    = "1.2"
	VerProto  = "DM/1.2"
)

// Session and message identifiers that anchor the protocol state machine.
const (
	FirstMessageID  = 1
	SecondMessageID = 2
	FirstSessionID  = 1
	SecondSessionID = 2
)

// DisenrollAlertData is the alert code a device sends to leave management.
const DisenrollAlertData = "1226"

// StatusSuccess is the SyncML status code acknowledging a command.
const StatusSuccess = "200"

// Item positions inside the first-contact Replace body. The ordering is part
// of the wire contract; values are read by index, never by node name.
const (
	PosDeviceID     = 0
	PosManufacturer = 1
	PosModel        = 2
	PosOSVersion    = 3
	PosLanguage     = 4
)

// Item positions inside the property-sync Results body.
const (
	PosResultOSVersion  = 0
	PosResultIMSI       = 1
	PosResultIMEI       = 2
	PosResultVendor     = 3
	PosResultModel      = 4
	PosResultMACAddress = 5
	PosResultResolution = 6
	PosResultDeviceName = 7
)

// BodyKind identifies which body variant a message carries.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyReplace
	BodyResults
	BodyAlert
	BodyGeneric
)

func (k BodyKind) String() string {
	switch k {
	case BodyReplace:
		return "replace"
	case BodyResults:
		return "results"
	case BodyAlert:
		return "alert"
	case BodyGeneric:
		return "generic"
	default:
		return "none"
	}
}

// Locator identifies one endpoint of the exchange.
type Locator struct {
	URI  string
	Name string
}

// Header is the parsed SyncHdr of a message.
type Header struct {
	SessionID  int
	MsgID      int
	Target     Locator
	Source     Locator
	Credential string
}

// Item is a single named value inside a command body. Name is the item's
// Source LocURI on inbound messages and the Target LocURI on replies.
type Item struct {
	Name string
	Data string
}

// Replace carries device properties pushed by the device.
type Replace struct {
	CmdID int
	Items []Item
}

// Results reports values previously requested from the device.
type Results struct {
	CmdID  int
	MsgRef int
	CmdRef int
	Items  []Item
}

// Alert signals a session-level event such as disenrollment.
type Alert struct {
	CmdID int
	Data  string
}

// Status acknowledges a command from the peer.
type Status struct {
	CmdID  int
	MsgRef int
	CmdRef int
	Cmd    string
	Data   string
}

// Command is a generic management command element in a message body.
// Elem names the XML element (Get, Exec, Add, Replace, Delete).
type Command struct {
	Elem  string
	CmdID int
	Items []Item
	Data  string
}

// Body is the tagged body variant of a message. Exactly one variant is
// populated on a well-formed inbound message.
type Body struct {
	Replace  *Replace
	Results  *Results
	Alert    *Alert
	Statuses []Status
	Commands []Command
	Final    bool
}

// Kind reports which variant the body carries.
func (b *Body) Kind() BodyKind {
	switch {
	case b.Replace != nil:
		return BodyReplace
	case b.Results != nil:
		return BodyResults
	case b.Alert != nil:
		return BodyAlert
	case len(b.Statuses) > 0 || len(b.Commands) > 0:
		return BodyGeneric
	default:
		return BodyNone
	}
}

// Document is a fully parsed SyncML message.
type Document struct {
	Header Header
	Body   Body
}
