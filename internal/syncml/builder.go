package syncml

import (
	"encoding/xml"
	"fmt"
)

// RenderError reports a reply that could not be rendered to the wire format.
// It is fatal for the current request; any backend mutation that preceded it
// has already happened.
type RenderError struct {
	cause error
}

func (e *RenderError) Error() string { return fmt.Sprintf("syncml render: %v", e.cause) }

func (e *RenderError) Unwrap() error { return e.cause }

// ReplyCommand is one management command to embed in a reply body, in the
// order the device must apply it.
type ReplyCommand struct {
	Elem  string
	Items []Item
	Data  string
}

// ReplyContext carries everything needed to build exactly one reply.
type ReplyContext struct {
	Request   *Document
	ServerURI string
	Commands  []ReplyCommand
}

// BuildReply assembles the reply document for a request. The reply echoes the
// request's session id, acknowledges its message id and body command, and
// appends one command element per entry in Commands, preserving order. With
// no commands the body is a status-only acknowledgement.
func BuildReply(rc ReplyContext) (*Document, error) {
	if rc.Request == nil {
		return nil, &RenderError{cause: fmt.Errorf("missing request document")}
	}
	req := rc.Request

	doc := &Document{
		Header: Header{
			SessionID: req.Header.SessionID,
			MsgID:     req.Header.MsgID,
			Target:    req.Header.Source,
			Source:    Locator{URI: rc.ServerURI},
		},
	}

	cmdID := 1
	doc.Body.Statuses = append(doc.Body.Statuses, Status{
		CmdID:  cmdID,
		MsgRef: req.Header.MsgID,
		CmdRef: 0,
		Cmd:    "SyncHdr",
		Data:   StatusSuccess,
	})
	cmdID++

	if ack, ok := bodyAck(&req.Body, req.Header.MsgID, cmdID); ok {
		doc.Body.Statuses = append(doc.Body.Statuses, ack)
		cmdID++
	}

	for _, rc := range rc.Commands {
		doc.Body.Commands = append(doc.Body.Commands, Command{
			Elem:  rc.Elem,
			CmdID: cmdID,
			Items: rc.Items,
			Data:  rc.Data,
		})
		cmdID++
	}

	doc.Body.Final = true
	return doc, nil
}

// bodyAck produces the status acknowledging the request's body command.
func bodyAck(b *Body, msgRef, cmdID int) (Status, bool) {
	st := Status{CmdID: cmdID, MsgRef: msgRef, Data: StatusSuccess}
	switch b.Kind() {
	case BodyReplace:
		st.Cmd = "Replace"
		st.CmdRef = b.Replace.CmdID
	case BodyResults:
		st.Cmd = "Results"
		st.CmdRef = b.Results.CmdID
	case BodyAlert:
		st.Cmd = "Alert"
		st.CmdRef = b.Alert.CmdID
	default:
		return Status{}, false
	}
	return st, true
}

type xmlReplyCommand struct {
	XMLName xml.Name
	CmdID   int       `xml:"CmdID"`
	Items   []xmlItem `xml:"Item,omitempty"`
	Data    string    `xml:"Data,omitempty"`
}

type xmlReplyBody struct {
	Statuses []xmlStatus       `xml:"Status"`
	Commands []xmlReplyCommand `xml:",omitempty"`
	Final    *xmlFinal         `xml:"Final"`
}

type xmlReplyDocument struct {
	XMLName xml.Name     `xml:"SyncML"`
	Xmlns   string       `xml:"xmlns,attr"`
	Header  xmlHeader    `xml:"SyncHdr"`
	Body    xmlReplyBody `xml:"SyncBody"`
}

// Marshal renders a document to the wire format: UTF-8 declaration, indented
// output, all text content escaped.
func Marshal(doc *Document) ([]byte, error) {
	wire := xmlReplyDocument{
		Xmlns: Namespace,
		Header: xmlHeader{
			VerDTD:    VerDTD,
			VerProto:  VerProto,
			SessionID: fmt.Sprintf("%d", doc.Header.SessionID),
			MsgID:     fmt.Sprintf("%d", doc.Header.MsgID),
		},
	}
	if doc.Header.Target.URI != "" {
		wire.Header.Target = &xmlLocator{LocURI: doc.Header.Target.URI, LocName: doc.Header.Target.Name}
	}
	if doc.Header.Source.URI != "" {
		wire.Header.Source = &xmlLocator{LocURI: doc.Header.Source.URI, LocName: doc.Header.Source.Name}
	}

	for _, st := range doc.Body.Statuses {
		wire.Body.Statuses = append(wire.Body.Statuses, xmlStatus(st))
	}
	for _, cmd := range doc.Body.Commands {
		wireCmd := xmlReplyCommand{
			XMLName: xml.Name{Local: cmd.Elem},
			CmdID:   cmd.CmdID,
			Data:    cmd.Data,
		}
		for _, it := range cmd.Items {
			item := xmlItem{Data: it.Data}
			if it.Name != "" {
				item.Target = &xmlLocator{LocURI: it.Name}
			}
			wireCmd.Items = append(wireCmd.Items, item)
		}
		wire.Body.Commands = append(wire.Body.Commands, wireCmd)
	}
	if doc.Body.Final {
		wire.Body.Final = &xmlFinal{}
	}

	out, err := xml.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, &RenderError{cause: err}
	}
	return append([]byte(xml.Header), out...), nil
}
