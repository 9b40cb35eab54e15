package syncml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a malformed or unrecognizable message. The dispatcher
// maps it to a bad-request outcome, never a server error.
type FormatError struct {
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("syncml format: %s: %v", e.Reason, e.cause)
	}
	return "syncml format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.cause }

func formatErr(reason string) error { return &FormatError{Reason: reason} }

// Wire representation shared by the parser and the reply generator.
type xmlDocument struct {
	XMLName xml.Name  `xml:"SyncML"`
	Xmlns   string    `xml:"xmlns,attr"`
	Header  xmlHeader `xml:"SyncHdr"`
	Body    xmlBody   `xml:"SyncBody"`
}

type xmlHeader struct {
	VerDTD    string      `xml:"VerDTD"`
	VerProto  string      `xml:"VerProto"`
	SessionID string      `xml:"SessionID"`
	MsgID     string      `xml:"MsgID"`
	Target    *xmlLocator `xml:"Target"`
	Source    *xmlLocator `xml:"Source"`
	Cred      *xmlCred    `xml:"Cred"`
}

type xmlLocator struct {
	LocURI  string `xml:"LocURI"`
	LocName string `xml:"LocName,omitempty"`
}

type xmlCred struct {
	Data string `xml:"Data"`
}

type xmlBody struct {
	Statuses []xmlStatus  `xml:"Status"`
	Alert    *xmlAlert    `xml:"Alert"`
	Replace  *xmlCommand  `xml:"Replace"`
	Results  *xmlResults  `xml:"Results"`
	Gets     []xmlCommand `xml:"Get"`
	Execs    []xmlCommand `xml:"Exec"`
	Adds     []xmlCommand `xml:"Add"`
	Deletes  []xmlCommand `xml:"Delete"`
	Final    *xmlFinal    `xml:"Final"`
}

type xmlFinal struct{}

type xmlStatus struct {
	CmdID  int    `xml:"CmdID"`
	MsgRef int    `xml:"MsgRef"`
	CmdRef int    `xml:"CmdRef"`
	Cmd    string `xml:"Cmd"`
	Data   string `xml:"Data"`
}

type xmlAlert struct {
	CmdID int    `xml:"CmdID"`
	Data  string `xml:"Data"`
}

type xmlCommand struct {
	CmdID int       `xml:"CmdID"`
	Items []xmlItem `xml:"Item"`
	Data  string    `xml:"Data,omitempty"`
}

type xmlResults struct {
	CmdID  int       `xml:"CmdID"`
	MsgRef int       `xml:"MsgRef"`
	CmdRef int       `xml:"CmdRef"`
	Items  []xmlItem `xml:"Item"`
}

type xmlItem struct {
	Source *xmlLocator `xml:"Source"`
	Target *xmlLocator `xml:"Target"`
	Data   string      `xml:"Data"`
}

// Parse converts a raw wire document into a Document. Unknown elements are
// ignored for forward compatibility; a document with no recognizable header
// or body variant fails with a FormatError.
func Parse(raw []byte) (*Document, error) {
	var wire xmlDocument
	if err := xml.Unmarshal(raw, &wire); err != nil {
		return nil, &FormatError{Reason: "unparseable document", cause: err}
	}

	header, err := parseHeader(wire.Header)
	if err != nil {
		return nil, err
	}
	body, err := parseBody(wire.Body)
	if err != nil {
		return nil, err
	}

	return &Document{Header: *header, Body: *body}, nil
}

func parseHeader(h xmlHeader) (*Header, error) {
	sessionID, err := strconv.Atoi(strings.TrimSpace(h.SessionID))
	if err != nil {
		return nil, formatErr("missing or invalid SessionID")
	}
	msgID, err := strconv.Atoi(strings.TrimSpace(h.MsgID))
	if err != nil {
		return nil, formatErr("missing or invalid MsgID")
	}
	if h.Source == nil || strings.TrimSpace(h.Source.LocURI) == "" {
		return nil, formatErr("missing source LocURI")
	}

	header := &Header{
		SessionID: sessionID,
		MsgID:     msgID,
		Source: Locator{
			URI:  strings.TrimSpace(h.Source.LocURI),
			Name: strings.TrimSpace(h.Source.LocName),
		},
	}
	if h.Target != nil {
		header.Target = Locator{
			URI:  strings.TrimSpace(h.Target.LocURI),
			Name: strings.TrimSpace(h.Target.LocName),
		}
	}
	if h.Cred != nil {
		header.Credential = strings.TrimSpace(h.Cred.Data)
	}
	return header, nil
}

func parseBody(b xmlBody) (*Body, error) {
	body := &Body{Final: b.Final != nil}

	variants := 0
	if b.Replace != nil {
		body.Replace = &Replace{CmdID: b.Replace.CmdID, Items: parseItems(b.Replace.Items)}
		variants++
	}
	if b.Results != nil {
		body.Results = &Results{
			CmdID:  b.Results.CmdID,
			MsgRef: b.Results.MsgRef,
			CmdRef: b.Results.CmdRef,
			Items:  parseItems(b.Results.Items),
		}
		variants++
	}
	if b.Alert != nil {
		body.Alert = &Alert{CmdID: b.Alert.CmdID, Data: strings.TrimSpace(b.Alert.Data)}
		variants++
	}

	generic := false
	for _, st := range b.Statuses {
		body.Statuses = append(body.Statuses, Status(st))
		generic = true
	}
	for _, set := range []struct {
		elem string
		cmds []xmlCommand
	}{
		{"Get", b.Gets},
		{"Exec", b.Execs},
		{"Add", b.Adds},
		{"Delete", b.Deletes},
	} {
		for _, c := range set.cmds {
			body.Commands = append(body.Commands, Command{
				Elem:  set.elem,
				CmdID: c.CmdID,
				Items: parseItems(c.Items),
				Data:  c.Data,
			})
			generic = true
		}
	}
	if generic {
		variants++
	}

	switch {
	case variants == 0:
		return nil, formatErr("body matches no known variant")
	case variants > 1:
		return nil, formatErr("body carries more than one variant")
	}
	return body, nil
}

func parseItems(items []xmlItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		name := ""
		if it.Source != nil {
			name = strings.TrimSpace(it.Source.LocURI)
		}
		if name == "" && it.Target != nil {
			name = strings.TrimSpace(it.Target.LocURI)
		}
		out = append(out, Item{Name: name, Data: it.Data})
	}
	return out
}
