package syncml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(firstContactPayload))
	require.NoError(t, err)
	return doc
}

func TestBuildReplyEchoesCorrelation(t *testing.T) {
	req := requestDoc(t)
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "https://mdm.example.com/mgmt"})
	require.NoError(t, err)

	assert.Equal(t, req.Header.SessionID, reply.Header.SessionID)
	assert.Equal(t, req.Header.MsgID, reply.Header.MsgID)
	assert.Equal(t, req.Header.Source.URI, reply.Header.Target.URI)
	assert.Equal(t, "https://mdm.example.com/mgmt", reply.Header.Source.URI)
	assert.True(t, reply.Body.Final)

	// header ack plus body command ack
	require.Len(t, reply.Body.Statuses, 2)
	assert.Equal(t, "SyncHdr", reply.Body.Statuses[0].Cmd)
	assert.Equal(t, StatusSuccess, reply.Body.Statuses[0].Data)
	assert.Equal(t, req.Header.MsgID, reply.Body.Statuses[0].MsgRef)
	assert.Equal(t, "Replace", reply.Body.Statuses[1].Cmd)
	assert.Equal(t, req.Body.Replace.CmdID, reply.Body.Statuses[1].CmdRef)
}

func TestBuildReplyWithoutCommandsIsStatusOnly(t *testing.T) {
	req := requestDoc(t)
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "srv"})
	require.NoError(t, err)
	assert.Empty(t, reply.Body.Commands)
	assert.NotEmpty(t, reply.Body.Statuses)
}

func TestBuildReplyPreservesCommandOrder(t *testing.T) {
	req := requestDoc(t)
	cmds := []ReplyCommand{
		{Elem: "Get", Items: []Item{{Name: "./DevDetail/SwV"}}},
		{Elem: "Exec", Items: []Item{{Name: "./Vendor/MSFT/RemoteLock"}}},
		{Elem: "Replace", Items: []Item{{Name: "./Vendor/MSFT/PolicyManager/Lock", Data: "1"}}},
	}
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "srv", Commands: cmds})
	require.NoError(t, err)

	require.Len(t, reply.Body.Commands, 3)
	assert.Equal(t, "Get", reply.Body.Commands[0].Elem)
	assert.Equal(t, "Exec", reply.Body.Commands[1].Elem)
	assert.Equal(t, "Replace", reply.Body.Commands[2].Elem)
	// command ids strictly increase after the statuses
	assert.Less(t, reply.Body.Statuses[len(reply.Body.Statuses)-1].CmdID, reply.Body.Commands[0].CmdID)
	assert.Less(t, reply.Body.Commands[0].CmdID, reply.Body.Commands[1].CmdID)
}

func TestMarshalDeclaresEncodingAndIndents(t *testing.T) {
	req := requestDoc(t)
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "srv"})
	require.NoError(t, err)

	out, err := Marshal(reply)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, s, "\n  <SyncHdr>")
	assert.Contains(t, s, `<SyncML xmlns="SYNCML:SYNCML1.2">`)
	assert.Contains(t, s, "<Final></Final>")
}

func TestMarshalEscapesTextContent(t *testing.T) {
	req := requestDoc(t)
	cmds := []ReplyCommand{
		{Elem: "Replace", Items: []Item{{Name: "./Device/Name", Data: `x<y & "z"`}}},
	}
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "srv", Commands: cmds})
	require.NoError(t, err)

	out, err := Marshal(reply)
	require.NoError(t, err)
	assert.Contains(t, string(out), "x&lt;y &amp;")
	assert.NotContains(t, string(out), "x<y &")
}

func TestReplyRoundTripsThroughParser(t *testing.T) {
	req := requestDoc(t)
	cmds := []ReplyCommand{
		{Elem: "Get", Items: []Item{{Name: "./DevDetail/SwV"}}},
		{Elem: "Get", Items: []Item{{Name: "./DevInfo/Man"}}},
	}
	reply, err := BuildReply(ReplyContext{Request: req, ServerURI: "https://mdm.example.com/mgmt", Commands: cmds})
	require.NoError(t, err)

	out, err := Marshal(reply)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, req.Header.SessionID, parsed.Header.SessionID)
	assert.Equal(t, req.Header.MsgID, parsed.Header.MsgID)
	require.Equal(t, BodyGeneric, parsed.Body.Kind())
	require.Len(t, parsed.Body.Commands, 2)
	assert.Equal(t, "./DevDetail/SwV", parsed.Body.Commands[0].Items[0].Name)
	assert.Equal(t, "./DevInfo/Man", parsed.Body.Commands[1].Items[0].Name)
}
