package lsp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
)

func TestTransport_WriteResultFramesWithContentLength(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &buf)

	if err := tr.WriteResult(json.RawMessage("1"), map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Content-Length:") {
		t.Fatalf("missing Content-Length header in %q", out)
	}
	if !strings.Contains(out, `"ok":"yes"`) {
		t.Errorf("missing body content in %q", out)
	}
}

func TestTransport_ReadMessageParsesFramedRequest(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	framed := "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	tr := NewTransport(strings.NewReader(framed), &bytes.Buffer{})
	msg, err := tr.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Method != "initialize" {
		t.Errorf("expected method initialize, got %q", msg.Method)
	}
	if len(msg.ID) == 0 {
		t.Errorf("expected a request id")
	}
}

func TestTransport_RoundTripsThroughServerHandle(t *testing.T) {
	var out bytes.Buffer
	body := `{"jsonrpc":"2.0","id":7,"method":"initialize","params":{"rootUri":"file:///tmp"}}`
	framed := "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	server := NewServer(strings.NewReader(framed), &out)
	msg, err := server.transport.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	result, err := server.handle(msg.Method, msg.Params)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	initResult, ok := result.(InitializeResult)
	if !ok {
		t.Fatalf("expected InitializeResult, got %T", result)
	}
	if !initResult.Capabilities.HoverProvider {
		t.Errorf("expected hover capability advertised")
	}
}

