package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// session scripts client messages and collects the server's replies.
type session struct {
	t   *testing.T
	in  bytes.Buffer
	out bytes.Buffer
	id  int
}

func newSession(t *testing.T) *session {
	return &session{t: t}
}

func (c *session) write(msg map[string]any) {
	c.t.Helper()
	msg["jsonrpc"] = "2.0"
	body, err := json.Marshal(msg)
	require.NoError(c.t, err)
	fmt.Fprintf(&c.in, "Content-Length: %d\r\n\r\n%s", len(body), body)
}

func (c *session) request(method string, params any) int {
	c.id++
	c.write(map[string]any{"id": c.id, "method": method, "params": params})
	return c.id
}

func (c *session) notify(method string, params any) {
	c.write(map[string]any{"method": method, "params": params})
}

func (c *session) initialize(root string) {
	c.request("initialize", map[string]any{"processId": 1, "rootUri": PathToURI(root)})
	c.notify("initialized", map[string]any{})
}

func (c *session) open(uri, text string) {
	c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "leap", "version": 1, "text": text},
	})
}

func (c *session) close() {
	c.request("shutdown", nil)
	c.notify("exit", nil)
}

func (c *session) run() ([]JSONRPCMessage, error) {
	c.t.Helper()
	server := NewServerWithLogger(&c.in, &c.out, testutil.NewTestLogger(c.t))
	err := server.Run()
	return readFrames(c.t, c.out.Bytes()), err
}

func readFrames(t *testing.T, data []byte) []JSONRPCMessage {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(data))
	var msgs []JSONRPCMessage
	for {
		header, err := r.ReadString('\n')
		if err == io.EOF {
			return msgs
		}
		require.NoError(t, err)
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "Content-Length:")))
		require.NoError(t, err)
		_, err = r.ReadString('\n')
		require.NoError(t, err)

		body := make([]byte, n)
		_, err = io.ReadFull(r, body)
		require.NoError(t, err)

		var msg JSONRPCMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		msgs = append(msgs, msg)
	}
}

func responseTo(t *testing.T, msgs []JSONRPCMessage, id int) JSONRPCMessage {
	t.Helper()
	want := strconv.Itoa(id)
	for _, m := range msgs {
		if m.ID != nil && string(*m.ID) == want {
			return m
		}
	}
	t.Fatalf("no response to request %d", id)
	return JSONRPCMessage{}
}

func diagnosticsFor(t *testing.T, msgs []JSONRPCMessage, uri string) []PublishDiagnosticsParams {
	t.Helper()
	var out []PublishDiagnosticsParams
	for _, m := range msgs {
		if m.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var p PublishDiagnosticsParams
		require.NoError(t, json.Unmarshal(m.Params, &p))
		if p.URI == uri {
			out = append(out, p)
		}
	}
	return out
}

func TestServer_InitializeCapabilities(t *testing.T) {
	c := newSession(t)
	id := c.request("initialize", map[string]any{"rootUri": PathToURI(t.TempDir())})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	resp := responseTo(t, msgs, id)
	require.Nil(t, resp.Error)
	var result InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.NotNil(t, result.Capabilities.TextDocumentSync)
	assert.Equal(t, TextDocumentSyncKindFull, result.Capabilities.TextDocumentSync.Change)
	assert.True(t, result.Capabilities.TextDocumentSync.OpenClose)
	assert.True(t, result.Capabilities.HoverProvider)
	assert.Equal(t, "leapc", result.ServerInfo.Name)
}

func TestServer_PublishesLexerDiagnostics(t *testing.T) {
	root := t.TempDir()
	uri := PathToURI(filepath.Join(root, "src", "main.leap"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "x = 1\ny = @\n")
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	published := diagnosticsFor(t, msgs, uri)
	require.Len(t, published, 1)
	require.Len(t, published[0].Diagnostics, 1)

	d := published[0].Diagnostics[0]
	assert.Equal(t, "UnexpectedChar", d.Code)
	assert.Equal(t, "leapc", d.Source)
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Contains(t, d.Message, "unexpected character")
	assert.Equal(t, Range{
		Start: Position{Line: 1, Character: 4},
		End:   Position{Line: 1, Character: 5},
	}, d.Range)
	require.NotNil(t, published[0].Version)
	assert.Equal(t, 1, *published[0].Version)
}

func TestServer_ChangeAndClose(t *testing.T) {
	root := t.TempDir()
	uri := PathToURI(filepath.Join(root, "main.leap"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "x = @\n")
	c.notify("textDocument/didChange", map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": 2},
		"contentChanges": []map[string]any{{"text": "x = 1\n"}},
	})
	c.notify("textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": uri}})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	published := diagnosticsFor(t, msgs, uri)
	require.Len(t, published, 3)
	assert.Len(t, published[0].Diagnostics, 1)
	assert.Empty(t, published[1].Diagnostics, "the fix clears the fault")
	assert.Equal(t, 2, *published[1].Version)
	assert.NotNil(t, published[2].Diagnostics, "close publishes an empty list, not null")
	assert.Empty(t, published[2].Diagnostics)
}

func TestServer_SaveWithText(t *testing.T) {
	root := t.TempDir()
	uri := PathToURI(filepath.Join(root, "main.leap"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "x = 1\n")
	c.notify("textDocument/didSave", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"text":         "x = 'open\n",
	})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	published := diagnosticsFor(t, msgs, uri)
	require.Len(t, published, 2)
	require.Len(t, published[1].Diagnostics, 1)
	assert.Equal(t, "UnterminatedString", published[1].Diagnostics[0].Code)
}

func TestServer_IgnoresNonSourceFiles(t *testing.T) {
	root := t.TempDir()
	uri := PathToURI(filepath.Join(root, "notes.txt"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "@@@")
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	published := diagnosticsFor(t, msgs, uri)
	require.Len(t, published, 1)
	assert.Empty(t, published[0].Diagnostics)
}

func TestServer_ProjectConfigExtensions(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "leapc.yaml"), []byte("extensions: [lp]\n"), 0o600))
	leap := PathToURI(filepath.Join(root, "a.leap"))
	lp := PathToURI(filepath.Join(root, "b.lp"))

	c := newSession(t)
	c.initialize(root)
	c.open(leap, "@")
	c.open(lp, "@")
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	assert.Empty(t, diagnosticsFor(t, msgs, leap)[0].Diagnostics)
	assert.Len(t, diagnosticsFor(t, msgs, lp)[0].Diagnostics, 1)
}

func TestServer_Hover(t *testing.T) {
	root := t.TempDir()
	uri := PathToURI(filepath.Join(root, "main.leap"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "alpha  =  1\n")
	onIdent := c.request("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 2},
	})
	onSpace := c.request("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 6},
	})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	var hover Hover
	require.NoError(t, json.Unmarshal(responseTo(t, msgs, onIdent).Result, &hover))
	assert.Equal(t, "**Ident** `alpha`", hover.Contents.Value)
	require.NotNil(t, hover.Range)
	assert.Equal(t, Position{Line: 0, Character: 5}, hover.Range.End)

	assert.Equal(t, "null", string(responseTo(t, msgs, onSpace).Result))
}

func TestServer_HoverShowsNormalizedName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "leapc.yaml"),
		[]byte("lexer:\n  normalize_identifiers: true\n"), 0o600))
	uri := PathToURI(filepath.Join(root, "main.leap"))

	c := newSession(t)
	c.initialize(root)
	c.open(uri, "e\u0301 = 1\n")
	id := c.request("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 0},
	})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	var hover Hover
	require.NoError(t, json.Unmarshal(responseTo(t, msgs, id).Result, &hover))
	assert.Equal(t, "**Ident** `\u00e9`", hover.Contents.Value)
}

func TestServer_RequestBeforeInitialize(t *testing.T) {
	c := newSession(t)
	id := c.request("textDocument/hover", map[string]any{})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	resp := responseTo(t, msgs, id)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeServerNotInitialized, resp.Error.Code)
}

func TestServer_UnknownMethod(t *testing.T) {
	c := newSession(t)
	c.initialize(t.TempDir())
	id := c.request("textDocument/formatting", map[string]any{})
	c.notify("$/cancelRequest", map[string]any{"id": 1})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	resp := responseTo(t, msgs, id)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestServer_RequestAfterShutdown(t *testing.T) {
	c := newSession(t)
	c.initialize(t.TempDir())
	c.request("shutdown", nil)
	id := c.request("textDocument/hover", map[string]any{})
	c.notify("exit", nil)

	msgs, err := c.run()

	require.NoError(t, err)
	resp := responseTo(t, msgs, id)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestServer_ExitWithoutShutdown(t *testing.T) {
	c := newSession(t)
	c.initialize(t.TempDir())
	c.notify("exit", nil)

	_, err := c.run()

	assert.ErrorIs(t, err, ErrExitWithoutShutdown)
}

func TestServer_ParseErrorKeepsServing(t *testing.T) {
	c := newSession(t)
	fmt.Fprintf(&c.in, "Content-Length: 5\r\n\r\n{bad}")
	id := c.request("initialize", map[string]any{})
	c.close()

	msgs, err := c.run()

	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	require.NotNil(t, msgs[0].Error)
	assert.Equal(t, CodeParseError, msgs[0].Error.Code)
	assert.Nil(t, responseTo(t, msgs, id).Error)
}

func TestServer_EOFEndsRun(t *testing.T) {
	c := newSession(t)
	c.initialize(t.TempDir())

	msgs, err := c.run()

	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestServer_TruncatedBody(t *testing.T) {
	c := newSession(t)
	fmt.Fprintf(&c.in, "Content-Length: 50\r\n\r\n{}")

	_, err := c.run()

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
