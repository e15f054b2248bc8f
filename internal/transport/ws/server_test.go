package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"islandgen/internal/level"
	"islandgen/internal/level/source"
	"islandgen/internal/protocol"
	"islandgen/internal/runner"
	"islandgen/internal/tuning"
)

func newTestServer(t *testing.T) (*Server, *runner.Runner, string) {
	t.Helper()
	tune := tuning.Defaults()
	tune.QuadrantSize = tuning.IntRange{Min: 10, Max: 11}
	tune.Scale = tuning.IntRange{Min: 2, Max: 3}
	r := runner.New(level.New(tune, source.Local{}, nil), runner.Config{})
	s := NewServer(r, nil)
	r.Subscribe(s.Broadcast)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return s, r, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) (protocol.BaseMessage, []byte) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return base, b
}

func readWelcome(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	base, b := readMsg(t, conn)
	if base.Type != protocol.TypeWelcome {
		t.Fatalf("expected WELCOME, got %s", base.Type)
	}
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	return w
}

func readLevel(t *testing.T, conn *websocket.Conn) protocol.LevelMsg {
	t.Helper()
	base, b := readMsg(t, conn)
	if base.Type != protocol.TypeLevel {
		t.Fatalf("expected LEVEL, got %s: %s", base.Type, b)
	}
	if err := protocol.ValidateJSON(protocol.SchemaLevel, b); err != nil {
		t.Fatalf("LEVEL does not match schema: %v", err)
	}
	var m protocol.LevelMsg
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("level: %v", err)
	}
	return m
}

func readError(t *testing.T, conn *websocket.Conn) protocol.ErrorMsg {
	t.Helper()
	base, b := readMsg(t, conn)
	if base.Type != protocol.TypeError {
		t.Fatalf("expected ERROR, got %s", base.Type)
	}
	var m protocol.ErrorMsg
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("error: %v", err)
	}
	return m
}

func TestRegenerateRepliesAndBroadcasts(t *testing.T) {
	s, _, url := newTestServer(t)

	a := dial(t, url)
	wa := readWelcome(t, a)
	if wa.SessionID == "" || wa.LatestPass != 0 {
		t.Fatalf("unexpected welcome: %+v", wa)
	}
	b := dial(t, url)
	readWelcome(t, b)

	deadline := time.Now().Add(5 * time.Second)
	for s.Clients() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"type":"REGENERATE","protocol_version":"1.0","request_id":"r1","seed":5}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	direct := readLevel(t, a)
	if direct.RequestID != "r1" || direct.Level.Seed != 5 || direct.Level.Pass != 1 {
		t.Fatalf("unexpected direct reply: id=%q seed=%d pass=%d", direct.RequestID, direct.Level.Seed, direct.Level.Pass)
	}
	if direct.Level.Side != 40 || len(direct.Level.Grass) != 40 {
		t.Fatalf("side=%d rows=%d want 40", direct.Level.Side, len(direct.Level.Grass))
	}
	pushed := readLevel(t, b)
	if pushed.RequestID != "" || pushed.Level.Digest != direct.Level.Digest {
		t.Fatalf("broadcast mismatch: %q %q", pushed.Level.Digest, direct.Level.Digest)
	}

	c := dial(t, url)
	wc := readWelcome(t, c)
	if wc.LatestPass != 1 {
		t.Fatalf("late joiner welcome: %+v", wc)
	}
	if late := readLevel(t, c); late.Level.Digest != direct.Level.Digest {
		t.Fatalf("late joiner got a different level")
	}
}

func TestRejectsBadRequests(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)
	readWelcome(t, conn)

	cases := []string{
		`not json`,
		`{"type":"HELLO","protocol_version":"1.0"}`,
		`{"type":"REGENERATE","protocol_version":"1.0","seed":"x"}`,
		`{"type":"REGENERATE","protocol_version":"0.1","request_id":"v"}`,
	}
	for _, raw := range cases {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if e := readError(t, conn); e.Code != protocol.ErrBadRequest {
			t.Fatalf("%s: code=%s want %s", raw, e.Code, protocol.ErrBadRequest)
		}
	}
}

type busyRunner struct{}

func (busyRunner) Run(context.Context, runner.Request) (runner.Result, error) {
	return runner.Result{}, level.ErrBusy
}
func (busyRunner) Latest() (runner.Result, bool) { return runner.Result{}, false }
func (busyRunner) Busy() bool                    { return true }

func TestBusyMapsToErrorCode(t *testing.T) {
	hs := httptest.NewServer(NewServer(busyRunner{}, nil).Handler())
	defer hs.Close()
	conn := dial(t, "ws"+strings.TrimPrefix(hs.URL, "http"))
	if w := readWelcome(t, conn); !w.Busy {
		t.Fatalf("welcome must report busy")
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"REGENERATE","protocol_version":"1.0","request_id":"q"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := readError(t, conn)
	if e.Code != protocol.ErrBusy || e.RequestID != "q" {
		t.Fatalf("unexpected error: %+v", e)
	}
}
