package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ordervox/ordervox/pkg/core/dialog"
	"github.com/ordervox/ordervox/pkg/core/live"
)

type fakeSTT struct{ out string }

func (f *fakeSTT) Transcribe(context.Context, []byte, string) (string, error) {
	return f.out, nil
}

type fakeTTS struct{}

func (fakeTTS) Speak(_ context.Context, _, _ string, emit func([]byte) error) error {
	return emit([]byte("pcm"))
}

type fakeHandler struct {
	mu    sync.Mutex
	reply dialog.Reply
	lang  string
}

func (f *fakeHandler) Process(context.Context, string) (dialog.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reply, nil
}

func (f *fakeHandler) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lang == "" {
		return "en"
	}
	return f.lang
}

func (f *fakeHandler) SetLanguage(lang string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lang = lang
}

func (f *fakeHandler) Greeting() dialog.Reply { return dialog.Reply{} }
func (f *fakeHandler) IdlePrompt(int) string  { return "still there?" }
func (f *fakeHandler) Goodbye() string        { return "goodbye" }
func (f *fakeHandler) Busy() bool             { return false }

func startTestHost(t *testing.T, handler *fakeHandler) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		core := live.NewSession(live.DefaultSessionConfig(), &fakeSTT{out: "hello"}, fakeTTS{}, handler)
		cfg := DefaultConfig()
		cfg.HeartbeatInterval = 0
		host := New(cfg, conn, core, zap.NewNop(), nil, nil)
		_ = host.Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrames collects text frames until a frame of the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", wantType, err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if frame["type"] == wantType {
			return frame
		}
	}
	t.Fatalf("timed out waiting for %q", wantType)
	return nil
}

func TestHost_SessionReadyOnConnect(t *testing.T) {
	conn := startTestHost(t, &fakeHandler{})

	frame := readFrame(t, conn, "session_ready")
	if frame["session_id"] == "" {
		t.Error("expected a session id")
	}
	if got := frame["sample_rate_hz"].(float64); got != 16000 {
		t.Errorf("expected 16000 sample rate, got %v", got)
	}
	if frame["lang"] != "en" {
		t.Errorf("expected default lang en, got %v", frame["lang"])
	}
}

func TestHost_EndCallSaysGoodbye(t *testing.T) {
	conn := startTestHost(t, &fakeHandler{})
	readFrame(t, conn, "session_ready")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"end_call"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	bye := readFrame(t, conn, "bye")
	if bye["reason"] != "client_end" {
		t.Errorf("expected client_end reason, got %v", bye["reason"])
	}
}

func TestHost_RejectsUnknownControl(t *testing.T) {
	conn := startTestHost(t, &fakeHandler{})
	readFrame(t, conn, "session_ready")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"reboot"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, conn, "error")
	if frame["code"] != "unsupported" {
		t.Errorf("expected unsupported code, got %v", frame["code"])
	}
}

func TestHost_SetLanguageReachesHandler(t *testing.T) {
	handler := &fakeHandler{}
	conn := startTestHost(t, handler)
	readFrame(t, conn, "session_ready")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"set_language","lang":"tr"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for handler.Language() != "tr" {
		if time.Now().After(deadline) {
			t.Fatal("language never reached the handler")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
