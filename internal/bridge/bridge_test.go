package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// dialTestServer starts the bridge behind httptest and connects a fake
// extension to it.
func dialTestServer(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	if err := s.WaitConnected(2 * time.Second); err != nil {
		t.Fatalf("server never saw the connection: %v", err)
	}
	return conn
}

func TestSendNotConnected(t *testing.T) {
	s := New(0)
	err := s.Send(OutgoingMsg{ID: "1", Action: "queryTabs"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

func TestPushMessageReachesChannel(t *testing.T) {
	s := New(0)
	conn := dialTestServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := `{"type":"snapshot","tabs":[{"id":1,"url":"https://example.org/","groupId":-1}]}`
	if err := conn.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-s.Messages():
		if msg.Type != "snapshot" {
			t.Fatalf("type = %q, want snapshot", msg.Type)
		}
		session, err := ParseSnapshot(msg)
		if err != nil {
			t.Fatalf("ParseSnapshot: %v", err)
		}
		if len(session.Tabs) != 1 || session.Tabs[0].URL != "https://example.org/" {
			t.Errorf("tabs = %+v", session.Tabs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push message never arrived")
	}
}

func TestRequestReplyCorrelation(t *testing.T) {
	s := New(0)
	conn := dialTestServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Fake extension: read one request, reply with its ID.
	go func() {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req OutgoingMsg
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		ok := true
		reply, _ := json.Marshal(IncomingMsg{ID: req.ID, OK: &ok, GroupID: 7})
		conn.Write(ctx, websocket.MessageText, reply)
	}()

	reply, err := s.Request(ctx, OutgoingMsg{Action: "groupTabs", TabIDs: []int{1, 2}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.GroupID != 7 {
		t.Errorf("GroupID = %d, want 7", reply.GroupID)
	}
}

func TestRequestErrorReply(t *testing.T) {
	s := New(0)
	conn := dialTestServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req OutgoingMsg
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		notOK := false
		reply, _ := json.Marshal(IncomingMsg{ID: req.ID, OK: &notOK, Error: "no such tab"})
		conn.Write(ctx, websocket.MessageText, reply)
	}()

	_, err := s.Request(ctx, OutgoingMsg{Action: "activateTab", TabID: 99})
	if err == nil || !strings.Contains(err.Error(), "no such tab") {
		t.Errorf("error = %v, want the extension's message", err)
	}
}

func TestRequestContextTimeout(t *testing.T) {
	s := New(0)
	dialTestServer(t, s) // connected, but the extension never replies

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.Request(ctx, OutgoingMsg{Action: "queryTabs"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
