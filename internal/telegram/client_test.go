package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guiyumin/transmote/internal/bot"
)

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	var gotOffset int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottok/getUpdates" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req getUpdatesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		gotOffset = req.Offset
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 100, "message": map[string]any{"message_id": 1, "chat": map[string]any{"id": 7}, "from": map[string]any{"id": 42}, "text": "hi"}},
				{"update_id": 102, "message": map[string]any{"message_id": 2, "chat": map[string]any{"id": 7}, "from": map[string]any{"id": 42}, "text": "yo"}},
			},
		})
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "tok")
	updates, next, err := c.getUpdates(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if gotOffset != 50 {
		t.Errorf("sent offset = %d, want 50", gotOffset)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if next != 103 {
		t.Errorf("next offset = %d, want 103", next)
	}
}

func TestCallSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Bad Request: message is not modified"})
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "tok")
	err := c.editMessageText(context.Background(), editMessageTextRequest{ChatID: 1, MessageID: 2, Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSendMessageReturnsMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ChatID != 7 || req.Text != "hello" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 99}})
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "tok")
	id, err := c.sendMessage(context.Background(), sendMessageRequest{ChatID: 7, Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 99 {
		t.Errorf("message id = %d, want 99", id)
	}
}

func TestDownloadFileTwoStep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottok/getFile":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"file_id": "abc", "file_path": "documents/file_1.torrent", "file_size": 12},
			})
		case "/file/bottok/documents/file_1.torrent":
			_, _ = w.Write([]byte("d8:announce0:e"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "tok")
	data, err := c.downloadFile(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "d8:announce0:e" {
		t.Errorf("data = %q", data)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in       string
		cmd, arg string
	}{
		{"/list", "list", ""},
		{"/List", "list", ""},
		{"/add magnet:?xt=urn:btih:abc", "add", "magnet:?xt=urn:btih:abc"},
		{"/list@TransmoteBot", "list", ""},
		{"/list@transmotebot extra", "list", "extra"},
		{"/list@SomeOtherBot", "", ""},
		{"/free  ", "free", ""},
	}
	for _, tt := range tests {
		cmd, arg := splitCommand(tt.in, "TransmoteBot")
		if cmd != tt.cmd || arg != tt.arg {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tt.in, cmd, arg, tt.cmd, tt.arg)
		}
	}
}

func TestConvert(t *testing.T) {
	g := &Gateway{username: "TransmoteBot"}

	tests := []struct {
		name string
		u    update
		want bot.Event
		ok   bool
	}{
		{
			name: "plain text",
			u:    update{Message: &message{MessageID: 1, Chat: &chat{ID: 7}, From: &user{ID: 42}, Text: "magnet:?xt=a"}},
			want: bot.Event{UserID: 42, ChatID: 7, MessageID: 1, Kind: bot.KindText, Text: "magnet:?xt=a"},
			ok:   true,
		},
		{
			name: "command",
			u:    update{Message: &message{MessageID: 1, Chat: &chat{ID: 7}, From: &user{ID: 42}, Text: "/list 2"}},
			want: bot.Event{UserID: 42, ChatID: 7, MessageID: 1, Kind: bot.KindCommand, Command: "list", Args: "2"},
			ok:   true,
		},
		{
			name: "command for another bot",
			u:    update{Message: &message{MessageID: 1, Chat: &chat{ID: 7}, From: &user{ID: 42}, Text: "/list@OtherBot"}},
			ok:   false,
		},
		{
			name: "bot message dropped",
			u:    update{Message: &message{MessageID: 1, Chat: &chat{ID: 7}, From: &user{ID: 9, IsBot: true}, Text: "hi"}},
			ok:   false,
		},
		{
			name: "document",
			u: update{Message: &message{MessageID: 3, Chat: &chat{ID: 7}, From: &user{ID: 42},
				Document: &document{FileID: "f1", FileName: "ubuntu.torrent"}}},
			want: bot.Event{UserID: 42, ChatID: 7, MessageID: 3, Kind: bot.KindDocument,
				Document: &bot.Document{FileID: "f1", FileName: "ubuntu.torrent"}},
			ok: true,
		},
		{
			name: "callback",
			u: update{CallbackQuery: &callbackQuery{ID: "cb1", From: &user{ID: 42},
				Message: &message{MessageID: 5, Chat: &chat{ID: 7}}, Data: "detail:12"}},
			want: bot.Event{UserID: 42, ChatID: 7, MessageID: 5, Kind: bot.KindCallback,
				Callback: &bot.Callback{ID: "cb1", MessageID: 5, Data: "detail:12"}},
			ok: true,
		},
		{
			name: "empty message dropped",
			u:    update{Message: &message{MessageID: 1, Chat: &chat{ID: 7}, From: &user{ID: 42}}},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.convert(tt.u)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.UserID != tt.want.UserID || got.ChatID != tt.want.ChatID ||
				got.MessageID != tt.want.MessageID || got.Kind != tt.want.Kind ||
				got.Command != tt.want.Command || got.Args != tt.want.Args || got.Text != tt.want.Text {
				t.Errorf("event = %+v, want %+v", got, tt.want)
			}
			if tt.want.Document != nil && (got.Document == nil || *got.Document != *tt.want.Document) {
				t.Errorf("document = %+v, want %+v", got.Document, tt.want.Document)
			}
			if tt.want.Callback != nil && (got.Callback == nil || *got.Callback != *tt.want.Callback) {
				t.Errorf("callback = %+v, want %+v", got.Callback, tt.want.Callback)
			}
		})
	}
}

func TestMarkup(t *testing.T) {
	if markup(nil) != nil {
		t.Error("empty keyboard should map to nil markup")
	}
	m := markup(bot.Keyboard{{{Text: "Start", Data: "t:1:start"}, {Text: "Stop", Data: "t:1:stop"}}})
	if len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("markup shape = %+v", m)
	}
	if m.InlineKeyboard[0][1].CallbackData != "t:1:stop" {
		t.Errorf("callback data = %q", m.InlineKeyboard[0][1].CallbackData)
	}
}
