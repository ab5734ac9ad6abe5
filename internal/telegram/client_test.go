package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL)
	markup := &ReplyMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "Submit", CallbackData: "submit"}},
	}}
	if err := c.SendMessage(42, "Preview", markup); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["text"] != "Preview" {
		t.Fatalf("text = %v", gotBody["text"])
	}
	if _, ok := gotBody["reply_markup"]; !ok {
		t.Fatal("expected reply_markup in payload")
	}
}

func TestCallReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL)
	err := c.SendMessage(1, "hi", nil)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if apiErr.Description != "Bad Request: chat not found" {
		t.Fatalf("description = %q", apiErr.Description)
	}
}

func TestGetUpdatesDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"date":0,"text":"/start"}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":5},"data":"vehicle:v1"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL)
	updates, err := c.GetUpdates(0)
	if err != nil {
		t.Fatalf("get updates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "vehicle:v1" {
		t.Fatalf("unexpected second update: %+v", updates[1])
	}
}

func TestGetFileAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottest-token/getFile":
			w.Write([]byte(`{"ok":true,"result":{"file_id":"f1","file_unique_id":"u1","file_path":"photos/file_1.jpg"}}`))
		case "/file/bottest-token/photos/file_1.jpg":
			w.Write([]byte("jpeg-bytes"))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL)
	file, err := c.GetFile("f1")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if file.FilePath != "photos/file_1.jpg" {
		t.Fatalf("file path = %q", file.FilePath)
	}
	data, err := c.DownloadFile(file.FilePath)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestSenderName(t *testing.T) {
	cases := []struct {
		user *User
		want string
	}{
		{&User{FirstName: "Ivan", LastName: "Petrov"}, "Ivan Petrov"},
		{&User{FirstName: "Ivan"}, "Ivan"},
		{&User{Username: "ivan_p"}, "ivan_p"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := tc.user.SenderName(); got != tc.want {
			t.Fatalf("SenderName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}
