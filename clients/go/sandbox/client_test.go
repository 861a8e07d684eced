package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestWriteAppliesIdentityDefaults(t *testing.T) {
	t.Setenv("SANDBOX_CONFIG", t.TempDir())

	var got WriteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Sandbox-Agent") != "alice" {
			t.Errorf("expected agent header 'alice', got %q", r.Header.Get("X-Sandbox-Agent"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(WriteResponse{MessageID: "0", ThreadID: "t1", NewThreadCreated: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Group = "@g"
	c.Address = "alice"

	resp, err := c.Write(WriteRequest{To: []string{"bob"}, Subject: "s", Body: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got.GroupID != "@g" || got.From != "alice" {
		t.Errorf("identity defaults not applied: %+v", got)
	}
	if resp.MessageID != "0" || !resp.NewThreadCreated {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestErrorEnvelopeDecoding(t *testing.T) {
	t.Setenv("SANDBOX_CONFIG", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"thread nope not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Thread("nope")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "thread nope not found" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	t.Setenv("SANDBOX_CONFIG", t.TempDir())

	c := NewClient("http://localhost:1")
	c.Group = "@dev"
	c.Address = "carol"
	if err := c.SaveIdentity(); err != nil {
		t.Fatal(err)
	}

	fresh := NewClient("http://localhost:1")
	if fresh.Group != "@dev" || fresh.Address != "carol" {
		t.Errorf("identity not loaded: group=%q address=%q", fresh.Group, fresh.Address)
	}
}

func TestRequestShapes(t *testing.T) {
	t.Setenv("SANDBOX_CONFIG", t.TempDir())

	var gotMethod, gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Group = "@g"
	c.Address = "alice"

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  map[string]string
	}{
		{
			"inbox falls back to identity group",
			func() error { _, err := c.Inbox("", "bob", 20); return err },
			"GET", "/groups/@g/inbox", map[string]string{"limit": "20", "agent": "bob"},
		},
		{
			"preview carries its length",
			func() error { _, err := c.InboxPreview("@h", "", 10, 100); return err },
			"GET", "/groups/@h/inbox/preview", map[string]string{"limit": "10", "preview_length": "100"},
		},
		{
			"thread",
			func() error { _, err := c.Thread("t1"); return err },
			"GET", "/threads/t1", nil,
		},
		{
			"message narrowed by thread",
			func() error { _, err := c.Message("0", "t1", ""); return err },
			"GET", "/messages/0", map[string]string{"thread_id": "t1"},
		},
		{
			"sent by agent in group",
			func() error { _, err := c.SentBy("bob", "@g", 5); return err },
			"GET", "/agents/bob/messages", map[string]string{"limit": "5", "group_id": "@g"},
		},
		{
			"reply all",
			func() error { _, err := c.ReplyAll("t1", "", "b", ""); return err },
			"POST", "/threads/t1/reply-all", nil,
		},
		{
			"groups",
			func() error { _, err := c.Groups(); return err },
			"GET", "/groups", nil,
		},
		{
			"add agents",
			func() error { _, err := c.AddAgents("@g", []string{"dave"}); return err },
			"POST", "/groups/@g/agents", nil,
		},
	}
	for _, tc := range tests {
		if err := tc.call(); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if gotMethod != tc.method {
			t.Errorf("%s: expected method %s, got %s", tc.name, tc.method, gotMethod)
		}
		if gotPath != tc.path {
			t.Errorf("%s: expected path %s, got %s", tc.name, tc.path, gotPath)
		}
		for k, want := range tc.query {
			if got := gotQuery.Get(k); got != want {
				t.Errorf("%s: expected %s=%q, got %q", tc.name, k, want, got)
			}
		}
	}
}
