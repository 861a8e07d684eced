package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/api"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/config"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/handlers"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(st.Close)

	router := api.NewRouter(zerolog.Nop(), st, nil, &config.Config{})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createGroup(t *testing.T, srv *httptest.Server, id string, agents ...string) {
	t.Helper()

	status := postJSON(t, srv, "/groups", map[string]any{"id": id, "agents": agents}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func TestAPI_ConversationFlow(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob", "carol")

	// alice opens a thread to bob and carol.
	var sent handlers.WriteEmailResponse
	status := postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g",
		"from":     "alice",
		"to":       []string{"bob", "carol"},
		"subject":  "Build update",
		"body":     "The nightly build is green again.",
	}, &sent)
	req.Equal(http.StatusCreated, status)
	req.Equal("0", sent.MessageID)
	req.True(sent.NewThreadCreated)
	req.NotEmpty(sent.ThreadID)

	// bob replies; only alice hears back.
	var reply handlers.ReplyEmailResponse
	status = postJSON(t, srv, "/threads/"+sent.ThreadID+"/reply", map[string]any{
		"from": "bob",
		"body": "Nice. What changed?",
	}, &reply)
	req.Equal(http.StatusCreated, status)
	req.Equal("1", reply.MessageID)
	req.Equal([]string{"alice"}, reply.To)
	req.Equal("Re: Build update", reply.Subject)

	// carol replies to everyone on bob's message.
	var replyAll handlers.ReplyEmailResponse
	status = postJSON(t, srv, "/threads/"+sent.ThreadID+"/reply-all", map[string]any{
		"from": "carol",
		"body": "Shipping it.",
	}, &replyAll)
	req.Equal(http.StatusCreated, status)
	req.Equal("2", replyAll.MessageID)
	req.Equal([]string{"bob", "alice"}, replyAll.To)
	req.Equal("Re: Build update", replyAll.Subject)

	// The thread reads back in sequence order, gap-free.
	var thread handlers.ThreadResponse
	status = getJSON(t, srv, "/threads/"+sent.ThreadID, &thread)
	req.Equal(http.StatusOK, status)
	req.Equal("@g", thread.GroupID)
	req.Equal("Build update", thread.Subject)
	req.Len(thread.Messages, 3)
	for i, msg := range thread.Messages {
		req.Equal(i, mustAtoi(t, msg.MessageID))
	}

	// alice received both replies; her own opener is sent mail and
	// stays out of her inbox.
	var inbox handlers.InboxResponse
	status = getJSON(t, srv, "/groups/@g/inbox?agent=alice", &inbox)
	req.Equal(http.StatusOK, status)
	req.Equal(2, inbox.Count)
	req.Equal("2", inbox.Messages[0].MessageID)
	req.Equal("1", inbox.Messages[1].MessageID)

	// bob sent exactly one message.
	var sentBy handlers.AgentMessagesResponse
	status = getJSON(t, srv, "/agents/bob/messages?group_id=@g", &sentBy)
	req.Equal(http.StatusOK, status)
	req.Equal(1, sentBy.Count)
	req.Equal("1", sentBy.Messages[0].MessageID)
}

func TestAPI_WriteValidation(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	var errResp map[string]string
	status := postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "alice", "to": []string{"bob"},
	}, &errResp)
	req.Equal(http.StatusBadRequest, status)
	req.Contains(errResp["error"], "body")

	// "to" also accepts a single string.
	var sent handlers.WriteEmailResponse
	status = postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "alice", "to": "bob", "subject": "s", "body": "b",
	}, &sent)
	req.Equal(http.StatusCreated, status)
	req.Equal("0", sent.MessageID)

	// Senders outside the roster are rejected.
	status = postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "mallory", "to": "bob", "body": "b",
	}, &errResp)
	req.Equal(http.StatusBadRequest, status)
	req.Contains(errResp["error"], "mallory")

	// Malformed JSON is a 400, not a 500.
	resp, err := http.Post(srv.URL+"/emails", "application/json", strings.NewReader("{nope"))
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_NotFound(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	status := getJSON(t, srv, "/threads/no-such-thread", nil)
	req.Equal(http.StatusNotFound, status)

	status = getJSON(t, srv, "/messages/5", nil)
	req.Equal(http.StatusNotFound, status)

	status = getJSON(t, srv, "/groups/@missing/inbox", nil)
	req.Equal(http.StatusNotFound, status)

	status = postJSON(t, srv, "/threads/no-such-thread/reply", map[string]any{
		"from": "alice", "body": "b",
	}, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestAPI_AmbiguousMessageLookup(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	var first, second handlers.WriteEmailResponse
	postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "alice", "to": "bob", "subject": "one", "body": "b",
	}, &first)
	postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "bob", "to": "alice", "subject": "two", "body": "b",
	}, &second)

	// Bare "0" matches the head of both threads: conflict, listing each.
	var ambiguous handlers.AmbiguousResponse
	status := getJSON(t, srv, "/messages/0", &ambiguous)
	req.Equal(http.StatusConflict, status)
	req.NotEmpty(ambiguous.Error)
	req.Len(ambiguous.Matches, 2)
	req.ElementsMatch(
		[]string{first.ThreadID, second.ThreadID},
		[]string{ambiguous.Matches[0].ThreadID, ambiguous.Matches[1].ThreadID},
	)

	// Supplying thread_id resolves it.
	var msg handlers.MessageResponse
	status = getJSON(t, srv, "/messages/0?thread_id="+first.ThreadID, &msg)
	req.Equal(http.StatusOK, status)
	req.Equal("0", msg.MessageID)
	req.Equal("alice", msg.From)
	req.Equal("one", msg.Subject)

	// Padded renderings are not aliases of the canonical id.
	status = getJSON(t, srv, "/messages/%200?thread_id="+first.ThreadID, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestAPI_InboxPreview(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	long := strings.Repeat("a", 600)
	postJSON(t, srv, "/emails", map[string]any{
		"group_id": "@g", "from": "alice", "to": "bob", "subject": "long", "body": long,
	}, nil)

	// Previews cut to 500 characters, no ellipsis.
	var preview handlers.InboxResponse
	status := getJSON(t, srv, "/groups/@g/inbox/preview?agent=bob", &preview)
	req.Equal(http.StatusOK, status)
	req.Len(preview.Messages, 1)
	req.Len(preview.Messages[0].Body, 500)
	req.False(strings.HasSuffix(preview.Messages[0].Body, "..."))

	// The plain inbox keeps the full body.
	var full handlers.InboxResponse
	status = getJSON(t, srv, "/groups/@g/inbox?agent=bob", &full)
	req.Equal(http.StatusOK, status)
	req.Len(full.Messages[0].Body, 600)

	// preview_length overrides the default.
	var short handlers.InboxResponse
	status = getJSON(t, srv, "/groups/@g/inbox/preview?agent=bob&preview_length=10", &short)
	req.Equal(http.StatusOK, status)
	req.Len(short.Messages[0].Body, 10)
}

func TestAPI_Groups(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	// Creating the same group twice is a client error.
	var errResp map[string]string
	status := postJSON(t, srv, "/groups", map[string]any{"id": "@g"}, &errResp)
	req.Equal(http.StatusBadRequest, status)
	req.Contains(errResp["error"], "already exists")

	// The roster grows in place; "agents" accepts a single string too.
	var group handlers.GroupResponse
	status = postJSON(t, srv, "/groups/@g/agents", map[string]any{"agents": "carol"}, &group)
	req.Equal(http.StatusOK, status)
	req.Equal([]string{"alice", "bob", "carol"}, group.Agents)
	req.Equal(3, group.AgentCount)

	var groups handlers.GroupsResponse
	status = getJSON(t, srv, "/groups", &groups)
	req.Equal(http.StatusOK, status)
	req.Equal(1, groups.Count)
	req.Equal("@g", groups.Groups[0].ID)
}

func TestAPI_Reset(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	createGroup(t, srv, "@g", "alice", "bob")

	// The confirmation phrase is mandatory, exact.
	var errResp map[string]string
	status := postJSON(t, srv, "/admin/reset", map[string]any{"confirm": "yes please"}, &errResp)
	req.Equal(http.StatusBadRequest, status)
	req.Contains(errResp["error"], "erase-everything")

	status = postJSON(t, srv, "/admin/reset", map[string]any{"confirm": "erase-everything"}, nil)
	req.Equal(http.StatusOK, status)

	var groups handlers.GroupsResponse
	status = getJSON(t, srv, "/groups", &groups)
	req.Equal(http.StatusOK, status)
	req.Equal(0, groups.Count)
}

func TestAPI_HealthAndRoot(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	var health handlers.HealthResponse
	status := getJSON(t, srv, "/health", &health)
	req.Equal(http.StatusOK, status)
	req.Equal("healthy", health.Status)
	req.Contains(health.Checks, "store")
	// Redis is optional; without it there is nothing to check.
	req.NotContains(health.Checks, "redis")

	var root handlers.RootResponse
	status = getJSON(t, srv, "/", &root)
	req.Equal(http.StatusOK, status)
	req.NotEmpty(root.Name)

	resp, err := http.Get(srv.URL + "/metrics")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
