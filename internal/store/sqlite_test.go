package store_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	st, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

func seedGroup(t *testing.T, st *store.SQLiteStore, id string, agents ...string) {
	t.Helper()
	group := &models.Group{ID: id, Agents: agents, CreatedAt: time.Now().UTC()}
	if err := st.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("failed to seed group %s: %v", id, err)
	}
}

func seedThread(t *testing.T, st *store.SQLiteStore, id, groupID string) {
	t.Helper()
	thread := &models.Thread{
		ID:        id,
		GroupID:   groupID,
		Subject:   "test subject",
		Creator:   "alice",
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateThread(context.Background(), thread); err != nil {
		t.Fatalf("failed to seed thread %s: %v", id, err)
	}
}

func seedMessage(t *testing.T, st *store.SQLiteStore, threadID string, seq int, groupID, from string, to []string, at time.Time) {
	t.Helper()
	msg := &models.Message{
		ThreadID:  threadID,
		Seq:       seq,
		GroupID:   groupID,
		From:      from,
		To:        to,
		Subject:   "test subject",
		Body:      "test body",
		CreatedAt: at,
	}
	if err := st.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("failed to seed message %s/%d: %v", threadID, seq, err)
	}
}

func TestSQLiteStore_GroupRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice", "bob")

	got, err := st.GetGroup(ctx, "@dev")
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected group, got nil")
	}
	if got.ID != "@dev" {
		t.Errorf("expected id '@dev', got %q", got.ID)
	}
	if strings.Join(got.Agents, ",") != "alice,bob" {
		t.Errorf("expected roster 'alice,bob', got %q", strings.Join(got.Agents, ","))
	}
}

func TestSQLiteStore_GetGroup_Missing(t *testing.T) {
	st := setupTestStore(t)

	got, err := st.GetGroup(context.Background(), "@nope")
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing group, got %+v", got)
	}
}

func TestSQLiteStore_AddAgents_AppendsInOrder(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice")

	if err := st.AddAgents(ctx, "@dev", []string{"bob", "carol"}); err != nil {
		t.Fatalf("AddAgents failed: %v", err)
	}

	got, err := st.GetGroup(ctx, "@dev")
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if strings.Join(got.Agents, ",") != "alice,bob,carol" {
		t.Errorf("expected roster 'alice,bob,carol', got %q", strings.Join(got.Agents, ","))
	}
}

func TestSQLiteStore_ListGroups(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@alpha", "alice")
	seedGroup(t, st, "@beta", "bob", "carol")

	groups, err := st.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != "@alpha" || groups[1].ID != "@beta" {
		t.Errorf("expected oldest-first order, got %s, %s", groups[0].ID, groups[1].ID)
	}
	if len(groups[1].Agents) != 2 {
		t.Errorf("expected @beta roster loaded, got %v", groups[1].Agents)
	}
}

func TestSQLiteStore_ThreadRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice")
	seedThread(t, st, "t1", "@dev")

	got, err := st.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected thread, got nil")
	}
	if got.GroupID != "@dev" || got.Creator != "alice" || got.LastSeq != 0 {
		t.Errorf("unexpected thread fields: %+v", got)
	}

	missing, err := st.GetThread(ctx, "t-missing")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing thread, got %+v", missing)
	}
}

func TestSQLiteStore_CreateMessage_AdvancesLastSeq(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice", "bob")
	seedThread(t, st, "t1", "@dev")

	now := time.Now().UTC()
	seedMessage(t, st, "t1", 0, "@dev", "alice", []string{"bob"}, now)
	seedMessage(t, st, "t1", 1, "@dev", "bob", []string{"alice"}, now.Add(time.Millisecond))

	thread, err := st.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if thread.LastSeq != 1 {
		t.Errorf("expected last_seq 1, got %d", thread.LastSeq)
	}

	msg, err := st.GetMessage(ctx, "t1", 1)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if msg == nil {
		t.Fatal("expected message, got nil")
	}
	if msg.From != "bob" || strings.Join(msg.To, ",") != "alice" {
		t.Errorf("unexpected message fields: %+v", msg)
	}
}

func TestSQLiteStore_CreateMessage_DuplicateSeqRejected(t *testing.T) {
	st := setupTestStore(t)

	seedGroup(t, st, "@dev", "alice", "bob")
	seedThread(t, st, "t1", "@dev")

	now := time.Now().UTC()
	seedMessage(t, st, "t1", 0, "@dev", "alice", []string{"bob"}, now)

	dup := &models.Message{
		ThreadID:  "t1",
		Seq:       0,
		GroupID:   "@dev",
		From:      "bob",
		To:        []string{"alice"},
		Subject:   "dup",
		Body:      "dup",
		CreatedAt: now,
	}
	if err := st.CreateMessage(context.Background(), dup); err == nil {
		t.Fatal("expected error for duplicate (thread, seq)")
	}
}

func TestSQLiteStore_ListThreadMessages_SeqOrder(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice", "bob")
	seedThread(t, st, "t1", "@dev")

	now := time.Now().UTC()
	// Insert out of order; reads must still come back 0,1,2.
	seedMessage(t, st, "t1", 1, "@dev", "bob", []string{"alice"}, now.Add(time.Millisecond))
	seedMessage(t, st, "t1", 0, "@dev", "alice", []string{"bob"}, now)
	seedMessage(t, st, "t1", 2, "@dev", "alice", []string{"bob"}, now.Add(2*time.Millisecond))

	msgs, err := st.ListThreadMessages(ctx, "t1")
	if err != nil {
		t.Fatalf("ListThreadMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Seq != i {
			t.Errorf("expected seq %d at position %d, got %d", i, i, msg.Seq)
		}
	}
}

func TestSQLiteStore_FindMessagesBySeq(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@alpha", "alice", "bob")
	seedGroup(t, st, "@beta", "carol", "dave")
	seedThread(t, st, "t1", "@alpha")
	seedThread(t, st, "t2", "@beta")

	now := time.Now().UTC()
	seedMessage(t, st, "t1", 0, "@alpha", "alice", []string{"bob"}, now)
	seedMessage(t, st, "t2", 0, "@beta", "carol", []string{"dave"}, now.Add(time.Millisecond))

	all, err := st.FindMessagesBySeq(ctx, 0, "")
	if err != nil {
		t.Fatalf("FindMessagesBySeq failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 matches across groups, got %d", len(all))
	}

	scoped, err := st.FindMessagesBySeq(ctx, 0, "@beta")
	if err != nil {
		t.Fatalf("FindMessagesBySeq failed: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ThreadID != "t2" {
		t.Fatalf("expected only t2 for @beta, got %+v", scoped)
	}
}

func TestSQLiteStore_ListMessagesForAgent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice", "bob", "carol")
	seedThread(t, st, "t1", "@dev")

	now := time.Now().UTC()
	seedMessage(t, st, "t1", 0, "@dev", "alice", []string{"bob"}, now)
	seedMessage(t, st, "t1", 1, "@dev", "bob", []string{"carol"}, now.Add(time.Millisecond))
	seedMessage(t, st, "t1", 2, "@dev", "carol", []string{"alice", "bob"}, now.Add(2*time.Millisecond))

	// alice is a recipient of seq 2 only. Seq 0 she sent without
	// receiving, so it must not show up; seq 1 is not hers at all.
	msgs, err := st.ListMessagesForAgent(ctx, "alice", "@dev", 10)
	if err != nil {
		t.Fatalf("ListMessagesForAgent failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message for alice, got %d", len(msgs))
	}
	if msgs[0].Seq != 2 {
		t.Errorf("expected seq 2, got %d", msgs[0].Seq)
	}

	// carol sent seq 2 but is only a recipient of seq 1.
	msgs, err = st.ListMessagesForAgent(ctx, "carol", "@dev", 10)
	if err != nil {
		t.Fatalf("ListMessagesForAgent failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Seq != 1 {
		t.Fatalf("expected only seq 1 for carol, got %+v", msgs)
	}
}

func TestSQLiteStore_ListMessagesByAgent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@alpha", "alice", "bob")
	seedGroup(t, st, "@beta", "alice", "carol")
	seedThread(t, st, "t1", "@alpha")
	seedThread(t, st, "t2", "@beta")

	now := time.Now().UTC()
	seedMessage(t, st, "t1", 0, "@alpha", "alice", []string{"bob"}, now)
	seedMessage(t, st, "t2", 0, "@beta", "alice", []string{"carol"}, now.Add(time.Millisecond))
	seedMessage(t, st, "t1", 1, "@alpha", "bob", []string{"alice"}, now.Add(2*time.Millisecond))

	sent, err := st.ListMessagesByAgent(ctx, "alice", "", 10)
	if err != nil {
		t.Fatalf("ListMessagesByAgent failed: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 sent messages across groups, got %d", len(sent))
	}

	scoped, err := st.ListMessagesByAgent(ctx, "alice", "@beta", 10)
	if err != nil {
		t.Fatalf("ListMessagesByAgent failed: %v", err)
	}
	if len(scoped) != 1 || scoped[0].GroupID != "@beta" {
		t.Fatalf("expected only @beta message, got %+v", scoped)
	}
}

func TestSQLiteStore_Events(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, ev := range []*models.Event{
		{ID: "01A", Type: models.EventGroupCreated, GroupID: "@alpha"},
		{ID: "01B", Type: models.EventMessageSent, GroupID: "@alpha", Agent: "alice", ThreadID: "t1", Seq: 0},
		{ID: "01C", Type: models.EventMessageSent, GroupID: "@beta", Agent: "carol", ThreadID: "t2", Seq: 0},
	} {
		ev.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		if err := st.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	events, err := st.ListEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].ID != "01C" {
		t.Errorf("expected newest first, got %s", events[0].ID)
	}

	scoped, err := st.ListEvents(ctx, "@alpha", 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 events for @alpha, got %d", len(scoped))
	}

	limited, err := st.ListEvents(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 event with limit 1, got %d", len(limited))
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	seedGroup(t, st, "@dev", "alice", "bob")
	seedThread(t, st, "t1", "@dev")
	seedMessage(t, st, "t1", 0, "@dev", "alice", []string{"bob"}, time.Now().UTC())

	if err := st.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	group, err := st.GetGroup(ctx, "@dev")
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if group != nil {
		t.Errorf("expected no groups after reset, got %+v", group)
	}

	thread, err := st.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if thread != nil {
		t.Errorf("expected no threads after reset, got %+v", thread)
	}

	msgs, err := st.FindMessagesBySeq(ctx, 0, "")
	if err != nil {
		t.Fatalf("FindMessagesBySeq failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages after reset, got %d", len(msgs))
	}
}
