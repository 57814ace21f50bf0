package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type fakeStore struct {
	failCreate bool
	failInsert bool
	batches    map[string]storage.ClearBatch
	messages   map[string][]storage.ArchivedMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		batches:  make(map[string]storage.ClearBatch),
		messages: make(map[string][]storage.ArchivedMessage),
	}
}

func (s *fakeStore) CreateBatch(_ context.Context, batch storage.ClearBatch) error {
	if s.failCreate {
		return errors.New("database unavailable")
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *fakeStore) InsertMessages(_ context.Context, messages []storage.ArchivedMessage) error {
	if s.failInsert {
		return errors.New("insert failed")
	}
	for _, msg := range messages {
		s.messages[msg.BatchID] = append(s.messages[msg.BatchID], msg)
	}
	return nil
}

func (s *fakeStore) GetBatch(_ context.Context, id string) (storage.ClearBatch, error) {
	batch, ok := s.batches[id]
	if !ok {
		return storage.ClearBatch{}, storage.ErrBatchNotFound
	}
	return batch, nil
}

func (s *fakeStore) ListBatchMessages(_ context.Context, batchID string) ([]storage.ArchivedMessage, error) {
	return s.messages[batchID], nil
}

func (s *fakeStore) ListChannelBatches(_ context.Context, channelID string, limit int) ([]storage.ClearBatch, error) {
	var out []storage.ClearBatch
	for _, batch := range s.batches {
		if batch.ChannelID == channelID {
			out = append(out, batch)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) DeleteBatch(_ context.Context, id string) error {
	delete(s.batches, id)
	delete(s.messages, id)
	return nil
}

type fakeTransport struct {
	messages    []Message
	fetchErr    error
	deleteCalls [][]string
}

func (t *fakeTransport) RecentMessages(_ context.Context, _ string, limit int) ([]Message, error) {
	if t.fetchErr != nil {
		return nil, t.fetchErr
	}
	if len(t.messages) > limit {
		return t.messages[:limit], nil
	}
	return t.messages, nil
}

func (t *fakeTransport) BulkDelete(_ context.Context, _ string, ids []string) error {
	t.deleteCalls = append(t.deleteCalls, ids)
	return nil
}

type stubDownloader struct {
	failURLs map[string]bool
	opened   []string
}

func (d *stubDownloader) Download(_ context.Context, url, dest string) (string, error) {
	if d.failURLs[url] {
		return "", errors.New("connection reset")
	}
	if err := os.WriteFile(dest, []byte("data:"+url), 0o644); err != nil {
		return "", err
	}
	return "application/octet-stream", nil
}

func (d *stubDownloader) Open(_ context.Context, url string) (io.ReadCloser, string, error) {
	if d.failURLs[url] {
		return nil, "", errors.New("connection reset")
	}
	d.opened = append(d.opened, url)
	return io.NopCloser(strings.NewReader("remote:" + url)), "application/octet-stream", nil
}

func newClearEngine(t *testing.T, store *fakeStore, transport *fakeTransport, files Downloader, now time.Time) *ClearEngine {
	t.Helper()
	engine := NewClearEngine(store, transport, files, t.TempDir(), zap.NewNop())
	engine.WithClock(fakeClock{now: now})
	return engine
}

func channelMessage(id string, age time.Duration, now time.Time) Message {
	return Message{
		ID:         id,
		ChannelID:  "c1",
		AuthorID:   "u1",
		AuthorName: "alice",
		Content:    "message " + id,
		Timestamp:  now.Add(-age),
	}
}

func TestClearArchivesThenDeletes(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()
	transport := &fakeTransport{}
	for i := 0; i < 50; i++ {
		age := time.Duration(i) * time.Hour
		if i >= 40 {
			// Older than the bulk-delete ceiling.
			age = BulkDeleteMaxAge + time.Duration(i)*time.Hour
		}
		transport.messages = append(transport.messages, channelMessage(fmt.Sprintf("m%d", i), age, now))
	}

	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	result, err := engine.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ChannelID: "c1", ModeratorID: "mod", Amount: 50,
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.Deleted != 40 {
		t.Fatalf("expected 40 deleted, got %d", result.Deleted)
	}
	if len(store.messages[result.BatchID]) != 40 {
		t.Fatalf("expected 40 archived, got %d", len(store.messages[result.BatchID]))
	}
	if len(transport.deleteCalls) != 1 || len(transport.deleteCalls[0]) != 40 {
		t.Fatalf("expected one bulk delete of 40 ids, got %v", transport.deleteCalls)
	}
}

func TestBatchCreateFailureBlocksDelete(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()
	store.failCreate = true
	transport := &fakeTransport{messages: []Message{channelMessage("m1", time.Hour, now)}}

	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	_, err := engine.Clear(context.Background(), ClearRequest{GuildID: "g1", ChannelID: "c1", ModeratorID: "mod"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(transport.deleteCalls) != 0 {
		t.Fatalf("bulk delete must never run when the archive fails, got %d calls", len(transport.deleteCalls))
	}
}

func TestSnapshotInsertFailureBlocksDelete(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()
	store.failInsert = true
	transport := &fakeTransport{messages: []Message{channelMessage("m1", time.Hour, now)}}

	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	_, err := engine.Clear(context.Background(), ClearRequest{GuildID: "g1", ChannelID: "c1", ModeratorID: "mod"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(transport.deleteCalls) != 0 {
		t.Fatalf("bulk delete must never run when the snapshot insert fails")
	}
}

func TestAttachmentFailureDoesNotAbortBatch(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()

	bad := channelMessage("m2", time.Hour, now)
	bad.Attachments = []RemoteAttachment{{Name: "broken.png", URL: "https://cdn.example/broken.png"}}
	good := channelMessage("m3", 2*time.Hour, now)
	good.Attachments = []RemoteAttachment{{Name: "ok.png", URL: "https://cdn.example/ok.png"}}
	transport := &fakeTransport{messages: []Message{channelMessage("m1", time.Minute, now), bad, good}}

	files := &stubDownloader{failURLs: map[string]bool{"https://cdn.example/broken.png": true}}
	engine := newClearEngine(t, store, transport, files, now)

	result, err := engine.Clear(context.Background(), ClearRequest{GuildID: "g1", ChannelID: "c1", ModeratorID: "mod"})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.Deleted != 3 {
		t.Fatalf("all 3 messages must be deleted, got %d", result.Deleted)
	}

	archived := store.messages[result.BatchID]
	if len(archived) != 3 {
		t.Fatalf("all 3 messages must be archived, got %d", len(archived))
	}
	var brokenSeen, okSeen bool
	for _, msg := range archived {
		for _, att := range msg.Attachments {
			switch att.Name {
			case "broken.png":
				brokenSeen = true
				if att.Error == "" {
					t.Fatalf("failing attachment must carry an error marker")
				}
				if att.LocalPath != "" {
					t.Fatalf("failing attachment must not claim a local path")
				}
			case "ok.png":
				okSeen = true
				if att.Error != "" || att.LocalPath == "" {
					t.Fatalf("healthy attachment mishandled: %+v", att)
				}
				if _, err := os.Stat(att.LocalPath); err != nil {
					t.Fatalf("local file missing: %v", err)
				}
			}
		}
	}
	if !brokenSeen || !okSeen {
		t.Fatalf("expected both attachments in the archive")
	}
	if len(transport.deleteCalls) != 1 || len(transport.deleteCalls[0]) != 3 {
		t.Fatalf("bulk delete must cover all 3 ids, got %v", transport.deleteCalls)
	}
}

func TestFiltersAreConjunctive(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()

	botMsg := channelMessage("m1", time.Hour, now)
	botMsg.AuthorBot = true
	botFromTarget := channelMessage("m2", time.Hour, now)
	botFromTarget.AuthorID = "target"
	botFromTarget.AuthorBot = true
	humanFromTarget := channelMessage("m3", time.Hour, now)
	humanFromTarget.AuthorID = "target"
	transport := &fakeTransport{messages: []Message{botMsg, botFromTarget, humanFromTarget}}

	bots := true
	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	result, err := engine.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ChannelID: "c1", ModeratorID: "mod",
		Filters: ClearFilters{AuthorID: "target", Bots: &bots},
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("only m2 matches both filters, got %d deleted", result.Deleted)
	}
	if transport.deleteCalls[0][0] != "m2" {
		t.Fatalf("expected m2, got %v", transport.deleteCalls[0])
	}
}

func TestRoleFilter(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()

	withRole := channelMessage("m1", time.Hour, now)
	withRole.AuthorRoles = []string{"r1", "r2"}
	without := channelMessage("m2", time.Hour, now)
	without.AuthorRoles = []string{"r3"}
	transport := &fakeTransport{messages: []Message{withRole, without}}

	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	result, err := engine.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ChannelID: "c1", ModeratorID: "mod",
		Filters: ClearFilters{RoleID: "r2"},
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.Deleted != 1 || transport.deleteCalls[0][0] != "m1" {
		t.Fatalf("expected only m1, got %v", transport.deleteCalls)
	}
}

func TestNothingEligible(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newFakeStore()
	transport := &fakeTransport{messages: []Message{channelMessage("m1", BulkDeleteMaxAge+time.Hour, now)}}

	engine := newClearEngine(t, store, transport, &stubDownloader{}, now)
	_, err := engine.Clear(context.Background(), ClearRequest{GuildID: "g1", ChannelID: "c1", ModeratorID: "mod"})
	if !errors.Is(err, ErrNothingEligible) {
		t.Fatalf("expected ErrNothingEligible, got %v", err)
	}
	if len(store.batches) != 0 {
		t.Fatalf("no batch row may be created for an empty set")
	}
	if len(transport.deleteCalls) != 0 {
		t.Fatalf("no delete may run for an empty set")
	}
}

func TestSanitizeName(t *testing.T) {
	if got := sanitizeName("../../etc/passwd"); strings.Contains(got, "/") {
		t.Fatalf("path separators must be stripped, got %q", got)
	}
	if got := sanitizeName(""); got != "attachment" {
		t.Fatalf("empty name fallback, got %q", got)
	}
}
