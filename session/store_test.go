package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "as")
	return store, rdb, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

var testAddr = common.HexToAddress("0x00000000000000000000000000000000000a11ce")

func testSession(sid string) *Session {
	now := time.Now()
	return &Session{
		SessionID:     sid,
		Address:       testAddr,
		IPHash:        [32]byte{1},
		UserAgentHash: [32]byte{2},
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	want := testSession("sid-1")
	if err := store.Save(ctx, want, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SessionID != "sid-1" || got.Address != testAddr {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.IPHash != want.IPHash || got.UserAgentHash != want.UserAgentHash {
		t.Fatal("hashes not preserved")
	}
	if got.CreatedAt != want.CreatedAt || got.ExpiresAt != want.ExpiresAt {
		t.Fatal("timestamps not preserved")
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("expected schema %d, got %d", CurrentSchemaVersion, got.SchemaVersion)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetExpiredRecordIsNotFoundAndPruned(t *testing.T) {
	store, rdb, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := testSession("sid-old")
	sess.ExpiresAt = time.Now().Add(-time.Second).Unix()
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, "sid-old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n, _ := rdb.Exists(ctx, store.key("sid-old")).Result(); n != 0 {
		t.Fatal("expected expired record to be deleted")
	}
}

func TestDeleteReportsRemainingLiveSessions(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, sid := range []string{"a", "b"} {
		if err := store.Save(ctx, testSession(sid), time.Hour); err != nil {
			t.Fatalf("save %s: %v", sid, err)
		}
	}

	live, err := store.Delete(ctx, "a", testAddr)
	if err != nil {
		t.Fatalf("delete a: %v", err)
	}
	if live != 1 {
		t.Fatalf("expected 1 live session, got %d", live)
	}

	live, err = store.Delete(ctx, "b", testAddr)
	if err != nil {
		t.Fatalf("delete b: %v", err)
	}
	if live != 0 {
		t.Fatalf("expected 0 live sessions, got %d", live)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store, rdb, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sid-1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.Delete(ctx, "sid-1", testAddr); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}

	members, err := rdb.SMembers(ctx, store.addressKey(testAddr)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty index, got %v", members)
	}
}

func TestDeletePrunesExpiredIndexEntries(t *testing.T) {
	store, rdb, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, testSession("short"), time.Second); err != nil {
		t.Fatalf("save short: %v", err)
	}
	if err := store.Save(ctx, testSession("long"), time.Hour); err != nil {
		t.Fatalf("save long: %v", err)
	}
	if err := store.Save(ctx, testSession("other"), time.Hour); err != nil {
		t.Fatalf("save other: %v", err)
	}
	mr.FastForward(2 * time.Second)

	live, err := store.Delete(ctx, "other", testAddr)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if live != 1 {
		t.Fatalf("expected only the long session to remain, got %d", live)
	}

	members, _ := rdb.SMembers(ctx, store.addressKey(testAddr)).Result()
	if len(members) != 1 || members[0] != "long" {
		t.Fatalf("unexpected index %v", members)
	}
}

func TestLiveSessionCountIgnoresExpiredRecords(t *testing.T) {
	store, _, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if n, err := store.LiveSessionCount(ctx, testAddr); err != nil || n != 0 {
		t.Fatalf("expected 0 for unknown address, got %d %v", n, err)
	}

	if err := store.Save(ctx, testSession("a"), time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, testSession("b"), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, _ := store.LiveSessionCount(ctx, testAddr); n != 2 {
		t.Fatalf("expected 2 live, got %d", n)
	}

	mr.FastForward(2 * time.Second)
	if n, _ := store.LiveSessionCount(ctx, testAddr); n != 1 {
		t.Fatalf("expected 1 live after expiry, got %d", n)
	}
}

func TestDeleteAllForAddress(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	other := testSession("foreign")
	other.Address = common.HexToAddress("0xb0b")
	for _, s := range []*Session{testSession("a"), testSession("b"), other} {
		if err := store.Save(ctx, s, time.Hour); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	n, err := store.DeleteAllForAddress(ctx, testAddr)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if _, err := store.Get(ctx, "foreign"); err != nil {
		t.Fatalf("foreign session must survive: %v", err)
	}
	if live, _ := store.LiveSessionCount(ctx, testAddr); live != 0 {
		t.Fatalf("expected no live sessions, got %d", live)
	}
}

func TestRedisFailureWrapsUnavailable(t *testing.T) {
	store, rdb, mr, _ := newSessionStoreTest(t)
	defer rdb.Close()
	mr.Close()

	ctx := context.Background()
	if err := store.Save(ctx, testSession("x"), time.Hour); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("save: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "x"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("get: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("ping: expected ErrRedisUnavailable, got %v", err)
	}
}

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	if _, err := Decode([]byte{99}); err == nil {
		t.Fatal("expected unsupported schema version error")
	}

	data, err := Encode(testSession("x"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(data[:len(data)-1]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for truncated record, got %v", err)
	}
}

func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(testSession("sid-fuzz"))
	if err == nil {
		f.Add(encoded)
	}
	f.Add([]byte{})
	f.Add([]byte{CurrentSchemaVersion})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
	})
}
