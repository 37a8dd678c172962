package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	tests := []struct {
		name    string
		key     string
		ttl     time.Duration
		wantHit bool
	}{
		{"no expiry", "a", 0, true},
		{"future expiry", "b", time.Hour, true},
		{"negative ttl", "c", -time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(ctx, tt.key, []byte("v-"+tt.key), tt.ttl); err != nil {
				t.Fatalf("Set() = %v", err)
			}
			data, hit, err := c.Get(ctx, tt.key)
			if err != nil || hit != tt.wantHit {
				t.Fatalf("Get() hit=%v err=%v", hit, err)
			}
			if hit && string(data) != "v-"+tt.key {
				t.Errorf("Get() = %q", data)
			}
		})
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("Clear() kept entries")
	}
}

func TestFileCacheExpiredAndCorrupt(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry served")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "bad", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	j1, err := HashJSON(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	j2, _ := HashJSON(map[string]int{"a": 1, "b": 2})
	if j1 != j2 {
		t.Error("HashJSON should not depend on map order")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON(func) should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	sk1 := k.SceneKey("h", SceneKeyOpts{Levels: 3})
	sk2 := k.SceneKey("h", SceneKeyOpts{Levels: 3, IncludeScalars: true})
	if sk1 == sk2 {
		t.Error("Different SceneKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(sk1, PrefixScene+":") {
		t.Errorf("SceneKey prefix: %s", sk1)
	}

	ak1 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", FrameHash: "s1"})
	ak2 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", FrameHash: "s2"})
	ak3 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", FrameHash: "s1"})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak3, "artifact:png:") {
		t.Errorf("ArtifactKey prefix: %s", ak3)
	}
	if ak1 != k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", FrameHash: "s1"}) {
		t.Error("ArtifactKey should be deterministic")
	}
}

func TestFileCacheLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	k := NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "png"})
	png := []byte{0x89, 'P', 'N', 'G', '\n', 0x00}
	if err := c.Set(ctx, k, png, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, PrefixArtifact)); err != nil {
		t.Errorf("entry not grouped under %s/: %v", PrefixArtifact, err)
	}
	if data, hit, _ := c.Get(ctx, k); !hit || string(data) != string(png) {
		t.Errorf("binary entry = %v hit=%v", data, hit)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if entries, err := os.ReadDir(dir); err != nil || len(entries) != 0 {
		t.Errorf("Clear() left %d entries (err %v)", len(entries), err)
	}
}

func TestPing(t *testing.T) {
	defer func(d time.Duration) { PingDelay = d }(PingDelay)
	PingDelay = time.Millisecond

	down := errors.New("connection refused")
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{"up", 0, false, 1},
		{"starting", PingAttempts - 1, false, PingAttempts},
		{"down", PingAttempts, true, PingAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Ping(context.Background(), "redis", func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return down
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ping() = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr && (!errors.Is(err, ErrUnavailable) || !errors.Is(err, down)) {
				t.Errorf("Ping() = %v, want ErrUnavailable wrapping the last failure", err)
			}
		})
	}
}

func TestPingContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Ping(ctx, "mongo", func(context.Context) error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping() = %v, want canceled and unavailable", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("SCENEMAP_TEST_REDIS")
	if addr == "" {
		t.Skip("SCENEMAP_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "scenemap-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if data, hit, err := c.Get(ctx, "k"); !hit || err != nil || string(data) != "v" {
		t.Errorf("Get() = %q %v %v", data, hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Clear() kept entries")
	}
}
