package history

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/profilechat/internal/blob"
	"github.com/kalambet/profilechat/internal/profile"
)

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLog(t *testing.T) (*Log, *mockClock, blob.Store) {
	t.Helper()
	blobs, err := blob.OpenFS(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	clock := &mockClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)}
	return NewLogWithClock(blobs, clock), clock, blobs
}

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	got := FormatEntry(ts, RoleUser, "Hello, my name is Sam")
	want := "\n[2025-03-14 09:26:53] User:\nHello, my name is Sam\n"
	if got != want {
		t.Errorf("FormatEntry() = %q, want %q", got, want)
	}
}

func TestNewSessionPath(t *testing.T) {
	l, _, _ := newTestLog(t)
	if got, want := l.NewSessionPath(), "chat_history/chat_20250314_092653.txt"; got != want {
		t.Errorf("NewSessionPath() = %q, want %q", got, want)
	}
}

func TestCreateSessionAndAppend(t *testing.T) {
	l, clock, _ := newTestLog(t)
	p := l.NewSessionPath()

	if err := l.CreateSession(p, profile.Empty()); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := l.Append(p, RoleUser, "hi"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(p, RoleAssistant, "hello"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	text, err := l.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.HasPrefix(text, "\n[2025-03-14 09:26:53] System:\n"+profile.SessionOpenMarker) {
		t.Errorf("session file does not open with the profile block:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n[2025-03-14 09:26:58] User:\nhi\n\n[2025-03-14 09:26:58] Assistant:\nhello\n") {
		t.Errorf("entries not appended in order:\n%s", text)
	}

	got, err := profile.ParseEmbedded(text)
	if err != nil {
		t.Fatalf("ParseEmbedded: %v", err)
	}
	if !reflect.DeepEqual(got, profile.Empty()) {
		t.Errorf("embedded profile = %+v, want empty", got)
	}
}

func TestListRecent(t *testing.T) {
	l, _, blobs := newTestLog(t)

	files, err := l.ListRecent(5)
	if err != nil {
		t.Fatalf("ListRecent on missing dir: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ListRecent on missing dir = %v, want empty", files)
	}

	for _, k := range []string{
		"chat_history/chat_20250101_000000.txt",
		"chat_history/chat_20250103_000000.txt",
		"chat_history/chat_20250102_000000.txt",
		"chat_history/notes.md",
	} {
		if err := blobs.Write(k, "x"); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	files, err = l.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	want := []string{"chat_history/chat_20250103_000000.txt", "chat_history/chat_20250102_000000.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ListRecent(2) = %v, want %v", files, want)
	}

	files, err = l.ListRecent(0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("ListRecent(0) = %v, want all 3 .txt files", files)
	}
}

func TestReadAllPreservesOrder(t *testing.T) {
	l, _, blobs := newTestLog(t)
	var paths []string
	for _, name := range []string{"c", "a", "e", "b", "d", "f"} {
		k := "chat_history/" + name + ".txt"
		if err := blobs.Write(k, name); err != nil {
			t.Fatalf("Write: %v", err)
		}
		paths = append(paths, k)
	}

	got, err := l.ReadAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []string{"c", "a", "e", "b", "d", "f"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll() = %v, want %v", got, want)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l, _, _ := newTestLog(t)
	_, err := l.ReadAll(context.Background(), []string{"chat_history/missing.txt"})
	if !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCombine(t *testing.T) {
	got := Combine([]string{"one", "two"})
	want := "one" + profile.ConversationSeparator + "two" + profile.ConversationSeparator
	if got != want {
		t.Errorf("Combine() = %q, want %q", got, want)
	}
	if Combine(nil) != "" {
		t.Error("Combine(nil) should be empty")
	}
}
