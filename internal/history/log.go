// Package history keeps the per-session conversation logs. Each session is
// one append-only text file under chat_history/.
package history

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/profilechat/internal/blob"
	"github.com/kalambet/profilechat/internal/profile"
)

// Dir is the blob-store directory holding session files.
const Dir = "chat_history"

const (
	entryTimeLayout = "2006-01-02 15:04:05"
	fileTimeLayout  = "20060102_150405"
	readConcurrency = 4
)

// Role labels a history entry.
type Role string

const (
	RoleSystem    Role = "System"
	RoleUser      Role = "User"
	RoleAssistant Role = "Assistant"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Log reads and writes session files in a blob store.
type Log struct {
	blobs blob.Store
	clock Clock
}

func NewLog(blobs blob.Store) *Log {
	return &Log{blobs: blobs, clock: realClock{}}
}

// NewLogWithClock creates a Log with a custom clock (for testing).
func NewLogWithClock(blobs blob.Store, clock Clock) *Log {
	return &Log{blobs: blobs, clock: clock}
}

// FormatEntry renders one history entry.
func FormatEntry(ts time.Time, role Role, content string) string {
	return fmt.Sprintf("\n[%s] %s:\n%s\n", ts.Format(entryTimeLayout), role, content)
}

// EnsureDir creates the history directory if it does not exist.
func (l *Log) EnsureDir() error {
	if err := l.blobs.MkdirAll(Dir); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	return nil
}

// Append writes one entry to the end of the session file at p.
func (l *Log) Append(p string, role Role, content string) error {
	if err := l.blobs.Append(p, FormatEntry(l.clock.Now(), role, content)); err != nil {
		return fmt.Errorf("appending %s entry to %s: %w", role, p, err)
	}
	return nil
}

// NewSessionPath returns a timestamp-named path for a new session file.
func (l *Log) NewSessionPath() string {
	return path.Join(Dir, "chat_"+l.clock.Now().Format(fileTimeLayout)+".txt")
}

// CreateSession writes a new session file at p whose only entry is the
// embedded initial profile.
func (l *Log) CreateSession(p string, initial profile.Profile) error {
	if err := l.EnsureDir(); err != nil {
		return err
	}
	entry := FormatEntry(l.clock.Now(), RoleSystem, profile.Embed(initial))
	if err := l.blobs.Write(p, entry); err != nil {
		return fmt.Errorf("creating session file %s: %w", p, err)
	}
	return nil
}

// IsSessionPath reports whether p names a session file: a .txt key directly
// under Dir once cleaned.
func IsSessionPath(p string) bool {
	clean, err := blob.CleanKey(p)
	if err != nil {
		return false
	}
	return path.Dir(clean) == Dir && strings.HasSuffix(clean, ".txt")
}

// Exists reports whether a session file exists at p.
func (l *Log) Exists(p string) (bool, error) {
	return l.blobs.Exists(p)
}

// ListRecent returns up to limit session files, newest first. limit <= 0
// returns all of them. A missing directory yields an empty list.
func (l *Log) ListRecent(limit int) ([]string, error) {
	keys, err := l.blobs.List(Dir)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	files := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(k, ".txt") {
			files = append(files, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Read returns the full text of one session file.
func (l *Log) Read(p string) (string, error) {
	text, err := l.blobs.Read(p)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return text, nil
}

// ReadAll reads several session files concurrently. Results are in the
// order of paths.
func (l *Log) ReadAll(ctx context.Context, paths []string) ([]string, error) {
	results := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := l.Read(p)
			if err != nil {
				return err
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Combine joins session texts into one extraction input, each followed by
// the conversation separator.
func Combine(texts []string) string {
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString(t)
		sb.WriteString(profile.ConversationSeparator)
	}
	return sb.String()
}
