package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/profilechat/internal/blob"
)

// RecordKey is where the session record lives in the blob store.
const RecordKey = "user_profiles/chat_config.json"

const timestampLayout = "2006-01-02T15:04:05.000000"

// Record is the single-slot pointer to the latest profile and session file.
type Record struct {
	Profile     *Profile
	ChatFile    string
	LastUpdated time.Time
}

type recordJSON struct {
	Profile     json.RawMessage `json:"profile,omitempty"`
	ChatFile    string          `json:"chat_file"`
	LastUpdated string          `json:"last_updated"`
}

// Store persists the session record.
type Store struct {
	blobs blob.Store
}

func NewStore(blobs blob.Store) *Store {
	return &Store{blobs: blobs}
}

// Load returns the current record. ok is false when no usable record exists;
// malformed content is logged and reported as absent.
func (s *Store) Load() (rec Record, ok bool, err error) {
	data, err := s.blobs.Read(RecordKey)
	if errors.Is(err, blob.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("reading session record: %w", err)
	}

	var raw recordJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		slog.Warn("ignoring malformed session record", "key", RecordKey, "error", err)
		return Record{}, false, nil
	}

	rec.ChatFile = raw.ChatFile
	rec.LastUpdated = parseTimestamp(raw.LastUpdated)
	if len(raw.Profile) > 0 && string(raw.Profile) != "null" {
		p, err := Parse(string(raw.Profile))
		if err != nil {
			slog.Warn("ignoring malformed profile in session record", "error", err)
		} else {
			rec.Profile = &p
		}
	}
	return rec, true, nil
}

// Save overwrites the record.
func (s *Store) Save(rec Record) error {
	raw := recordJSON{
		ChatFile:    rec.ChatFile,
		LastUpdated: rec.LastUpdated.Format(timestampLayout),
	}
	if rec.Profile != nil {
		data, err := json.Marshal(rec.Profile)
		if err != nil {
			return fmt.Errorf("marshaling profile: %w", err)
		}
		raw.Profile = data
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}
	if err := s.blobs.MkdirAll("user_profiles"); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}
	if err := s.blobs.Write(RecordKey, string(data)); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, timestampLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	if s != "" {
		slog.Warn("unparseable last_updated in session record", "value", s)
	}
	return time.Time{}
}
