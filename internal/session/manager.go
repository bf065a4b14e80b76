// Package session orchestrates session initialization and chat turns over
// the history log, the profile store and the completion backend.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/profilechat/internal/completion"
	"github.com/kalambet/profilechat/internal/history"
	"github.com/kalambet/profilechat/internal/observability"
	"github.com/kalambet/profilechat/internal/profile"
)

// DefaultHistoryFiles is how many recent session files Init feeds the extractor.
const DefaultHistoryFiles = 5

const profilePromptPrefix = "Use this user profile for personalized responses: "

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Deps holds the collaborators of a Manager.
type Deps struct {
	History   *history.Log
	Store     *profile.Store
	Resolver  *profile.Resolver
	Extractor *profile.Extractor
	Completer completion.Completer
	Metrics   *observability.Metrics // optional
	Clock     Clock                  // optional

	// HistoryFiles caps the session files read by Init. Zero means DefaultHistoryFiles.
	HistoryFiles int
}

// Manager runs Init and Chat. It holds no per-session state; every call
// reads what it needs from storage.
type Manager struct {
	history      *history.Log
	store        *profile.Store
	resolver     *profile.Resolver
	extractor    *profile.Extractor
	completer    completion.Completer
	metrics      *observability.Metrics
	clock        Clock
	historyFiles int
}

func NewManager(d Deps) *Manager {
	clock := d.Clock
	if clock == nil {
		clock = realClock{}
	}
	n := d.HistoryFiles
	if n <= 0 {
		n = DefaultHistoryFiles
	}
	return &Manager{
		history:      d.History,
		store:        d.Store,
		resolver:     d.Resolver,
		extractor:    d.Extractor,
		completer:    d.Completer,
		metrics:      d.Metrics,
		clock:        clock,
		historyFiles: n,
	}
}

// Init rebuilds the profile from recent history, opens a new session file
// seeded with it, and records both in the profile store. Files written before
// a failure are left in place.
func (m *Manager) Init(ctx context.Context) (InitResult, error) {
	res, err := m.init(ctx)
	if err != nil {
		slog.Error("session init failed", "error", err)
		m.metrics.IncSessionInit(StatusError)
		return InitFailure(err), err
	}
	m.metrics.IncSessionInit(StatusSuccess)
	return res, nil
}

func (m *Manager) init(ctx context.Context) (InitResult, error) {
	paths, err := m.history.ListRecent(m.historyFiles)
	if err != nil {
		return InitResult{}, storageErr(err)
	}
	for _, p := range paths {
		slog.Debug("including chat history", "file", p)
	}
	texts, err := m.history.ReadAll(ctx, paths)
	if err != nil {
		return InitResult{}, storageErr(err)
	}

	rec, ok, err := m.store.Load()
	if err != nil {
		return InitResult{}, storageErr(err)
	}
	var existing *profile.Profile
	if ok && rec.Profile != nil {
		existing = rec.Profile
		slog.Debug("using existing profile as base for update")
	}

	p := m.extractor.Extract(ctx, history.Combine(texts), existing)
	if err := ctx.Err(); err != nil {
		return InitResult{}, err
	}

	chatFile := m.history.NewSessionPath()
	if err := m.history.CreateSession(chatFile, p); err != nil {
		return InitResult{}, storageErr(err)
	}
	if err := m.store.Save(profile.Record{Profile: &p, ChatFile: chatFile, LastUpdated: m.clock.Now()}); err != nil {
		return InitResult{}, storageErr(err)
	}

	slog.Info("session initialized", "chat_file", chatFile, "history_files", len(paths))
	return InitResult{Status: StatusSuccess, Profile: &p, ChatFile: chatFile}, nil
}

// Chat runs one turn. The user entry is logged before the completion call;
// the assistant entry only after it succeeds. Failures are reported inside
// the result, never as a Go error.
func (m *Manager) Chat(ctx context.Context, input string, convo *Context) ChatResult {
	turnID := uuid.NewString()
	logger := slog.With("turn_id", turnID)

	res, err := m.chat(ctx, logger, input, convo)
	if err != nil {
		logger.Warn("chat turn failed", "error", err, "type", Classify(err))
		m.metrics.IncChatTurn(StatusError)
		return ChatFailure(err, m.clock.Now())
	}
	m.metrics.IncChatTurn(StatusSuccess)
	return res
}

func (m *Manager) chat(ctx context.Context, logger *slog.Logger, input string, convo *Context) (ChatResult, error) {
	latest := m.resolver.ResolveLatest()

	chatFile, err := m.activeChatFile(convo)
	if err != nil {
		return ChatResult{}, err
	}

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: profilePromptPrefix + latest.Indented()},
	}
	if convo != nil {
		prior := convo.Messages
		if len(prior) > 0 && prior[0].Role == completion.RoleSystem {
			prior = prior[1:]
		}
		messages = append(messages, prior...)
	}
	messages = append(messages, completion.Message{Role: completion.RoleUser, Content: input})

	if err := m.history.EnsureDir(); err != nil {
		return ChatResult{}, storageErr(err)
	}
	if err := m.history.Append(chatFile, history.RoleUser, input); err != nil {
		return ChatResult{}, storageErr(err)
	}

	logger.Debug("sending chat completion", "chat_file", chatFile, "messages", len(messages))
	start := time.Now()
	reply, err := m.completer.Complete(ctx, messages)
	m.metrics.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		return ChatResult{}, fmt.Errorf("completion: %w", err)
	}

	if err := m.history.Append(chatFile, history.RoleAssistant, reply); err != nil {
		return ChatResult{}, storageErr(err)
	}

	messages = append(messages, completion.Message{Role: completion.RoleAssistant, Content: reply})
	logger.Debug("chat turn complete", "chat_file", chatFile, "reply_bytes", len(reply))
	return ChatResult{
		Response: &reply,
		Context:  &Context{Messages: messages, ChatFile: chatFile},
	}, nil
}

// activeChatFile picks the file a turn is logged to: the caller's file if it
// is an existing session file, else the one in the profile store, else a new one.
func (m *Manager) activeChatFile(convo *Context) (string, error) {
	if convo != nil && convo.ChatFile != "" {
		switch ok, err := m.history.Exists(convo.ChatFile); {
		case !history.IsSessionPath(convo.ChatFile):
			slog.Warn("ignoring context chat_file outside history", "chat_file", convo.ChatFile)
		case err != nil:
			slog.Warn("ignoring context chat_file", "chat_file", convo.ChatFile, "error", err)
		case ok:
			return convo.ChatFile, nil
		}
	}

	rec, ok, err := m.store.Load()
	if err != nil {
		return "", storageErr(err)
	}
	if ok && rec.ChatFile != "" {
		return rec.ChatFile, nil
	}
	return m.history.NewSessionPath(), nil
}

// Profile returns the latest resolved profile.
func (m *Manager) Profile() profile.Profile {
	return m.resolver.ResolveLatest()
}
