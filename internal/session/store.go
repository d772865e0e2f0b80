package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/database"
	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/pipeline"
)

var ErrSessionNotFound = errors.New("session not found")

// Database is what a session needs from its live connection.
type Database interface {
	SchemaText(ctx context.Context) (string, error)
	Run(ctx context.Context, sql string) (string, error)
	Close() error
}

type OpenFunc func(ctx context.Context, params database.Params) (Database, error)

// Session owns one database connection and one conversation for its
// lifetime. The mutex admits at most one in-flight turn.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu   sync.Mutex
	db   Database
	orch *pipeline.Orchestrator
}

func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orch.HandleUserTurn(ctx, question)
}

func (s *Session) History() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orch.Conversation.Turns()
}

func (s *Session) SchemaText(ctx context.Context) (string, error) {
	return s.db.SchemaText(ctx)
}

// Store holds the live sessions of one service instance. History is
// in-memory only and does not survive a restart.
type Store struct {
	Model    llm.Client
	Logger   *slog.Logger
	Greeting string
	Open     OpenFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(model llm.Client, logger *slog.Logger, greeting string, maxRows int) *Store {
	return &Store{
		Model:    model,
		Logger:   logger,
		Greeting: greeting,
		Open:     connOpener(maxRows),
		sessions: make(map[string]*Session),
	}
}

func connOpener(maxRows int) OpenFunc {
	return func(ctx context.Context, params database.Params) (Database, error) {
		conn, err := database.Open(ctx, params)
		if err != nil {
			return nil, err
		}
		conn.MaxRows = maxRows
		return conn, nil
	}
}

// Create connects to the database described by params and provisions a
// session seeded with the assistant greeting.
func (st *Store) Create(ctx context.Context, params database.Params) (*Session, error) {
	db, err := st.Open(ctx, params)
	if err != nil {
		return nil, err
	}

	conversation := chat.NewConversation(st.Greeting)
	id := uuid.NewString()
	session := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		db:        db,
		orch: &pipeline.Orchestrator{
			Generator:    &pipeline.Generator{Schema: db, Model: st.Model},
			Executor:     db,
			Synthesizer:  &pipeline.Synthesizer{Schema: db, Model: st.Model},
			Conversation: conversation,
			Logger:       observability.SessionLogger(st.Logger, id),
		},
	}

	st.mu.Lock()
	st.sessions[session.ID] = session
	count := len(st.sessions)
	st.mu.Unlock()

	observability.SetActiveSessions(count)
	if st.Logger != nil {
		st.Logger.InfoContext(ctx, "session created",
			slog.String("session_id", session.ID),
			slog.String("driver", params.Driver),
			slog.String("database", params.Database),
		)
	}
	return session, nil
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns the open sessions ordered by creation time.
func (st *Store) List() []*Session {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, session := range st.sessions {
		sessions = append(sessions, session)
	}
	st.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Close tears down the session and its database connection.
func (st *Store) Close(id string) error {
	st.mu.Lock()
	session, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	count := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	observability.SetActiveSessions(count)
	return session.db.Close()
}

// CloseAll closes every session, keeping the first error.
func (st *Store) CloseAll() error {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, session := range st.sessions {
		sessions = append(sessions, session)
	}
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	observability.SetActiveSessions(0)
	var firstErr error
	for _, session := range sessions {
		if err := session.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
