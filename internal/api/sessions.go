package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/database"
	"github.com/dbchat/dbchat/internal/llm"
	"github.com/dbchat/dbchat/internal/pipeline"
	"github.com/dbchat/dbchat/internal/session"
)

type createSessionRequest struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

type sessionResponse struct {
	SessionID string      `json:"session_id"`
	CreatedAt time.Time   `json:"created_at"`
	History   []chat.Turn `json:"history"`
}

type messageRequest struct {
	Question string `json:"question"`
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}

	var req createSessionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid session request body", false, map[string]any{"details": err.Error()})
		return
	}

	created, err := deps.Sessions.Create(r.Context(), database.Params{
		Driver:   req.Driver,
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		Database: req.Database,
	})
	if err != nil {
		var connErr *database.ConnectionError
		if errors.As(err, &connErr) {
			writeError(r.Context(), w, http.StatusBadGateway, "CONNECTION_FAILED", connErr.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_CREATE_FAILED", "failed to create session", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: created.ID,
		CreatedAt: created.CreatedAt,
		History:   created.History(),
	})
}

func handleListSessions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	type sessionSummary struct {
		SessionID string    `json:"session_id"`
		CreatedAt time.Time `json:"created_at"`
		Turns     int       `json:"turns"`
	}
	open := deps.Sessions.List()
	summaries := make([]sessionSummary, 0, len(open))
	for _, current := range open {
		summaries = append(summaries, sessionSummary{
			SessionID: current.ID,
			CreatedAt: current.CreatedAt,
			Turns:     len(current.History()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	current, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: current.ID,
		CreatedAt: current.CreatedAt,
		History:   current.History(),
	})
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	id := strings.TrimSpace(r.PathValue("session"))
	if err := deps.Sessions.Close(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_CLOSE_FAILED", "failed to close session", true, map[string]any{"details": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleSessionSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	current, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	schema, err := current.SchemaText(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "SCHEMA_FETCH_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": current.ID,
		"schema":     schema,
	})
}

func handlePostMessage(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	current, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}

	var req messageRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid message request body", false, map[string]any{"details": err.Error()})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	answer, err := current.Ask(r.Context(), question)
	if err != nil {
		writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": current.ID,
		"answer":     answer,
	})
}

func writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	var connErr *database.ConnectionError
	if errors.As(err, &connErr) {
		writeError(r.Context(), w, http.StatusBadGateway, "DATABASE_UNAVAILABLE", connErr.Error(), true, nil)
		return
	}
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		writeError(r.Context(), w, http.StatusBadGateway, "MODEL_CALL_FAILED", genErr.Error(), true, nil)
		return
	}
	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		writeError(r.Context(), w, http.StatusBadGateway, "TURN_FAILED", pipeErr.Error(), true, map[string]any{"stage": string(pipeErr.Stage)})
		return
	}
	writeError(r.Context(), w, http.StatusInternalServerError, "TURN_FAILED", err.Error(), true, nil)
}

func sessionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return nil, false
	}
	id := strings.TrimSpace(r.PathValue("session"))
	current, err := deps.Sessions.Get(id)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", false, nil)
		return nil, false
	}
	return current, true
}
