package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/dispatch"
	"github.com/mwantia/webdesk/interaction"
)

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	Username      string `json:"username,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Mode          string `json:"mode,omitempty"`
	Prompt        string `json:"prompt"`
}

type shareResponse struct {
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// writeJSON encodes v before sending headers so an unencodable value still yields a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Failed to encode %T response: %v", v, err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "internal server error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Debug("Failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)

	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	sid := SessionID(ctx)

	auth, files, shares, err := s.manager.Collaborators(ctx, sid)
	if err != nil {
		s.log.Error("Failed to prepare session '%s': %v", sid, err)
		s.writeJSON(w, http.StatusOK, command.Text(dispatch.MessageFailure))
		return
	}

	out := s.dispatcher.Dispatch(ctx, sid, req, dispatch.Deps{
		Auth:   auth,
		Files:  files,
		Shares: shares,
	})
	s.writeJSON(w, http.StatusOK, out)
}

// scope loads the command scope of the request session; a broken state counts as no mode.
func (s *Server) scope(r *http.Request) (command.Scope, interaction.State, bool) {
	ctx := r.Context()
	sid := SessionID(ctx)

	authenticated := s.manager.Session(sid).IsLoggedIn(ctx)
	state, err := s.dispatcher.State(ctx, sid)
	if err != nil {
		s.log.Warn("Failed to load interaction state of '%s': %v", sid, err)
		state = interaction.State{}
	}
	return dispatch.ScopeFor(authenticated, state), state, authenticated
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	scope, _, _ := s.scope(r)
	s.writeJSON(w, http.StatusOK, s.dispatcher.Registry().List(scope))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, state, authenticated := s.scope(r)

	session := s.manager.Session(SessionID(ctx))
	resp := sessionResponse{
		Authenticated: authenticated,
		Mode:          string(scope.Mode),
		Prompt:        dispatch.Prompt(ctx, session, authenticated, state),
	}
	if authenticated {
		if name, err := session.WhoAmI(ctx); err == nil {
			resp.Username = name
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	share, err := s.manager.Share(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "share not found")
			return
		}
		s.log.Error("Failed to resolve share: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, shareResponse{
		Path:      share.Path,
		CreatedAt: share.CreatedAt,
		ExpiresAt: share.ExpiresAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
