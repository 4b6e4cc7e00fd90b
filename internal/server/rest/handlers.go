package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/server/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sessionID, gate := s.sessions.Create()
	if err := gate.Login(r.Context(), req.Email, req.Password); err != nil {
		s.sessions.Remove(sessionID)
		writeError(w, err)
		return
	}

	token, err := auth.GenerateToken(sessionID, []byte(s.secretKey), s.tokenValidity)
	if err != nil {
		s.sessions.Remove(sessionID)
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "login", "email", req.Email)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	gateFrom(r).Logout()
	s.sessions.Remove(sessionIDFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

type addUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if err := gateFrom(r).RequireAdmin(); err != nil {
		writeError(w, err)
		return
	}

	var req addUserRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.AddUser(r.Context(), req.Email, req.Password, req.IsAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := gateFrom(r).RequireAdmin(); err != nil {
		writeError(w, err)
		return
	}

	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}

	if err := s.users.DeleteUser(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminEmails(w http.ResponseWriter, r *http.Request) {
	s.handleEmails(w, r, true)
}

func (s *Server) handleCommonEmails(w http.ResponseWriter, r *http.Request) {
	s.handleEmails(w, r, false)
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request, admins bool) {
	if err := gateFrom(r).RequireAdmin(); err != nil {
		writeError(w, err)
		return
	}

	var (
		emails []string
		err    error
	)
	if admins {
		emails, err = s.users.AdminEmails(r.Context())
	} else {
		emails, err = s.users.CommonEmails(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emails)
}

type addFileRequest struct {
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	Content     []byte `json:"content" validate:"required"`
	Overwrite   bool   `json:"overwrite"`
}

type addFileResponse struct {
	URI string `json:"uri"`
}

func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request) {
	var req addFileRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	uri, err := s.files.AddFile(r.Context(), gateFrom(r), req.Name, req.ContentType, req.Content, req.Overwrite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addFileResponse{URI: uri})
}

func (s *Server) handleFileMetadata(w http.ResponseWriter, r *http.Request) {
	infos, err := s.files.FileMetadata(r.Context(), gateFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	content, contentType, err := s.files.GetFile(r.Context(), gateFrom(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(content)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := s.files.DeleteFile(r.Context(), gateFrom(r), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOutputMetadata(w http.ResponseWriter, r *http.Request) {
	infos, err := s.files.OutputMetadata(r.Context(), gateFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	content, contentType, err := s.files.GetOutput(r.Context(), gateFrom(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(content)
}

func (s *Server) handleDeleteOutput(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := s.files.DeleteOutput(r.Context(), gateFrom(r), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toolResponse struct {
	Name             string   `json:"name"`
	BriefDescription string   `json:"briefDescription"`
	LongDescription  string   `json:"longDescription"`
	ContentTypes     []string `json:"contentTypes,omitempty"`
}

// handleListTools returns the tools applicable to the given content
// type. Multi-purpose tools always appear.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if err := gateFrom(r).RequireLoggedIn(); err != nil {
		writeError(w, err)
		return
	}

	contentType := r.URL.Query().Get("contentType")
	available := s.registry.AvailableTools(contentType)

	resp := make([]toolResponse, 0, len(available))
	for _, tool := range available {
		resp = append(resp, toolResponse{
			Name:             tool.Name(),
			BriefDescription: tool.BriefDescription(),
			LongDescription:  tool.LongDescription(),
			ContentTypes:     tool.ProcessableContentTypes(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type processRequest struct {
	Name string `json:"name" validate:"required"`
	Tool string `json:"tool" validate:"required"`
}

type processResponse struct {
	RequestID   string `json:"requestId"`
	OutputURI   string `json:"outputUri"`
	ContentType string `json:"contentType"`
	Tool        string `json:"tool"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Reject unknown tools here instead of letting the request time out
	// in the queue.
	if _, err := s.registry.Get(req.Tool); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.files.Process(r.Context(), gateFrom(r), req.Name, req.Tool)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{
		RequestID:   result.RequestID,
		OutputURI:   result.FileURI,
		ContentType: result.ContentType,
		Tool:        result.ToolName,
	})
}

// decode unmarshals and validates a JSON request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json: %v", common.ErrInvalidArgument, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	return nil
}
