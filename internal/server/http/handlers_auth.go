package httpserver

import (
	"net/http"

	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/convert"
	"github.com/and161185/chunkhub/internal/errs"
)

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.Status{Name: apiName, Version: apiVersion, Status: "online"})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in api.RegisterRequest
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.Auth.Register(r.Context(), in.Username, in.Email, in.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIUser(*u))
}

// token implements the OAuth2 password grant over a form body.
func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, errs.New(errs.ErrInvalidInput, "Invalid form body"))
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		s.fail(w, r, errs.New(errs.ErrInvalidInput, "username and password are required"))
		return
	}
	tok, _, err := s.svc.Auth.LoginWithIP(r.Context(), username, password, clientIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIToken(tok))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	writeJSON(w, http.StatusOK, convert.ToAPIUser(*u))
}
