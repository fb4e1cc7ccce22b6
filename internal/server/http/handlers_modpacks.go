package httpserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/convert"
	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/service"
)

func (s *Server) createModpack(w http.ResponseWriter, r *http.Request) {
	var in api.ModpackCreate
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.Modpacks.Create(r.Context(), callerID(r.Context()), convert.FromAPIModpackCreate(in))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.ToAPIModpack(*m))
}

// paging reads skip and limit with the catalog defaults.
func paging(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", service.DefaultPageSize); err != nil {
		return 0, 0, err
	}
	if limit == 0 || limit > service.MaxPageSize {
		return 0, 0, errs.New(errs.ErrInvalidInput, "limit must be between 1 and 100")
	}
	return skip, limit, nil
}

func (s *Server) listModpacks(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := paging(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	published, err := queryBool(r, "published_only", true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	caller := callerID(r.Context())
	ms, err := s.svc.Modpacks.List(r.Context(), caller, model.ModpackFilter{
		MCVersion:     q.Get("mc_version"),
		Loader:        q.Get("loader"),
		PublishedOnly: published,
		CallerID:      caller,
		Skip:          skip,
		Limit:         limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIModpacks(ms))
}

func (s *Server) getModpack(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Modpacks.Get(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIModpack(*m))
}

func (s *Server) updateModpack(w http.ResponseWriter, r *http.Request) {
	var p model.ModpackPatch
	if err := decodeJSON(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.Modpacks.Update(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"], p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIModpack(*m))
}

func (s *Server) deleteModpack(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Modpacks.Delete(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		s.fail(w, r, errs.New(errs.ErrInvalidInput, "q is required"))
		return
	}
	skip, limit, err := paging(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := s.svc.Modpacks.Search(r.Context(), model.SearchQuery{
		Q:         text,
		MCVersion: q.Get("mc_version"),
		Loader:    q.Get("loader"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIModpacks(ms))
}

func (s *Server) project(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Projects.Detail(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIProject(*d))
}

func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	var in api.VersionCreate
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.svc.Versions.Create(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"], convert.FromAPIVersionCreate(in))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.ToAPIVersion(*v))
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	stable, err := queryBool(r, "stable_only", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vs, err := s.svc.Versions.List(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"], stable)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIVersions(vs))
}

func (s *Server) latestVersion(w http.ResponseWriter, r *http.Request) {
	stable, err := queryBool(r, "stable_only", true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.svc.Versions.Latest(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"], stable)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIVersion(*v))
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := s.svc.Versions.Get(r.Context(), callerID(r.Context()), vars["slug"], vars["version"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIVersion(*v))
}
