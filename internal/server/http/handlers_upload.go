package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/convert"
	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/storage"
)

const fileField = "file"

// upload streams the "file" part of a multipart body straight into the
// upload service; the part is never buffered whole.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("version")
	if label == "" {
		s.fail(w, r, errs.New(errs.ErrInvalidInput, "version is required"))
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.fail(w, r, errs.New(errs.ErrInvalidInput, "Expected a multipart/form-data body"))
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.fail(w, r, errs.New(errs.ErrInvalidInput, "file is required"))
			return
		}
		if err != nil {
			s.fail(w, r, errs.New(errs.ErrInvalidInput, "Malformed multipart body"))
			return
		}
		if part.FormName() != fileField || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		res, err := s.svc.Uploads.Upload(r.Context(), callerID(r.Context()), mux.Vars(r)["slug"], label, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, convert.ToAPIUpload(res))
		return
	}
}

func (s *Server) deleteUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.svc.Uploads.Delete(r.Context(), callerID(r.Context()), vars["slug"], vars["version"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Message{Message: "File deleted successfully"})
}

// serveUpload streams a stored artifact.
func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if storage.ValidName(name) != nil {
		s.fail(w, r, errs.New(errs.ErrNotFound, "Not Found"))
		return
	}
	rc, err := s.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			err = errs.New(errs.ErrNotFound, "Not Found")
		}
		s.fail(w, r, err)
		return
	}
	defer rc.Close()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("serve upload", zap.String("object", name), zap.Error(err))
	}
}
