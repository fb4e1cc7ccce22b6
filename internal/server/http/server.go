// Package httpserver exposes the ChunkHub REST API.
package httpserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/limiter"
	"github.com/and161185/chunkhub/internal/service"
	"github.com/and161185/chunkhub/internal/storage"
)

const (
	apiName    = "ChunkHub API"
	apiVersion = "0.1.0"
)

// Services groups the application services behind the API.
type Services struct {
	Auth     service.AuthService
	Modpacks service.ModpackService
	Versions service.VersionService
	Uploads  service.UploadService
	Projects service.ProjectService
}

// Limits holds the per-route request budgets.
type Limits struct {
	Root   limiter.RequestLimiter
	Search limiter.RequestLimiter
}

// Options tune the outer handler chain.
type Options struct {
	AllowedOrigins []string // CORS; "*" allows any origin
	TrustProxy     bool     // honour X-Forwarded-For / X-Real-IP
}

// Server wires services into HTTP handlers.
type Server struct {
	svc    Services
	store  storage.Store
	limits Limits
	log    *zap.Logger
}

// New constructs a Server. Missing limits default to limiter.Nop.
func New(svc Services, store storage.Store, limits Limits, log *zap.Logger) *Server {
	if limits.Root == nil {
		limits.Root = limiter.Nop{}
	}
	if limits.Search == nil {
		limits.Search = limiter.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, store: store, limits: limits, log: log}
}

// Router registers every route on a fresh mux.Router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("Not Found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method Not Allowed"))
	})

	r.HandleFunc("/", s.rateLimit(s.limits.Root, s.root)).Methods(http.MethodGet)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/token", s.token).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.authenticate(true, s.me)).Methods(http.MethodGet)

	r.HandleFunc("/modpacks", s.authenticate(true, s.createModpack)).Methods(http.MethodPost)
	r.HandleFunc("/modpacks", s.authenticate(false, s.listModpacks)).Methods(http.MethodGet)
	r.HandleFunc("/modpacks/{slug}", s.authenticate(false, s.getModpack)).Methods(http.MethodGet)
	r.HandleFunc("/modpacks/{slug}", s.authenticate(true, s.updateModpack)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/modpacks/{slug}", s.authenticate(true, s.deleteModpack)).Methods(http.MethodDelete)

	// latest must precede {version}
	r.HandleFunc("/modpacks/{slug}/versions", s.authenticate(true, s.createVersion)).Methods(http.MethodPost)
	r.HandleFunc("/modpacks/{slug}/versions", s.authenticate(false, s.listVersions)).Methods(http.MethodGet)
	r.HandleFunc("/modpacks/{slug}/versions/latest", s.authenticate(false, s.latestVersion)).Methods(http.MethodGet)
	r.HandleFunc("/modpacks/{slug}/versions/{version}", s.authenticate(false, s.getVersion)).Methods(http.MethodGet)

	r.HandleFunc("/search", s.rateLimit(s.limits.Search, s.search)).Methods(http.MethodGet)
	r.HandleFunc("/projects/{slug}", s.authenticate(false, s.project)).Methods(http.MethodGet)

	r.HandleFunc("/upload/modpack/{slug}", s.authenticate(true, s.upload)).Methods(http.MethodPost)
	r.HandleFunc("/upload/modpack/{slug}/{version}", s.authenticate(true, s.deleteUpload)).Methods(http.MethodDelete)
	r.HandleFunc("/uploads/{name}", s.serveUpload).Methods(http.MethodGet, http.MethodHead)

	return r
}

// Handler returns the router wrapped in request id, logging, recovery and CORS.
func (s *Server) Handler(opts Options) http.Handler {
	var h http.Handler = s.Router()
	h = Recover(s.log)(h)
	h = Logging(s.log)(h)
	h = RequestID(h)
	h = cors(opts.AllowedOrigins)(h)
	if opts.TrustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

func cors(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader, "Retry-After"}),
	)
}
