// Package httpapi exposes the agrocms JSON API over chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/auth"
	"github.com/dmitrijs2005/agrocms/internal/server/metrics"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, *models.Session, error)
	Login(ctx context.Context, username, password, previousSessionID string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*models.User, *models.Session, error)
	RequireAdmin(user *models.User) error
}

type ArticleService interface {
	List(ctx context.Context) ([]*models.Article, error)
	Latest(ctx context.Context, limit int) ([]*models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, in models.ArticleInput, authorID *int64) (*models.Article, error)
	Update(ctx context.Context, id int64, patch models.ArticlePatch) (*models.Article, error)
	Delete(ctx context.Context, id int64) error
}

type MediaService interface {
	Upload(ctx context.Context, contentType string, body []byte) (string, error)
}

// Deps wires the API. Media may be nil, which disables uploads.
// Health may be nil, in which case /healthz always reports ok.
type Deps struct {
	Auth     AuthService
	Articles ArticleService
	Media    MediaService
	Health   func(ctx context.Context) error
	Log      logging.Logger

	SessionSecret []byte
	SessionTTL    time.Duration
	Cookie        auth.CookieOptions

	CORSAllowedOrigins []string
	// LoginRateLimit is the number of login and register attempts allowed
	// per client IP per minute. Zero disables limiting.
	LoginRateLimit int
	// TrustProxy derives the client IP from forwarding headers. Without it
	// the limiter keys on the socket peer address.
	TrustProxy     bool
	MaxUploadBytes int64
}

// API holds the handlers and their dependencies.
type API struct {
	auth      AuthService
	articles  ArticleService
	media     MediaService
	health    func(ctx context.Context) error
	log       logging.Logger
	secret    []byte
	ttl       time.Duration
	cookie    auth.CookieOptions
	maxUpload int64
	limiter   *rateLimiter
	router    chi.Router
}

const loginRateWindow = time.Minute

func New(d Deps) *API {
	a := &API{
		auth:      d.Auth,
		articles:  d.Articles,
		media:     d.Media,
		health:    d.Health,
		log:       d.Log.With("module", "http"),
		secret:    d.SessionSecret,
		ttl:       d.SessionTTL,
		cookie:    d.Cookie,
		maxUpload: d.MaxUploadBytes,
	}
	if d.LoginRateLimit > 0 {
		a.limiter = newRateLimiter(d.LoginRateLimit, loginRateWindow)
	}
	a.router = a.routes(d.CORSAllowedOrigins, d.TrustProxy)
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Close stops background work owned by the API.
func (a *API) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}

func (a *API) routes(origins []string, trustProxy bool) chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(a.log))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(a.loadSession)

		r.Group(func(r chi.Router) {
			if a.limiter != nil {
				r.Use(a.limiter.Limit)
			}
			r.Post("/register", a.handleRegister)
			r.Post("/login", a.handleLogin)
		})
		r.Post("/logout", a.handleLogout)
		r.Get("/user", a.handleUser)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", a.handleListArticles)
			r.Get("/latest", a.handleLatestArticles)
			r.Get("/{id}", a.handleGetArticle)

			r.Group(func(r chi.Router) {
				r.Use(a.requireAdmin)
				r.Post("/", a.handleCreateArticle)
				r.Put("/{id}", a.handleUpdateArticle)
				r.Patch("/{id}", a.handleUpdateArticle)
				r.Delete("/{id}", a.handleDeleteArticle)
			})
		})

		r.With(a.requireAdmin).Post("/uploads", a.handleUpload)
	})

	return r
}

// issueCookie signs sess into the session cookie with the session's expiry.
func (a *API) issueCookie(w http.ResponseWriter, sess *models.Session) error {
	ttl := time.Until(sess.Expires)
	if ttl <= 0 {
		ttl = a.ttl
	}
	token, err := auth.GenerateToken(sess.ID, a.secret, ttl)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(w, token, sess.Expires, a.cookie)
	return nil
}
