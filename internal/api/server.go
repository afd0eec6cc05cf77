package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/signcast/signcast/internal/auth"
	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/db"
	"github.com/signcast/signcast/internal/feeds"
	"github.com/signcast/signcast/internal/groups"
	"github.com/signcast/signcast/internal/httputil"
	"github.com/signcast/signcast/internal/jobs"
	"github.com/signcast/signcast/internal/media"
	"github.com/signcast/signcast/internal/players"
	"github.com/signcast/signcast/internal/playlists"
	"github.com/signcast/signcast/internal/resolve"
	"github.com/signcast/signcast/internal/settings"
	"github.com/signcast/signcast/internal/users"
	"github.com/signcast/signcast/internal/version"
)

type Server struct {
	config     *config.Config
	db         *db.DB
	wsHub      *WSHub
	playerRepo *players.Repository
	router     chi.Router
}

func NewServer(cfg *config.Config, database *db.DB, queue *jobs.Queue, redisClient *redis.Client) *Server {
	wsHub := NewWSHub()

	groupRepo := groups.NewRepository(database.DB)
	userRepo := users.NewRepository(database.DB)
	mediaRepo := media.NewRepository(database)
	feedRepo := feeds.NewRepository(database)
	playlistRepo := playlists.NewRepository(database)
	playerRepo := players.NewRepository(database)

	source := playlists.NewSource(database)
	resolver := resolve.New(source)
	syncer := feeds.NewSyncer()
	presence := players.NewPresence(redisClient)

	var enqueuer *jobs.Enqueuer
	if queue != nil {
		enqueuer = jobs.NewEnqueuer(queue)
	}

	authMW := auth.NewMiddleware(database.DB)
	authHandler := auth.NewHandler(database.DB, cfg.SessionDays)
	groupHandler := groups.NewHandler(groupRepo)
	userHandler := users.NewHandler(userRepo)
	mediaHandler := media.NewHandler(mediaRepo)
	playlistHandler := playlists.NewHandler(playlistRepo, resolver, wsHub)
	playerHandler := players.NewHandler(playerRepo, source, resolver, presence, cfg.PublicBaseURL)

	var feedEnqueuer feeds.SyncEnqueuer
	if enqueuer != nil {
		feedEnqueuer = enqueuer
	}
	feedHandler := feeds.NewHandler(feedRepo, syncer, feedEnqueuer)
	settingsHandler := settings.NewHandler(settings.NewRepository(database))

	s := &Server{
		config:     cfg,
		db:         database,
		wsHub:      wsHub,
		playerRepo: playerRepo,
	}

	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ws", s.handlePlayerWS)
		r.Mount("/auth", authHandler.Router())

		// Domains with device-facing endpoints keep those open and guard
		// their management routes internally.
		r.Mount("/media", mediaHandler.Router(authMW.RequireAuth))
		r.Mount("/feeds", feedHandler.Router(authMW.RequireAuth))
		r.Mount("/players", playerHandler.Router(authMW.RequireAuth))

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Mount("/groups", groupHandler.Router())
			r.Mount("/users", userHandler.Router())
			r.Mount("/playlists", playlistHandler.Router())
			r.Mount("/settings", settingsHandler.Router())
		})
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *WSHub {
	return s.wsHub
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Load()
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   info.Version,
		"wsClients": s.wsHub.ClientCount(),
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
