package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jswenson/ritual/internal/handler"
	"github.com/jswenson/ritual/internal/middleware"
	"github.com/jswenson/ritual/internal/push"
	"github.com/jswenson/ritual/internal/store"
	ws "github.com/jswenson/ritual/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	habitH        *handler.HabitHandler
	scheduleH     *handler.ScheduleHandler
	pushH         *handler.PushHandler
	notifyH       *handler.NotifyHandler
	sessionStore  *store.SessionStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	habitStore := store.NewHabitStore(db)
	scheduleStore := store.NewScheduleStore(db)
	completionStore := store.NewCompletionStore(db)
	pushStore := store.NewPushStore(db)

	pushLogger := logger.With("component", "push")

	pushSvc := push.NewService(pushCfg)
	dispatcher := push.NewDispatcher(pushSvc, pushStore, habitStore, pushLogger)
	pushSched := push.NewScheduler(dispatcher, scheduleStore, pushStore, logger.With("component", "scheduler"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		habitH:        handler.NewHabitHandler(habitStore, hub, logger.With("component", "habit")),
		scheduleH:     handler.NewScheduleHandler(scheduleStore, habitStore, completionStore, hub, logger.With("component", "schedule")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		notifyH:       handler.NewNotifyHandler(dispatcher, logger.With("component", "notify")),
		sessionStore:  sessionStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Push-send trigger: server-to-server, permissive CORS, rate-limited by
	// IP. CORS answers the OPTIONS preflight before the method check.
	notify := s.rateLimitedHandler(s.notifyH.Notify)
	outerMux.Handle("/api/notify", middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		notify(w, r)
	})))

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Habit catalog API routes
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("PUT /api/habits/{id}", s.habitH.Update)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)

	// Tracked habit + schedule API routes
	mux.HandleFunc("POST /api/user-habits", s.scheduleH.CreateUserHabit)
	mux.HandleFunc("GET /api/user-habits", s.scheduleH.ListUserHabits)
	mux.HandleFunc("PUT /api/user-habits/{id}", s.scheduleH.SetActive)
	mux.HandleFunc("DELETE /api/user-habits/{id}", s.scheduleH.DeleteUserHabit)
	mux.HandleFunc("GET /api/user-habits/{id}/schedule", s.scheduleH.ListSlots)
	mux.HandleFunc("PUT /api/user-habits/{id}/schedule/{day}", s.scheduleH.ReplaceDaySlots)
	mux.HandleFunc("POST /api/user-habits/{id}/complete", s.scheduleH.Complete)

	// Push subscription API routes
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// WebSocket live sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
