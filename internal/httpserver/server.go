package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/macro-coach/internal/auth"
	"github.com/fdg312/macro-coach/internal/blob"
	"github.com/fdg312/macro-coach/internal/cache"
	"github.com/fdg312/macro-coach/internal/chat"
	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/profiles"
	"github.com/fdg312/macro-coach/internal/reports"
	"github.com/fdg312/macro-coach/internal/status"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/backend"
)

// Deps: внешние зависимости сервера. Nil-поля заполняются значениями по умолчанию.
type Deps struct {
	Storage    storage.Storage
	PlanCache  cache.PlanCache
	Generator  meals.Generator
	Recognizer meals.Recognizer
	BlobStore  blob.Store // nil = отчёты хранятся в основном хранилище
	Logger     *log.Logger
}

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	planCache      cache.PlanCache
	authMiddleware *auth.Middleware
	logger         *log.Logger
}

// New открывает хранилище, кэш, генератор блюд и blob store по конфигурации.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := log.Default()

	st, mode, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Printf("INFO server: storage=%s", mode)

	planCache, cacheMode := cache.New(ctx, cfg, logger)
	logger.Printf("INFO server: plan_cache=%s", cacheMode)

	blobStore, blobMode, err := blob.NewBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		st.Close()
		planCache.Close()
		return nil, err
	}
	logger.Printf("INFO server: reports_blob=%s", blobMode)

	return NewWithDeps(cfg, Deps{
		Storage:    st,
		PlanCache:  planCache,
		Generator:  meals.NewGenerator(cfg, logger),
		Recognizer: meals.NewRecognizer(cfg, logger),
		BlobStore:  blobStore,
		Logger:     logger,
	}), nil
}

// NewWithDeps собирает сервер из готовых зависимостей.
func NewWithDeps(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.PlanCache == nil {
		deps.PlanCache = cache.NewMemoryPlanCache(time.Duration(cfg.PlanCacheTTLSeconds) * time.Second)
	}
	if deps.Generator == nil {
		deps.Generator = meals.NewMockGenerator()
	}
	if deps.Recognizer == nil {
		deps.Recognizer = meals.NewMockRecognizer()
	}

	s := &Server{
		config:    cfg,
		mux:       http.NewServeMux(),
		storage:   deps.Storage,
		planCache: deps.PlanCache,
		logger:    deps.Logger,
	}
	s.routes(deps)
	return s
}

// routes регистрирует маршруты
func (s *Server) routes(deps Deps) {
	loc := s.config.DayLocation
	if loc == nil {
		loc = time.UTC
	}

	// Health check (no auth required)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - dev token with sub=user_id
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Profiles API
	profileService := profiles.NewService(s.storage)
	profileHandler := profiles.NewHandler(profileService)
	s.mux.HandleFunc("PUT /v1/users/{user_id}/profile", s.owned(profileHandler.HandleUpsert))
	s.mux.HandleFunc("GET /v1/users/{user_id}/profile", s.owned(profileHandler.HandleGet))

	// Metrics API
	metricsService := metrics.NewService(s.storage, loc)
	metricsHandler := metrics.NewHandler(metricsService)
	s.mux.HandleFunc("POST /v1/users/{user_id}/metrics", s.owned(metricsHandler.HandleCreate))
	s.mux.HandleFunc("GET /v1/users/{user_id}/metrics", s.owned(metricsHandler.HandleList))
	s.mux.HandleFunc("GET /v1/users/{user_id}/summary", s.owned(metricsHandler.HandleSummary))
	s.mux.HandleFunc("GET /v1/users/{user_id}/progress", s.owned(metricsHandler.HandleProgress))

	// Plans API
	plansService := plans.NewService(
		s.storage,
		metricsService,
		planner.NewEngine(loc),
		deps.Generator,
		deps.PlanCache,
		plans.Options{
			HistoryDays:  s.config.PlannerHistoryDays,
			HistoryLimit: s.config.PlannerHistoryLimit,
		},
		s.logger,
	)
	plansHandler := plans.NewHandler(plansService)
	s.mux.HandleFunc("POST /v1/users/{user_id}/plans", s.owned(plansHandler.HandleGenerate))
	s.mux.HandleFunc("GET /v1/users/{user_id}/plans", s.owned(plansHandler.HandleList))
	s.mux.HandleFunc("GET /v1/users/{user_id}/plans/{date}", s.owned(plansHandler.HandleGet))
	s.mux.HandleFunc("POST /v1/users/{user_id}/plans/{date}/swap", s.owned(plansHandler.HandleSwap))

	// Meal photo API
	mealsHandler := meals.NewHandler(deps.Recognizer, int64(s.config.MealImageMaxMB)<<20)
	s.mux.HandleFunc("POST /v1/users/{user_id}/meals/recognize", s.owned(mealsHandler.HandleRecognize))

	// Status API
	statusService := status.NewService(s.storage, metricsService, s.config.StatusWindowDays)
	statusHandler := status.NewHandler(statusService)
	s.mux.HandleFunc("GET /v1/status/{user_id}", s.owned(statusHandler.HandleGet))

	// Chat API
	chatService := chat.NewService(s.storage, metricsService, profileService, plansService, statusService, s.logger)
	chatHandler := chat.NewHandler(chatService, s.config.CORSAllowedOrigins)
	s.mux.HandleFunc("POST /v1/chat", chatHandler.HandleSendMessage)
	s.mux.HandleFunc("GET /v1/chat/ws", chatHandler.HandleWebSocket)
	s.mux.HandleFunc("GET /v1/users/{user_id}/chat/messages", s.owned(chatHandler.HandleListMessages))

	// Reports API
	reportsService := reports.NewService(
		s.storage,
		metricsService,
		deps.BlobStore,
		s.config.ReportsMaxRangeDays,
		time.Duration(s.config.Blob.S3.PresignTTLSeconds)*time.Second,
		s.logger,
	)
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/users/{user_id}/reports", s.owned(reportsHandler.HandleCreate))
	s.mux.HandleFunc("GET /v1/users/{user_id}/reports", s.owned(reportsHandler.HandleList))
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
}

// Handler: mux с цепочкой middleware (внешние первыми): CORS → Auth → Rate Limit → Router.
// Лимитер после auth, чтобы считать аутентифицированных клиентов по subject.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = RateLimitMiddleware(s.config, handler)
	handler = s.authMiddleware.Wrap(handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Printf("INFO server: listening on http://localhost%s", addr)
	s.logger.Printf("INFO server: health check http://localhost%s/healthz", addr)

	return srv.ListenAndServe()
}

// Close закрывает storage и кэш планов
func (s *Server) Close() error {
	if s.planCache != nil {
		if err := s.planCache.Close(); err != nil {
			s.logger.Printf("WARN server: plan cache close: %v", err)
		}
	}
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
