package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/assessment"
	"github.com/litmus-ai/backend/internal/auth"
	"github.com/litmus-ai/backend/internal/catalog"
	"github.com/litmus-ai/backend/internal/certification"
	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/database"
	"github.com/litmus-ai/backend/internal/logger"
	"github.com/litmus-ai/backend/internal/memstore"
	"github.com/litmus-ai/backend/internal/middleware"
	"github.com/litmus-ai/backend/internal/training"
)

// stores groups the repositories each service needs so both drivers can be
// wired the same way.
type stores struct {
	assessment    assessment.Repository
	users         auth.Repository
	certification certification.Repository
	training      training.Repository
	seed          catalog.Repository
	db            *sql.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	st, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open store")
	}
	if st.db != nil {
		defer st.db.Close()
	}

	if cfg.Catalog.SeedOnStart {
		if err := seedCatalog(context.Background(), cfg.Catalog.Dir, st.seed); err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
	}

	// Services
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	assessmentSvc := assessment.NewService(st.assessment, assessment.ThresholdsFromConfig(cfg.Scoring))
	trainingSvc := training.NewService(st.training, assessmentSvc)
	certSvc := certification.NewService(st.certification, st.users, assessmentSvc, trainingSvc, certification.NewRegistry(), cfg.Cert)

	// Handlers
	authHandler := auth.NewHandler(st.users, tokens)
	assessmentHandler := assessment.NewHandler(assessmentSvc)
	trainingHandler := training.NewHandler(trainingSvc)
	certHandler := certification.NewHandler(certSvc)
	authMW := middleware.NewAuth(tokens)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLog)
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/assessment/questions", assessmentHandler.ListQuestions).Methods("GET")
	api.Handle("/assessment/submit", authMW.Optional(http.HandlerFunc(assessmentHandler.Submit))).Methods("POST")
	api.HandleFunc("/certification/available", certHandler.ListAvailable).Methods("GET")
	api.HandleFunc("/certification/verify/{code}", certHandler.Verify).Methods("GET")
	api.HandleFunc("/training/modules", trainingHandler.ListModules).Methods("GET")
	api.HandleFunc("/training/modules/{id}", trainingHandler.GetModule).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMW.Require)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/assessment/history", assessmentHandler.History).Methods("GET")
	protected.HandleFunc("/certification/earned", certHandler.ListEarned).Methods("GET")
	protected.HandleFunc("/certification/apply/{id}", certHandler.Apply).Methods("POST")
	protected.HandleFunc("/certification/eligibility/{id}", certHandler.Eligibility).Methods("GET")
	protected.HandleFunc("/training/recommended", trainingHandler.Recommended).Methods("GET")
	protected.HandleFunc("/training/enroll/{id}", trainingHandler.Enroll).Methods("POST")
	protected.HandleFunc("/training/progress", trainingHandler.ListProgress).Methods("GET")
	protected.HandleFunc("/training/progress/{id}", trainingHandler.UpdateProgress).Methods("PUT")
	protected.HandleFunc("/training/modules/{id}/lessons", trainingHandler.ModuleLessons).Methods("GET")
	protected.HandleFunc("/training/lessons/{id}", trainingHandler.GetLesson).Methods("GET")
	protected.HandleFunc("/training/lessons/{id}/complete", trainingHandler.CompleteLesson).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		mem := memstore.New()
		return &stores{
			assessment:    mem,
			users:         mem,
			certification: mem,
			training:      mem,
			seed:          mem,
		}, nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		assessment:    assessment.NewStore(db),
		users:         auth.NewStore(db),
		certification: certification.NewStore(db),
		training:      training.NewStore(db),
		seed:          catalog.NewStore(db),
		db:            db,
	}, nil
}

func seedCatalog(ctx context.Context, dir string, repo catalog.Repository) error {
	bundle, err := catalog.Load(dir)
	if err != nil {
		return err
	}
	report, err := catalog.NewSeeder(repo).Seed(ctx, bundle, false)
	if err != nil {
		return err
	}
	for table, counts := range report {
		log.Info().Str("table", table).Int("inserted", counts.Inserted).Int("updated", counts.Updated).Int("skipped", counts.Skipped).Msg("catalog_seeded")
	}
	return nil
}
