package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedroLucas003/backendsorriaodonto/internal/api"
	"github.com/PedroLucas003/backendsorriaodonto/internal/auth"
	"github.com/PedroLucas003/backendsorriaodonto/internal/cache"
	"github.com/PedroLucas003/backendsorriaodonto/internal/config"
	"github.com/PedroLucas003/backendsorriaodonto/internal/middleware"
	"github.com/PedroLucas003/backendsorriaodonto/internal/migrate"
	"github.com/PedroLucas003/backendsorriaodonto/internal/seed"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("config postgres: %v", err)
		}
		if cfg.DBMaxConns > 0 {
			poolConfig.MaxConns = int32(cfg.DBMaxConns)
		}
		if cfg.DBMinConns > 0 {
			poolConfig.MinConns = int32(cfg.DBMinConns)
		}
		if cfg.DBMaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
		}
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		// Migrações e seed usam a conexão GORM (mesmo runner dos testes).
		gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("conexão gorm: %v", err)
		}
		if err := migrate.Run(context.Background(), gdb, "migrations"); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		if err := seed.Run(context.Background(), gdb); err != nil {
			log.Printf("seed (ignored if already applied): %v", err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	h := &api.Handler{Pool: pool, Cfg: cfg, Cache: cache.New(30 * time.Second)}
	h.SetHashPassword(auth.HashPassword)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/register", h.RegisterPatient).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodPost)
	// Prontuário é autoautenticado por (cpf, senha): uso de balcão, sem sessão.
	apiRouter.HandleFunc("/clinical-record", h.GetClinicalRecord).Methods(http.MethodPost)
	apiRouter.HandleFunc("/clinical-record/pdf", h.GetClinicalRecordPDF).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/patients", h.ListPatients).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}", h.GetPatient).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}", h.UpdatePatient).Methods(http.MethodPatch)
	protected.Handle("/patients/{patientId}", middleware.RequireRole(auth.RoleAdmin, auth.RoleClinician)(http.HandlerFunc(h.DeletePatient))).Methods(http.MethodDelete)
	protected.HandleFunc("/patients/{patientId}/procedures", h.ListProcedures).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}/procedures", h.AppendProcedure).Methods(http.MethodPost)
	protected.HandleFunc("/patients/{patientId}/procedures/{entryId}", h.UpdateProcedure).Methods(http.MethodPut)
	protected.HandleFunc("/patients/{patientId}/procedures/{entryId}", h.RemoveProcedure).Methods(http.MethodDelete)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("backend stopped")
}
