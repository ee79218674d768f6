// gateway runs the voting-terminal gateway: the session, OTP, center
// activation, and vote-casting surface in front of the VoteGuard backend.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voteguard/gateway/internal/audit"
	auditrepo "voteguard/gateway/internal/audit/repository"
	"voteguard/gateway/internal/backend"
	centerrepo "voteguard/gateway/internal/center/repository"
	centersvc "voteguard/gateway/internal/center/service"
	"voteguard/gateway/internal/clock"
	"voteguard/gateway/internal/config"
	"voteguard/gateway/internal/db"
	"voteguard/gateway/internal/otp"
	"voteguard/gateway/internal/policy/engine"
	"voteguard/gateway/internal/server"
	sessionrepo "voteguard/gateway/internal/session/repository"
	sessionsvc "voteguard/gateway/internal/session/service"
	"voteguard/gateway/internal/telemetry/otel"
	"voteguard/gateway/internal/vote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "voteguard-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	var (
		database    *sql.DB
		sessionRepo sessionrepo.Repository = sessionrepo.NewMemoryRepository()
		centerRepo  centerrepo.Repository  = centerrepo.NewMemoryRepository()
		auditRepo   auditrepo.Repository   = auditrepo.NewMemoryRepository()
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
		sessionRepo = sessionrepo.NewPostgresRepository(database, cfg.TerminalID)
		centerRepo = centerrepo.NewPostgresRepository(database, cfg.TerminalID)
		auditRepo = auditrepo.NewPostgresRepository(database)
	} else {
		log.Println("DATABASE_URL not set; terminal state is in-memory only")
	}

	policy, err := engine.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	clk := clock.New()
	auditLog := audit.NewLogger(auditRepo, cfg.TerminalID)
	client := backend.New(cfg.BackendBaseURL, cfg.RequestTimeoutD())

	store := sessionsvc.NewStore(sessionRepo, client, policy, clk, auditLog, cfg.WatchdogInterval(), cfg.RefreshThreshold())
	client.SetTokenSource(store.Token)
	defer store.Close()
	if err := store.Restore(ctx); err != nil {
		log.Fatalf("session restore: %v", err)
	}

	manager := otp.NewManager(client, clk, auditLog, cfg.OTPWindowD())
	defer manager.Close()
	center := centersvc.New(client, centerRepo, clk, auditLog)
	flow := vote.NewFlow(client, store, clk, auditLog, cfg.BallotTTL(), cfg.CastCountdownD())
	defer flow.Close()

	router := server.NewRouter(server.Deps{
		Backend:  client,
		Sessions: store,
		Center:   center,
		OTP:      manager,
		Flow:     flow,
		Policy:   policy,
		DB:       database,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("gateway listening on %s (terminal %s)", cfg.HTTPAddr, cfg.TerminalID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gateway...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("gateway stopped")
}
