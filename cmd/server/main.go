package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/config"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/expiration"
	applifecycle "github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/lifecycle"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/team"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/eventbus"
	httpapi "github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/http"
	infralifecycle "github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/lifecycle"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/locking"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := &logging.StdoutLogger{}
	counters := &metrics.Counters{}

	var (
		payments payment.Repository
		teams    team.Repository
		audit    contracts.AuditSink
	)

	if cfg.DatabasePath != "" {
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		if err := sqlite.RunMigrations(db); err != nil {
			log.Fatalf("running migrations: %v", err)
		}
		payments = sqlite.NewPaymentRepository(db)
		teams = sqlite.NewTeamRepository(db)
		audit = sqlite.NewAuditRepository(db)
	} else {
		paymentRepo := inmemory.NewPaymentRepository()
		teamRepo := inmemory.NewTeamRepository()
		seedDefaultTeam(teamRepo)
		payments = paymentRepo
		teams = teamRepo
		audit = inmemory.NewAuditSink()
	}

	timeouts := validation.NewTimeouts()

	validator := &validation.Validator{
		Payments: payments,
		Teams:    teams,
		Timeouts: timeouts,
	}

	bus := eventbus.New(logger, counters)
	bus.SubscribeFunc(func(_ context.Context, evt event.PaymentTransition) error {
		logger.Info("transition observed", map[string]any{
			"payment_id": evt.PaymentID,
			"from":       string(evt.From),
			"to":         string(evt.To),
		})
		return nil
	}, 100, nil, nil)

	mutator := &infralifecycle.RepositoryMutator{
		Payments: payments,
		Events:   bus,
		Logger:   logger,
	}

	confirmations := &confirmation.Service{
		Payments:  payments,
		Validator: validator,
		Locks:     locking.NewMemoryLockService(),
		Mutator:   mutator,
		Audit:     audit,
		Results:   confirmation.NewResultCache(cfg.IdempotencyTTL),
		Logger:    logger,
		Metrics:   counters,
		LockLease: cfg.LockLease,
	}

	handlers := &applifecycle.Handlers{
		Payments:      payments,
		Validator:     validator,
		Mutator:       mutator,
		Confirmations: confirmations,
		Logger:        logger,
	}

	queue := worker.NewQueue(cfg.QueueCapacity, cfg.MaxInFlight)
	pool := &worker.Pool{
		Queue:       queue,
		Handlers:    handlers.Map(),
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		Metrics:     counters,
	}

	sweeper := &expiration.Sweeper{
		Payments:      payments,
		Timeouts:      timeouts,
		Mutator:       mutator,
		Logger:        logger,
		Metrics:       counters,
		SweepInterval: cfg.SweepInterval,
		WarningWindow: cfg.WarningWindow,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool.Start(ctx)
	go sweeper.Run(ctx)

	router := httpapi.NewRouter(&httpapi.PaymentHandler{
		Confirmations: confirmations,
		Validator:     validator,
		Queue:         queue,
		Sweeper:       sweeper,
		Metrics:       counters,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Printf("HTTP server running on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	pool.Shutdown()
	log.Println("server stopped")
}

func seedDefaultTeam(repo *inmemory.TeamRepository) {
	_ = repo.Save(context.Background(), &team.Team{
		ID:         "default",
		Name:       "Default Team",
		Active:     true,
		Currencies: []string{"BRL", "USD", "EUR"},
	})
}
