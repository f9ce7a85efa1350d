// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/config"
	"github.com/Tanh1603/auction-hub-sub000/internal/database"
	"github.com/Tanh1603/auction-hub-sub000/internal/gateway"
	"github.com/Tanh1603/auction-hub-sub000/internal/handler"
	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/notify"
	"github.com/Tanh1603/auction-hub-sub000/internal/scheduler"
	"github.com/Tanh1603/auction-hub-sub000/internal/service"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage/postgres"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage/sqlitestore"
	"github.com/Tanh1603/auction-hub-sub000/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("storage init failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage ready", "driver", cfg.DBDriver)

	payments, contracts := collaborators(cfg)

	// ── Wire up layers ───────────────────────────────────────────────────
	auctionSvc := service.NewAuctionService(store)
	participantSvc := service.NewParticipantService(store, payments)
	settlementSvc := service.NewSettlementService(store, contracts, cfg.MinConfirmedParticipants)
	refundSvc := service.NewRefundService(store, cfg.RefundWindow)

	// The hub needs the snapshot builder and the bid service needs the hub,
	// so the snapshot closure is late bound.
	var bidSvc *service.BidService
	hub := notify.NewHub(func(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error) {
		return bidSvc.Snapshot(ctx, auctionID)
	})
	defer hub.Close()
	bidSvc = service.NewBidService(store, hub, cfg.BidHistoryLimit)

	h := handler.New(auctionSvc, participantSvc, bidSvc, settlementSvc, refundSvc)
	jwtManager := middleware.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	wsHandler := &notify.WSHandler{Hub: hub}

	// ── Background scheduler ─────────────────────────────────────────────
	go scheduler.New(auctionSvc, cfg.SchedulerInterval).Run(ctx)

	// ── Build the router ─────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auctions", func(r chi.Router) {
		r.Get("/", h.ListAuctions)
		r.Get("/{auctionID}", h.GetAuction)
		r.Get("/{auctionID}/snapshot", h.Snapshot)
		r.Get("/{auctionID}/bids", h.ListBids)
		r.Handle("/{auctionID}/ws", wsHandler)

		// Authenticated participant routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))
			r.Post("/{auctionID}/register", h.Register)
			r.Post("/{auctionID}/check-in", h.CheckIn)
			r.Post("/{auctionID}/withdraw", h.Withdraw)
			r.Post("/{auctionID}/deposit", h.ConfirmDeposit)
			r.Post("/{auctionID}/bids", h.PlaceBid)
			r.Post("/{auctionID}/refund", h.RequestRefund)
		})

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager), middleware.RequireAdmin)
			r.Post("/", h.CreateAuction)
			r.Patch("/{auctionID}/status", h.OverrideStatus)
			r.Post("/{auctionID}/finalize", h.Finalize)
			r.Post("/{auctionID}/winner-default", h.WinnerDefault)
			r.Get("/{auctionID}/participants", h.ListParticipants)
			r.Get("/{auctionID}/audit", h.AuditLog)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtManager), middleware.RequireAdmin)
		r.Post("/bids/{bidID}/deny", h.DenyBid)
		r.Post("/participants/{participantID}/confirm", h.ConfirmParticipant)
		r.Post("/participants/{participantID}/disqualify", h.DisqualifyParticipant)
		r.Post("/participants/{participantID}/refund/{action}", h.RefundAction)
	})

	// ── Start server with graceful shutdown ──────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore selects the storage backend from configuration.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlitestore.New(cfg.SQLitePath)
	case "postgres":
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return postgres.New(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// collaborators builds the payment and contract clients, falling back to the
// local development implementations when no URL is configured.
func collaborators(cfg config.Config) (service.PaymentGateway, service.ContractCreator) {
	var payments service.PaymentGateway
	if cfg.PaymentAPIURL != "" {
		payments = gateway.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	} else {
		amount, err := decimal.NewFromString(cfg.DepositAmount)
		if err != nil {
			amount = decimal.NewFromInt(500)
		}
		slog.Warn("no payment provider configured, every session counts as paid", "amount", amount)
		payments = gateway.StaticPayments{Amount: amount}
	}

	var contracts service.ContractCreator
	if cfg.ContractAPIURL != "" {
		contracts = gateway.NewContractClient(cfg.ContractAPIURL, cfg.ContractAPIKey)
	} else {
		slog.Warn("no contract service configured, contract IDs are generated locally")
		contracts = gateway.LocalContracts{}
	}
	return payments, contracts
}
