package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// AuctionService orchestrates auction lifecycle operations.
type AuctionService struct {
	store storage.Store
}

// NewAuctionService constructs an AuctionService.
func NewAuctionService(store storage.Store) *AuctionService {
	return &AuctionService{store: store}
}

// Create validates the request and persists a new scheduled auction.
func (s *AuctionService) Create(ctx context.Context, req model.CreateAuctionRequest, adminID string) (*model.Auction, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" {
		return nil, apperr.Validation("auction code is required")
	}
	if req.Name == "" {
		return nil, apperr.Validation("auction name is required")
	}
	if req.StartingPrice.Sign() <= 0 {
		return nil, apperr.Validation("starting price must be positive")
	}
	if req.BidIncrement.Sign() <= 0 {
		return nil, apperr.Validation("bid increment must be positive")
	}
	if !req.AuctionEndAt.After(req.AuctionStartAt) {
		return nil, apperr.Validation("auction end must be after auction start")
	}
	if !req.SaleEndAt.After(req.SaleStartAt) {
		return nil, apperr.Validation("sale end must be after sale start")
	}

	a := &model.Auction{
		Code:            req.Code,
		Name:            req.Name,
		StartingPrice:   req.StartingPrice,
		BidIncrement:    req.BidIncrement,
		SaleStartAt:     req.SaleStartAt,
		SaleEndAt:       req.SaleEndAt,
		DepositDeadline: req.DepositDeadline,
		AuctionStartAt:  req.AuctionStartAt,
		AuctionEndAt:    req.AuctionEndAt,
		CheckInOpensAt:  req.CheckInOpensAt,
		CheckInClosesAt: req.CheckInClosesAt,
	}
	if err := s.store.CreateAuction(ctx, a, adminID); err != nil {
		slog.Error("create auction failed", "code", req.Code, "error", err)
		return nil, err
	}
	slog.Info("auction created", "auction_id", a.ID, "code", a.Code)
	return a, nil
}

// Get returns a single auction by ID.
func (s *AuctionService) Get(ctx context.Context, id string) (*model.Auction, error) {
	if id == "" {
		return nil, apperr.Validation("auction id is required")
	}
	return s.store.GetAuction(ctx, id)
}

// List returns all auctions.
func (s *AuctionService) List(ctx context.Context) ([]model.Auction, error) {
	return s.store.ListAuctions(ctx)
}

// Override applies an administrative status change. The transition table is
// enforced by the store even for admins.
func (s *AuctionService) Override(ctx context.Context, auctionID string, to model.AuctionStatus, adminID string) (*model.Auction, error) {
	a, err := s.store.TransitionAuction(ctx, auctionID, to, adminID)
	if err != nil {
		slog.Warn("status override rejected", "auction_id", auctionID, "to", to, "error", err)
		return nil, err
	}
	slog.Info("auction status overridden", "auction_id", auctionID, "status", to, "admin", adminID)
	return a, nil
}

// AuditLog returns the append-only audit trail for an auction.
func (s *AuctionService) AuditLog(ctx context.Context, auctionID string) ([]model.AuditLog, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.ListAuditLog(ctx, auctionID)
}

// RunClock applies time-driven lifecycle transitions: scheduled auctions
// whose start has passed go live, live auctions whose end has passed move
// to awaiting_result. Invoked periodically by the scheduler.
func (s *AuctionService) RunClock(ctx context.Context, now time.Time) {
	auctions, err := s.store.ListAuctions(ctx)
	if err != nil {
		slog.Error("clock tick: list auctions failed", "error", err)
		return
	}
	for i := range auctions {
		a := &auctions[i]
		switch {
		case a.Status == model.StatusScheduled && !now.Before(a.AuctionStartAt):
			if _, err := s.store.TransitionAuction(ctx, a.ID, model.StatusLive, "scheduler"); err != nil {
				slog.Error("clock tick: open auction failed", "auction_id", a.ID, "error", err)
				continue
			}
			slog.Info("auction opened", "auction_id", a.ID, "code", a.Code)
		case a.Status == model.StatusLive && !now.Before(a.AuctionEndAt):
			if _, err := s.store.TransitionAuction(ctx, a.ID, model.StatusAwaitingResult, "scheduler"); err != nil {
				slog.Error("clock tick: close auction failed", "auction_id", a.ID, "error", err)
				continue
			}
			slog.Info("auction closed, awaiting result", "auction_id", a.ID, "code", a.Code)
		}
	}
}
