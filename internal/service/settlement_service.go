package service

import (
	"context"
	"log/slog"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// SettlementService owns finalization and winner-default handling.
type SettlementService struct {
	store        storage.Store
	contracts    ContractCreator
	minConfirmed int
}

// NewSettlementService constructs a SettlementService. minConfirmed is the
// injectable participant threshold below which finalization fails the
// auction.
func NewSettlementService(store storage.Store, contracts ContractCreator, minConfirmed int) *SettlementService {
	return &SettlementService{store: store, contracts: contracts, minConfirmed: minConfirmed}
}

// Finalize converts an auction in awaiting_result into its definitive
// outcome and, on success, requests contract creation for the winner.
// The outcome is committed before the contract request: a collaborator
// failure is logged and retried out of band, never unwinding the result.
func (s *SettlementService) Finalize(ctx context.Context, auctionID, adminID string) (*model.FinalizeResult, error) {
	result, err := s.store.Finalize(ctx, auctionID, adminID, s.minConfirmed)
	if err != nil {
		slog.Warn("finalize rejected", "auction_id", auctionID, "error", err)
		return nil, err
	}

	auctionsFinalized.WithLabelValues(string(result.Status)).Inc()
	slog.Info("auction finalized", "auction_id", auctionID, "outcome", result.Status,
		"valid_bids", result.TotalValidBids)

	if result.Status == model.StatusSuccess && result.WinningBid != nil && s.contracts != nil {
		winner, err := s.store.GetParticipant(ctx, result.WinningBid.ParticipantID)
		if err != nil {
			slog.Error("contract request skipped: winner lookup failed",
				"auction_id", auctionID, "error", err)
			return result, nil
		}
		contractID, err := s.contracts.CreateContract(ctx, auctionID, winner.UserID, result.WinningBid.Amount)
		if err != nil {
			slog.Error("contract creation request failed",
				"auction_id", auctionID, "buyer", winner.UserID, "error", err)
			return result, nil
		}
		slog.Info("contract requested", "auction_id", auctionID, "contract_id", contractID)
	}
	return result, nil
}

// HandleWinnerDefault runs the default cascade: disqualify the winner,
// forfeit the deposit, promote the runner-up or fail the auction.
func (s *SettlementService) HandleWinnerDefault(ctx context.Context, auctionID, reason, adminID string) (*model.WinnerDefaultResult, error) {
	if reason == "" {
		return nil, apperr.Validation("default reason is required")
	}
	result, err := s.store.HandleWinnerDefault(ctx, auctionID, reason, adminID)
	if err != nil {
		slog.Warn("winner default rejected", "auction_id", auctionID, "error", err)
		return nil, err
	}

	winnerDefaults.Inc()
	promotedID := ""
	if result.Promoted != nil {
		promotedID = result.Promoted.ID
	}
	slog.Info("winner default handled", "auction_id", auctionID,
		"defaulted_bid", result.DefaultedBid.ID, "promoted_bid", promotedID, "status", result.Status)
	return result, nil
}
