package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage/sqlitestore"
)

// recordingPublisher captures published deltas for assertions.
type recordingPublisher struct {
	newBids []*model.BidPlacement
	denials []*model.BidDenial
}

func (p *recordingPublisher) PublishNewBid(auctionID string, placement *model.BidPlacement) {
	p.newBids = append(p.newBids, placement)
}

func (p *recordingPublisher) PublishBidDenied(auctionID string, denial *model.BidDenial) {
	p.denials = append(p.denials, denial)
}

// fakePayments returns a scripted session status.
type fakePayments struct {
	paid   bool
	amount decimal.Decimal
	err    error
}

func (f fakePayments) DepositStatus(ctx context.Context, sessionID string) (bool, decimal.Decimal, error) {
	return f.paid, f.amount, f.err
}

// recordingContracts captures contract requests.
type recordingContracts struct {
	calls int
	err   error
}

func (c *recordingContracts) CreateContract(ctx context.Context, auctionID, buyerUserID string, price decimal.Decimal) (string, error) {
	c.calls++
	return "contract-1", c.err
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := sqlitestore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createAuction(t *testing.T, store storage.Store) *model.Auction {
	t.Helper()
	now := time.Now().UTC()
	a := &model.Auction{
		Code:            "S-100",
		Name:            "Service test lot",
		StartingPrice:   decimal.NewFromInt(1000),
		BidIncrement:    decimal.NewFromInt(50),
		SaleStartAt:     now.Add(-24 * time.Hour),
		SaleEndAt:       now.Add(-time.Hour),
		DepositDeadline: now.Add(time.Hour),
		AuctionStartAt:  now,
		AuctionEndAt:    now.Add(time.Hour),
		CheckInOpensAt:  now.Add(-time.Hour),
		CheckInClosesAt: now.Add(time.Hour),
	}
	if err := store.CreateAuction(context.Background(), a, "admin"); err != nil {
		t.Fatalf("CreateAuction failed: %v", err)
	}
	return a
}

func eligibleBidder(t *testing.T, store storage.Store, auctionID, userID string) *model.Participant {
	t.Helper()
	ctx := context.Background()
	p, err := store.RegisterParticipant(ctx, auctionID, userID)
	if err != nil {
		t.Fatalf("RegisterParticipant failed: %v", err)
	}
	if _, err := store.ConfirmParticipant(ctx, p.ID, "admin"); err != nil {
		t.Fatalf("ConfirmParticipant failed: %v", err)
	}
	if _, err := store.MarkDepositPaid(ctx, p.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("MarkDepositPaid failed: %v", err)
	}
	p, err = store.CheckInParticipant(ctx, p.ID)
	if err != nil {
		t.Fatalf("CheckInParticipant failed: %v", err)
	}
	return p
}

func TestBidServicePublishesAfterCommit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a := createAuction(t, store)
	eligibleBidder(t, store, a.ID, "alice")
	eligibleBidder(t, store, a.ID, "bob")
	if _, err := store.TransitionAuction(ctx, a.ID, model.StatusLive, "admin"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	pub := &recordingPublisher{}
	svc := NewBidService(store, pub, 20)

	placement, err := svc.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}
	if len(pub.newBids) != 1 || pub.newBids[0].Bid.ID != placement.Bid.ID {
		t.Error("accepted bid should be published")
	}

	_, err = svc.PlaceBid(ctx, a.ID, "bob", decimal.NewFromInt(1000))
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(pub.newBids) != 1 {
		t.Error("rejected bid must not be published")
	}

	t.Run("unregistered user is ineligible", func(t *testing.T) {
		_, err := svc.PlaceBid(ctx, a.ID, "mallory", decimal.NewFromInt(2000))
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("denial is published with the promotion", func(t *testing.T) {
		second, err := svc.PlaceBid(ctx, a.ID, "bob", decimal.NewFromInt(1100))
		if err != nil {
			t.Fatalf("PlaceBid failed: %v", err)
		}
		denial, err := svc.DenyBid(ctx, second.Bid.ID, "paddle dispute", "admin")
		if err != nil {
			t.Fatalf("DenyBid failed: %v", err)
		}
		if denial.Promoted == nil {
			t.Fatal("expected promotion")
		}
		if len(pub.denials) != 1 {
			t.Fatalf("denials published: got %d, want 1", len(pub.denials))
		}
	})

	t.Run("denial requires a reason", func(t *testing.T) {
		_, err := svc.DenyBid(ctx, placement.Bid.ID, "", "admin")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("snapshot clamps remaining time", func(t *testing.T) {
		snap, err := svc.Snapshot(ctx, a.ID)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if snap.TimeRemaining < 0 {
			t.Errorf("time remaining must be non-negative, got %d", snap.TimeRemaining)
		}
		if snap.TotalBids != len(snap.BidHistory) {
			t.Error("total bids should match history length")
		}
	})
}

func TestParticipantServiceDeposit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a := createAuction(t, store)
	if _, err := store.RegisterParticipant(ctx, a.ID, "alice"); err != nil {
		t.Fatalf("RegisterParticipant failed: %v", err)
	}

	t.Run("unpaid session is forbidden", func(t *testing.T) {
		svc := NewParticipantService(store, fakePayments{paid: false})
		_, err := svc.ConfirmDeposit(ctx, a.ID, "alice", "sess-1")
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("gateway failure surfaces as internal", func(t *testing.T) {
		svc := NewParticipantService(store, fakePayments{err: errors.New("boom")})
		_, err := svc.ConfirmDeposit(ctx, a.ID, "alice", "sess-2")
		if !apperr.IsKind(err, apperr.KindInternal) {
			t.Errorf("expected internal, got %v", err)
		}
	})

	t.Run("paid session records the deposit", func(t *testing.T) {
		svc := NewParticipantService(store, fakePayments{paid: true, amount: decimal.NewFromInt(500)})
		p, err := svc.ConfirmDeposit(ctx, a.ID, "alice", "sess-3")
		if err != nil {
			t.Fatalf("ConfirmDeposit failed: %v", err)
		}
		if !p.DepositPaid() {
			t.Error("deposit should be recorded")
		}
	})

	t.Run("unregistered user gets not found", func(t *testing.T) {
		svc := NewParticipantService(store, fakePayments{paid: true, amount: decimal.NewFromInt(500)})
		_, err := svc.ConfirmDeposit(ctx, a.ID, "mallory", "sess-4")
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestSettlementServiceContracts(t *testing.T) {
	setup := func(t *testing.T) (storage.Store, *model.Auction) {
		store := newStore(t)
		ctx := context.Background()
		a := createAuction(t, store)
		eligibleBidder(t, store, a.ID, "alice")
		eligibleBidder(t, store, a.ID, "bob")
		if _, err := store.TransitionAuction(ctx, a.ID, model.StatusLive, "admin"); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		if _, err := store.PlaceBid(ctx, a.ID, mustParticipant(t, store, a.ID, "alice").ID, decimal.NewFromInt(1000)); err != nil {
			t.Fatalf("PlaceBid failed: %v", err)
		}
		if _, err := store.TransitionAuction(ctx, a.ID, model.StatusAwaitingResult, "admin"); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		return store, a
	}

	t.Run("success requests a contract", func(t *testing.T) {
		store, a := setup(t)
		contracts := &recordingContracts{}
		svc := NewSettlementService(store, contracts, 2)

		result, err := svc.Finalize(context.Background(), a.ID, "admin")
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if result.Status != model.StatusSuccess {
			t.Fatalf("status: got %s, want success", result.Status)
		}
		if contracts.calls != 1 {
			t.Errorf("contract calls: got %d, want 1", contracts.calls)
		}
	})

	t.Run("contract failure does not unwind the outcome", func(t *testing.T) {
		store, a := setup(t)
		contracts := &recordingContracts{err: errors.New("document service down")}
		svc := NewSettlementService(store, contracts, 2)

		result, err := svc.Finalize(context.Background(), a.ID, "admin")
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if result.Status != model.StatusSuccess {
			t.Errorf("status: got %s, want success", result.Status)
		}

		got, err := store.GetAuction(context.Background(), a.ID)
		if err != nil {
			t.Fatalf("GetAuction failed: %v", err)
		}
		if got.Status != model.StatusSuccess {
			t.Errorf("persisted status: got %s, want success", got.Status)
		}
	})

	t.Run("failed outcome requests no contract", func(t *testing.T) {
		store, a := setup(t)
		contracts := &recordingContracts{}
		svc := NewSettlementService(store, contracts, 10)

		result, err := svc.Finalize(context.Background(), a.ID, "admin")
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if result.Status != model.StatusFailed {
			t.Fatalf("status: got %s, want failed", result.Status)
		}
		if contracts.calls != 0 {
			t.Errorf("contract calls: got %d, want 0", contracts.calls)
		}
	})

	t.Run("default requires a reason", func(t *testing.T) {
		store, a := setup(t)
		svc := NewSettlementService(store, &recordingContracts{}, 2)
		_, err := svc.HandleWinnerDefault(context.Background(), a.ID, "", "admin")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestRefundServiceActions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a := createAuction(t, store)
	p := eligibleBidder(t, store, a.ID, "alice")

	svc := NewRefundService(store, 0)

	t.Run("unknown action is a validation error", func(t *testing.T) {
		_, err := svc.Apply(ctx, p.ID, "escalate", "", "admin")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("request then approve then process", func(t *testing.T) {
		if _, err := svc.Request(ctx, a.ID, "alice", "pulled out"); err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		got, err := svc.Apply(ctx, p.ID, "approve", "", "admin")
		if err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if got.RefundStatus != model.RefundApproved {
			t.Errorf("status: got %s, want approved", got.RefundStatus)
		}
		got, err = svc.Apply(ctx, p.ID, "process", "", "admin")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}
		if got.RefundStatus != model.RefundProcessed {
			t.Errorf("status: got %s, want processed", got.RefundStatus)
		}
	})
}

func TestAuctionServiceClock(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a := createAuction(t, store)
	svc := NewAuctionService(store)

	t.Run("opens scheduled auctions past start", func(t *testing.T) {
		svc.RunClock(ctx, a.AuctionStartAt.Add(time.Minute))
		got, err := store.GetAuction(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetAuction failed: %v", err)
		}
		if got.Status != model.StatusLive {
			t.Errorf("status: got %s, want live", got.Status)
		}
	})

	t.Run("closes live auctions past end", func(t *testing.T) {
		svc.RunClock(ctx, a.AuctionEndAt.Add(time.Minute))
		got, err := store.GetAuction(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetAuction failed: %v", err)
		}
		if got.Status != model.StatusAwaitingResult {
			t.Errorf("status: got %s, want awaiting_result", got.Status)
		}
	})
}

func mustParticipant(t *testing.T, store storage.Store, auctionID, userID string) *model.Participant {
	t.Helper()
	p, err := store.GetParticipantByUser(context.Background(), auctionID, userID)
	if err != nil {
		t.Fatalf("GetParticipantByUser failed: %v", err)
	}
	return p
}
