package notify

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(func(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error) {
		if auctionID == "missing" {
			return nil, apperr.NotFound("auction not found")
		}
		return &model.AuctionSnapshot{
			Auction: &model.Auction{ID: auctionID, Status: model.StatusLive},
		}, nil
	})
	t.Cleanup(hub.Close)
	return hub
}

func recv(t *testing.T, ch <-chan Outbound) Outbound {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Outbound{}
	}
}

func TestSubscribeSendsSnapshotFirst(t *testing.T) {
	hub := testHub(t)

	ch, cancel, err := hub.Subscribe(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	msg := recv(t, ch)
	if msg.Type != "snapshot" {
		t.Fatalf("first message: got %s, want snapshot", msg.Type)
	}
	if msg.AuctionID != "a-1" {
		t.Errorf("auction id: got %s, want a-1", msg.AuctionID)
	}
}

func TestSubscribeUnknownAuction(t *testing.T) {
	hub := testHub(t)
	if _, _, err := hub.Subscribe(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown auction")
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := testHub(t)

	ch, cancel, err := hub.Subscribe(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()
	recv(t, ch) // snapshot

	placement := &model.BidPlacement{
		Bid:         &model.Bid{ID: "bid-1", AuctionID: "a-1", Amount: decimal.NewFromInt(1000)},
		NextMinimum: decimal.NewFromInt(1050),
		TotalBids:   1,
	}
	hub.PublishNewBid("a-1", placement)

	for {
		msg := recv(t, ch)
		if msg.Type == "time_update" {
			continue
		}
		if msg.Type != "new_bid" {
			t.Fatalf("got %s, want new_bid", msg.Type)
		}
		break
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := testHub(t)
	// Must not panic or spin up a room.
	hub.PublishNewBid("a-2", &model.BidPlacement{Bid: &model.Bid{ID: "b"}})
	hub.PublishBidDenied("a-2", &model.BidDenial{Bid: &model.Bid{ID: "b"}})
}

func TestCancelClosesChannel(t *testing.T) {
	hub := testHub(t)

	ch, cancel, err := hub.Subscribe(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	recv(t, ch) // snapshot
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed after cancel")
		}
	}
}
