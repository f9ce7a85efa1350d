package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bid(id, amount string, at time.Time, denied bool) model.Bid {
	return model.Bid{ID: id, Amount: dec(amount), BidAt: at, IsDenied: denied}
}

func TestNextWinner(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		bids   []model.Bid
		wantID string
	}{
		{
			name:   "no bids",
			bids:   nil,
			wantID: "",
		},
		{
			name: "highest amount wins",
			bids: []model.Bid{
				bid("a", "100", base, false),
				bid("b", "150", base.Add(time.Second), false),
				bid("c", "120", base.Add(2*time.Second), false),
			},
			wantID: "b",
		},
		{
			name: "tie broken by earliest bid",
			bids: []model.Bid{
				bid("late", "200", base.Add(time.Minute), false),
				bid("early", "200", base, false),
			},
			wantID: "early",
		},
		{
			name: "denied bids are skipped",
			bids: []model.Bid{
				bid("denied", "300", base, true),
				bid("runner-up", "250", base.Add(time.Second), false),
			},
			wantID: "runner-up",
		},
		{
			name: "all denied",
			bids: []model.Bid{
				bid("a", "100", base, true),
				bid("b", "200", base, true),
			},
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextWinner(tt.bids)
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("expected no winner, got %s", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected winner %s, got nil", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("winner mismatch: got %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestMinimumNextBid(t *testing.T) {
	starting := dec("1000")
	increment := dec("50")

	t.Run("no current winner uses starting price", func(t *testing.T) {
		got := MinimumNextBid(starting, increment, nil)
		if !got.Equal(starting) {
			t.Errorf("got %s, want %s", got, starting)
		}
	})

	t.Run("current winner plus increment", func(t *testing.T) {
		current := dec("1200")
		got := MinimumNextBid(starting, increment, &current)
		if !got.Equal(dec("1250")) {
			t.Errorf("got %s, want 1250", got)
		}
	})
}

func TestValidateBidAmount(t *testing.T) {
	floor := dec("1050")

	tests := []struct {
		name     string
		amount   string
		wantKind apperr.Kind
	}{
		{"meets floor exactly", "1050", ""},
		{"above floor", "2000", ""},
		{"below floor", "1049.99", apperr.KindValidation},
		{"zero", "0", apperr.KindValidation},
		{"negative", "-5", apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBidAmount(dec(tt.amount), floor)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if kind := apperr.KindOf(err); kind != tt.wantKind {
				t.Errorf("kind mismatch: got %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestCheckRefundRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	auctionStart := now.Add(48 * time.Hour)

	a := &model.Auction{AuctionStartAt: auctionStart}
	paidAt := now.Add(-time.Hour)
	deposit := dec("500")

	paid := func() *model.Participant {
		return &model.Participant{
			DepositPaidAt: &paidAt,
			DepositAmount: &deposit,
			RefundStatus:  model.RefundNone,
		}
	}

	t.Run("eligible non-winner", func(t *testing.T) {
		if err := CheckRefundRequest(paid(), a, false, now, window); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no deposit", func(t *testing.T) {
		p := &model.Participant{RefundStatus: model.RefundNone}
		err := CheckRefundRequest(p, a, false, now, window)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("disqualified", func(t *testing.T) {
		p := paid()
		p.IsDisqualified = true
		err := CheckRefundRequest(p, a, false, now, window)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("current winner", func(t *testing.T) {
		err := CheckRefundRequest(paid(), a, true, now, window)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("already pending", func(t *testing.T) {
		p := paid()
		p.RefundStatus = model.RefundPending
		err := CheckRefundRequest(p, a, false, now, window)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("forfeited is terminal", func(t *testing.T) {
		p := paid()
		p.RefundStatus = model.RefundForfeited
		err := CheckRefundRequest(p, a, false, now, window)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("withdrawn before deadline", func(t *testing.T) {
		p := paid()
		left := auctionStart.Add(-window).Add(-time.Minute)
		p.WithdrawnAt = &left
		if err := CheckRefundRequest(p, a, false, now, window); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("withdrawn inside window", func(t *testing.T) {
		p := paid()
		left := auctionStart.Add(-window).Add(time.Minute)
		p.WithdrawnAt = &left
		err := CheckRefundRequest(p, a, false, now, window)
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})
}
