package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/service"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage/sqlitestore"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden},
		{"not found", apperr.NotFound("gone"), http.StatusNotFound},
		{"conflict", apperr.Conflict("raced"), http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAppError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			var body model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error == "" {
				t.Error("error message must not be empty")
			}
		})
	}
}

func testRouter(t *testing.T) (chi.Router, storage.Store) {
	t.Helper()
	store, err := sqlitestore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	auctionSvc := service.NewAuctionService(store)
	bidSvc := service.NewBidService(store, nil, 20)
	h := New(auctionSvc, nil, bidSvc, nil, nil)

	r := chi.NewRouter()
	r.Get("/auctions/{auctionID}", h.GetAuction)
	r.Post("/auctions/{auctionID}/bids", h.PlaceBid)
	return r, store
}

func TestGetAuctionNotFound(t *testing.T) {
	r, _ := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auctions/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestPlaceBidEndToEnd(t *testing.T) {
	r, store := testRouter(t)
	ctx := context.Background()

	now := time.Now().UTC()
	a := &model.Auction{
		Code:            "H-100",
		Name:            "Handler test lot",
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
	if err := store.CreateAuction(ctx, a, "admin"); err != nil {
		t.Fatalf("CreateAuction failed: %v", err)
	}
	p, err := store.RegisterParticipant(ctx, a.ID, "alice")
	if err != nil {
		t.Fatalf("RegisterParticipant failed: %v", err)
	}
	if _, err := store.ConfirmParticipant(ctx, p.ID, "admin"); err != nil {
		t.Fatalf("ConfirmParticipant failed: %v", err)
	}
	if _, err := store.CheckInParticipant(ctx, p.ID); err != nil {
		t.Fatalf("CheckInParticipant failed: %v", err)
	}
	if _, err := store.TransitionAuction(ctx, a.ID, model.StatusLive, "admin"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auctions/"+a.ID+"/bids", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "alice"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("accepted bid returns 201", func(t *testing.T) {
		rec := do(`{"amount": "1000"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want 201, body %s", rec.Code, rec.Body)
		}
		var placement model.BidPlacement
		if err := json.NewDecoder(rec.Body).Decode(&placement); err != nil {
			t.Fatalf("decode placement: %v", err)
		}
		if !placement.NextMinimum.Equal(decimal.NewFromInt(1050)) {
			t.Errorf("next minimum: got %s, want 1050", placement.NextMinimum)
		}
	})

	t.Run("low bid returns 400", func(t *testing.T) {
		rec := do(`{"amount": "1000"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400, body %s", rec.Code, rec.Body)
		}
	})

	t.Run("garbage body returns 400", func(t *testing.T) {
		rec := do(`{"amount": `)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400", rec.Code)
		}
	})
}
