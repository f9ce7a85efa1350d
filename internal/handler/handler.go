// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/service"
)

// Handler holds all HTTP handlers for the auction API.
type Handler struct {
	auctions     *service.AuctionService
	participants *service.ParticipantService
	bids         *service.BidService
	settlement   *service.SettlementService
	refunds      *service.RefundService
}

// New constructs a Handler.
func New(
	auctions *service.AuctionService,
	participants *service.ParticipantService,
	bids *service.BidService,
	settlement *service.SettlementService,
	refunds *service.RefundService,
) *Handler {
	return &Handler{
		auctions:     auctions,
		participants: participants,
		bids:         bids,
		settlement:   settlement,
		refunds:      refunds,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeAppError maps the error taxonomy onto HTTP status codes. Unclassified
// errors become opaque 500s.
func writeAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.KindForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
