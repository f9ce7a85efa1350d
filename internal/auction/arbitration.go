// Package auction holds the pure arbitration rules: winner selection,
// the bid floor, and refund eligibility. Both storage backends and every
// promotion call site (denial, winner default) go through this package so
// tie-break behavior cannot diverge.
package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// NextWinner selects the winner among the given bids: highest amount,
// ties broken by earliest BidAt. Denied bids are skipped. Callers are
// responsible for excluding bids whose participants are no longer eligible
// (withdrawn, disqualified). Returns nil when no candidate remains.
func NextWinner(bids []model.Bid) *model.Bid {
	var winner *model.Bid
	for i := range bids {
		b := &bids[i]
		if b.IsDenied {
			continue
		}
		if winner == nil {
			winner = b
			continue
		}
		switch b.Amount.Cmp(winner.Amount) {
		case 1:
			winner = b
		case 0:
			if b.BidAt.Before(winner.BidAt) {
				winner = b
			}
		}
	}
	return winner
}

// MinimumNextBid returns the floor a new bid must meet: the starting price
// when no winner exists, otherwise the current winning amount plus the
// increment. Equal amounts are never accepted, so no tie-break is needed at
// placement time.
func MinimumNextBid(startingPrice, increment decimal.Decimal, currentWinning *decimal.Decimal) decimal.Decimal {
	if currentWinning == nil {
		return startingPrice
	}
	return currentWinning.Add(increment)
}

// ValidateBidAmount applies the placement rules from the floor computed by
// MinimumNextBid. The error names the violated rule.
func ValidateBidAmount(amount, floor decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return apperr.Validation("bid amount must be positive")
	}
	if amount.Cmp(floor) < 0 {
		return apperr.Newf(apperr.KindValidation,
			"amount below minimum: bid %s is less than required %s", amount.String(), floor.String())
	}
	return nil
}

// CheckRefundRequest validates that a participant may open a refund request.
// isWinner reports whether the participant currently holds the winning bid.
// The early-exit deadline is the auction start minus the configured window;
// a withdrawn participant must have left before it.
func CheckRefundRequest(p *model.Participant, a *model.Auction, isWinner bool, now time.Time, window time.Duration) error {
	if !p.DepositPaid() {
		return apperr.Forbidden("refund requires a paid deposit")
	}
	if p.IsDisqualified {
		return apperr.Forbidden("disqualified participants are not refundable")
	}
	if isWinner {
		return apperr.Forbidden("current auction winner cannot request a refund")
	}
	switch p.RefundStatus {
	case model.RefundNone:
	case model.RefundPending:
		return apperr.Conflict("refund request already pending")
	default:
		return apperr.Newf(apperr.KindConflict, "refund already %s", p.RefundStatus)
	}
	if p.HasWithdrawn() {
		deadline := a.AuctionStartAt.Add(-window)
		if !p.WithdrawnAt.Before(deadline) {
			return apperr.Forbidden("withdrawal was after the refund deadline")
		}
	}
	return nil
}
