// Package notify fans auction state deltas out to websocket subscribers.
// Each auction gets a room whose single goroutine serializes subscription
// changes and broadcasts, so no subscriber map ever needs a lock.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// SnapshotFunc builds the full auction state pushed to a subscriber on join.
type SnapshotFunc func(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error)

// Outbound is the wire envelope for every message pushed to subscribers.
type Outbound struct {
	Type      string `json:"type"`
	AuctionID string `json:"auctionId"`
	Payload   any    `json:"payload,omitempty"`
}

// Hub owns the rooms and implements service.Publisher.
type Hub struct {
	snapshot SnapshotFunc

	mu    sync.Mutex
	rooms map[string]*room
	done  chan struct{}
}

// NewHub constructs a Hub. snapshot is called when a subscriber joins.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		snapshot: snapshot,
		rooms:    make(map[string]*room),
		done:     make(chan struct{}),
	}
}

// Close stops every room loop. Subscriber channels are closed by the rooms.
func (h *Hub) Close() {
	close(h.done)
}

// roomFor lazily creates the room for an auction and starts its loop.
func (h *Hub) roomFor(auctionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[auctionID]; ok {
		return r
	}
	r := newRoom(auctionID, h.done)
	h.rooms[auctionID] = r
	go r.run()
	return r
}

// existing returns the room only if one is already running. Publishing to an
// auction nobody watches should not spin up a room.
func (h *Hub) existing(auctionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[auctionID]
}

// PublishNewBid broadcasts an accepted bid to the auction's subscribers.
func (h *Hub) PublishNewBid(auctionID string, placement *model.BidPlacement) {
	if r := h.existing(auctionID); r != nil {
		r.publish(Outbound{Type: "new_bid", AuctionID: auctionID, Payload: placement})
	}
}

// PublishBidDenied broadcasts a denial, including the promoted winner if any.
func (h *Hub) PublishBidDenied(auctionID string, denial *model.BidDenial) {
	if r := h.existing(auctionID); r != nil {
		r.publish(Outbound{Type: "bid_denied", AuctionID: auctionID, Payload: denial})
	}
}

// Subscribe attaches a subscriber to an auction room and sends the current
// snapshot before any delta. The returned cancel must be called when the
// subscriber disconnects.
func (h *Hub) Subscribe(ctx context.Context, auctionID string) (<-chan Outbound, func(), error) {
	snap, err := h.snapshot(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	r := h.roomFor(auctionID)
	ch, cancel := r.subscribe(Outbound{Type: "snapshot", AuctionID: auctionID, Payload: snap})
	return ch, cancel, nil
}

// room serializes all subscriber mutations and broadcasts in one goroutine.
type room struct {
	auctionID string
	done      chan struct{}

	input       chan Outbound
	subReq      chan subscribeRequest
	unsubReq    chan int
	subscribers map[int]chan Outbound
	nextSubID   int
}

type subscribeRequest struct {
	first Outbound
	resp  chan subscribeResponse
}

type subscribeResponse struct {
	id int
	ch chan Outbound
}

func newRoom(auctionID string, done chan struct{}) *room {
	return &room{
		auctionID:   auctionID,
		done:        done,
		input:       make(chan Outbound, 256),
		subReq:      make(chan subscribeRequest),
		unsubReq:    make(chan int),
		subscribers: make(map[int]chan Outbound),
	}
}

func (r *room) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg := <-r.input:
			r.broadcast(msg)
		case req := <-r.subReq:
			ch := make(chan Outbound, 64)
			id := r.nextSubID
			r.nextSubID++
			r.subscribers[id] = ch
			ch <- req.first
			req.resp <- subscribeResponse{id: id, ch: ch}
		case id := <-r.unsubReq:
			if ch, ok := r.subscribers[id]; ok {
				delete(r.subscribers, id)
				close(ch)
			}
		case now := <-ticker.C:
			r.broadcast(Outbound{
				Type:      "time_update",
				AuctionID: r.auctionID,
				Payload:   map[string]any{"serverTime": now.UTC()},
			})
		case <-r.done:
			for id, ch := range r.subscribers {
				delete(r.subscribers, id)
				close(ch)
			}
			return
		}
	}
}

func (r *room) publish(msg Outbound) {
	select {
	case r.input <- msg:
	case <-r.done:
	}
}

// broadcast delivers to every subscriber. A subscriber whose buffer is full
// is evicted rather than allowed to stall the room loop.
func (r *room) broadcast(msg Outbound) {
	for id, ch := range r.subscribers {
		select {
		case ch <- msg:
		default:
			delete(r.subscribers, id)
			close(ch)
		}
	}
}

func (r *room) subscribe(first Outbound) (chan Outbound, func()) {
	req := subscribeRequest{first: first, resp: make(chan subscribeResponse)}
	r.subReq <- req
	resp := <-req.resp
	cancel := func() {
		select {
		case r.unsubReq <- resp.id:
		case <-r.done:
		}
	}
	return resp.ch, cancel
}
