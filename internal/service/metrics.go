package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bidsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctionhub_bids_placed_total",
		Help: "Number of bids accepted as the new winning bid.",
	})
	bidsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionhub_bids_rejected_total",
		Help: "Number of bids rejected, by error kind.",
	}, []string{"kind"})
	bidsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctionhub_bids_denied_total",
		Help: "Number of bids denied by an admin.",
	})
	auctionsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionhub_auctions_finalized_total",
		Help: "Number of finalized auctions, by outcome.",
	}, []string{"outcome"})
	winnerDefaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctionhub_winner_defaults_total",
		Help: "Number of winner-default cascades handled.",
	})
)
