package giftcards

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	giftCardsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commerce",
		Name:      "gift_cards_issued_total",
		Help:      "Gift cards issued, by card type",
	}, []string{"type"})

	giftCardsRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "commerce",
		Name:      "gift_cards_redeemed_total",
		Help:      "Gift cards redeemed into store credit",
	})

	giftCardsAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "commerce",
		Name:      "gift_cards_abandoned_total",
		Help:      "Gift cards marked as abandoned property",
	})
)
