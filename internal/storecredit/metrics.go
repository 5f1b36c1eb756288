package storecredit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeCreditDebitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "commerce",
	Name:      "store_credit_debited_minor_units_total",
	Help:      "Store credit debited from customer balances, in minor units",
})
