package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// LedgerMetrics records cart and checkout activity.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	stockUnits *prometheus.CounterVec
	checkouts  prometheus.Counter
	revenue    prometheus.Counter
	cashback   prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart ledger operations by kind and outcome.",
	}, []string{"operation", "outcome"})
	stockUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_stock_units_total",
		Help: "Stock units reserved by adds and restored by removals.",
	}, []string{"direction"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_completed_total",
		Help: "Successful checkouts.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_amount_total",
		Help: "Sum of checked out cart totals.",
	})
	cashback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_cashback_total",
		Help: "Sum of cashback credited at checkout.",
	})
	reg.MustRegister(operations, stockUnits, checkouts, revenue, cashback)
	return &LedgerMetrics{
		operations: operations,
		stockUnits: stockUnits,
		checkouts:  checkouts,
		revenue:    revenue,
		cashback:   cashback,
	}
}

// ObserveOperation counts a cart operation with its outcome derived from err.
func (m *LedgerMetrics) ObserveOperation(operation string, err error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// StockReserved counts units taken from stock.
func (m *LedgerMetrics) StockReserved(units int) {
	if m == nil || m.stockUnits == nil || units <= 0 {
		return
	}
	m.stockUnits.WithLabelValues("reserved").Add(float64(units))
}

// StockRestored counts units given back to stock.
func (m *LedgerMetrics) StockRestored(units int) {
	if m == nil || m.stockUnits == nil || units <= 0 {
		return
	}
	m.stockUnits.WithLabelValues("restored").Add(float64(units))
}

// CheckoutCompleted records a settled cart.
func (m *LedgerMetrics) CheckoutCompleted(total, cashback decimal.Decimal) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.Inc()
	m.revenue.Add(total.InexactFloat64())
	m.cashback.Add(cashback.InexactFloat64())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
