package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
)

// InventoryMetricsCollector handles movement processing and stock level
// metrics. It implements the application layer's MetricsRecorder.
type InventoryMetricsCollector struct {
	repos  ports.Repos
	logger *zap.Logger

	// Event counters, recorded inline by the movement processor
	movementsTotal    *prometheus.CounterVec
	reservationsTotal *prometheus.CounterVec

	// Stock gauges, refreshed by a polling goroutine
	stockQuantity *prometheus.GaugeVec
	stockReserved *prometheus.GaugeVec
	belowMinimum  *prometheus.GaugeVec

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewInventoryMetricsCollector creates a new inventory metrics collector.
// The repository bundle is used read-only by the stock level poller.
func NewInventoryMetricsCollector(repos ports.Repos, logger *zap.Logger) *InventoryMetricsCollector {
	return &InventoryMetricsCollector{
		repos:  repos,
		logger: logger,

		movementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "movements_total",
				Help:      "Total number of processed stock movements by type and result",
			},
			[]string{"movement_type", "result"},
		),

		reservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reservations_total",
				Help:      "Total number of reservation operations by operation and result",
			},
			[]string{"operation", "result"},
		),

		stockQuantity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_quantity",
				Help:      "Current stock quantity per location and product",
			},
			[]string{"location", "product"},
		),

		stockReserved: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_reserved",
				Help:      "Reserved stock quantity per location and product",
			},
			[]string{"location", "product"},
		),

		belowMinimum: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_below_minimum_total",
				Help:      "Number of products under their minimum stock level per location",
			},
			[]string{"location"},
		),
	}
}

// Register registers all metrics with the Prometheus registry
func (c *InventoryMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	collectors := []prometheus.Collector{
		c.movementsTotal,
		c.reservationsTotal,
		c.stockQuantity,
		c.stockReserved,
		c.belowMinimum,
	}

	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// MovementProcessed records one movement processing outcome
func (c *InventoryMetricsCollector) MovementProcessed(movementType, result string) {
	c.movementsTotal.WithLabelValues(movementType, result).Inc()
}

// ReservationChanged records one reservation operation outcome
func (c *InventoryMetricsCollector) ReservationChanged(operation, result string) {
	c.reservationsTotal.WithLabelValues(operation, result).Inc()
}

// Start begins the stock level polling goroutine
func (c *InventoryMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.collectStockMetrics(60 * time.Second)
}

// Stop gracefully stops the metrics collection
func (c *InventoryMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *InventoryMetricsCollector) collectStockMetrics(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.updateStockMetrics()
		}
	}
}

// updateStockMetrics reads the balance cache and updates the stock gauges
func (c *InventoryMetricsCollector) updateStockMetrics() {
	locations, err := c.repos.Locations.List(c.ctx)
	if err != nil {
		c.logger.Warn("failed to list locations for metrics", zap.Error(err))
		return
	}

	// Reset gauges so deleted rows do not linger
	c.stockQuantity.Reset()
	c.stockReserved.Reset()
	c.belowMinimum.Reset()

	for _, location := range locations {
		items, err := c.repos.Items.ListByLocation(c.ctx, location.ID)
		if err != nil {
			c.logger.Warn("failed to list inventory items for metrics",
				zap.Uint("location_id", location.ID),
				zap.Error(err))
			continue
		}

		underMinimum := 0
		for _, item := range items {
			product := strconv.FormatUint(uint64(item.ProductID), 10)
			quantity, _ := item.CurrentQty.Float64()
			reserved, _ := item.ReservedQty.Float64()

			c.stockQuantity.WithLabelValues(location.Code, product).Set(quantity)
			c.stockReserved.WithLabelValues(location.Code, product).Set(reserved)

			if item.MinStockLevel.IsPositive() && item.CurrentQty.LessThan(item.MinStockLevel) {
				underMinimum++
			}
		}
		c.belowMinimum.WithLabelValues(location.Code).Set(float64(underMinimum))
	}
}
