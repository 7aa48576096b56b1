package jobs

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/pkg/utils"
)

const (
	DefaultStockAlertSchedule = "@every 15m"
	DefaultExpiryWarningDays  = 30

	AlertReasonLowStock = "low_stock"
	AlertReasonExpiring = "expiring"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// InventorySource is the read side of the inventory the scan needs.
type InventorySource interface {
	ListLowStock(ctx context.Context) ([]models.Product, error)
	ListExpiring(ctx context.Context, days int) ([]models.Product, error)
}

// StockAlertJob periodically logs products that need reordering or are
// about to expire.
type StockAlertJob struct {
	source     InventorySource
	expiryDays int
	timeout    time.Duration
	now        func() time.Time
	sched      *cron.Cron
}

func NewStockAlertJob(source InventorySource, expiryDays int) *StockAlertJob {
	if expiryDays <= 0 {
		expiryDays = DefaultExpiryWarningDays
	}
	return &StockAlertJob{
		source:     source,
		expiryDays: expiryDays,
		timeout:    30 * time.Second,
		now:        time.Now,
	}
}

// Scan collects alerts ordered by product id, low stock before expiry for the same product.
func (j *StockAlertJob) Scan(ctx context.Context) ([]models.InventoryAlert, error) {
	low, err := j.source.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan low stock: %w", err)
	}
	expiring, err := j.source.ListExpiring(ctx, j.expiryDays)
	if err != nil {
		return nil, fmt.Errorf("scan expiring: %w", err)
	}

	now := j.now()
	alerts := make([]models.InventoryAlert, 0, len(low)+len(expiring))
	for _, p := range low {
		alerts = append(alerts, models.InventoryAlert{
			ProductID: p.ID, Name: p.Name, Reason: AlertReasonLowStock, Stock: p.Stock, MinStock: p.MinStock,
		})
	}
	for _, p := range expiring {
		alerts = append(alerts, models.InventoryAlert{
			ProductID: p.ID, Name: p.Name, Reason: AlertReasonExpiring, Stock: p.Stock, MinStock: p.MinStock,
			DaysLeft: int(math.Ceil(p.ExpiryDate.Sub(now).Hours() / 24)),
		})
	}
	sort.SliceStable(alerts, func(a, b int) bool { return alerts[a].ProductID < alerts[b].ProductID })
	return alerts, nil
}

// Run performs one scan and logs each alert.
func (j *StockAlertJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	alerts, err := j.Scan(ctx)
	if err != nil {
		utils.LogError(err, "Stock alert scan failed")
		return
	}
	for _, a := range alerts {
		utils.LogWarn("Inventory alert", map[string]interface{}{
			"product_id": a.ProductID,
			"name":       a.Name,
			"reason":     a.Reason,
			"stock":      a.Stock,
			"min_stock":  a.MinStock,
			"days_left":  a.DaysLeft,
		})
	}
	utils.LogDebug("Stock alert scan finished", map[string]interface{}{"alerts": len(alerts)})
}

// Start schedules Run on schedule (cron syntax, seconds optional, or @every/@daily descriptors).
func (j *StockAlertJob) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultStockAlertSchedule
	}
	j.sched = cron.New(cron.WithParser(cronParser))
	if _, err := j.sched.AddFunc(schedule, j.Run); err != nil {
		return fmt.Errorf("invalid stock alert schedule %q: %w", schedule, err)
	}
	j.sched.Start()
	utils.LogInfo("Stock alert job scheduled", map[string]interface{}{"schedule": schedule})
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (j *StockAlertJob) Stop() {
	if j.sched == nil {
		return
	}
	<-j.sched.Stop().Done()
}
