package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
)

// ErrNothingDue is returned by RunOnce when no maintenance item fires.
var ErrNothingDue = errors.New("no maintenance notifications")

// Sender delivers the aggregated alert message.
type Sender interface {
	SendMessage(chatID int64, text string, markup *telegram.ReplyMarkup) error
}

// Notifier periodically scans active maintenance items and alerts the admin
// chat about due and overdue service. Alerts fire at most once per item per
// calendar day.
type Notifier struct {
	store       store.Store
	bot         Sender
	adminChatID int64
	notifyHour  int
	interval    time.Duration
	logger      *slog.Logger

	now         func() time.Time
	lastRunDate string
}

func New(st store.Store, bot Sender, adminChatID int64, notifyHour int, interval time.Duration, logger *slog.Logger) *Notifier {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:       st,
		bot:         bot,
		adminChatID: adminChatID,
		notifyHour:  notifyHour,
		interval:    interval,
		logger:      logger,
		now:         func() time.Time { return time.Now() },
	}
}

// Run ticks until the context is canceled. Scan errors are logged, never
// fatal, so the timer keeps going.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.tick()
		}
	}
}

// tick applies the once-per-day and hour-window gates, then scans.
func (n *Notifier) tick() {
	now := n.now()
	today := now.Format("2006-01-02")
	if n.lastRunDate == today {
		return
	}
	if now.Hour() != n.notifyHour {
		return
	}
	n.lastRunDate = today

	text, err := n.scan(now)
	if err != nil {
		if errors.Is(err, ErrNothingDue) {
			n.logger.Info("maintenance scan: nothing due")
			return
		}
		n.logger.Error("maintenance scan failed", "error", err)
		return
	}
	if err := n.bot.SendMessage(n.adminChatID, text, nil); err != nil {
		n.logger.Error("maintenance alert send failed", "error", err)
		return
	}
	n.logger.Info("maintenance alert sent")
}

// RunOnce performs the scan immediately without daily or hour gating and
// returns the composed alert text. Items already notified today still stay
// silent.
func (n *Notifier) RunOnce() (string, error) {
	return n.scan(n.now())
}

func (n *Notifier) scan(now time.Time) (string, error) {
	items, err := n.store.ListMaintenanceItems("", true)
	if err != nil {
		return "", fmt.Errorf("list maintenance items: %w", err)
	}

	var blocks []string
	for _, item := range items {
		if item.LastNotifiedAt != nil && sameDay(*item.LastNotifiedAt, now) {
			continue
		}
		vehicle, found, err := n.store.GetVehicle(item.VehicleID)
		if err != nil {
			return "", fmt.Errorf("get vehicle %s: %w", item.VehicleID, err)
		}
		if !found {
			continue
		}
		lines := dueLines(item, vehicle, now)
		if len(lines) == 0 {
			continue
		}
		if err := n.store.SetMaintenanceNotified(item.ID, now); err != nil {
			n.logger.Warn("stamp last notified failed", "item_id", item.ID, "error", err)
		}
		label := vehicle.PlateNumber
		if label == "" {
			label = vehicle.Name
		}
		blocks = append(blocks, fmt.Sprintf("🔧 %s — %s:\n%s", label, item.Name, strings.Join(lines, "\n")))
	}
	if len(blocks) == 0 {
		return "", ErrNothingDue
	}
	return "Maintenance due:\n\n" + strings.Join(blocks, "\n\n"), nil
}

// dueLines evaluates the distance and date rules. Both are independent and
// both may fire for the same item.
func dueLines(item domain.MaintenanceItem, vehicle domain.Vehicle, now time.Time) []string {
	var lines []string

	if item.LastDoneOdometerKm != nil && item.IntervalKm != nil {
		dueAt := *item.LastDoneOdometerKm + *item.IntervalKm
		current := 0
		switch {
		case vehicle.CurrentOdometerKm != nil:
			current = *vehicle.CurrentOdometerKm
		case item.LastDoneOdometerKm != nil:
			current = *item.LastDoneOdometerKm
		}
		remaining := dueAt - current
		switch {
		case remaining <= 0:
			lines = append(lines, fmt.Sprintf("overdue by %d km", -remaining))
		case remaining <= item.NotifyBeforeKm:
			lines = append(lines, fmt.Sprintf("upcoming, %d km remaining", remaining))
		}
	}

	if item.LastDoneAt != nil && item.IntervalDays != nil {
		dueAt := item.LastDoneAt.AddDate(0, 0, *item.IntervalDays)
		diffDays := int(math.Ceil(dueAt.Sub(now).Hours() / 24))
		switch {
		case diffDays <= 0:
			lines = append(lines, fmt.Sprintf("overdue by %d days", -diffDays))
		case diffDays <= item.NotifyBeforeDays:
			lines = append(lines, fmt.Sprintf("upcoming, %d days", diffDays))
		}
	}
	return lines
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
