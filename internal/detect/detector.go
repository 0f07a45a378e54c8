// Package detect selects the high-risk rows of a message table that have not
// been alerted on before.
package detect

import (
	"context"
	"sort"
	"time"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

// Lookup answers whether an identifier has already been alerted on.
// The detector only reads from it.
type Lookup interface {
	Contains(ctx context.Context, id string) (bool, error)
}

// Detector turns a message table into new alerts
type Detector struct {
	clock func() time.Time
}

// NewDetector creates a detector that stamps alerts with time.Now
func NewDetector() *Detector {
	return &Detector{clock: time.Now}
}

// NewDetectorWithClock creates a detector with an injectable clock
func NewDetectorWithClock(clock func() time.Time) *Detector {
	return &Detector{clock: clock}
}

// HighRisk returns every high-risk message of the table, latest first.
// Messages without a usable timestamp come after all timestamped ones and
// keep their table order.
func (d *Detector) HighRisk(table *dataset.Table) ([]model.Message, error) {
	if missing := table.Missing(model.RequiredColumns...); len(missing) > 0 {
		return nil, riskerr.NewSchemaError(table.Source, missing)
	}

	var high []model.Message
	for _, m := range table.Messages() {
		if m.IsHighRisk() {
			high = append(high, m)
		}
	}

	sort.SliceStable(high, func(i, j int) bool {
		a, b := high[i], high[j]
		if a.HasTimestamp() != b.HasTimestamp() {
			return a.HasTimestamp()
		}
		return a.Timestamp.After(b.Timestamp)
	})
	return high, nil
}

// Detect returns alerts for high-risk rows whose identifier is not in seen.
// The first row of a duplicated identifier wins. All alerts of one call
// share the same generation time. seen is never modified.
func (d *Detector) Detect(ctx context.Context, table *dataset.Table, seen Lookup) ([]model.Alert, error) {
	high, err := d.HighRisk(table)
	if err != nil {
		return nil, err
	}

	now := d.clock()
	emitted := make(map[string]struct{}, len(high))
	alerts := make([]model.Alert, 0, len(high))
	for _, m := range high {
		if _, dup := emitted[m.ID]; dup {
			continue
		}
		emitted[m.ID] = struct{}{}

		if seen != nil {
			ok, err := seen.Contains(ctx, m.ID)
			if err != nil {
				return nil, riskerr.NewStorageError("seen lookup", m.ID, err)
			}
			if ok {
				continue
			}
		}
		alerts = append(alerts, model.NewAlert(m, now))
	}
	return alerts, nil
}
