package alerts

import (
	"fmt"
	"time"

	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
)

// Derive recomputes the notification set from the current products. It is a
// pure function of its inputs: the same products, threshold, and clock yield
// the same notifications with the same ids.
func Derive(products []ledger.Product, thresholdDays int, now time.Time) []Notification {
	horizon := now.AddDate(0, 0, thresholdDays)
	out := []Notification{}
	for _, p := range products {
		id := fmt.Sprintf("%d", p.ID)
		if p.TotalStock() <= p.ReorderLevel {
			out = append(out, Notification{
				ID:        lowStockPrefix + id,
				ProductID: p.ID,
				Product:   p.Name,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("%s is low on stock (%s on hand, reorder at %s)", p.Name, trimFloat(p.TotalStock()), trimFloat(p.ReorderLevel)),
				CreatedAt: now,
			})
		}
		if p.ExpirationDate.IsZero() {
			continue
		}
		switch {
		case p.ExpirationDate.Before(now):
			out = append(out, Notification{
				ID:        expiredPrefix + id,
				ProductID: p.ID,
				Product:   p.Name,
				Severity:  SeverityDanger,
				Message:   fmt.Sprintf("%s expired on %s", p.Name, p.ExpirationDate.Format("2006-01-02")),
				CreatedAt: now,
			})
		case p.ExpirationDate.Before(horizon):
			out = append(out, Notification{
				ID:        expiresSoonPrefix + id,
				ProductID: p.ID,
				Product:   p.Name,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("%s expires on %s", p.Name, p.ExpirationDate.Format("2006-01-02")),
				CreatedAt: now,
			})
		}
	}
	return out
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
