package resolve

import "time"

// FilterActive keeps the records whose active window contains now. A nil
// bound is unbounded on that side; a record with no window is always active.
// Expansion itself never filters; callers opt in.
func FilterActive(recs []Record, now time.Time) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		if rec.StartAt != nil && now.Before(*rec.StartAt) {
			continue
		}
		if rec.EndAt != nil && now.After(*rec.EndAt) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
