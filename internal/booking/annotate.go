package booking

import "time"

// FindNearest picks, among APPROVED bookings, the one that ended most recently
// before now and the one starting soonest after now.
// Equal boundaries resolve to the lowest booking id.
func FindNearest(bookings []*Booking, now time.Time) Nearest {
	var n Nearest
	for _, b := range bookings {
		if b.Status != StatusApproved {
			continue
		}
		if b.End.Before(now) && laterEnd(b, n.Last) {
			n.Last = b
		}
		if b.Start.After(now) && earlierStart(b, n.Next) {
			n.Next = b
		}
	}
	return n
}

// FindNearestByItem groups bookings by item and runs FindNearest per group.
// Every id in itemIDs gets an entry, empty when it has no qualifying bookings.
func FindNearestByItem(itemIDs []string, bookings []*Booking, now time.Time) map[string]Nearest {
	grouped := make(map[string][]*Booking, len(itemIDs))
	for _, b := range bookings {
		grouped[b.ItemID] = append(grouped[b.ItemID], b)
	}

	out := make(map[string]Nearest, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = FindNearest(grouped[id], now)
	}
	return out
}

func laterEnd(b, cur *Booking) bool {
	if cur == nil {
		return true
	}
	if !b.End.Equal(cur.End) {
		return b.End.After(cur.End)
	}
	return b.ID < cur.ID
}

func earlierStart(b, cur *Booking) bool {
	if cur == nil {
		return true
	}
	if !b.Start.Equal(cur.Start) {
		return b.Start.Before(cur.Start)
	}
	return b.ID < cur.ID
}
