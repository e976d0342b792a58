package booking

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

// State selects a bucket of bookings relative to the current instant.
type State string

const (
	StateAll      State = "ALL"
	StatePast     State = "PAST"
	StateCurrent  State = "CURRENT"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// ParseState accepts any letter case; an empty value means ALL.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StateAll, nil
	case StateAll, StatePast, StateCurrent, StateFuture, StateWaiting, StateRejected:
		return s, nil
	}
	return "", apperror.Wrap(ErrUnknownState, http.StatusBadRequest, "unknown state: "+raw)
}

// Perspective is the role of the user whose bookings are listed.
type Perspective int

const (
	AsBooker Perspective = iota
	AsOwner
)

// Matches reports whether b belongs to the bucket at instant now.
// A booking ending exactly at now is neither PAST nor CURRENT.
func (s State) Matches(b *Booking, now time.Time, p Perspective) bool {
	switch s {
	case StateAll:
		return true
	case StatePast:
		if p == AsOwner && b.Status != StatusApproved {
			return false
		}
		return b.End.Before(now)
	case StateCurrent:
		return !b.Start.After(now) && now.Before(b.End)
	case StateFuture:
		return b.Start.After(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	}
	return false
}

// selectBucket keeps the bookings matching state and orders them newest start first.
func selectBucket(bookings []*Booking, state State, now time.Time, p Perspective) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if state.Matches(b, now, p) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b *Booking) int {
		if c := b.Start.Compare(a.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}
