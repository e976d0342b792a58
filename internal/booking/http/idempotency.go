package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrIdempotencyInProgress = apperror.Conflict("a request with this idempotency key is still in progress")
	ErrIdempotencyMismatch   = apperror.New(http.StatusUnprocessableEntity, "idempotency key was already used with a different request")
)

// idemRecord is what an idempotency key maps to. BookingID is empty while the
// first request is still running.
type idemRecord struct {
	Fingerprint string `json:"fp"`
	BookingID   string `json:"booking_id,omitempty"`
}

func (r idemRecord) encode() string {
	b, _ := json.Marshal(r)
	return string(b)
}

func decodeIdemRecord(raw string) (idemRecord, error) {
	var r idemRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return idemRecord{}, fmt.Errorf("decode idempotency record: %w", err)
	}
	return r, nil
}

// fingerprint identifies the booking a request asks for.
func (r CreateBookingRequest) fingerprint() string {
	sum := sha256.Sum256([]byte(r.ItemID + "|" +
		r.Start.UTC().Format(time.RFC3339Nano) + "|" +
		r.End.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
