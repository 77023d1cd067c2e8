package firestore

import (
	"time"

	"github.com/aromelle/api/internal/platform/pagination"
)

// encodePageToken packs the cursor position of the last item on a page into an
// opaque token. Every listing in this package pages on a timestamp plus the
// document id as a tie-breaker, so one codec serves them all.
func encodePageToken(ts time.Time, id string) (string, error) {
	return pagination.EncodeToken(pagination.Cursor{Timestamp: ts, ID: id})
}

func decodePageToken(encoded string) (time.Time, string, error) {
	cursor, err := pagination.DecodeToken(encoded)
	if err != nil {
		return time.Time{}, "", err
	}
	return cursor.Timestamp, cursor.ID, nil
}
