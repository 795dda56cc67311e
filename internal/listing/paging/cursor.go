package paging

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// Cursor marks the last item of the previous page. ID is empty for legacy cursors
// that carry only the timestamp.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func CursorOf(l domain.Listing) Cursor {
	return Cursor{CreatedAt: domain.Timestamp(l.CreatedAt), ID: l.ID}
}

// Admits reports whether a row sorts strictly after the cursor in newest-first order.
func (c Cursor) Admits(createdAt time.Time, id string) bool {
	createdAt = domain.Timestamp(createdAt)
	if createdAt.Before(c.CreatedAt) {
		return true
	}
	return c.ID != "" && createdAt.Equal(c.CreatedAt) && id < c.ID
}

// EncodeCursor renders an opaque token for c.
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixMilli(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor accepts tokens produced by EncodeCursor and bare millisecond
// timestamps. An empty string means "first page" and yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return nil, fmt.Errorf("%w: cursor %q is negative", domain.ErrInvalidArgument, s)
		}
		return &Cursor{CreatedAt: time.UnixMilli(ms).UTC()}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidArgument)
	}
	tsPart, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidArgument)
	}
	ms, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil || ms < 0 {
		return nil, fmt.Errorf("%w: malformed cursor", domain.ErrInvalidArgument)
	}
	return &Cursor{CreatedAt: time.UnixMilli(ms).UTC(), ID: id}, nil
}
