package paging

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC), ID: "0b9d6a7e-5c1f-4f0e-9a43-3c7e1f2d9b11"}

	got, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, c.ID, got.ID)
}

func TestDecodeCursor(t *testing.T) {
	got, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeCursor("1700000000000")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), got.CreatedAt)
	assert.Empty(t, got.ID)

	for _, bad := range []string{"-5", "not base64!", "bm9jb2xvbg", "YWJjOmRlZg"} {
		_, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, bad)
	}
}

func TestCursor_Admits(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	keyed := Cursor{CreatedAt: ts, ID: "m"}
	legacy := Cursor{CreatedAt: ts}

	assert.True(t, keyed.Admits(ts.Add(-time.Millisecond), "z"))
	assert.True(t, keyed.Admits(ts, "a"))
	assert.False(t, keyed.Admits(ts, "m"))
	assert.False(t, keyed.Admits(ts, "z"))
	assert.False(t, keyed.Admits(ts.Add(time.Millisecond), "a"))

	assert.False(t, legacy.Admits(ts, "a"))
	assert.True(t, legacy.Admits(ts.Add(-time.Millisecond), "a"))
}
