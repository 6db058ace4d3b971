package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, 40, NormalizeLimit(40))
	require.Equal(t, MaxLimit, NormalizeLimit(5000))
	require.Equal(t, 41, LimitWithBuffer(40))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC), ID: uuid.New()}

	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)
}

func TestParseCursorEmpty(t *testing.T) {
	out, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestParseCursorMalformed(t *testing.T) {
	_, err := ParseCursor("not-base64!!")
	require.Error(t, err)

	_, err = ParseCursor("bm8tcGlwZQ==") // "no-pipe"
	require.Error(t, err)
}
