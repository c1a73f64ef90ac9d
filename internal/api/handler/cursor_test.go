package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbytes/backend/internal/jobstore"
)

func TestJobCursorRoundTrip(t *testing.T) {
	want := &jobstore.Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		JobID:     "8b4f2c7e-1234-4abc-9def-0fedcba98765",
	}

	encoded := EncodeJobCursor(want)
	got, err := DecodeJobCursor(encoded)
	require.NoError(t, err)

	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.JobID, got.JobID)
}

func TestDecodeJobCursor_Empty(t *testing.T) {
	got, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"missing separator", base64.StdEncoding.EncodeToString([]byte("1234567890"))},
		{"non-numeric timestamp", base64.StdEncoding.EncodeToString([]byte("abc|job-1"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJobCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
