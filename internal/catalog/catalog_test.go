package catalog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"2.5.1", true},
		{"2.5.10", true},
		{"2.5.9", true},
		{"2.6.0", true},
		{"3.0.0", true},
		{"10.0.0", true},
		{"2.5.0", false},
		{"2.4.9", false},
		{"1.99.99", false},
		{"v2.7.1-beta", true},
		{"2.5", false},
		{"", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedVersion(tt.version))
		})
	}
}

func TestAtLeast_NumericNotLexicographic(t *testing.T) {
	assert.True(t, atLeast("2.5.10", "2.5.9"))
	assert.False(t, atLeast("2.5.9", "2.5.10"))
	assert.True(t, atLeast("3.0.0", "2.99.99"), "higher major wins")
	assert.True(t, atLeast("2.05.1", "2.5.1"), "leading zeros")
}

func TestBestBeforeDate(t *testing.T) {
	now := time.Date(2024, 2, 27, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-02-27", BestBeforeDate(now, 0))
	assert.Equal(t, "2024-03-02", BestBeforeDate(now, 4), "crosses leap day")
	assert.Equal(t, FarFutureDate, BestBeforeDate(now, NeverExpires))
}

func TestErrorHelpers(t *testing.T) {
	base := NewError(ErrCodeRejected, "consume", "amount exceeds stock", nil)
	wrapped := fmt.Errorf("process scan: %w", base)

	assert.True(t, IsRejected(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeRejected, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, "REJECTED: consume: amount exceeds stock", base.Error())
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrCodeRemoteUnavailable, "system info", "", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRemoteUnavailable(err))
	assert.Contains(t, err.Error(), "connection refused")
}
