package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBookingDates(t *testing.T) {
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		nights int
		ok     bool
	}{
		{"exactly minimum", base, base.AddDate(0, 0, 7), 7, true},
		{"two weeks", base, base.AddDate(0, 0, 14), 14, true},
		{"one night short", base, base.AddDate(0, 0, 6), 0, false},
		{"same day", base, base, 0, false},
		{"inverted range", base.AddDate(0, 0, 7), base, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nights, err := validateBookingDates(tt.start, tt.end, 7)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidBookingDates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.nights, nights)
		})
	}
}

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateReferralCode(referralCodeLength)
		require.Len(t, code, referralCodeLength)
		for _, r := range code {
			assert.Contains(t, referralCodeAlphabet, string(r))
		}
		seen[code] = true
	}
	// 36^8 combinations make collisions across 100 draws vanishingly rare.
	assert.Greater(t, len(seen), 90)
}
