package dialog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Month stepping must not normalize through short months: on Jan 31 the old
// AddDate arithmetic landed on Mar 3 and the grid skipped February.
func TestMonthMenu_MonthEndDoesNotSkipShortMonths(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2026, time.January, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2026, time.October, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	} {
		t.Run(now.Format("2006-01-02"), func(t *testing.T) {
			menu := monthMenu(now)
			require.Len(t, menu, 5)

			var labels []string
			for _, row := range menu[:4] {
				require.Len(t, row, 3)
				for _, b := range row {
					labels = append(labels, b.Text)
				}
			}
			require.Len(t, labels, 12)

			// Twelve consecutive months starting right after now.
			seen := make(map[string]bool)
			expected := now.Month()
			for _, label := range labels {
				assert.False(t, seen[label], "duplicate month button %q", label)
				seen[label] = true

				expected++
				if expected > time.December {
					expected = time.January
				}
				assert.Contains(t, label, monthNamesRU[expected])
			}
		})
	}
}

func TestMonthMenu_FirstButtonIsNextMonth(t *testing.T) {
	menu := monthMenu(time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, fmt.Sprintf("%s 2026", monthNamesRU[time.February]), menu[0][0].Text)
}
