package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/committee-engine/internal/repository"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func TestFineFor(t *testing.T) {
	fineStart := date(2026, time.March, 10, 0)

	tests := []struct {
		name      string
		committee *repository.Committee
		now       time.Time
		expected  decimal.Decimal
	}{
		{
			name:      "success: no fine start date",
			committee: &repository.Committee{FineAmount: decimal.NewFromInt(10)},
			now:       date(2026, time.March, 15, 12),
			expected:  decimal.Zero,
		},
		{
			name:      "success: on the fine start date",
			committee: &repository.Committee{FineAmount: decimal.NewFromInt(10), FineStartDate: &fineStart},
			now:       date(2026, time.March, 10, 23),
			expected:  decimal.Zero,
		},
		{
			name:      "success: five days late ignores time of day",
			committee: &repository.Committee{FineAmount: decimal.NewFromInt(10), FineStartDate: &fineStart},
			now:       date(2026, time.March, 15, 1),
			expected:  decimal.NewFromInt(50),
		},
		{
			name:      "success: before the fine start date is negative",
			committee: &repository.Committee{FineAmount: decimal.NewFromInt(10), FineStartDate: &fineStart},
			now:       date(2026, time.March, 8, 18),
			expected:  decimal.NewFromInt(-20),
		},
		{
			name:      "success: fractional fine per day",
			committee: &repository.Committee{FineAmount: decimal.RequireFromString("2.5"), FineStartDate: &fineStart},
			now:       date(2026, time.April, 10, 9),
			expected:  decimal.RequireFromString("77.5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fineFor(tt.committee, tt.now)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestFineFor_Monotonic(t *testing.T) {
	fineStart := date(2026, time.January, 1, 0)
	c := &repository.Committee{FineAmount: decimal.NewFromInt(10), FineStartDate: &fineStart}

	prev := fineFor(c, fineStart.AddDate(0, 0, -3))
	for i := -2; i < 40; i++ {
		cur := fineFor(c, fineStart.AddDate(0, 0, i))
		assert.True(t, cur.GreaterThan(prev), "day %d", i)
		prev = cur
	}
}

func TestDrawStarted(t *testing.T) {
	drawDate := date(2026, time.May, 1, 19)

	assert.True(t, drawStarted(drawDate, date(2026, time.May, 1, 8)))
	assert.True(t, drawStarted(drawDate, date(2026, time.May, 2, 0)))
	assert.False(t, drawStarted(drawDate, date(2026, time.April, 30, 23)))
}

func TestBuildDrawSchedule(t *testing.T) {
	tests := []struct {
		name          string
		committee     *repository.Committee
		now           time.Time
		expectedMin   decimal.Decimal
		expectedDates []time.Time
	}{
		{
			name: "success: schedule from start date",
			committee: &repository.Committee{
				ID:         3,
				Amount:     decimal.NewFromInt(1200),
				MaxMembers: 4,
				NoOfMonths: 3,
				StartDate:  ptr(date(2026, time.January, 31, 9)),
			},
			now:         date(2026, time.June, 1, 0),
			expectedMin: decimal.NewFromInt(300),
			expectedDates: []time.Time{
				date(2026, time.January, 31, 19),
				date(2026, time.March, 3, 19),
				date(2026, time.March, 31, 19),
			},
		},
		{
			name: "success: schedule from now with rounded minimum",
			committee: &repository.Committee{
				ID:         4,
				Amount:     decimal.NewFromInt(1000),
				MaxMembers: 3,
				NoOfMonths: 2,
			},
			now:         date(2026, time.June, 15, 10),
			expectedMin: decimal.RequireFromString("333.33"),
			expectedDates: []time.Time{
				date(2026, time.June, 15, 19),
				date(2026, time.July, 15, 19),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws := buildDrawSchedule(tt.committee, tt.now)
			require.Len(t, draws, tt.committee.NoOfMonths)

			for i, d := range draws {
				assert.Equal(t, tt.committee.ID, d.CommitteeID)
				assert.True(t, d.Amount.IsZero())
				assert.True(t, tt.expectedMin.Equal(d.MinAmount), "min amount %s", d.MinAmount)
				assert.Equal(t, tt.expectedDates[i], d.Date)
			}
		})
	}
}

func TestEndDateFor(t *testing.T) {
	assert.Nil(t, endDateFor(nil, 12))
	assert.Equal(t, date(2027, time.February, 10, 19), *endDateFor(ptr(date(2026, time.February, 10, 7)), 12))
}
