package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(tag, color, amount string, date time.Time) Expense {
	cents, err := ParseDecimalToCents(amount)
	if err != nil {
		panic(err)
	}
	return Expense{
		Amount: Money{Cents: cents},
		Date:   date,
		Tag:    Tag{Name: tag, Color: color},
	}
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyTotals(t *testing.T) {
	expenses := []Expense{
		expense("Food", "#FF0000", "100.00", day(2024, 3, 5)),
		expense("Food", "#FF0000", "50.00", day(2024, 3, 6)),
		expense("Travel", "#00FF00", "25.00", day(2024, 3, 10)),
		expense("Food", "#FF0000", "99.00", day(2023, 3, 5)), // other year, ignored
	}

	buckets := MonthlyTotals(2024, expenses)
	require.Len(t, buckets, 12)

	names := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for i, b := range buckets {
		assert.Equal(t, names[i], b.Month)
		assert.Equal(t, i+1, b.MonthIndex)
	}

	assert.Equal(t, int64(17500), buckets[2].Total.Cents)
	for i, b := range buckets {
		if i != 2 {
			assert.Zero(t, b.Total.Cents, "month %s should be empty", b.Month)
		}
	}
}

func TestMonthlyTotalsOrderIndependent(t *testing.T) {
	a := expense("Food", "#FF0000", "10.00", day(2024, 1, 1))
	b := expense("Food", "#FF0000", "20.00", day(2024, 6, 15))
	c := expense("Food", "#FF0000", "30.00", day(2024, 12, 31))

	forward := MonthlyTotals(2024, []Expense{a, b, c})
	backward := MonthlyTotals(2024, []Expense{c, b, a})
	assert.Equal(t, forward, backward)
}

func TestMonthlyTotalsEmpty(t *testing.T) {
	buckets := MonthlyTotals(2024, nil)
	require.Len(t, buckets, 12)
	for _, b := range buckets {
		assert.Zero(t, b.Total.Cents)
	}
}

func TestDailyTotals(t *testing.T) {
	expenses := []Expense{
		expense("Food", "#FF0000", "100.00", day(2024, 3, 5)),
		expense("Food", "#FF0000", "50.00", day(2024, 3, 6)),
		expense("Travel", "#00FF00", "25.00", day(2024, 3, 10)),
		expense("Food", "#FF0000", "42.00", day(2024, 4, 5)), // other month, ignored
	}

	buckets := DailyTotals(2024, 3, expenses)
	require.Len(t, buckets, 31)

	for i, b := range buckets {
		assert.Equal(t, i+1, b.Day)
	}
	assert.Equal(t, int64(10000), buckets[4].Total.Cents)
	assert.Equal(t, int64(5000), buckets[5].Total.Cents)
	assert.Equal(t, int64(2500), buckets[9].Total.Cents)
}

func TestDailyTotalsMonthLength(t *testing.T) {
	assert.Len(t, DailyTotals(2024, 2, nil), 29)
	assert.Len(t, DailyTotals(2023, 2, nil), 28)
	assert.Len(t, DailyTotals(2024, 4, nil), 30)
}

func TestDailyTotalsLastDay(t *testing.T) {
	buckets := DailyTotals(2024, 1, []Expense{
		expense("Food", "#FF0000", "5.00", day(2024, 1, 31)),
	})
	assert.Equal(t, int64(500), buckets[30].Total.Cents)
}

func TestTagDistribution(t *testing.T) {
	stats := TagDistribution([]Expense{
		expense("Food", "#FF0000", "100.00", day(2024, 3, 5)),
		expense("Travel", "#00FF00", "25.00", day(2024, 3, 10)),
		expense("Food", "#FF0000", "50.00", day(2024, 3, 6)),
	})

	require.Len(t, stats, 2)
	assert.Equal(t, "Food", stats[0].Name)
	assert.Equal(t, "#FF0000", stats[0].Color)
	assert.Equal(t, int64(15000), stats[0].Value.Cents)
	assert.InDelta(t, 85.714, stats[0].Percentage, 0.001)

	assert.Equal(t, "Travel", stats[1].Name)
	assert.Equal(t, int64(2500), stats[1].Value.Cents)
	assert.InDelta(t, 14.285, stats[1].Percentage, 0.001)

	var sum float64
	for _, s := range stats {
		sum += s.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.0001)
}

func TestTagDistributionTiesKeepEncounterOrder(t *testing.T) {
	stats := TagDistribution([]Expense{
		expense("B", "#111111", "10.00", day(2024, 1, 1)),
		expense("A", "#222222", "10.00", day(2024, 1, 2)),
	})
	require.Len(t, stats, 2)
	assert.Equal(t, "B", stats[0].Name)
	assert.Equal(t, "A", stats[1].Name)
}

func TestTagDistributionEmpty(t *testing.T) {
	assert.Empty(t, TagDistribution(nil))
}
