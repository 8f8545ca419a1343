package core

import (
	"sort"
	"time"
)

type (
	// MonthlyBucket is one of twelve per-month totals for a year.
	MonthlyBucket struct {
		Month      string `json:"month"`
		Total      Money  `json:"total"`
		MonthIndex int    `json:"monthIndex"`
	}

	// DailyBucket is a per-day total within a month.
	DailyBucket struct {
		Day   int   `json:"day"`
		Total Money `json:"total"`
	}

	// TagStat is a per-tag total with the tag's display color and its
	// share of the period's grand total.
	TagStat struct {
		Name       string  `json:"name"`
		Value      Money   `json:"value"`
		Color      string  `json:"color"`
		Percentage float64 `json:"percentage"`
	}
)

// MonthlyTotals buckets expenses into exactly twelve calendar-ordered
// months of the given year. Months without expenses keep a zero total;
// expenses dated outside the year are ignored.
func MonthlyTotals(year int, expenses []Expense) []MonthlyBucket {
	buckets := make([]MonthlyBucket, 12)
	for i := range buckets {
		buckets[i] = MonthlyBucket{
			Month:      time.Month(i + 1).String()[:3],
			MonthIndex: i + 1,
		}
	}
	for _, e := range expenses {
		if e.Date.Year() != year {
			continue
		}
		buckets[int(e.Date.Month())-1].Total.Cents += e.Amount.Cents
	}
	return buckets
}

// DailyTotals buckets expenses into exactly DaysInMonth(year, month)
// ordered days. Days without expenses keep a zero total; expenses dated
// outside the selected month are ignored.
func DailyTotals(year, month int, expenses []Expense) []DailyBucket {
	buckets := make([]DailyBucket, DaysInMonth(year, month))
	for i := range buckets {
		buckets[i].Day = i + 1
	}
	for _, e := range expenses {
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			continue
		}
		buckets[e.Date.Day()-1].Total.Cents += e.Amount.Cents
	}
	return buckets
}

// TagDistribution groups expenses by tag name, keeping the tag color,
// sorted by total descending. Ties keep first-encountered order. The
// percentage is each tag's share of the grand total; when the grand
// total is zero every percentage is zero.
func TagDistribution(expenses []Expense) []TagStat {
	index := make(map[string]int)
	stats := make([]TagStat, 0)
	var grand int64
	for _, e := range expenses {
		i, ok := index[e.Tag.Name]
		if !ok {
			i = len(stats)
			index[e.Tag.Name] = i
			stats = append(stats, TagStat{Name: e.Tag.Name, Color: e.Tag.Color})
		}
		stats[i].Value.Cents += e.Amount.Cents
		grand += e.Amount.Cents
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Value.Cents > stats[j].Value.Cents
	})
	if grand > 0 {
		for i := range stats {
			stats[i].Percentage = 100 * float64(stats[i].Value.Cents) / float64(grand)
		}
	}
	return stats
}
