package drinks

import (
	"math"
	"sort"
	"time"
)

// Distribution counts drinks per type. NewDistribution zero-fills all four types
// so absent types still serialize as 0.
type Distribution map[Type]int

func NewDistribution() Distribution {
	d := make(Distribution, len(Types))
	for _, t := range Types {
		d[t] = 0
	}
	return d
}

func (d Distribution) Add(t Type) {
	d[t]++
}

// Merge adds other's counts into d.
func (d Distribution) Merge(other Distribution) {
	for t, n := range other {
		d[t] += n
	}
}

func (d Distribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HourIndex is floor((at - start) / 1h).
func HourIndex(start, at time.Time) int {
	return int(math.Floor(at.Sub(start).Hours()))
}

// HourlyCounts buckets timestamps by whole hours since start. Only non-empty
// buckets are returned, ascending by hour.
func HourlyCounts(start time.Time, stamps []time.Time) []HourCount {
	buckets := make(map[int]int)
	for _, ts := range stamps {
		buckets[HourIndex(start, ts)]++
	}

	result := make([]HourCount, 0, len(buckets))
	for hour, count := range buckets {
		result = append(result, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Hour < result[j].Hour
	})
	return result
}

// RatePerHour divides count by the hours elapsed from start to now.
// It is 0 when there is nothing to count or no time has elapsed.
func RatePerHour(count int, start, now time.Time) float64 {
	if count == 0 {
		return 0
	}
	elapsed := now.Sub(start).Hours()
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed
}

// PerSession is totalDrinks / sessions, 0 when there are no sessions.
func PerSession(totalDrinks, sessions int) float64 {
	if sessions == 0 {
		return 0
	}
	return float64(totalDrinks) / float64(sessions)
}

// RoundTenth rounds to one decimal place for display.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
