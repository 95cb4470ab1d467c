package logfilter

import (
	"testing"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func sample() []dom.Exercise {
	return []dom.Exercise{
		{Description: "a", Duration: 10, Date: day("2023-02-03")},
		{Description: "b", Duration: 20, Date: day("2023-01-01")},
		{Description: "c", Duration: 30, Date: day("2022-12-31")},
		{Description: "d", Duration: 40, Date: day("2023-01-31")},
		{Description: "e", Duration: 50, Date: day("2023-01-15")},
	}
}

func descriptions(list []dom.Exercise) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Description
	}
	return out
}

func TestFilter_NoBounds(t *testing.T) {
	got := Filter(sample(), Query{})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, descriptions(got))
}

func TestFilter_InclusiveRangePreservesOrder(t *testing.T) {
	got := Filter(sample(), Query{From: ptr(day("2023-01-01")), To: ptr(day("2023-01-31"))})
	assert.Equal(t, []string{"b", "d", "e"}, descriptions(got))
}

func TestFilter_FromOnly(t *testing.T) {
	got := Filter(sample(), Query{From: ptr(day("2023-01-15"))})
	assert.Equal(t, []string{"a", "d", "e"}, descriptions(got))
}

func TestFilter_ToOnly(t *testing.T) {
	got := Filter(sample(), Query{To: ptr(day("2023-01-01"))})
	assert.Equal(t, []string{"b", "c"}, descriptions(got))
}

func TestFilter_BoundsIgnoreTimeOfDay(t *testing.T) {
	from := time.Date(2023, time.January, 31, 23, 59, 0, 0, time.UTC)
	got := Filter(sample(), Query{From: &from, To: &from})
	assert.Equal(t, []string{"d"}, descriptions(got))
}

func TestFilter_LimitTakesFirstN(t *testing.T) {
	got := Filter(sample(), Query{Limit: ptr(2)})
	assert.Equal(t, []string{"a", "b"}, descriptions(got))
	assert.Len(t, got, 2)
}

func TestFilter_LimitAppliesAfterRange(t *testing.T) {
	got := Filter(sample(), Query{From: ptr(day("2023-01-01")), Limit: ptr(2)})
	assert.Equal(t, []string{"a", "b"}, descriptions(got))

	got = Filter(sample(), Query{To: ptr(day("2023-01-20")), Limit: ptr(10)})
	assert.Equal(t, []string{"b", "c", "e"}, descriptions(got))
}

func TestFilter_ZeroLimit(t *testing.T) {
	got := Filter(sample(), Query{Limit: ptr(0)})
	assert.Empty(t, got)
}

func TestFilter_UnreadableDateNeverMatchesBound(t *testing.T) {
	list := append(sample(), dom.Exercise{Description: "broken"})
	assert.NotContains(t, descriptions(Filter(list, Query{From: ptr(day("2000-01-01"))})), "broken")
	assert.Contains(t, descriptions(Filter(list, Query{})), "broken")
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	in := sample()
	_ = Filter(in, Query{From: ptr(day("2023-01-20")), Limit: ptr(1)})
	assert.Equal(t, sample(), in)
}
