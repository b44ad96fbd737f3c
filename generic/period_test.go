package generic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod(t *testing.T) {
	jan := Period{Start: NewTimePoint(2024, time.January, 1), End: NewTimePoint(2024, time.January, 10)}

	assert.True(t, jan.Valid())
	assert.Equal(t, 10, jan.Length())
	assert.True(t, jan.Contains(NewTimePoint(2024, time.January, 1)))
	assert.True(t, jan.Contains(NewTimePoint(2024, time.January, 10)))
	assert.False(t, jan.Contains(NewTimePoint(2024, time.January, 11)))
	assert.Equal(t, "[2024-01-01, 2024-01-10]", jan.String())

	single := Period{Start: NewTimePoint(2024, time.February, 29), End: NewTimePoint(2024, time.February, 29)}
	assert.Equal(t, 1, single.Length())

	// Crossing a leap day
	feb := Period{Start: NewTimePoint(2024, time.February, 15), End: NewTimePoint(2024, time.March, 31)}
	assert.Equal(t, 46, feb.Length())

	fourCenturies := Period{Start: NewTimePoint(1700, time.January, 1), End: NewTimePoint(2100, time.January, 1)}
	assert.Equal(t, 146098, fourCenturies.Length())

	assert.False(t, Period{Start: jan.End, End: jan.Start}.Valid())
	assert.False(t, Period{End: jan.End}.Valid())
}

func TestPeriod_Overlaps(t *testing.T) {
	p := func(d1, d2 int) Period {
		return Period{Start: NewTimePoint(2024, time.March, d1), End: NewTimePoint(2024, time.March, d2)}
	}

	tests := []struct {
		name string
		a, b Period
		want bool
	}{
		{"disjoint", p(1, 5), p(6, 10), false},
		{"touching end", p(1, 5), p(5, 10), true},
		{"nested", p(1, 31), p(10, 12), true},
		{"identical", p(3, 3), p(3, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}
