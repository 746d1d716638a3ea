package calendar

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromTickDecoding(t *testing.T) {
	tests := []struct {
		tick uint64
		want Date
	}{
		{0, Date{Minute: 0, Hour: 0, Day: 1, Month: 1, Year: 0}},
		{59, Date{Minute: 59, Hour: 0, Day: 1, Month: 1, Year: 0}},
		{60, Date{Minute: 0, Hour: 1, Day: 1, Month: 1, Year: 0}},
		{1439, Date{Minute: 59, Hour: 23, Day: 1, Month: 1, Year: 0}},
		{1440, Date{Minute: 0, Hour: 0, Day: 2, Month: 1, Year: 0}},
		{43199, Date{Minute: 59, Hour: 23, Day: 30, Month: 1, Year: 0}},
		{43200, Date{Minute: 0, Hour: 0, Day: 1, Month: 2, Year: 0}},
		{518399, Date{Minute: 59, Hour: 23, Day: 30, Month: 12, Year: 0}},
		{518400, Date{Minute: 0, Hour: 0, Day: 1, Month: 1, Year: 1}},
		{518400*3 + 43200*4 + 1440*11 + 60*7 + 5, Date{Minute: 5, Hour: 7, Day: 12, Month: 5, Year: 3}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromTick(tt.tick), "tick %d", tt.tick)
	}
}

func TestFromTickIsPure(t *testing.T) {
	for _, tick := range []uint64{0, 7, 12345, 999999} {
		assert.Equal(t, FromTick(tick), FromTick(tick))
	}
}

func TestSixtyTicksAdvanceOneHour(t *testing.T) {
	for tick := uint64(0); tick < 3*TicksPerDay; tick += 37 {
		before := FromTick(tick)
		after := FromTick(tick + 60)
		assert.Equal(t, (before.Hour+1)%24, after.Hour, "tick %d", tick)
		assert.Equal(t, before.Minute, after.Minute, "tick %d", tick)
	}
}

func TestClassifyFirstDifferingField(t *testing.T) {
	assert.Equal(t, NothingUnusual, Classify(FromTick(0), FromTick(1)))
	assert.Equal(t, HourChange, Classify(FromTick(59), FromTick(60)))
	assert.Equal(t, DayChange, Classify(FromTick(1439), FromTick(1440)))
	assert.Equal(t, MonthChange, Classify(FromTick(43199), FromTick(43200)))
	assert.Equal(t, YearChange, Classify(FromTick(518399), FromTick(518400)))
}

func TestEventOrderIsMonotonic(t *testing.T) {
	events := []Event{Paused, NothingUnusual, HourChange, DayChange, MonthChange, YearChange}
	for _, e := range events {
		if e.AtLeastYear() {
			assert.True(t, e.AtLeastMonth())
		}
		if e.AtLeastMonth() {
			assert.True(t, e.AtLeastDay())
		}
		if e.AtLeastDay() {
			assert.True(t, e.AtLeastHour())
		}
		if e.AtLeastHour() {
			assert.True(t, e.AtLeastMinute())
		}
	}
	assert.True(t, YearChange.AtLeastMonth())
	assert.True(t, YearChange.AtLeastDay())
	assert.True(t, YearChange.AtLeastHour())
	assert.False(t, Paused.AtLeastMinute())
	assert.False(t, NothingUnusual.AtLeastHour())
}

func TestClockTickAdvancesAndClassifies(t *testing.T) {
	c := NewClock(58)
	assert.Equal(t, NothingUnusual, c.Tick(false))
	assert.Equal(t, HourChange, c.Tick(false))

	tick, date := c.Now()
	assert.Equal(t, uint64(60), tick)
	assert.Equal(t, 1, date.Hour)
}

func TestClockPausedDoesNotMove(t *testing.T) {
	c := NewClock(100)
	var slept []time.Duration
	c.SetSleep(func(d time.Duration) { slept = append(slept, d) })

	assert.Equal(t, Paused, c.Tick(true))
	assert.Equal(t, Paused, c.Tick(true))

	tick, _ := c.Now()
	assert.Equal(t, uint64(100), tick)
	assert.Equal(t, []time.Duration{PauseIdle, PauseIdle}, slept)
}

func TestClockConcurrentReaders(t *testing.T) {
	c := NewClock(0)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tick, date := c.Now()
				assert.Equal(t, FromTick(tick), date)
			}
		}()
	}
	for i := 0; i < 500; i++ {
		c.Tick(false)
	}
	wg.Wait()
}

func TestSpeedTable(t *testing.T) {
	assert.Equal(t, 7, SpeedLevels)
	for i := 1; i < SpeedLevels; i++ {
		assert.Less(t, SpeedInterval(i), SpeedInterval(i-1))
	}
	assert.Equal(t, SpeedInterval(0), SpeedInterval(-4))
	assert.Equal(t, SpeedInterval(SpeedLevels-1), SpeedInterval(99))
}

func TestMonthInfo(t *testing.T) {
	for m := 1; m <= 12; m++ {
		info := MonthInfo(m)
		assert.Greater(t, info.Daylight(), 0)
		assert.LessOrEqual(t, info.DayEnd, 24)
	}
	assert.Equal(t, MonthInfo(1), MonthInfo(-2))
	assert.Equal(t, MonthInfo(12), MonthInfo(40))
}

func TestDateString(t *testing.T) {
	d := FromTick(518400*2 + 43200*6 + 1440*3 + 60*14 + 9)
	assert.Equal(t, "Y2 M07 D04 14:09", d.String())
	assert.Equal(t, "Summer", d.Season())
}
