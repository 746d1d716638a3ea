package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/calendar"
)

func TestDelayHelpers(t *testing.T) {
	assert.Equal(t, uint64(0), EnergyDelay(50))
	assert.Equal(t, uint64(3), EnergyDelay(350))
	assert.Equal(t, uint64(0), EnergyDelay(-5))

	assert.Equal(t, uint64(1), FuelDelay(40))
	assert.Equal(t, uint64(7), FuelDelay(700))

	assert.Equal(t, uint64(1), ProductionDelay(0))
	assert.Equal(t, uint64(6), ProductionDelay(100))
}

func TestScheduleComputesPeriods(t *testing.T) {
	s := NewScheduler()
	tick := uint64(2*calendar.TicksPerDay + 5*calendar.TicksPerHour + 17)

	j := s.Schedule(tick, Hourly, 4, FuelDelivery{Units: 500})
	assert.Equal(t, uint64(2*24+5), j.CreatedPeriod)
	assert.Equal(t, j.CreatedPeriod+4, j.DuePeriod)

	j = s.Schedule(tick, Daily, CapacityUpgradeDelay, CapacityIncrease{Units: 40})
	assert.Equal(t, uint64(2), j.CreatedPeriod)
	assert.Equal(t, uint64(5), j.DuePeriod)

	assert.Equal(t, Pending{Hourly: 1, Daily: 1}, s.Pending())
}

func TestMinutelyJobFiresAfterDelay(t *testing.T) {
	s := NewScheduler()
	s.Schedule(100, Minutely, 3, PanelInstall{Count: 1})

	for tick := uint64(101); tick < 103; tick++ {
		assert.Empty(t, s.Due(tick, calendar.NothingUnusual), "tick %d", tick)
	}
	due := s.Due(103, calendar.NothingUnusual)
	require.Len(t, due, 1)
	assert.Equal(t, PanelInstall{Count: 1}, due[0].Effect)
	assert.Zero(t, s.Pending().Total())
}

func TestHourlyQueueWaitsForHourEvent(t *testing.T) {
	s := NewScheduler()
	s.Schedule(30, Hourly, 1, FuelDelivery{Units: 10})

	// period 1 is reached at tick 60 but only an hour event drains it
	assert.Empty(t, s.Due(61, calendar.NothingUnusual))
	assert.Empty(t, s.Due(119, calendar.NothingUnusual))
	due := s.Due(120, calendar.HourChange)
	require.Len(t, due, 1)
}

func TestDueOrdering(t *testing.T) {
	s := NewScheduler()
	late := s.Schedule(0, Minutely, 5, ProductionComplete{})
	first := s.Schedule(0, Minutely, 2, FuelDelivery{Units: 1})
	second := s.Schedule(0, Minutely, 2, FuelDelivery{Units: 2})

	due := s.Due(10, calendar.NothingUnusual)
	require.Len(t, due, 3)
	assert.Equal(t, first.ID, due[0].ID)
	assert.Equal(t, second.ID, due[1].ID)
	assert.Equal(t, late.ID, due[2].ID)
}

func TestPausedTickFiresNothing(t *testing.T) {
	s := NewScheduler()
	s.Schedule(0, Minutely, 0, PanelInstall{Count: 1})
	assert.Nil(t, s.Due(5, calendar.Paused))
	assert.Equal(t, 1, s.Pending().Minutely)
}

func TestDayEventDrainsAllQueues(t *testing.T) {
	s := NewScheduler()
	s.Schedule(0, Minutely, 1, FuelDelivery{})
	s.Schedule(0, Hourly, 1, FuelDelivery{})
	s.Schedule(0, Daily, 1, FuelDelivery{})

	due := s.Due(calendar.TicksPerDay, calendar.DayChange)
	require.Len(t, due, 3)
	assert.Equal(t, Minutely, due[0].Granularity)
	assert.Equal(t, Hourly, due[1].Granularity)
	assert.Equal(t, Daily, due[2].Granularity)
}

func TestFarFutureJobsDoNotWrap(t *testing.T) {
	s := NewScheduler()
	s.Schedule(0, Hourly, 30, FuelDelivery{})

	for h := uint64(1); h < 30; h++ {
		assert.Empty(t, s.Due(h*calendar.TicksPerHour, calendar.HourChange), "hour %d", h)
	}
	assert.Len(t, s.Due(30*calendar.TicksPerHour, calendar.HourChange), 1)
}

func TestDiscard(t *testing.T) {
	s := NewScheduler()
	s.Schedule(0, Minutely, 1, FuelDelivery{})
	s.Schedule(0, Daily, 1, FuelDelivery{})
	assert.Equal(t, 2, s.Discard())
	assert.Zero(t, s.Pending().Total())
	assert.Empty(t, s.Due(calendar.TicksPerDay, calendar.DayChange))
}
