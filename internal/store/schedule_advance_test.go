package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenjobstore/store/internal/model"
)

func TestAdvanceSimple(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trig := &model.Trigger{
		Schedule: model.ScheduleOptions{
			Tag:    model.ScheduleSimple,
			Simple: &model.SimpleSchedule{RepeatInterval: time.Hour, RepeatCount: -1},
		},
	}
	next, err := advanceSchedule(trig, after)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.Equal(after.Add(time.Hour)))
}

func TestAdvanceSimpleRespectsEndTime(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := after.Add(30 * time.Minute)
	trig := &model.Trigger{
		EndTime: &end,
		Schedule: model.ScheduleOptions{
			Tag:    model.ScheduleSimple,
			Simple: &model.SimpleSchedule{RepeatInterval: time.Hour, RepeatCount: -1},
		},
	}
	next, err := advanceSchedule(trig, after)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestAdvanceCron(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trig := &model.Trigger{
		Schedule: model.ScheduleOptions{
			Tag:  model.ScheduleCron,
			Cron: &model.CronSchedule{CronExpression: "0 0 * * *", TimeZone: "UTC"},
		},
	}
	next, err := advanceSchedule(trig, after)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestAdvanceCalendarIntervalMonth(t *testing.T) {
	after := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	trig := &model.Trigger{
		Schedule: model.ScheduleOptions{
			Tag: model.ScheduleCalendarInterval,
			CalendarInterval: &model.CalendarIntervalSchedule{
				Unit:     model.IntervalUnitMonth,
				Interval: 1,
				TimeZone: "UTC",
			},
		},
	}
	next, err := advanceSchedule(trig, after)
	require.NoError(t, err)
	assert.NotNil(t, next)
}

func TestAdvanceDailyTimeInterval(t *testing.T) {
	after := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // Monday
	trig := &model.Trigger{
		Schedule: model.ScheduleOptions{
			Tag: model.ScheduleDailyTimeInterval,
			DailyTimeInterval: &model.DailyTimeIntervalSchedule{
				Unit:           model.IntervalUnitHour,
				Interval:       1,
				StartTimeOfDay: model.TimeOfDay{Hour: 9},
				EndTimeOfDay:   model.TimeOfDay{Hour: 17},
				TimeZone:       "UTC",
			},
		},
	}
	next, err := advanceSchedule(trig, after)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.Hour() >= 9 && next.Hour() < 17)
}
