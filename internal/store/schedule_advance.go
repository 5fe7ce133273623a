package store

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ravenjobstore/store/internal/model"
)

// cronParser accepts the standard five-field expression plus seconds as an
// optional leading field, matching the syntax most operators expect from a
// Cron schedule.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// advanceSchedule computes the next fire time strictly after `after`,
// honoring the trigger's EndTime and any per-tag function that reports no
// further fire time. RepeatCount (Simple and Daily-Time-Interval) is not
// consulted, so a repeat-limited schedule keeps producing fire times until
// its EndTime. A nil result means the trigger has no further fire times and
// should be completed (spec.md §4.5/§4.7).
func advanceSchedule(t *model.Trigger, after time.Time) (*time.Time, error) {
	var next *time.Time
	var err error

	switch t.Schedule.Tag {
	case model.ScheduleCron:
		next, err = advanceCron(t.Schedule.Cron, after)
	case model.ScheduleSimple:
		next, err = advanceSimple(t.Schedule.Simple, after)
	case model.ScheduleCalendarInterval:
		next, err = advanceCalendarInterval(t.Schedule.CalendarInterval, after)
	case model.ScheduleDailyTimeInterval:
		next, err = advanceDailyTimeInterval(t.Schedule.DailyTimeInterval, after)
	default:
		return nil, nil
	}
	if err != nil || next == nil {
		return nil, err
	}
	if t.EndTime != nil && next.After(*t.EndTime) {
		return nil, nil
	}
	return next, nil
}

func advanceCron(s *model.CronSchedule, after time.Time) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	loc := time.UTC
	if s.TimeZone != "" {
		if l, err := time.LoadLocation(s.TimeZone); err == nil {
			loc = l
		}
	}
	schedule, err := cronParser.Parse(s.CronExpression)
	if err != nil {
		return nil, err
	}
	next := schedule.Next(after.In(loc))
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// advanceSimple computes the raw next tick. It does not consult RepeatCount
// or TimesTriggered, and the store never increments TimesTriggered; the only
// RepeatCount check is the misfire reconciler's Simple policy.
func advanceSimple(s *model.SimpleSchedule, after time.Time) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	next := after.Add(s.RepeatInterval)
	return &next, nil
}

func advanceCalendarInterval(s *model.CalendarIntervalSchedule, after time.Time) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	loc := time.UTC
	if s.TimeZone != "" {
		if l, err := time.LoadLocation(s.TimeZone); err == nil {
			loc = l
		}
	}
	local := after.In(loc)
	hourBefore := local.Hour()

	var next time.Time
	switch s.Unit {
	case model.IntervalUnitSecond:
		next = local.Add(time.Duration(s.Interval) * time.Second)
	case model.IntervalUnitMinute:
		next = local.Add(time.Duration(s.Interval) * time.Minute)
	case model.IntervalUnitHour:
		next = local.Add(time.Duration(s.Interval) * time.Hour)
	case model.IntervalUnitDay:
		next = local.AddDate(0, 0, s.Interval)
	case model.IntervalUnitWeek:
		next = local.AddDate(0, 0, 7*s.Interval)
	case model.IntervalUnitMonth:
		next = local.AddDate(0, s.Interval, 0)
	case model.IntervalUnitYear:
		next = local.AddDate(s.Interval, 0, 0)
	default:
		return nil, nil
	}

	if s.PreserveHourOfDayAcrossDaylightSavings && next.Hour() != hourBefore {
		next = time.Date(next.Year(), next.Month(), next.Day(), hourBefore,
			local.Minute(), local.Second(), local.Nanosecond(), loc)
	}
	if s.SkipDayIfHourDoesNotExist {
		probe := time.Date(next.Year(), next.Month(), next.Day(), hourBefore, 0, 0, 0, loc)
		if probe.Hour() != hourBefore {
			next = next.AddDate(0, 0, 1)
		}
	}

	utc := next.UTC()
	return &utc, nil
}

func advanceDailyTimeInterval(s *model.DailyTimeIntervalSchedule, after time.Time) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	loc := time.UTC
	if s.TimeZone != "" {
		if l, err := time.LoadLocation(s.TimeZone); err == nil {
			loc = l
		}
	}

	cursor := after.In(loc)
	step := intervalDuration(s.Unit, s.Interval)
	if step <= 0 {
		return nil, nil
	}

	for i := 0; i < 3*366*24*60*60; i++ { // generous bound, loop exits well before this
		dayStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(),
			s.StartTimeOfDay.Hour, s.StartTimeOfDay.Minute, s.StartTimeOfDay.Second, 0, loc)
		dayEnd := time.Date(cursor.Year(), cursor.Month(), cursor.Day(),
			s.EndTimeOfDay.Hour, s.EndTimeOfDay.Minute, s.EndTimeOfDay.Second, 0, loc)

		if dayAllowed(s.DaysOfWeek, cursor.Weekday()) {
			candidate := dayStart
			if cursor.After(dayStart) {
				elapsed := cursor.Sub(dayStart)
				steps := elapsed/step + 1
				candidate = dayStart.Add(steps * step)
			}
			if !candidate.Before(dayStart) && candidate.Before(dayEnd) && candidate.After(cursor) {
				utc := candidate.UTC()
				return &utc, nil
			}
		}

		// advance to the start of the next day
		next := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		cursor = next
	}
	return nil, nil
}

func intervalDuration(unit model.IntervalUnit, interval int) time.Duration {
	switch unit {
	case model.IntervalUnitSecond:
		return time.Duration(interval) * time.Second
	case model.IntervalUnitMinute:
		return time.Duration(interval) * time.Minute
	case model.IntervalUnitHour:
		return time.Duration(interval) * time.Hour
	default:
		return 0
	}
}

func dayAllowed(days []time.Weekday, d time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, allowed := range days {
		if allowed == d {
			return true
		}
	}
	return false
}
