package model

import "time"

// ScheduleTag identifies which of the four schedule-option payloads is
// populated on a Trigger. Exactly one is valid for a given tag; this is
// modelled as a tagged variant rather than by inheritance, per spec.md §9.
type ScheduleTag string

const (
	ScheduleCron             ScheduleTag = "Cron"
	ScheduleSimple           ScheduleTag = "Simple"
	ScheduleCalendarInterval ScheduleTag = "CalendarInterval"
	ScheduleDailyTimeInterval ScheduleTag = "DailyTimeInterval"
)

// IntervalUnit is shared by the CalendarInterval and DailyTimeInterval
// schedule options.
type IntervalUnit string

const (
	IntervalUnitSecond IntervalUnit = "Second"
	IntervalUnitMinute IntervalUnit = "Minute"
	IntervalUnitHour   IntervalUnit = "Hour"
	IntervalUnitDay    IntervalUnit = "Day"
	IntervalUnitWeek   IntervalUnit = "Week"
	IntervalUnitMonth  IntervalUnit = "Month"
	IntervalUnitYear   IntervalUnit = "Year"
)

// CronSchedule is the Cron schedule-option payload.
type CronSchedule struct {
	CronExpression string `bson:"cronExpression" json:"cronExpression"`
	TimeZone       string `bson:"timeZone"       json:"timeZone"`
}

// SimpleSchedule is the Simple schedule-option payload: fires every
// RepeatInterval, RepeatCount more times after the first fire (-1 means
// repeat forever).
type SimpleSchedule struct {
	RepeatCount    int           `bson:"repeatCount"    json:"repeatCount"`
	RepeatInterval time.Duration `bson:"repeatInterval" json:"repeatInterval"`
	TimesTriggered int           `bson:"timesTriggered" json:"timesTriggered"`
}

// CalendarIntervalSchedule fires every Interval Unit-s, tracking DST shifts
// when PreserveHourOfDayAcrossDaylightSavings is set.
type CalendarIntervalSchedule struct {
	Unit                                    IntervalUnit `bson:"unit"                                    json:"unit"`
	Interval                                int          `bson:"interval"                                json:"interval"`
	TimesTriggered                          int          `bson:"timesTriggered"                          json:"timesTriggered"`
	TimeZone                                string       `bson:"timeZone"                                json:"timeZone"`
	PreserveHourOfDayAcrossDaylightSavings  bool         `bson:"preserveHourOfDayAcrossDaylightSavings"  json:"preserveHourOfDayAcrossDaylightSavings"`
	SkipDayIfHourDoesNotExist               bool         `bson:"skipDayIfHourDoesNotExist"               json:"skipDayIfHourDoesNotExist"`
}

// TimeOfDay is a wall-clock time used by DailyTimeIntervalSchedule.
type TimeOfDay struct {
	Hour   int `bson:"hour"   json:"hour"`
	Minute int `bson:"minute" json:"minute"`
	Second int `bson:"second" json:"second"`
}

// DailyTimeIntervalSchedule fires every Interval Unit-s within the daily
// window [StartTimeOfDay, EndTimeOfDay), restricted to DaysOfWeek, up to
// RepeatCount times (-1 means unbounded).
type DailyTimeIntervalSchedule struct {
	Unit            IntervalUnit `bson:"unit"            json:"unit"`
	Interval        int          `bson:"interval"        json:"interval"`
	RepeatCount     int          `bson:"repeatCount"     json:"repeatCount"`
	StartTimeOfDay  TimeOfDay    `bson:"startTimeOfDay"  json:"startTimeOfDay"`
	EndTimeOfDay    TimeOfDay    `bson:"endTimeOfDay"    json:"endTimeOfDay"`
	DaysOfWeek      []time.Weekday `bson:"daysOfWeek"    json:"daysOfWeek"`
	TimeZone        string       `bson:"timeZone"        json:"timeZone"`
	TimesTriggered  int          `bson:"timesTriggered"  json:"timesTriggered"`
}

// ScheduleOptions is the tagged schedule-option payload carried by a
// Trigger. Exactly one of the pointer fields matching Tag is populated.
type ScheduleOptions struct {
	Tag               ScheduleTag                `bson:"tag"                         json:"tag"`
	Cron              *CronSchedule              `bson:"cron,omitempty"              json:"cron,omitempty"`
	Simple            *SimpleSchedule            `bson:"simple,omitempty"            json:"simple,omitempty"`
	CalendarInterval  *CalendarIntervalSchedule  `bson:"calendarInterval,omitempty"  json:"calendarInterval,omitempty"`
	DailyTimeInterval *DailyTimeIntervalSchedule `bson:"dailyTimeInterval,omitempty" json:"dailyTimeInterval,omitempty"`
}
