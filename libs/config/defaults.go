package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CalendarDefaults seeds newly created calendars. Values come from an
// optional YAML file (CALENDAR_DEFAULTS_FILE); missing fields fall back to
// the shipped defaults.
type CalendarDefaults struct {
	Timezone        string `yaml:"timezone"`
	WorkdayStart    string `yaml:"workday_start"`
	WorkdayEnd      string `yaml:"workday_end"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

func builtinCalendarDefaults() CalendarDefaults {
	return CalendarDefaults{
		Timezone:        "Asia/Kolkata",
		WorkdayStart:    "09:00",
		WorkdayEnd:      "18:00",
		DurationMinutes: 30,
	}
}

func LoadCalendarDefaults(path string) (CalendarDefaults, error) {
	defaults := builtinCalendarDefaults()
	if path == "" {
		return defaults, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read calendar defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &defaults); err != nil {
		return builtinCalendarDefaults(), fmt.Errorf("parse calendar defaults: %w", err)
	}
	if defaults.Timezone == "" {
		defaults.Timezone = builtinCalendarDefaults().Timezone
	}
	if defaults.WorkdayStart == "" {
		defaults.WorkdayStart = builtinCalendarDefaults().WorkdayStart
	}
	if defaults.WorkdayEnd == "" {
		defaults.WorkdayEnd = builtinCalendarDefaults().WorkdayEnd
	}
	if defaults.DurationMinutes <= 0 {
		defaults.DurationMinutes = builtinCalendarDefaults().DurationMinutes
	}
	return defaults, nil
}
