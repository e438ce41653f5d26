package primary

import (
	"strings"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
)

// Where условие выборки отметок. placeholder возвращает обозначение n-го параметра (с единицы).
func Where(f filter.Fixes, placeholder func(n int) string) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, condition+" "+placeholder(len(args)))
	}

	if f.DeviceID != nil {
		add("device_id =", *f.DeviceID)
	}
	if f.After != nil {
		add("recorded_at >=", f.After.UTC())
	}
	if f.Before != nil {
		add("recorded_at <", f.Before.UTC())
	}
	if f.MinQuality != nil {
		add("quality >=", *f.MinQuality)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
