package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateTime is a time.Time that accepts the loose formats admin forms send
// ("2006-01-02", "2006-01-02 15:04", RFC3339) and stores as a plain timestamp
type DateTime time.Time

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDateTime parses s with the accepted layouts
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime(t), nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid datetime %q", s)
}

func (dt DateTime) Time() time.Time {
	return time.Time(dt)
}

func (dt DateTime) IsZero() bool {
	return time.Time(dt).IsZero()
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(time.Time(dt).Format(time.RFC3339))
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if string(data) == "null" {
			*dt = DateTime{}
			return nil
		}
		return err
	}
	if s == "" {
		*dt = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

func (dt DateTime) Value() (driver.Value, error) {
	if dt.IsZero() {
		return nil, nil
	}
	return time.Time(dt), nil
}

func (dt *DateTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*dt = DateTime{}
	case time.Time:
		*dt = DateTime(v)
	case string:
		parsed, err := ParseDateTime(v)
		if err != nil {
			return err
		}
		*dt = parsed
	case []byte:
		parsed, err := ParseDateTime(string(v))
		if err != nil {
			return err
		}
		*dt = parsed
	default:
		return fmt.Errorf("cannot scan %T into DateTime", value)
	}
	return nil
}
