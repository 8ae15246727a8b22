package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is a list column stored as a JSON array in a text column.
// Rows written by the hosted store may hold a bare string; it scans as a one-item list.
type StringArray []string

func (StringArray) GormDataType() string { return "text" }

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.StringArray: cannot scan %T", value)
	}

	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "null":
		*a = StringArray{}
		return nil
	case strings.HasPrefix(raw, "["):
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return fmt.Errorf("models.StringArray: %w", err)
		}
		*a = items
		return nil
	default:
		*a = StringArray{strings.Trim(raw, `"`)}
		return nil
	}
}
