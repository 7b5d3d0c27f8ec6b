package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue marshals a map column for storage in a jsonb field.
func jsonValue(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonScan unmarshals a jsonb column into dst.
func jsonScan(dst any, src any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dst)
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
