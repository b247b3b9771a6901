package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList persists an ordered slice as a JSON array column. Values are
// written as text so they survive simple-protocol drivers unchanged.
type JSONList[T any] []T

func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]T(l))
	if err != nil {
		return nil, fmt.Errorf("JSONList: marshal: %w", err)
	}
	return string(buf), nil
}

func (l *JSONList[T]) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("JSONList: %w", err)
	}
	if len(raw) == 0 {
		*l = JSONList[T]{}
		return nil
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("JSONList: unmarshal: %w", err)
	}
	*l = out
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported Scan type %T", src)
	}
}
