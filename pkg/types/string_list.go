package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList stores a set of short tags as a JSON-encoded text column so the
// same model works on Postgres and the SQLite test driver.
type StringList []string

// Value marshals the list for storage. Empty lists store as NULL.
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("encoding string list: %w", err)
	}
	return string(encoded), nil
}

// Scan unmarshals the stored column back into the list.
func (s *StringList) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported string list source %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decoding string list: %w", err)
	}
	*s = decoded
	return nil
}

// Contains reports whether the list holds the given tag, case-insensitively.
func (s StringList) Contains(tag string) bool {
	for _, candidate := range s {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}
