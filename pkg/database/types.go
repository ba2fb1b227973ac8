package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringArray stores a list of strings portably across the supported
// databases. Values are written as JSON; reads also accept the native
// PostgreSQL array literal for columns migrated from TEXT[].
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanText(string(v))
	case string:
		return a.scanText(v)
	default:
		return errors.New("StringArray: unsupported scan type")
	}
}

func (a *StringArray) scanText(str string) error {
	// JSON array, the format Value() writes.
	if strings.HasPrefix(str, "[") {
		return json.Unmarshal([]byte(str), a)
	}

	// PostgreSQL array literal: {item1,item2,"quoted item"}
	if strings.HasPrefix(str, "{") && strings.HasSuffix(str, "}") {
		inner := strings.TrimSuffix(strings.TrimPrefix(str, "{"), "}")
		if inner == "" {
			*a = []string{}
			return nil
		}
		*a = splitArrayLiteral(inner)
		return nil
	}

	// Bare value, treat as a single element.
	*a = []string{str}
	return nil
}

func splitArrayLiteral(s string) []string {
	var (
		out      []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
	)

	for _, r := range s {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '"':
			inQuotes = !inQuotes
		case ',':
			if inQuotes {
				current.WriteRune(r)
			} else {
				out = append(out, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// Value implements driver.Valuer. JSON works for every supported driver.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}
