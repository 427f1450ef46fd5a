package catalog

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexString accepts a JSON string, number, bool or null.
// Xtream panels disagree on whether ids and ratings are quoted.
type FlexString string

// UnmarshalJSON implements custom JSON unmarshaling for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if data[0] == '[' || data[0] == '{' {
		*f = ""
		return nil
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Int parses the value as an integer, returning 0 when it is not numeric.
func (f FlexString) Int() int64 {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl)
	}
	return 0
}

// FlexStrings accepts a single string or an array of strings.
type FlexStrings []string

// UnmarshalJSON implements custom JSON unmarshaling for FlexStrings
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = nil
		} else {
			*f = FlexStrings{s}
		}
		return nil
	}

	if data[0] == '[' {
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(FlexStrings, 0, len(items))
		for _, item := range items {
			if item != "" {
				out = append(out, string(item))
			}
		}
		*f = out
		return nil
	}

	*f = nil
	return nil
}

// First returns the first element or an empty string.
func (f FlexStrings) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
