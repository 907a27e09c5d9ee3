package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// timestampLayouts are tried in order when reading. The naive layouts cover
// documents written with Python's datetime.isoformat().
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time.Time that tolerates the timestamp spellings found in
// older manifests.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to microseconds in UTC.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC().Truncate(time.Microsecond)}
}

// ParseTimestamp parses value using the accepted layouts. Values without a
// zone are interpreted as UTC.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return Timestamp{Time: parsed}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// MarshalYAML emits a native YAML timestamp.
func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.UTC(), nil
}

// UnmarshalYAML accepts tagged timestamps and plain or quoted strings.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("timestamp must be a scalar, found %s", nodeKind(node))
	}
	if node.ShortTag() == "!!null" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON renders RFC 3339 or null for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
