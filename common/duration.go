package common

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts either a Go duration string ("30s") or a plain number of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("cannot unmarshal duration value from yaml node kind %d", value.Kind)
	}
	return d.parse(value.Value)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := SonicCfg.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var f float64
	if err := SonicCfg.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("cannot unmarshal duration value: %w", err)
	}
	*d = Duration(time.Duration(f * float64(time.Millisecond)))
	return nil
}

func (d *Duration) parse(s string) error {
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid interval/duration format: %v", err)
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) Ptr() *Duration {
	return &d
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return SonicCfg.Marshal(time.Duration(d).String())
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// WithDefault returns the duration value if it's positive, otherwise returns the default value.
func (d Duration) WithDefault(defaultVal time.Duration) time.Duration {
	if d > 0 {
		return time.Duration(d)
	}
	return defaultVal
}
