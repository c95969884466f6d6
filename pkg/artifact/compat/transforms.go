package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// ErrUnknownTransform is returned when a mapping names a transform that is
// not registered.
var ErrUnknownTransform = errors.New("unknown transform")

// Direct copies a value unchanged.
const Direct = "direct"

// Transform is a reversible value conversion.
type Transform struct {
	Forward func(any) (any, error)
	Inverse func(any) (any, error)
}

var transforms = map[string]Transform{
	"cents_to_decimal": {Forward: centsToDecimal, Inverse: decimalToCents},
	"unix_to_iso8601":  {Forward: unixToISO, Inverse: isoToUnix},
	"json_encode":      {Forward: jsonEncode, Inverse: jsonDecode},
	"string_to_int":    {Forward: stringToInt, Inverse: intToString},
}

// Transforms returns the names of the built-in transforms.
func Transforms() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup resolves a transform name. Direct and empty names copy values.
func lookup(name string) (Transform, bool) {
	if name == "" || name == Direct {
		return Transform{Forward: identity, Inverse: identity}, true
	}
	t, ok := transforms[name]
	return t, ok
}

func identity(v any) (any, error) {
	return v, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		f, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("expected an integer, got %v", f)
		}
		return int64(f), nil
	}
}

func centsToDecimal(v any) (any, error) {
	cents, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return float64(cents) / 100, nil
}

func decimalToCents(v any) (any, error) {
	d, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	return int64(math.Round(d * 100)), nil
}

func unixToISO(v any) (any, error) {
	secs, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return time.Unix(secs, 0).UTC().Format(time.RFC3339), nil
}

func isoToUnix(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected an RFC 3339 string, got %T", v)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return t.Unix(), nil
}

func jsonEncode(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonDecode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected a JSON string, got %T", v)
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringToInt(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}

func intToString(v any) (any, error) {
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(n, 10), nil
}
