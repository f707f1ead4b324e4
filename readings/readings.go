// readings.go - Normalises inbound sensor readings from a params string or a JSON body

package readings

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"envsense-backend/models"

	"github.com/goccy/go-json"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrNoData       = errors.New("no valid data provided")
	ErrMalformed    = errors.New("malformed request body")
)

// Reading is one ingest request: a location name and the sensor values that
// survived validation, keyed by sensor kind.
type Reading struct {
	Name   string
	Values map[string]float64
}

// FromParams decodes a URL-encoded parameter string such as
// "name=Lab1&temperature=21.5". Values are parsed as decimal numbers.
func FromParams(raw string) (Reading, error) {
	params := parseQuery(raw)

	name := params["name"]
	if strings.TrimSpace(name) == "" { // Blank names are as good as missing
		return Reading{}, ErrNameRequired
	}

	r := Reading{Name: name, Values: map[string]float64{}}
	for _, kind := range models.SensorKinds {
		if v, ok := parseNumber(params[kind]); ok { // Missing, blank and non-numeric all count as absent
			r.Values[kind] = v
		}
	}
	if len(r.Values) == 0 {
		return r, ErrNoData
	}
	return r, nil
}

// FromJSON decodes a JSON object body. Sensor fields count only when they are
// JSON numbers that fit a float64; strings, booleans, nested values and
// out-of-range numbers are treated as absent.
func FromJSON(body []byte) (Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber() // Keep number literals so one overflowing field cannot fail the whole body

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Reading{}, ErrMalformed
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) { // Exactly one JSON value
		return Reading{}, ErrMalformed
	}

	name, ok := doc["name"].(string) // Numbers and objects are not names
	if !ok || strings.TrimSpace(name) == "" {
		return Reading{}, ErrNameRequired
	}

	r := Reading{Name: name, Values: map[string]float64{}}
	for _, kind := range models.SensorKinds {
		n, ok := doc[kind].(json.Number)
		if !ok {
			continue
		}
		if v, ok := parseNumber(n.String()); ok {
			r.Values[kind] = v
		}
	}
	if len(r.Values) == 0 {
		return r, ErrNoData
	}
	return r, nil
}

// parseQuery splits "k=v&k2=v2" the way a browser's URLSearchParams does:
// '+' decodes to a space, a malformed percent escape is kept literally, and
// the first occurrence of a key wins.
func parseQuery(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key, value = unescape(key), unescape(value)
		if _, seen := out[key]; !seen {
			out[key] = value
		}
	}
	return out
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i]) // Stray '%' stays as is
	}
	return b.String()
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
