// Package telemetry receives speed events from the radar publisher and feeds
// them to the display.
//
// Messages have the wire shape "<topic> <json-object>", for example:
//
//	event/speed {"type":"speed","reading":47.8,"direction":"toward","units":"mph"}
//
// Only the numeric "reading" field drives the display; "units" and
// "direction" are kept for logging.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DefaultTopic is the topic the radar publisher sends speed events on.
const DefaultTopic = "event/speed"

// ErrNoPayload is returned for messages without a space between topic and payload.
var ErrNoPayload = errors.New("telemetry: message has no payload")

// ParseError is returned when the payload is not a JSON object.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("telemetry: parsing payload %q: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reading is a decoded speed event.
type Reading struct {
	Topic     string
	Value     float64 // 0 when the payload has no numeric "reading" field
	Units     string
	Direction string
}

// Floor returns the reading rounded down to an integer value.
func (r Reading) Floor() float64 {
	return math.Floor(r.Value)
}

// DisplayValue returns the last two decimal digits of the floored reading,
// sign discarded.
func (r Reading) DisplayValue() int {
	v := math.Mod(math.Abs(r.Floor()), 100)
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

// SplitMessage splits msg at the first space into topic and payload.
func SplitMessage(msg []byte) (topic string, payload []byte, err error) {
	i := bytes.IndexByte(msg, ' ')
	if i < 0 {
		return "", nil, ErrNoPayload
	}
	return string(msg[:i]), msg[i+1:], nil
}

// Decode parses a raw "<topic> <json>" message.
//
// A missing or non-numeric "reading" field decodes as 0.
func Decode(msg []byte) (Reading, error) {
	topic, payload, err := SplitMessage(msg)
	if err != nil {
		return Reading{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Reading{}, &ParseError{Payload: string(payload), Err: err}
	}
	if fields == nil {
		return Reading{}, &ParseError{Payload: string(payload), Err: errors.New("not an object")}
	}

	r := Reading{Topic: topic}
	if v, ok := fields["reading"].(float64); ok {
		r.Value = v
	}
	r.Units, _ = fields["units"].(string)
	r.Direction, _ = fields["direction"].(string)
	return r, nil
}
