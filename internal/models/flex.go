package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a reading that may arrive as a JSON number, a numeric string, or null.
// Anything that cannot be read as a finite number decodes as absent rather than
// failing the surrounding payload.
type Number struct {
	V     float64
	Valid bool
}

// NewNumber returns a present Number.
func NewNumber(v float64) Number {
	return Number{V: v, Valid: true}
}

// NumberFromPtr converts a nullable float into a Number.
func NumberFromPtr(p *float64) Number {
	if p == nil {
		return Number{}
	}
	return NewNumber(*p)
}

// Ptr returns the value as a nullable float. Non-finite values are treated as absent.
func (n Number) Ptr() *float64 {
	if !n.Finite() {
		return nil
	}
	v := n.V
	return &v
}

// Finite reports whether the number is present and finite.
func (n Number) Finite() bool {
	return n.Valid && !math.IsNaN(n.V) && !math.IsInf(n.V, 0)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = NewNumber(v)
		}
		return nil
	case 't', 'f', '{', '[':
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*n = NewNumber(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

// Stamp is a timestamp as sent by clients: epoch milliseconds as a number, a numeric
// string, or a calendar string. Interpretation is left to the metrics layer.
type Stamp struct {
	Text    string
	Num     float64
	Numeric bool
	Present bool
}

// EpochStamp returns a numeric Stamp holding epoch milliseconds.
func EpochStamp(ms int64) Stamp {
	return Stamp{Num: float64(ms), Numeric: true, Present: true}
}

// TextStamp returns a string Stamp.
func TextStamp(s string) Stamp {
	return Stamp{Text: s, Present: true}
}

func (s *Stamp) UnmarshalJSON(data []byte) error {
	*s = Stamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		if text == "" {
			return nil
		}
		*s = TextStamp(text)
		return nil
	case 't', 'f', '{', '[':
		// present but unusable; the point is dropped at parse time
		s.Present = true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*s = Stamp{Num: v, Numeric: true, Present: true}
	return nil
}

func (s Stamp) MarshalJSON() ([]byte, error) {
	switch {
	case !s.Present:
		return []byte("null"), nil
	case s.Numeric:
		return json.Marshal(s.Num)
	default:
		return json.Marshal(s.Text)
	}
}
