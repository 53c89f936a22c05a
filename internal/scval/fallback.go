package scval

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Older SDK generations rendered 64-bit values in JSON rather than XDR,
// and not consistently: a plain numeric string, a single-value wrapper, or
// a low/high component pair have all been observed. DecodeJSON tries each
// shape in order and, as a last resort, extracts the numeric characters of
// the serialized form. An unmatched shape is an error, never a silent
// zero — a zero here would be indistinguishable from a real zero balance.

type u64Wrapper struct {
	U64 json.RawMessage `json:"u64"`
}

type u64Inner struct {
	Value string `json:"_value"`
}

type u64Parts struct {
	Lo *uint64 `json:"lo"`
	Hi *uint64 `json:"hi"`
}

// DecodeJSON decodes a version-skewed JSON rendering of a typed value.
func DecodeJSON(raw json.RawMessage) (interface{}, error) {
	v, err := ExtractU64(raw)
	if err != nil {
		return nil, err
	}
	return narrowU64(v), nil
}

// ExtractU64 resolves a 64-bit unsigned value from any of the known JSON
// shapes.
func ExtractU64(raw json.RawMessage) (uint64, error) {
	// plain number or numeric string
	var direct json.RawMessage = raw
	var wrapper u64Wrapper
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.U64 != nil {
		direct = wrapper.U64
	}

	if v, ok := parseU64Scalar(direct); ok {
		return v, nil
	}

	var inner u64Inner
	if err := json.Unmarshal(direct, &inner); err == nil && inner.Value != "" {
		if v, err := strconv.ParseUint(inner.Value, 10, 64); err == nil {
			return v, nil
		}
	}

	var parts u64Parts
	if err := json.Unmarshal(direct, &parts); err == nil && parts.Lo != nil {
		var hi uint64
		if parts.Hi != nil {
			hi = *parts.Hi
		}
		return hi<<32 | *parts.Lo, nil
	}

	if v, ok := extractDigits(string(direct)); ok {
		return v, nil
	}
	return 0, &DecodeFallbackError{Reason: "no known 64-bit shape matched", Raw: string(raw)}
}

func parseU64Scalar(raw json.RawMessage) (uint64, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseUint(s, 10, 64)
		return v, err == nil
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}

// extractDigits pulls the first contiguous run of decimal digits out of a
// serialized value.
func extractDigits(s string) (uint64, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	v, err := strconv.ParseUint(s[start:end], 10, 64)
	return v, err == nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
