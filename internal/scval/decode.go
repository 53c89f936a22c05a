// Package scval converts Soroban typed values (xdr.ScVal) into
// JSON-serializable native values. Wide integers decode to numbers while
// they fit IEEE-754 exactly and to decimal strings past that point, so a
// JavaScript consumer never receives a silently rounded reward amount.
package scval

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/stellar/go/xdr"
)

// MalformedAddress is substituted for an address field whose bytes cannot
// be rendered in canonical strkey form. Returning a sentinel keeps one bad
// field from aborting the decode of an otherwise valid container.
const MalformedAddress = "!malformed-address"

// maxSafeInteger is the largest integer a JSON number carries exactly.
const maxSafeInteger = 1<<53 - 1

// DecodeFallbackError reports that neither the structural decoder nor the
// shape-based fallback could make sense of a value. It carries the
// serialized form so the defect is diagnosable instead of masked as zero.
type DecodeFallbackError struct {
	Reason string
	Raw    string
}

func (e *DecodeFallbackError) Error() string {
	return fmt.Sprintf("decode: %s (raw %q)", e.Reason, e.Raw)
}

// DecodeBase64 decodes a base64 XDR-encoded ScVal. If the payload cannot
// be structurally parsed it is handed to the JSON-shape fallback before
// giving up.
func DecodeBase64(b64 string) (interface{}, error) {
	var val xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(b64, &val); err != nil {
		if v, ferr := DecodeJSON([]byte(b64)); ferr == nil {
			return v, nil
		}
		return nil, &DecodeFallbackError{Reason: "value is neither XDR nor a known JSON shape", Raw: b64}
	}
	return Decode(val)
}

// Decode converts an ScVal into a native value by recursive descent.
func Decode(val xdr.ScVal) (interface{}, error) {
	switch val.Type {
	case xdr.ScValTypeScvVoid:
		return nil, nil
	case xdr.ScValTypeScvBool:
		return *val.B, nil
	case xdr.ScValTypeScvU32:
		return uint32(*val.U32), nil
	case xdr.ScValTypeScvI32:
		return int32(*val.I32), nil
	case xdr.ScValTypeScvU64:
		return narrowU64(uint64(*val.U64)), nil
	case xdr.ScValTypeScvI64:
		return narrowI64(int64(*val.I64)), nil
	case xdr.ScValTypeScvTimepoint:
		return narrowU64(uint64(*val.Timepoint)), nil
	case xdr.ScValTypeScvDuration:
		return narrowU64(uint64(*val.Duration)), nil
	case xdr.ScValTypeScvU128:
		return combineU128(uint64(val.U128.Hi), uint64(val.U128.Lo)), nil
	case xdr.ScValTypeScvI128:
		return combineI128(int64(val.I128.Hi), uint64(val.I128.Lo)), nil
	case xdr.ScValTypeScvString:
		return string(*val.Str), nil
	case xdr.ScValTypeScvSymbol:
		return string(*val.Sym), nil
	case xdr.ScValTypeScvBytes:
		return base64.StdEncoding.EncodeToString(*val.Bytes), nil
	case xdr.ScValTypeScvAddress:
		return addressString(*val.Address), nil
	case xdr.ScValTypeScvVec:
		return decodeVec(*val.Vec)
	case xdr.ScValTypeScvMap:
		return decodeMap(*val.Map)
	default:
		return nil, &DecodeFallbackError{
			Reason: fmt.Sprintf("unsupported value type %s", val.Type),
			Raw:    serialize(val),
		}
	}
}

func decodeVec(vec *xdr.ScVec) ([]interface{}, error) {
	if vec == nil {
		return []interface{}{}, nil
	}
	out := make([]interface{}, 0, len(*vec))
	for i, elem := range *vec {
		v, err := Decode(elem)
		if err != nil {
			return nil, errors.Wrapf(err, "vector element %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeMap(m *xdr.ScMap) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if m == nil {
		return out, nil
	}
	for i, entry := range *m {
		key, err := mapKey(entry.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %d", i)
		}
		v, err := Decode(entry.Val)
		if err != nil {
			return nil, errors.Wrapf(err, "map value %q", key)
		}
		out[key] = v
	}
	return out, nil
}

func mapKey(val xdr.ScVal) (string, error) {
	decoded, err := Decode(val)
	if err != nil {
		return "", err
	}
	switch k := decoded.(type) {
	case string:
		return k, nil
	case uint32:
		return strconv.FormatUint(uint64(k), 10), nil
	case int32:
		return strconv.FormatInt(int64(k), 10), nil
	case uint64:
		return strconv.FormatUint(k, 10), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case bool:
		return strconv.FormatBool(k), nil
	default:
		return "", &DecodeFallbackError{
			Reason: fmt.Sprintf("map key of type %T cannot name a JSON field", decoded),
			Raw:    serialize(val),
		}
	}
}

// addressString renders an ScAddress in strkey form, or the sentinel when
// the address bytes are unrenderable.
func addressString(addr xdr.ScAddress) string {
	s, err := addr.String()
	if err != nil {
		return MalformedAddress
	}
	return s
}

// narrowU64 keeps exact integers as numbers and shifts everything wider
// into decimal-string form.
func narrowU64(v uint64) interface{} {
	if v <= maxSafeInteger {
		return v
	}
	return strconv.FormatUint(v, 10)
}

func narrowI64(v int64) interface{} {
	if v >= -maxSafeInteger && v <= maxSafeInteger {
		return v
	}
	return strconv.FormatInt(v, 10)
}

// combineU128 reconstructs (hi << 64) + lo.
func combineU128(hi, lo uint64) interface{} {
	if hi == 0 {
		return narrowU64(lo)
	}
	n := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	n.Add(n, new(big.Int).SetUint64(lo))
	return n.String()
}

func combineI128(hi int64, lo uint64) interface{} {
	if hi == 0 {
		return narrowU64(lo)
	}
	n := new(big.Int).Lsh(big.NewInt(hi), 64)
	n.Add(n, new(big.Int).SetUint64(lo))
	if n.IsInt64() {
		return narrowI64(n.Int64())
	}
	return n.String()
}

func serialize(val xdr.ScVal) string {
	raw, err := val.MarshalBinary()
	if err != nil {
		return fmt.Sprintf("%+v", val)
	}
	return base64.StdEncoding.EncodeToString(raw)
}
