package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestId is a tagged union of string or signed 64-bit integer, matching
// the JSON-RPC 2.0 id union. Unlike a bare `any`, it preserves the original
// lexical form of a numeric id across a decode/encode round-trip (encoding/json
// would otherwise widen every JSON number to float64) and its equality
// respects the tag rather than numeric coercion.
type RequestId struct {
	str  string
	num  int64
	kind idKind
}

type idKind uint8

const (
	idKindNone idKind = iota
	idKindString
	idKindInt
)

// NewStringID creates a string-valued RequestId.
func NewStringID(v string) RequestId {
	return RequestId{str: v, kind: idKindString}
}

// NewIntID creates an integer-valued RequestId.
func NewIntID(v int64) RequestId {
	return RequestId{num: v, kind: idKindInt}
}

// IsZero reports whether the id was never set (equivalent to a JSON-RPC
// request/response with no id present).
func (id RequestId) IsZero() bool {
	return id.kind == idKindNone
}

// IsString reports whether the id is a string.
func (id RequestId) IsString() bool { return id.kind == idKindString }

// IsInt reports whether the id is an integer.
func (id RequestId) IsInt() bool { return id.kind == idKindInt }

// String returns the string value of a string id, the decimal form of an
// integer id, or "" for an unset id.
func (id RequestId) String() string {
	switch id.kind {
	case idKindString:
		return id.str
	case idKindInt:
		return strconv.FormatInt(id.num, 10)
	default:
		return ""
	}
}

// Int returns the integer value (zero value if the id is not an integer).
func (id RequestId) Int() int64 {
	return id.num
}

// Equal compares the tag and the value; a string "1" and an int 1 are not equal.
func (id RequestId) Equal(other RequestId) bool {
	if id.kind != other.kind {
		return false
	}
	switch id.kind {
	case idKindString:
		return id.str == other.str
	case idKindInt:
		return id.num == other.num
	default:
		return true
	}
}

// MarshalJSON re-encodes the id in its original lexical form; an unset id
// marshals to JSON null.
func (id RequestId) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idKindString:
		return json.Marshal(id.str)
	case idKindInt:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a string as a string id, a whole number as an int id,
// and null (or absent, via the caller's use of a pointer) as unset. Fractional
// or non-finite numbers are rejected.
func (id *RequestId) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" || len(data) == 0 {
		*id = RequestId{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid string id: %w", err)
		}
		*id = NewStringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q: must be a string or a whole number: %w", data, err)
	}
	*id = NewIntID(n)
	return nil
}

// ProgressToken has the same string|int shape as RequestId but is semantically
// distinct: it correlates notifications/progress messages to the request that
// opted in via params._meta.progressToken.
type ProgressToken = RequestId

// Key returns a string uniquely identifying id across both kinds (a string id
// "1" and an int id 1 never collide), suitable for use as a map key by
// correlation tables such as transport.RoundTrips.
func (id RequestId) Key() string {
	switch id.kind {
	case idKindString:
		return "s:" + id.str
	case idKindInt:
		return "i:" + strconv.FormatInt(id.num, 10)
	default:
		return ""
	}
}

// AsRequestIntId returns the integer value of id and true if id is an integer.
func AsRequestIntId(id RequestId) (int64, bool) {
	if id.kind != idKindInt {
		return 0, false
	}
	return id.num, true
}
