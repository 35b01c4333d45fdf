// Package payload normalizes inbound HighLevel webhook bodies. The CRM has no
// fixed schema: bodies arrive as JSON or form data, contact fields may sit at
// the top level or nested one level down (under "contact", "customData", ...),
// and field names drift between snake_case, camelCase and the human-readable
// labels of the CRM UI. Parsing is best-effort by design — rejecting unknown
// fields would silently break tenants whenever the upstream renames something.
package payload

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Kind tags a decoded payload value. Keeping the distinction explicit makes
// the "drop non-scalars" rule testable instead of relying on type switches
// scattered through the pipeline.
type Kind int

const (
	KindString Kind = iota
	KindNull
	KindObject
	KindUnsupported // arrays and anything else that cannot be flattened
)

// Value is one decoded payload entry.
type Value struct {
	Kind   Kind
	Str    string
	Object map[string]Value
}

// String returns a scalar Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Null returns an explicit-null Value.
func Null() Value { return Value{Kind: KindNull} }

// Parse decodes a raw request body and flattens one level of nesting.
// JSON is tried first regardless of Content-Type (HighLevel is not reliable
// about headers), then form encoding. Returns nil when nothing usable could
// be decoded.
func Parse(raw []byte, contentType string) map[string]Value {
	decoded := decodeJSON(raw)
	if len(decoded) == 0 {
		decoded = decodeForm(raw)
	}
	if len(decoded) == 0 {
		return nil
	}
	return Flatten(decoded)
}

func decodeJSON(raw []byte) map[string]Value {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil
	}

	out := make(map[string]Value, len(body))
	for k, v := range body {
		out[k] = classify(v)
	}
	return out
}

func decodeForm(raw []byte) map[string]Value {
	// ParseQuery accepts almost anything as a bare key; without a key=value
	// pair the body is not form data.
	if !bytes.ContainsRune(raw, '=') {
		return nil
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil || len(values) == 0 {
		return nil
	}

	out := make(map[string]Value, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = String(vs[0])
		}
	}
	return out
}

func classify(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case json.Number:
		return String(t.String())
	case bool:
		return String(strconv.FormatBool(t))
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, sv := range t {
			obj[k] = classify(sv)
		}
		return Value{Kind: KindObject, Object: obj}
	default:
		return Value{Kind: KindUnsupported}
	}
}

// Flatten hoists scalar and null entries of nested objects to the top level.
// Exactly one level is flattened, and a top-level key always wins over a
// same-named nested one. Deeper nesting and arrays stay unsupported and are
// dropped during field mapping.
func Flatten(body map[string]Value) map[string]Value {
	flat := make(map[string]Value, len(body))

	for k, v := range body {
		if v.Kind != KindObject {
			flat[k] = v
		}
	}
	for _, v := range body {
		if v.Kind != KindObject {
			continue
		}
		for sk, sv := range v.Object {
			if sv.Kind != KindString && sv.Kind != KindNull {
				continue
			}
			if _, exists := flat[sk]; !exists {
				flat[sk] = sv
			}
		}
	}

	return flat
}

// GetString returns the first non-empty scalar among the given keys,
// trimmed. Used for the reserved control fields (advisor_code, action).
func GetString(flat map[string]Value, keys ...string) string {
	for _, k := range keys {
		if v, ok := flat[k]; ok && v.Kind == KindString {
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}
