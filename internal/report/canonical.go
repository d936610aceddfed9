package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for a report snapshot.
// This is the only serialization used for run digests and golden
// comparison, so two runs with identical outcomes serialize to
// identical bytes.
//
// Rules:
//  1. Object keys sorted lexicographically by byte value
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Only strings, integers, booleans, arrays, and objects are allowed
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return nil, fmt.Errorf("unsupported type %T in canonical JSON", v)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, fmt.Errorf("marshal string: %w", err)
	}
	// Encode appends a newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot converts the report to a canonical-JSON-compatible map.
// Timestamps are excluded: the snapshot captures outcomes, not wall
// clock, so identical runs snapshot identically.
func (r *RunReport) Snapshot() map[string]any {
	records := make([]any, len(r.Records))
	for i, rec := range r.Records {
		m := map[string]any{
			"stage":  rec.Stage,
			"phase":  string(rec.Phase),
			"status": string(rec.Result.Status),
		}
		if rec.Locator != "" {
			m["locator"] = rec.Locator
		}
		if rec.Result.Message != "" {
			m["message"] = rec.Result.Message
		}
		records[i] = m
	}

	snap := map[string]any{
		"run_id":  r.RunID,
		"records": records,
	}
	if r.Cohort != "" {
		snap["cohort"] = r.Cohort
	}
	return snap
}

// Digest returns the hex-encoded SHA-256 of the canonical snapshot.
// Stored alongside the run so byte-identical reruns are detectable.
func (r *RunReport) Digest() (string, error) {
	b, err := MarshalCanonical(r.Snapshot())
	if err != nil {
		return "", fmt.Errorf("digest report: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
