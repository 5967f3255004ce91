// Package fingerprint computes order-independent digests of request payloads.
package fingerprint

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

const domain = "economy/request/v1"

// Canonical encodes payload as JSON with sorted object keys, NFC-normalised strings and
// null members dropped, so that {"a":1,"b":null} and {"a":1} produce the same bytes.
func Canonical(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean(generic)); err != nil {
		return nil, fmt.Errorf("encode canonical payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// clean rewrites decoded JSON so encoding/json's sorted-map output is canonical.
func clean(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if elem == nil {
				continue
			}
			out[norm.NFC.String(k)] = clean(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = clean(elem)
		}
		return out
	case string:
		return norm.NFC.String(val)
	default:
		return val
	}
}

// Hash returns the hex BLAKE2b-256 digest of the canonical payload, domain separated
func Hash(payload any) (string, error) {
	canonical, err := Canonical(payload)
	if err != nil {
		return "", err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
