package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenerateKey derives the cache key for a request:
// hex(sha256(endpoint + ":" + canonical JSON of params)). Object keys are
// sorted at every level, so field order never changes the key.
func GenerateKey(endpoint string, params any) (string, error) {
	canonical, err := canonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalise cache params: %w", err)
	}
	sum := sha256.Sum256([]byte(endpoint + ":" + canonical))
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}

	// maps are encoded with sorted keys
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
