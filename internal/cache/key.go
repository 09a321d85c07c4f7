package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"StockDesk/internal/query"
)

type Kind string

const (
	KindList   Kind = "list"
	KindDetail Kind = "detail"
)

// Key derives the cache key of one request. Primary loads and prefetches both go
// through here, so a prefetch warms exactly the entry the next navigation reads.
func Key(resource string, kind Kind, params query.Params) (string, error) {
	wire := make(map[string]any, len(params))
	for _, p := range params {
		wire[p.Key] = p.Value
	}
	payload := map[string]any{
		"resource": resource,
		"kind":     string(kind),
		"params":   wire,
	}

	data, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "query:" + hex.EncodeToString(sum[:]), nil
}

// KeyFor encodes opts and derives its key.
func KeyFor[R ~string](resource string, kind Kind, opts query.Options[R]) (string, error) {
	return Key(resource, kind, query.Encode(opts))
}

func canonicalJSON(value any) ([]byte, error) {
	var b strings.Builder
	if err := encodeCanonical(&b, value); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeCanonical(b *strings.Builder, value any) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case string:
		enc, _ := json.Marshal(v)
		b.Write(enc)
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encKey, _ := json.Marshal(k)
			b.Write(encKey)
			b.WriteByte(':')
			if err := encodeCanonical(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(enc)
	}
	return nil
}
