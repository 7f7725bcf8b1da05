package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ppiankov/claimguard/internal/model"
)

// keyPrefix is bumped whenever the cached payload shape changes
const keyPrefix = "claimguard:v1:"

// ErrCorrupt is returned when a cached payload cannot be decoded
var ErrCorrupt = errors.New("corrupt cache entry")

// Store is a byte-oriented cache with per-entry TTL
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ExtractionKey derives the cache key for an extraction of text by a
// given provider and model. Any change to the inputs yields a new key.
func ExtractionKey(provider, modelName string, docType model.DocumentType, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, string(docType)} {
		h.Write([]byte(strings.ToLower(part)))
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// GetExtraction loads a cached extraction. A corrupt entry is dropped
// and reported as a miss.
func GetExtraction(s Store, key string) (*model.Extraction, bool) {
	data, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	ext, err := decodeExtraction(data)
	if err != nil {
		_ = s.Delete(key)
		return nil, false
	}
	return ext, true
}

// PutExtraction stores an extraction under key
func PutExtraction(s Store, key string, ext model.Extraction, ttl time.Duration) error {
	data, err := json.Marshal(ext)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	return s.Set(key, data, ttl)
}

func decodeExtraction(data []byte) (*model.Extraction, error) {
	var ext model.Extraction
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &ext, nil
}
