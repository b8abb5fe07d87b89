package encoding

import (
	"path/filepath"
	"strings"
	"sync"
)

// Codec is a serialization format config sources are decoded with.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	Name() string
}

var (
	mu     sync.RWMutex
	codecs = make(map[string]Codec)
)

func RegisterCodec(codec Codec) {
	if codec == nil || len(codec.Name()) == 0 {
		panic("cannot register nil or empty name Codec")
	}
	mu.Lock()
	defer mu.Unlock()
	codecs[strings.ToLower(codec.Name())] = codec
}

// GetCodec returns nil for an unknown name.
func GetCodec(name string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return codecs[strings.ToLower(name)]
}

// FormatOf maps a file extension to a codec name: yml is yaml, anything else is the
// extension itself.
func FormatOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		return "yaml"
	}
	return ext
}
