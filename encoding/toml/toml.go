package toml

import (
	"bytes"

	"github.com/go-slark/pipeline/encoding"
	"github.com/pelletier/go-toml/v2"
)

const Name = "toml"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Name() string { return Name }

// Marshal indents nested tables so pipeline sections read as a tree.
func (codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	return toml.NewDecoder(bytes.NewReader(data)).Decode(v)
}
