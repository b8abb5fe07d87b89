package yaml

import (
	"bytes"
	"io"

	"github.com/go-slark/pipeline/encoding"
	"gopkg.in/yaml.v3"
)

const Name = "yaml"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec reads the first document of a stream and writes two-space indented output.
type codec struct{}

func (codec) Name() string { return Name }

func (codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(v)
	if err == io.EOF {
		// an empty document leaves v untouched
		return nil
	}
	return err
}
