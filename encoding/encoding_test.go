package encoding_test

import (
	"testing"

	"github.com/go-slark/pipeline/encoding"
	_ "github.com/go-slark/pipeline/encoding/json"
	_ "github.com/go-slark/pipeline/encoding/toml"
	_ "github.com/go-slark/pipeline/encoding/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type definition struct {
	Middlewares []string `json:"middlewares" yaml:"middlewares" toml:"middlewares"`
	Timeout     string   `json:"timeout" yaml:"timeout" toml:"timeout"`
}

func TestDecodeDefinition(t *testing.T) {
	docs := map[string]string{
		"json": `{"middlewares":["logging","validate"],"timeout":"2s"}`,
		"yaml": "middlewares:\n  - logging\n  - validate\ntimeout: 2s\n",
		"toml": "middlewares = [\"logging\", \"validate\"]\ntimeout = \"2s\"\n",
	}
	want := definition{Middlewares: []string{"logging", "validate"}, Timeout: "2s"}
	for name, doc := range docs {
		c := encoding.GetCodec(name)
		require.NotNil(t, c, name)
		var got definition
		require.NoError(t, c.Unmarshal([]byte(doc), &got), name)
		assert.Equal(t, want, got, name)
	}
	assert.NotNil(t, encoding.GetCodec("YAML"))
	assert.Nil(t, encoding.GetCodec("xml"))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "yaml", encoding.FormatOf("/etc/onboard.yml"))
	assert.Equal(t, "yaml", encoding.FormatOf("onboard.YAML"))
	assert.Equal(t, "json", encoding.FormatOf("a/b.json"))
	assert.Equal(t, "toml", encoding.FormatOf("c.toml"))
	assert.Equal(t, "", encoding.FormatOf("noext"))
}

func TestEmptyYAML(t *testing.T) {
	out := map[string]any{"kept": true}
	require.NoError(t, encoding.GetCodec("yaml").Unmarshal(nil, &out))
	assert.Equal(t, map[string]any{"kept": true}, out)
}
