package env

import (
	"os"
	"strings"

	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/encoding"
	"github.com/go-slark/pipeline/encoding/json"
)

const (
	DefaultPrefix = "PIPELINE_"
	// Separator splits a variable name into nested keys:
	// PIPELINE_PIPELINES__SIGNUP__TIMEOUT is pipelines.signup.timeout.
	Separator = "__"
)

// Env reads prefixed environment variables. It does not watch for changes.
type Env struct {
	prefix []string
}

type Option func(*Env)

func Prefix(prefix ...string) Option {
	return func(e *Env) {
		e.prefix = prefix
	}
}

func New(opts ...Option) *Env {
	e := &Env{
		prefix: []string{DefaultPrefix},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Env) Load() (config.Document, error) {
	mp := make(map[string]any)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		key := kv[0]
		var value string
		if len(kv) > 1 {
			value = kv[1]
		}
		prefix, ok := e.match(key)
		if !ok || len(prefix) == len(key) {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		set(mp, strings.Split(key, Separator), value)
	}
	data, err := encoding.GetCodec(json.Name).Marshal(mp)
	return config.Document{Format: json.Name, Data: data}, err
}

func set(m map[string]any, paths []string, value string) {
	for _, p := range paths[:len(paths)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[paths[len(paths)-1]] = value
}

func (e *Env) match(key string) (string, bool) {
	for _, prefix := range e.prefix {
		if strings.HasPrefix(key, prefix) {
			return prefix, true
		}
	}
	return "", false
}

func (e *Env) Close() error {
	return nil
}
