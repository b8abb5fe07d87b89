package config

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-slark/pipeline/encoding"
	"github.com/go-slark/pipeline/encoding/json"
	_ "github.com/go-slark/pipeline/encoding/toml"
	_ "github.com/go-slark/pipeline/encoding/yaml"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/pkg/routine"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var ErrNotFound = errors.New("config key not found")

// Pipeline is a named pipeline definition: middleware names in execution order and an
// optional deadline for the whole invocation.
type Pipeline struct {
	Name        string
	Middlewares []string
	Timeout     time.Duration
}

type Config struct {
	l         sync.RWMutex
	values    map[string]any
	leaves    map[string]any
	changes   []func(*Config)
	watchers  map[string][]func(*Config)
	delimiter string
	srcs      []Source
	loaded    bool
}

type Option func(*Config)

// WithSource adds sources; later sources override earlier ones key by key.
func WithSource(src ...Source) Option {
	return func(c *Config) {
		c.srcs = append(c.srcs, src...)
	}
}

func WithDelimiter(delimiter string) Option {
	return func(c *Config) {
		c.delimiter = delimiter
	}
}

// WithChange registers fn to run after every reload.
func WithChange(fn func(*Config)) Option {
	return func(c *Config) {
		c.changes = append(c.changes, fn)
	}
}

func New(opts ...Option) *Config {
	c := &Config{
		values:    make(map[string]any),
		leaves:    make(map[string]any),
		watchers:  make(map[string][]func(*Config)),
		delimiter: ".",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads every source and starts following their change notifications.
func (c *Config) Load() error {
	if err := c.reload(); err != nil {
		return err
	}
	for _, src := range c.srcs {
		w, ok := src.(Watcher)
		if !ok {
			continue
		}
		routine.GoSafe(context.Background(), func() {
			for range w.Watch() {
				if err := c.reload(); err != nil {
					logger.Log(context.Background(), logger.ErrorLevel, map[string]interface{}{"error": err}, "config reload")
					continue
				}
				c.l.RLock()
				changes := c.changes
				c.l.RUnlock()
				for _, change := range changes {
					change(c)
				}
			}
		})
	}
	return nil
}

func (c *Config) reload() error {
	values := make(map[string]any)
	for _, src := range c.srcs {
		doc, err := src.Load()
		if err != nil {
			return errors.Wrap(err, "load source")
		}
		codec := encoding.GetCodec(doc.Format)
		if codec == nil {
			return errors.Errorf("no codec for format %q", doc.Format)
		}
		cfg := make(map[string]any)
		if len(doc.Data) > 0 {
			if err = codec.Unmarshal(doc.Data, &cfg); err != nil {
				return errors.Wrapf(err, "decode %s source", doc.Format)
			}
		}
		merge(values, cfg)
	}
	c.apply(values)
	return nil
}

func (c *Config) apply(values map[string]any) {
	c.l.Lock()
	leaves := flatten(values, "", c.delimiter)
	changed := make(map[string]struct{})
	for k, v := range leaves {
		if old, ok := c.leaves[k]; !ok || !reflect.DeepEqual(old, v) {
			changed[k] = struct{}{}
		}
	}
	for k := range c.leaves {
		if _, ok := leaves[k]; !ok {
			changed[k] = struct{}{}
		}
	}
	c.values, c.leaves = values, leaves
	var notify []func(*Config)
	for prefix, fns := range c.watchers {
		for k := range changed {
			if c.loaded && (k == prefix || strings.HasPrefix(k, prefix+c.delimiter)) {
				notify = append(notify, fns...)
				break
			}
		}
	}
	c.loaded = true
	c.l.Unlock()

	for _, fn := range notify {
		fn(c)
	}
}

// Watch calls fn whenever a key under prefix changes.
func (c *Config) Watch(prefix string, fn func(*Config)) {
	c.l.Lock()
	defer c.l.Unlock()
	c.watchers[prefix] = append(c.watchers[prefix], fn)
}

func (c *Config) Close() error {
	var err error
	for _, src := range c.srcs {
		if e := src.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (c *Config) Get(key string) any {
	c.l.RLock()
	defer c.l.RUnlock()
	v, _ := lookup(c.values, strings.Split(key, c.delimiter))
	return v
}

func (c *Config) Has(key string) bool {
	c.l.RLock()
	defer c.l.RUnlock()
	_, ok := lookup(c.values, strings.Split(key, c.delimiter))
	return ok
}

func (c *Config) GetString(key string) string {
	return cast.ToString(c.Get(key))
}

func (c *Config) GetInt(key string) int {
	return cast.ToInt(c.Get(key))
}

func (c *Config) GetFloat64(key string) float64 {
	return cast.ToFloat64(c.Get(key))
}

func (c *Config) GetBool(key string) bool {
	return cast.ToBool(c.Get(key))
}

func (c *Config) GetDuration(key string) time.Duration {
	return cast.ToDuration(c.Get(key))
}

// GetStringSlice accepts a list or a comma separated string.
func (c *Config) GetStringSlice(key string) []string {
	switch v := c.Get(key).(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return cast.ToStringSlice(v)
	}
}

// Scan decodes the subtree at key into v. An empty key scans everything.
func (c *Config) Scan(key string, v any) error {
	var sub any
	if key == "" {
		c.l.RLock()
		sub = c.values
		c.l.RUnlock()
	} else if sub = c.Get(key); sub == nil {
		return errors.Wrap(ErrNotFound, key)
	}
	codec := encoding.GetCodec(json.Name)
	data, err := codec.Marshal(normalize(sub))
	if err != nil {
		return err
	}
	return codec.Unmarshal(data, v)
}

// Pipeline reads pipelines.<name>.middlewares and pipelines.<name>.timeout.
func (c *Config) Pipeline(name string) (Pipeline, error) {
	prefix := strings.Join([]string{"pipelines", name}, c.delimiter)
	key := prefix + c.delimiter + "middlewares"
	if !c.Has(key) {
		return Pipeline{}, errors.Wrapf(ErrNotFound, "pipeline %q", name)
	}
	p := Pipeline{
		Name:        name,
		Middlewares: c.GetStringSlice(key),
	}
	if t := c.Get(prefix + c.delimiter + "timeout"); t != nil {
		d, err := cast.ToDurationE(t)
		if err != nil {
			return Pipeline{}, errors.Wrapf(err, "pipeline %q timeout", name)
		}
		p.Timeout = d
	}
	return p, nil
}

// normalize turns yaml's map[any]any into json encodable maps.
func normalize(v any) any {
	switch m := v.(type) {
	case map[any]any:
		return normalize(convert(m))
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, x := range m {
			out[k] = normalize(x)
		}
		return out
	case []any:
		out := make([]any, len(m))
		for i, x := range m {
			out[i] = normalize(x)
		}
		return out
	}
	return v
}
