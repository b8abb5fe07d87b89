package config

// Document is one raw config payload together with the codec that decodes it.
type Document struct {
	Format string
	Data   []byte
}

// Source yields a Document on every Load. Sources are merged in the order given to
// WithSource.
type Source interface {
	Load() (Document, error)
	Close() error
}

// Watcher is implemented by sources able to report changes. Each receive on the channel
// triggers a reload; closing it ends the watch.
type Watcher interface {
	Watch() <-chan struct{}
}
