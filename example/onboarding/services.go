package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-slark/pipeline/encoding"
	"github.com/go-slark/pipeline/encoding/json"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/pkg/lock"
	"github.com/go-slark/pipeline/pkg/uid"
	"github.com/redis/go-redis/v9"
)

const (
	DuplicateCustomer  = "DUPLICATE_CUSTOMER"
	CustomerNotFound   = "CUSTOMER_NOT_FOUND"
	StorageUnavailable = "STORAGE_UNAVAILABLE"
)

type Repository interface {
	// SaveCustomer stores c and returns its new id.
	SaveCustomer(ctx context.Context, c *Customer) (string, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
}

type Email struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	SendEmail(ctx context.Context, e Email) error
}

type Storage interface {
	Provision(ctx context.Context, account string) error
	Delete(ctx context.Context, account string) error
}

type MemoryRepository struct {
	mu        sync.RWMutex
	gen       uid.Generator
	customers map[string]Customer
	emails    map[string]string
}

func NewMemoryRepository(gen uid.Generator) *MemoryRepository {
	return &MemoryRepository{
		gen:       gen,
		customers: make(map[string]Customer),
		emails:    make(map[string]string),
	}
}

func (m *MemoryRepository) SaveCustomer(_ context.Context, c *Customer) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[c.Email]; ok {
		return "", errors.BadRequest(DuplicateCustomer, c.Email)
	}
	id := m.gen()
	saved := *c
	saved.ID, saved.Modified = id, time.Now().UTC()
	m.customers[id] = saved
	m.emails[c.Email] = id
	return id, nil
}

func (m *MemoryRepository) GetCustomer(_ context.Context, id string) (*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, errors.NewError(404, CustomerNotFound, id)
	}
	return &c, nil
}

// RedisRepository keeps customers as json under <prefix>customer:<id> and indexes them
// by email. Saves of the same email are serialized through a redis lock.
type RedisRepository struct {
	rdb     *redis.Client
	gen     uid.Generator
	prefix  string
	lockTTL time.Duration
}

func NewRedisRepository(rdb *redis.Client, gen uid.Generator, prefix string) *RedisRepository {
	return &RedisRepository{
		rdb:     rdb,
		gen:     gen,
		prefix:  prefix,
		lockTTL: 5 * time.Second,
	}
}

func (r *RedisRepository) customerKey(id string) string {
	return r.prefix + "customer:" + id
}

func (r *RedisRepository) emailKey(email string) string {
	return r.prefix + "email:" + email
}

func (r *RedisRepository) SaveCustomer(ctx context.Context, c *Customer) (string, error) {
	l := lock.New(r.rdb, r.prefix+"lock:"+c.Email, r.lockTTL)
	ok, err := l.Lock(ctx)
	if err != nil {
		return "", errors.Wrap(err, "lock customer")
	}
	if !ok {
		return "", errors.BadRequest(DuplicateCustomer, fmt.Sprintf("%s is being onboarded", c.Email))
	}
	defer l.Unlock(context.WithoutCancel(ctx))

	n, err := r.rdb.Exists(ctx, r.emailKey(c.Email)).Result()
	if err != nil {
		return "", errors.Wrap(err, "lookup customer")
	}
	if n > 0 {
		return "", errors.BadRequest(DuplicateCustomer, c.Email)
	}

	saved := *c
	saved.ID, saved.Modified = r.gen(), time.Now().UTC()
	data, err := encoding.GetCodec(json.Name).Marshal(&saved)
	if err != nil {
		return "", err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.customerKey(saved.ID), data, 0)
		p.Set(ctx, r.emailKey(c.Email), saved.ID, 0)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "save customer")
	}
	return saved.ID, nil
}

func (r *RedisRepository) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	data, err := r.rdb.Get(ctx, r.customerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.NewError(404, CustomerNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get customer")
	}
	c := &Customer{}
	if err = encoding.GetCodec(json.Name).Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LogNotifier "sends" email by logging it and keeps what it sent.
type LogNotifier struct {
	l    logger.Logger
	mu   sync.Mutex
	sent []Email
}

func NewLogNotifier(l logger.Logger) *LogNotifier {
	return &LogNotifier{l: l}
}

func (n *LogNotifier) SendEmail(ctx context.Context, e Email) error {
	n.mu.Lock()
	n.sent = append(n.sent, e)
	n.mu.Unlock()
	n.l.Log(ctx, logger.InfoLevel, map[string]interface{}{
		"to":      e.To,
		"subject": e.Subject,
	}, "email sent")
	return nil
}

func (n *LogNotifier) Sent() []Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Email(nil), n.sent...)
}

// MemoryStorage tracks provisioned accounts. When failing, provisioning is unavailable.
type MemoryStorage struct {
	mu       sync.Mutex
	accounts map[string]struct{}
	failing  bool
}

func NewMemoryStorage(failing bool) *MemoryStorage {
	return &MemoryStorage{
		accounts: make(map[string]struct{}),
		failing:  failing,
	}
}

func (s *MemoryStorage) Provision(ctx context.Context, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failing {
		return errors.ServiceUnavailable(StorageUnavailable, "storage provisioning unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account] = struct{}{}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, account)
	return nil
}

func (s *MemoryStorage) Has(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[account]
	return ok
}

func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}
