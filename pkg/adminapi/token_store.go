package adminapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// FileTokenStore keeps tokens in a small YAML document on disk, keyed by
// storage key.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore stores tokens at path. The file is created on first save.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultSessionFile returns ~/.rensights/session.yaml.
func DefaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".rensights", "session.yaml")
	}
	return filepath.Join(home, ".rensights", "session.yaml")
}

func (f *FileTokenStore) LoadToken(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return "", err
	}
	return doc[key], nil
}

func (f *FileTokenStore) SaveToken(_ context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = token
	return f.write(doc)
}

func (f *FileTokenStore) DeleteToken(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

func (f *FileTokenStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("adminapi: read session file %s: %w", f.path, err)
	}
	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("adminapi: parse session file %s: %w", f.path, err)
	}
	if doc == nil {
		doc = map[string]string{}
	}
	return doc, nil
}

func (f *FileTokenStore) write(doc map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("adminapi: mkdir %s: %w", filepath.Dir(f.path), err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("adminapi: encode session file: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("adminapi: write session file %s: %w", f.path, err)
	}
	return nil
}

// RedisTokenStore keeps tokens in Redis so several processes share a session.
type RedisTokenStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisTokenStore stores tokens under prefix+key. A zero ttl keeps them
// until logout.
func NewRedisTokenStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisTokenStore) LoadToken(ctx context.Context, key string) (string, error) {
	token, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("adminapi: redis get %s: %w", r.prefix+key, err)
	}
	return token, nil
}

func (r *RedisTokenStore) SaveToken(ctx context.Context, key, token string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("adminapi: redis set %s: %w", r.prefix+key, err)
	}
	return nil
}

func (r *RedisTokenStore) DeleteToken(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("adminapi: redis del %s: %w", r.prefix+key, err)
	}
	return nil
}
