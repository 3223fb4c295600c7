/*
 * Copyright 2023 ForgeRock AS
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package secretcache

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Loader retrieves a secret that is not in the cache
type Loader func(ctx context.Context, key string) ([]byte, error)

// Cache for secrets held by a secret manager
type Cache struct {
	// mu orders clearing an evicted secret after any clone of it in progress
	mu    sync.RWMutex
	store *cache.Cache
	group singleflight.Group
	load  Loader
}

// New creates a new secret cache in front of the loader
func New(load Loader, defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{store: cache.New(defaultExpiration, cleanupInterval), load: load}
	// evicted secrets are not handed out again so they can be cleared
	c.store.OnEvicted(func(_ string, value interface{}) {
		if secret, ok := value.([]byte); ok {
			c.mu.Lock()
			clear(secret)
			c.mu.Unlock()
		}
	})
	return c
}

// cached returns a copy of the cached secret for the key
func (c *Cache) cached(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return clone(value.([]byte)), true
}

// Get the secret for the key, loading it on a miss. Concurrent misses for the same key share a single load.
// The returned slice is a copy owned by the caller.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if secret, ok := c.cached(key); ok {
		return secret, nil
	}
	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		secret, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.store.SetDefault(key, clone(secret))
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(value.([]byte)), nil
}

// Forget the secret for the key so that the next Get loads it again
func (c *Cache) Forget(key string) {
	c.store.Delete(key)
}

// Len is the number of cached secrets, including expired secrets that have not been cleaned up
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
