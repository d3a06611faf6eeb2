package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"rag-chatbot-be/internal/dto"
)

// StatusCache keeps recent dependency health probes so repeated polling does
// not hammer external services.
type StatusCache struct {
	cache *cache.Cache
}

func NewStatusCache(ttl time.Duration) *StatusCache {
	c := cache.New(ttl, 2*ttl)
	return &StatusCache{
		cache: c,
	}
}

func (r *StatusCache) Save(name string, health dto.DependencyHealth) {
	r.cache.Set(name, health, cache.DefaultExpiration)
}

func (r *StatusCache) Get(name string) (dto.DependencyHealth, bool) {
	if x, found := r.cache.Get(name); found {
		return x.(dto.DependencyHealth), true
	}
	return dto.DependencyHealth{}, false
}

func (r *StatusCache) Delete(name string) {
	r.cache.Delete(name)
}
