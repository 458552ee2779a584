package server

import (
	"sync"
	"time"

	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/segmentio/ksuid"
)

type entry struct {
	img      *rembg.Image
	lastSeen time.Time
}

// Registry 内存中的图片表，进程退出即丢失
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (r *Registry) NewID() string {
	return ksuid.New().String()
}

func (r *Registry) Add(img *rembg.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[img.ID] = &entry{img: img, lastSeen: r.now()}
}

// Get 同时刷新最近访问时间
func (r *Registry) Get(id string) (*rembg.Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.img, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep 删除超过 ttl 未被访问的图片，返回删除数量
func (r *Registry) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	n := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}
