package emitters

import "sync"

// Registry tracks the chats subscribed to transfer notifications.
type Registry struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
}

func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]struct{})}
}

func (r *Registry) Subscribe(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chatID] = struct{}{}
}

func (r *Registry) Unsubscribe(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, chatID)
}

func (r *Registry) Subscribers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.chats))
	for id := range r.chats {
		ids = append(ids, id)
	}
	return ids
}
