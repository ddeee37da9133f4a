package agent

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions 同时保留的 HTTP 对话会话上限，超出后淘汰最久未使用的会话。
const DefaultMaxSessions = 1024

var ErrSessionNotFound = errors.New("chat session not found")

type session struct {
	memory   *Memory
	lastUsed time.Time
}

// Sessions 按会话 id 隔离的对话记忆。
type Sessions struct {
	mu    sync.Mutex
	max   int
	items map[string]*session
	now   func() time.Time
}

func NewSessions(max int) *Sessions {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Sessions{max: max, items: make(map[string]*session), now: time.Now}
}

// Open 创建新会话并返回其 id。
func (s *Sessions) Open() (string, *Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= s.max {
		s.evictLocked()
	}
	id := uuid.NewString()
	sess := &session{memory: NewMemory(), lastUsed: s.now()}
	s.items[id] = sess
	return id, sess.memory
}

func (s *Sessions) Get(id string) (*Memory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.memory, true
}

// Close 删除会话，会话不存在时返回 false。
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) evictLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.items {
		if oldestID == "" || sess.lastUsed.Before(oldest) {
			oldestID, oldest = id, sess.lastUsed
		}
	}
	if oldestID != "" {
		delete(s.items, oldestID)
	}
}
