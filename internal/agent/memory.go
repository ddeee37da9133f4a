package agent

import (
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 一条对话记录。
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory 按顺序保存对话消息，可并发访问。
type Memory struct {
	mu       sync.RWMutex
	messages []Message
}

func NewMemory() *Memory {
	return &Memory{}
}

// AddExchange 原子地追加一问一答，并发对话时问答不会交错。
func (m *Memory) AddExchange(question, answer string, askedAt, answeredAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages,
		Message{Role: RoleUser, Content: question, Timestamp: askedAt},
		Message{Role: RoleAssistant, Content: answer, Timestamp: answeredAt})
}

// Messages 返回消息副本。
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Message(nil), m.messages...)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
