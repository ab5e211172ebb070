package server

import (
	"errors"
	"sync"

	"github.com/hupe1980/agentrelay/a2a"
)

// ErrTaskNotFound is returned by a TaskStore for unknown task ids.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists tasks handled by a Server so they can be retrieved with tasks/get.
type TaskStore interface {
	Save(task a2a.Task) error
	Get(id string) (a2a.Task, error)
}

// InMemoryTaskStore is a volatile TaskStore keeping tasks in a process local
// map for the lifetime of the process. It is safe for concurrent access.
// Stored and returned tasks are deep copied, including the data maps of data
// parts, so callers cannot mutate internal state.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]a2a.Task
}

// NewInMemoryTaskStore constructs an empty in-memory task store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]a2a.Task)}
}

// Save stores a clone of task, overwriting any task with the same id.
func (s *InMemoryTaskStore) Save(task a2a.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// Get returns a clone of the task with the given id.
func (s *InMemoryTaskStore) Get(id string) (a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return a2a.Task{}, ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// Len reports how many tasks are stored.
func (s *InMemoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func cloneTask(t a2a.Task) a2a.Task {
	c := t
	if t.Status.Message != nil {
		m := cloneMessage(*t.Status.Message)
		c.Status.Message = &m
	}
	if t.Artifacts != nil {
		c.Artifacts = make([]a2a.Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			a.Parts = cloneParts(a.Parts)
			c.Artifacts[i] = a
		}
	}
	if t.History != nil {
		c.History = make([]a2a.Message, len(t.History))
		for i, m := range t.History {
			c.History[i] = cloneMessage(m)
		}
	}
	return c
}

func cloneMessage(m a2a.Message) a2a.Message {
	m.Parts = cloneParts(m.Parts)
	return m
}

func cloneParts(parts []a2a.Part) []a2a.Part {
	if parts == nil {
		return nil
	}
	c := make([]a2a.Part, len(parts))
	for i, p := range parts {
		if p.Data != nil {
			p.Data = cloneValue(p.Data).(map[string]any)
		}
		c[i] = p
	}
	return c
}

// cloneValue deep copies JSON-shaped values. Other types are shared.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
