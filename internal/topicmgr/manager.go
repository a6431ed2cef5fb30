package topicmgr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Manager is a concurrency-safe catalogue of registered topics.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]RegistryEntry
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]RegistryEntry)}
}

// Register validates topic and adds it to the catalogue.
func (m *Manager) Register(topic Topic) error {
	if err := ValidateDefinition(topic); err != nil {
		te := &TopicError{Type: ErrorValidationFailed, Message: "topic validation failed", Cause: err}
		if topic != nil {
			te.Topic, te.Module = topic.Name(), topic.Module()
		}
		return te
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", topic.Name()),
		}
	}
	m.entries[topic.Name()] = RegistryEntry{Topic: topic, RegisteredAt: time.Now()}
	return nil
}

// MustRegister registers topic and panics on error. Meant for startup wiring.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Ensure registers topic unless a topic with the same name already exists.
func (m *Manager) Ensure(topic Topic) error {
	err := m.Register(topic)
	var te *TopicError
	if errors.As(err, &te) && te.Type == ErrorDuplicateRegistration {
		return nil
	}
	return err
}

// Get looks a topic up by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Topic, true
}

// Lookup is Get with a TopicError for unknown names.
func (m *Manager) Lookup(name string) (Topic, error) {
	topic, ok := m.Get(name)
	if !ok {
		return nil, &TopicError{Type: ErrorTopicNotFound, Topic: name, Message: fmt.Sprintf("topic not found: %s", name)}
	}
	return topic, nil
}

// List returns every registered topic sorted by name.
func (m *Manager) List() []Topic {
	return m.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByPrefix returns the topics whose name starts with prefix.
func (m *Manager) ListByPrefix(prefix string) []Topic {
	return m.filter(func(t Topic) bool { return strings.HasPrefix(t.Name(), prefix) })
}

// ListModules returns the distinct module names that own topics.
func (m *Manager) ListModules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var modules []string
	for _, entry := range m.entries {
		if mod := entry.Topic.Module(); mod != "" && !slices.Contains(modules, mod) {
			modules = append(modules, mod)
		}
	}
	slices.Sort(modules)
	return modules
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Manager) filter(keep func(Topic) bool) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]Topic, 0, len(m.entries))
	for _, entry := range m.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	slices.SortFunc(topics, func(a, b Topic) int { return strings.Compare(a.Name(), b.Name()) })
	return topics
}
