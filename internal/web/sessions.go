package web

import (
	"context"
	"sync"

	"bmr-form/internal/form"
	"bmr-form/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxSessions bounds the number of mounted forms kept in memory.
const DefaultMaxSessions = 10000

// Sessions holds one mounted form controller per browser session or API form
// id. The oldest form is dropped once the limit is reached.
type Sessions struct {
	newController func() *form.Controller
	max           int

	mu    sync.Mutex
	forms map[string]*form.Controller
	order []string
}

// NewSessions returns a store that builds controllers with newController.
// max <= 0 selects DefaultMaxSessions.
func NewSessions(newController func() *form.Controller, max int) *Sessions {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Sessions{
		newController: newController,
		max:           max,
		forms:         make(map[string]*form.Controller),
	}
}

// Mount creates a form and stores it under a new id. The access counter is
// fetched in the background, so the form renders 0 until it lands.
func (s *Sessions) Mount(ctx context.Context) (string, *form.Controller) {
	id := uuid.New().String()
	c := s.newController()
	go c.Mount(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.forms[id] = c
	s.order = append(s.order, id)
	evicted := 0
	for len(s.order) > s.max {
		delete(s.forms, s.order[0])
		s.order = s.order[1:]
		evicted++
	}
	s.mu.Unlock()

	sessionCounter.Add(ctx, 1-int64(evicted))
	observability.LoggerWithTrace(ctx).Debug("form mounted", zap.String("form_id", id))

	return id, c
}

func (s *Sessions) Get(id string) (*form.Controller, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.forms[id]
	return c, ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}
