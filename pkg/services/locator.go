// Package services provides the explicit service locator used to resolve
// named handlers and shared services during step construction. It is built
// and owned by whoever assembles the engine; there is no ambient global
// registry, which keeps tests with isolated locators straightforward.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prosaga/prosaga/pkg/models"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
)

// Handler is the work function behind command and query steps.
type Handler func(ctx context.Context, pctx *models.Context) (any, error)

// Predicate is a named validation check resolvable by validation steps.
type Predicate func(ctx context.Context, pctx *models.Context) (bool, error)

// Locator holds named handlers, predicates and arbitrary services.
type Locator struct {
	mu         sync.RWMutex
	handlers   map[string]Handler
	predicates map[string]Predicate
	services   map[string]any
}

func NewLocator() *Locator {
	return &Locator{
		handlers:   make(map[string]Handler),
		predicates: make(map[string]Predicate),
		services:   make(map[string]any),
	}
}

func (l *Locator) RegisterHandler(name string, handler Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.handlers[name]; exists {
		return fmt.Errorf("handler %q: %w", name, ErrAlreadyRegistered)
	}

	l.handlers[name] = handler

	return nil
}

func (l *Locator) Handler(name string) (Handler, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	handler, exists := l.handlers[name]
	if !exists {
		return nil, fmt.Errorf("handler %q: %w", name, ErrNotRegistered)
	}

	return handler, nil
}

func (l *Locator) RegisterPredicate(name string, predicate Predicate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.predicates[name]; exists {
		return fmt.Errorf("predicate %q: %w", name, ErrAlreadyRegistered)
	}

	l.predicates[name] = predicate

	return nil
}

func (l *Locator) Predicate(name string) (Predicate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	predicate, exists := l.predicates[name]
	if !exists {
		return nil, fmt.Errorf("predicate %q: %w", name, ErrNotRegistered)
	}

	return predicate, nil
}

func (l *Locator) RegisterService(name string, service any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.services[name]; exists {
		return fmt.Errorf("service %q: %w", name, ErrAlreadyRegistered)
	}

	l.services[name] = service

	return nil
}

func (l *Locator) Service(name string) (any, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	service, exists := l.services[name]
	if !exists {
		return nil, fmt.Errorf("service %q: %w", name, ErrNotRegistered)
	}

	return service, nil
}
