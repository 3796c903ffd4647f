// Package source defines flight data providers sampled by simvar workers.
package source

import (
	"context"
	"fmt"
	"sync"
)

var ErrUnavailable = fmt.Errorf("source unavailable")

// Source returns current value of named flight variable.
// Must tolerate arbitrary names. Caller does not impose timeout.
type Source interface {
	Get(ctx context.Context, name string) (float64, error)
}

// Prober is implemented by sources that can check connectivity at startup.
type Prober interface {
	Probe(ctx context.Context) error
}

// Disconnected always fails, workers fall back to defaults.
type Disconnected struct{}

func (Disconnected) Get(context.Context, string) (float64, error) { return 0, ErrUnavailable }
func (Disconnected) Probe(context.Context) error                  { return ErrUnavailable }

type Func func(ctx context.Context, name string) (float64, error)

func (f Func) Get(ctx context.Context, name string) (float64, error) { return f(ctx, name) }

// Static serves fixed values, names not in map are unavailable.
// Safe for concurrent Set and Get.
type Static struct {
	mu sync.RWMutex
	m  map[string]float64
}

func NewStatic(values map[string]float64) *Static {
	s := &Static{m: make(map[string]float64, len(values))}
	for k, v := range values {
		s.m[k] = v
	}
	return s
}

func (s *Static) Get(_ context.Context, name string) (float64, error) {
	s.mu.RLock()
	v, ok := s.m[name]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrUnavailable
	}
	return v, nil
}

func (s *Static) Set(name string, v float64) {
	s.mu.Lock()
	s.m[name] = v
	s.mu.Unlock()
}

func (s *Static) Delete(name string) {
	s.mu.Lock()
	delete(s.m, name)
	s.mu.Unlock()
}

func (s *Static) Probe(context.Context) error { return nil }
