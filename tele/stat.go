package tele

// Complex values are read and modified atomically, but not consistently,
// i.e. it is possible to read .Count=1 .Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
)

type TopicStat struct {
	Sent       CountSizePair
	Errors     expvar.Int
	Suppressed expvar.Int
}

func (ts *TopicStat) String() string {
	return fmt.Sprintf(`{"sent.count":%d,"sent.size":%d,"errors":%d,"suppressed":%d}`,
		ts.Sent.Count.Value(), ts.Sent.Size.Value(), ts.Errors.Value(), ts.Suppressed.Value())
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}

func (csp *CountSizePair) Register(size int) {
	csp.Count.Add(1)
	csp.Size.Add(int64(size))
}

// Stats is per topic counters, shared by schedulers and transport.
// Zero value is ready to use.
type Stats struct {
	mu sync.Mutex
	m  map[Topic]*TopicStat
}

func (s *Stats) Topic(t Topic) *TopicStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[Topic]*TopicStat)
	}
	ts, ok := s.m[t]
	if !ok {
		ts = new(TopicStat)
		s.m[t] = ts
	}
	return ts
}

func (s *Stats) Topics() []Topic {
	s.mu.Lock()
	ts := make([]Topic, 0, len(s.m))
	for t := range s.m {
		ts = append(ts, t)
	}
	s.mu.Unlock()
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return ts
}

// String implements expvar.Var.
func (s *Stats) String() string {
	out := "{"
	for i, t := range s.Topics() {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`"%s":%s`, t.String(), s.Topic(t).String())
	}
	return out + "}"
}
