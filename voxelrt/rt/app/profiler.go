package app

import (
	"fmt"
	"sort"
	"time"
)

// profileWindow is the number of frames each scope is averaged over.
const profileWindow = 60

type scope struct {
	start   time.Time
	samples [profileWindow]time.Duration
	n       int
	next    int
}

func (s *scope) add(d time.Duration) {
	s.samples[s.next] = d
	s.next = (s.next + 1) % profileWindow
	if s.n < profileWindow {
		s.n++
	}
}

func (s *scope) average() time.Duration {
	if s.n == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < s.n; i++ {
		total += s.samples[i]
	}
	return total / time.Duration(s.n)
}

// Profiler keeps CPU timings of named frame scopes and frame counters.
type Profiler struct {
	scopes map[string]*scope
	order  []string
	counts map[string]int
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]*scope),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	s, ok := p.scopes[name]
	if !ok {
		s = &scope{}
		p.scopes[name] = s
		p.order = append(p.order, name)
	}
	s.start = p.now()
}

func (p *Profiler) EndScope(name string) {
	if s, ok := p.scopes[name]; ok && !s.start.IsZero() {
		s.add(p.now().Sub(s.start))
		s.start = time.Time{}
	}
}

// Time runs fn inside a scope.
func (p *Profiler) Time(name string, fn func() error) error {
	p.BeginScope(name)
	defer p.EndScope(name)
	return fn()
}

func (p *Profiler) SetCount(name string, count int) {
	p.counts[name] = count
}

// Average is the mean duration of the last frames of a scope.
func (p *Profiler) Average(name string) time.Duration {
	if s, ok := p.scopes[name]; ok {
		return s.average()
	}
	return 0
}

// Lines formats timings in first-use order, then counters by name.
func (p *Profiler) Lines() []string {
	lines := make([]string, 0, len(p.order)+len(p.counts))
	for _, name := range p.order {
		ms := float64(p.scopes[name].average().Microseconds()) / 1000.0
		lines = append(lines, fmt.Sprintf("%-10s %6.2f ms", name, ms))
	}
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%-10s %6d", k, p.counts[k]))
	}
	return lines
}
