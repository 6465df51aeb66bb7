// Package hero holds the hero banner's slide state and its auto-advance
// timer.
package hero

import (
	"sync"
	"time"

	"github.com/expvn/explog/internal/model"
)

// DefaultInterval is how long a slide stays up before auto-advancing.
const DefaultInterval = 5 * time.Second

// Ticker is the part of *time.Ticker the slider needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Slider is a wrapping carousel position. Safe for concurrent use.
type Slider struct {
	mu        sync.Mutex
	slides    []model.Slide
	current   int
	interval  time.Duration
	newTicker func(time.Duration) Ticker

	ticker Ticker
	stop   chan struct{}
}

type Option func(*Slider)

// WithTicker replaces the ticker factory, for tests.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(s *Slider) { s.newTicker = f }
}

func NewSlider(slides []model.Slide, interval time.Duration, opts ...Option) *Slider {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Slider{
		slides:    append([]model.Slide(nil), slides...),
		interval:  interval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Slider) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slides)
}

// Slides returns a copy of the slides.
func (s *Slider) Slides() []model.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Slide(nil), s.slides...)
}

func (s *Slider) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slider) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goTo(s.current + 1)
}

func (s *Slider) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goTo(s.current - 1)
}

// GoTo activates slide i. Past the end wraps to the first slide, before the
// start wraps to the last.
func (s *Slider) GoTo(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goTo(i)
}

func (s *Slider) goTo(i int) int {
	n := len(s.slides)
	switch {
	case n == 0:
		i = 0
	case i >= n:
		i = 0
	case i < 0:
		i = n - 1
	}
	s.current = i
	return i
}

// Start begins auto-advancing. Any running timer is stopped first, so calling
// Start again never doubles the pace. With fewer than two slides it only
// stops.
func (s *Slider) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.startLocked()
}

// Resume starts auto-advancing unless the timer already runs, so repeated
// calls leave the running timer and its schedule alone.
func (s *Slider) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		s.startLocked()
	}
}

// Pause stops auto-advancing and keeps the current slide.
func (s *Slider) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Slider) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Reset stops the timer and replaces the slides, back at slide 0.
func (s *Slider) Reset(slides []model.Slide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.slides = append([]model.Slide(nil), slides...)
	s.current = 0
}

func (s *Slider) startLocked() {
	if len(s.slides) < 2 {
		return
	}
	t := s.newTicker(s.interval)
	stop := make(chan struct{})
	s.ticker, s.stop = t, stop
	go s.run(t, stop)
}

func (s *Slider) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.ticker.Stop()
	s.stop, s.ticker = nil, nil
}

func (s *Slider) run(t Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-t.Chan():
			s.mu.Lock()
			// A tick racing with Stop belongs to a timer that is gone.
			if s.stop == stop {
				s.goTo(s.current + 1)
			}
			s.mu.Unlock()
		}
	}
}
