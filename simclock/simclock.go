// Package simclock owns simulation time: a monotonically increasing scalar
// advanced by wall-clock elapsed time scaled by a speed multiplier. The
// clock is explicit and externally driven so the orbital math stays
// decoupled from any particular render loop or UI lifecycle.
package simclock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// TimeSource is a read-only view of simulation time. Frame consumers
// (engine, API handlers) depend on this abstraction rather than the
// concrete clock, which keeps them testable.
type TimeSource interface {
	// Now returns the current simulation time in seconds.
	Now() float64
}

// ErrNegativeSpeed rejects speed multipliers that would make the clock run
// backwards; simulation time only decreases on an explicit Reset.
var ErrNegativeSpeed = errors.New("simclock: speed multiplier must be non-negative")

// Clock holds the simulation time scalar. It is safe for concurrent use:
// the API layer mutates speed and pause state while the frame loop reads
// and advances time.
type Clock struct {
	mu     sync.RWMutex
	time   float64
	speed  float64
	paused bool
}

// NewClock constructs a clock at time zero with the given speed multiplier.
// Non-positive speeds fall back to 1.
func NewClock(speed float64) *Clock {
	if speed <= 0 {
		speed = 1
	}
	return &Clock{speed: speed}
}

// Now returns the current simulation time in seconds. Implements TimeSource.
func (c *Clock) Now() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.time
}

// Advance moves simulation time forward by elapsed wall-clock seconds scaled
// by the speed multiplier, unless paused. It returns the resulting time.
// Negative elapsed values are ignored; the clock never runs backwards.
func (c *Clock) Advance(elapsedSeconds float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused && elapsedSeconds > 0 {
		c.time += elapsedSeconds * c.speed
	}
	return c.time
}

// SetSpeed changes the speed multiplier applied on subsequent Advance calls.
func (c *Clock) SetSpeed(speed float64) error {
	if speed < 0 {
		return ErrNegativeSpeed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
	return nil
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speed
}

// Pause stops the clock; Advance becomes a no-op until Resume.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume lets the clock advance again.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Reset sets simulation time back to zero. This is the only operation that
// moves the clock backwards.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = 0
}

// Mode describes how the Driver advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still
	// stepping by Tick.
	Accelerated
)

// Driver runs the frame loop: on every tick it advances the clock exactly
// once and then notifies listeners with the resulting simulation time, so
// every body computed within one frame sees the same time value.
type Driver struct {
	clock *Clock
	tick  time.Duration
	mode  Mode

	listeners []func(simTime float64)
}

// NewDriver constructs a driver stepping the given clock by tick.
func NewDriver(clock *Clock, tick time.Duration, mode Mode) *Driver {
	return &Driver{clock: clock, tick: tick, mode: mode}
}

// AddListener registers a callback invoked once per frame with the
// simulation time for that frame. Listeners must be registered before Start.
func (d *Driver) AddListener(fn func(simTime float64)) {
	d.listeners = append(d.listeners, fn)
}

// Start runs the driver until the wall-clock duration elapses or ctx is
// cancelled (duration <= 0 means run until cancelled). It returns a channel
// that is closed when the loop finishes.
func (d *Driver) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		elapsed := time.Duration(0)

		// Both modes use a ticker for simplicity and determinism; the
		// accelerated mode just uses a much smaller wall interval than
		// the simulated step.
		wallTick := d.tick
		if d.mode == Accelerated {
			wallTick = time.Millisecond
		}
		ticker := time.NewTicker(wallTick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			elapsed += wallTick

			// Advance at most once per frame, before any positions are
			// computed for that frame.
			simTime := d.clock.Advance(d.tick.Seconds())

			for _, fn := range d.listeners {
				fn(simTime)
			}
		}
	}()
	return done
}
