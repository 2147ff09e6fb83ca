// ABOUTME: Actor serializes every cache mutation onto one goroutine.
// ABOUTME: Readers never go through the actor; they read published snapshots.
package cache

import "sync"

const actorBuffer = 64

// Actor runs submitted functions one at a time, in submission order.
type Actor struct {
	ops  chan func()
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewActor starts an Actor.
func NewActor() *Actor {
	a := &Actor{
		ops:  make(chan func(), actorBuffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Actor) loop() {
	defer close(a.done)
	for {
		select {
		case fn := <-a.ops:
			fn()
		case <-a.quit:
			return
		}
	}
}

// Do runs fn on the actor and waits for it to finish.
// It returns false if the actor stopped before fn ran.
// Do must not be called from inside another actor function.
func (a *Actor) Do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case a.ops <- func() { defer close(finished); fn() }:
	case <-a.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-a.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Post queues fn without waiting for it to run.
func (a *Actor) Post(fn func()) bool {
	select {
	case a.ops <- fn:
		return true
	case <-a.done:
		return false
	}
}

// Stop ends the loop. Functions still queued are dropped.
func (a *Actor) Stop() {
	a.once.Do(func() { close(a.quit) })
	<-a.done
}
