package delivery

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox"
)

type running struct {
	reg    consumer.Registration
	cancel context.CancelFunc
	done   chan struct{}
}

/* Pool keeps exactly one worker per registered consumer
 * Sync is safe to call from the registry reload callback
 */
type Pool struct {
	ctx      context.Context
	inbox    inbox.UseCase
	stream   inbox.StreamConsumer
	beats    Heartbeater
	settings Settings

	mu      sync.Mutex
	workers map[string]*running
}

// NewPool binds every worker it starts to ctx
func NewPool(ctx context.Context, uc inbox.UseCase, stream inbox.StreamConsumer, beats Heartbeater, settings Settings) *Pool {
	return &Pool{
		ctx:      ctx,
		inbox:    uc,
		stream:   stream,
		beats:    beats,
		settings: settings,
		workers:  make(map[string]*running),
	}
}

// Sync starts workers for new consumers, restarts changed ones and stops removed ones
func (p *Pool) Sync(registrations []consumer.Registration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wanted := make(map[string]consumer.Registration, len(registrations))
	for _, reg := range registrations {
		wanted[reg.ID] = reg
	}

	for id, w := range p.workers {
		reg, ok := wanted[id]
		if ok && reflect.DeepEqual(reg, w.reg) {
			continue
		}
		w.cancel()
		<-w.done
		delete(p.workers, id)
	}

	for id, reg := range wanted {
		if _, ok := p.workers[id]; ok {
			continue
		}
		p.start(reg)
	}
}

func (p *Pool) start(reg consumer.Registration) {
	ctx, cancel := context.WithCancel(p.ctx)
	w := &running{reg: reg, cancel: cancel, done: make(chan struct{})}
	p.workers[reg.ID] = w

	worker := NewWorker(reg, p.inbox, p.stream, p.beats, p.settings)
	go func() {
		defer close(w.done)
		worker.Run(ctx)
	}()
}

// Consumers returns the ids with a running worker
func (p *Pool) Consumers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stop cancels every worker and waits for them to return
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, w := range p.workers {
		w.cancel()
		<-w.done
		delete(p.workers, id)
	}
}
