// Package audit keeps a bounded in-memory record of recent engine outcomes
// so operators can see what was granted or rejected, and why, without
// trawling logs. It is a pure observer: the engine never reads it back.
package audit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/core"
)

// Record is one observed engine outcome with its position and time.
type Record struct {
	Seq        uint64
	ObservedAt time.Time
	Outcome    core.Outcome
}

type recordCache struct {
	*lru.Cache
}

func (c recordCache) Add(r *Record) (evicted bool) {
	return c.Cache.Add(r.Seq, r)
}

func (c recordCache) Peek(seq uint64) (*Record, bool) {
	o, found := c.Cache.Peek(seq)
	if !found {
		return nil, false
	}

	return o.(*Record), true
}

// Recorder retains the most recent engine outcomes, oldest evicted first.
type Recorder struct {
	mu    sync.Mutex
	seq   uint64
	cache recordCache
}

// NewRecorder builds a recorder retaining at most maxRecords outcomes.
func NewRecorder(maxRecords int) (*Recorder, error) {
	cache, err := lru.New(maxRecords)
	if err != nil {
		return nil, err
	}

	return &Recorder{cache: recordCache{Cache: cache}}, nil
}

// Record implements core.Recorder.
func (r *Recorder) Record(_ context.Context, outcome core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.cache.Add(&Record{
		Seq:        r.seq,
		ObservedAt: time.Now(),
		Outcome:    outcome,
	})
}

// Recent returns the retained records, oldest first.
func (r *Recorder) Recent() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.cache.Keys()
	out := make([]*Record, 0, len(keys))
	for _, k := range keys {
		if rec, found := r.cache.Peek(k.(uint64)); found {
			out = append(out, rec)
		}
	}

	return out
}
