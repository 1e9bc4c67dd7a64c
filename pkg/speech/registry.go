package speech

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gudong621/readaloud/pkg/audio"
)

// RequestID identifies one in-flight synthesis request on the wire.
type RequestID string

// newRequestID mints a fresh id in the un-dashed form the service echoes
// back in response headers.
func newRequestID() RequestID {
	return RequestID(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

type synthResult struct {
	resource *audio.Resource
	err      error
}

// pendingRequest accumulates audio fragments for one request until its
// terminal frame arrives. done is buffered so the read loop never
// blocks on a caller that already gave up.
type pendingRequest struct {
	id        RequestID
	fragments [][]byte
	done      chan synthResult
}

// registry routes inbound frames to in-flight requests. The read loop
// appends and resolves; callers register and remove. Each live id maps
// to exactly one entry.
type registry struct {
	mu      sync.Mutex
	pending map[RequestID]*pendingRequest
}

func newRegistry() *registry {
	return &registry{pending: make(map[RequestID]*pendingRequest)}
}

func (r *registry) register(id RequestID) (*pendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[id]; exists {
		return nil, fmt.Errorf("request id already in flight: %s", id)
	}
	req := &pendingRequest{id: id, done: make(chan synthResult, 1)}
	r.pending[id] = req
	return req, nil
}

// remove drops an entry, typically after timeout or cancellation, so
// any frames still arriving for it are discarded as unrouted.
func (r *registry) remove(id RequestID) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// append adds one fragment in arrival order. Unknown ids are ignored.
func (r *registry) append(id RequestID, fragment []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[id]
	if !ok {
		return false
	}
	req.fragments = append(req.fragments, append([]byte(nil), fragment...))
	return true
}

// finish resolves a request whose terminal frame arrived. A terminal
// frame with zero accumulated fragments leaves the entry pending: the
// caller's timeout makes that stall observable.
func (r *registry) finish(id RequestID) (*audio.Resource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[id]
	if !ok || len(req.fragments) == 0 {
		return nil, false
	}
	delete(r.pending, id)
	res := audio.Assemble(req.fragments, audio.MIMEMP3)
	req.done <- synthResult{resource: res}
	return res, true
}

// failAll rejects every outstanding request, used when the socket dies.
func (r *registry) failAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.pending {
		req.done <- synthResult{err: err}
		delete(r.pending, id)
	}
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
