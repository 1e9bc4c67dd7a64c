package audio

import "sync"

// MIMEMP3 is the media type of synthesized audio.
const MIMEMP3 = "audio/mp3"

// Resource is a complete, playable in-memory audio stream. Resources
// assembled from pooled buffers must be released by the consumer once
// playback or persistence is done.
type Resource struct {
	data   []byte
	mime   string
	pooled bool
}

func NewResource(data []byte, mime string) *Resource {
	return &Resource{data: data, mime: mime}
}

// Assemble concatenates fragments in order into a pooled resource.
func Assemble(fragments [][]byte, mime string) *Resource {
	total := 0
	for _, f := range fragments {
		total += len(f)
	}
	buf := acquireBuf(total)
	n := 0
	for _, f := range fragments {
		n += copy(buf[n:], f)
	}
	return &Resource{data: buf, mime: mime, pooled: true}
}

func (r *Resource) MIME() string       { return r.mime }
func (r *Resource) Len() int           { return len(r.data) }
func (r *Resource) RawPayload() []byte { return r.data }

// Bytes returns a copy that stays valid after Release.
func (r *Resource) Bytes() []byte {
	return append([]byte(nil), r.data...)
}

// Release returns the pooled buffer. The resource must not be used
// afterwards.
func (r *Resource) Release() {
	if r.pooled && r.data != nil {
		releaseBuf(r.data)
	}
	r.data = nil
}

var bufPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func acquireBuf(size int) []byte {
	b := bufPool.Get().([]byte)
	if cap(b) < size {
		return make([]byte, size)
	}
	return b[:size]
}

func releaseBuf(b []byte) {
	bufPool.Put(b[:0])
}
