package model

// Playable is an opaque handle to playable audio. Implementations own a
// resource (file, object URL equivalent) that must be released exactly once.
type Playable interface {
	Release()
}

// Recording is the per-question answer slot. One slot exists per question,
// pre-allocated empty at session start. A re-record overwrites the slot after
// releasing the previous playable handle.
type Recording struct {
	Data     []byte
	MimeType string
	Playable Playable
}

// HasAudio reports whether the slot has been populated.
func (r *Recording) HasAudio() bool {
	return r != nil && len(r.Data) > 0
}

// Release frees the playable handle, if any, and empties the slot.
func (r *Recording) Release() {
	if r == nil {
		return
	}
	if r.Playable != nil {
		r.Playable.Release()
		r.Playable = nil
	}
	r.Data = nil
	r.MimeType = ""
}
