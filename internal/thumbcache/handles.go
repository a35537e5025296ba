package thumbcache

// Handle is an in-memory, addressable copy of one artifact.
// Handles have no identity beyond the HandleMap that published them.
type Handle struct {
	ID          string `json:"handle"`
	ThumbnailID string `json:"thumbnail"`
	VideoPath   string `json:"video"`
	ContentType string `json:"contentType"`
	ETag        string `json:"-"`
	Data        []byte `json:"-"`
}

// HandleMap is an immutable set of handles in thumbnail map order.
type HandleMap struct {
	handles []Handle
	byID    map[string]int
	bytes   int64
}

func emptyHandleMap() *HandleMap {
	return newHandleMap(nil)
}

func newHandleMap(handles []Handle) *HandleMap {
	hm := &HandleMap{
		handles: handles,
		byID:    make(map[string]int, len(handles)),
	}
	for i, h := range handles {
		hm.byID[h.ID] = i
		hm.bytes += int64(len(h.Data))
	}
	return hm
}

// Len returns the number of handles.
func (hm *HandleMap) Len() int {
	if hm == nil {
		return 0
	}
	return len(hm.handles)
}

// Bytes returns the total artifact size held by the map.
func (hm *HandleMap) Bytes() int64 {
	if hm == nil {
		return 0
	}
	return hm.bytes
}

// Lookup returns the handle with the given id.
func (hm *HandleMap) Lookup(id string) (Handle, bool) {
	if hm == nil {
		return Handle{}, false
	}
	i, ok := hm.byID[id]
	if !ok {
		return Handle{}, false
	}
	return hm.handles[i], true
}

// VideoFor returns the source video of a handle.
func (hm *HandleMap) VideoFor(id string) (string, bool) {
	h, ok := hm.Lookup(id)
	return h.VideoPath, ok
}

// List returns the handles in thumbnail map order.
func (hm *HandleMap) List() []Handle {
	if hm == nil {
		return nil
	}
	out := make([]Handle, len(hm.handles))
	copy(out, hm.handles)
	return out
}

// DisplayMap returns handle id → video path.
func (hm *HandleMap) DisplayMap() map[string]string {
	out := make(map[string]string, hm.Len())
	if hm == nil {
		return out
	}
	for _, h := range hm.handles {
		out[h.ID] = h.VideoPath
	}
	return out
}
