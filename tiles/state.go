package tiles

import "image"

// State is the lifecycle of one tile in the in-memory index.
// A tile is created Loading when a fetch (disk or network) is initiated and
// transitions once, terminally, to Loaded or Errored. An Errored tile is not
// retried for the lifetime of the cache instance; a fresh attempt only
// happens once the entry is absent again (e.g. after Clear).
type State interface {
	tileState()
}

type Loading struct{}

type Loaded struct {
	Image image.Image
}

type Errored struct {
	Msg string
}

func (Loading) tileState() {}
func (Loaded) tileState()  {}
func (Errored) tileState() {}
