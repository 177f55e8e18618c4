package application

import "sync"

// ViewerState is the input of the full-size image overlay.
type ViewerState struct {
	IsOpen   bool
	ImageURL string
}

// Viewer tracks which image, if any, is shown at full size.
type Viewer struct {
	mu    sync.Mutex
	state ViewerState
}

// Open shows url in the overlay.
func (v *Viewer) Open(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = ViewerState{IsOpen: true, ImageURL: url}
}

// Close hides the overlay. The last url is kept so a closing animation can
// still render it.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.IsOpen = false
}

// State returns the current overlay input.
func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
