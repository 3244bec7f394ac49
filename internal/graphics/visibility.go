package graphics

// waylandHideX/Y/Size are the emulated-hide geometry from spec.md §4.9/§9:
// a very large positive coordinate, shrunk to 1x1.
const (
	waylandHideX    = 1 << 20
	waylandHideY    = 1 << 20
	waylandHideSize = 1
)

// storedWindowState is the logical pre-hide state restored on show.
type storedWindowState struct {
	width, height int
	x, y          int
	hidden        bool
}

// VisibilityEmulator keeps a map of window -> stored state, so
// SetVisible(false) on a compositor that can't actually hide a window
// (Wayland) can be faked by moving it off-screen and shrinking it,
// without the script ever seeing the platform quirk (spec.md §4.9/§9).
type VisibilityEmulator struct {
	windows map[string]*storedWindowState
}

// NewVisibilityEmulator returns an empty emulator.
func NewVisibilityEmulator() *VisibilityEmulator {
	return &VisibilityEmulator{windows: make(map[string]*storedWindowState)}
}

// Track registers a window's current real geometry so it can be
// restored later.
func (v *VisibilityEmulator) Track(windowID string, width, height, x, y int) {
	v.windows[windowID] = &storedWindowState{width: width, height: height, x: x, y: y}
}

// Hide returns the geometry to apply to emulate visible=false: the
// window's state is stored and the off-screen 1x1 geometry is returned.
func (v *VisibilityEmulator) Hide(windowID string) (width, height, x, y int) {
	s, ok := v.windows[windowID]
	if !ok {
		s = &storedWindowState{}
		v.windows[windowID] = s
	}
	s.hidden = true
	return waylandHideSize, waylandHideSize, waylandHideX, waylandHideY
}

// Show returns the geometry to restore after a prior Hide.
func (v *VisibilityEmulator) Show(windowID string) (width, height, x, y int) {
	s, ok := v.windows[windowID]
	if !ok {
		return 0, 0, 0, 0
	}
	s.hidden = false
	return s.width, s.height, s.x, s.y
}

// IsHidden reports the logical (not real) visibility state.
func (v *VisibilityEmulator) IsHidden(windowID string) bool {
	s, ok := v.windows[windowID]
	return ok && s.hidden
}
