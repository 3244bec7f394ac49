package graphics

// FakeEngine is a test double standing in for the real OS-main-thread
// engine: it answers commands with canned results and lets tests push
// events onto the bus, without opening any actual window. Used by this
// package's own tests.
type FakeEngine struct {
	Commands chan Command
	Events   *Bus

	// Info is returned verbatim from GetEngineInfo.
	Info EngineInfo
	// MouseX/MouseY are returned from GetMousePosition.
	MouseX, MouseY int
	// PressedKeys is returned from GetPressedKeys / IsKeyPressed.
	PressedKeys map[string]bool

	// WindowOpen, Width/Height, Title, Fullscreen, X/Y, PositionMode,
	// and Resizable mirror the last window state a command set, so
	// tests can assert on it the same way they assert on Visibility.
	WindowOpen   bool
	Width        int
	Height       int
	Title        string
	Fullscreen   bool
	X, Y         int
	PositionMode PositionMode
	Resizable    bool

	Visibility *VisibilityEmulator
	done       chan struct{}
}

// NewFakeEngine returns a FakeEngine with a command queue of the given
// capacity and an event bus of the given capacity.
func NewFakeEngine(cmdCapacity, eventCapacity int) *FakeEngine {
	return &FakeEngine{
		Commands:    make(chan Command, cmdCapacity),
		Events:      NewBus(eventCapacity),
		PressedKeys: make(map[string]bool),
		Visibility:  NewVisibilityEmulator(),
		done:        make(chan struct{}),
	}
}

// Run processes commands until Stop is called, simulating the single
// OS-main-thread loop spec.md §4.9/§5 describes.
func (f *FakeEngine) Run() {
	for {
		select {
		case cmd := <-f.Commands:
			f.handle(cmd)
		case <-f.done:
			return
		}
	}
}

// Stop ends Run.
func (f *FakeEngine) Stop() { close(f.done) }

func (f *FakeEngine) handle(cmd Command) {
	switch cmd.Kind {
	case CmdCreateWindow:
		f.WindowOpen = true
		f.Width, f.Height, f.Title = cmd.Width, cmd.Height, cmd.Title
		cmd.Response <- Result{}
	case CmdCloseWindow:
		f.WindowOpen = false
		cmd.Response <- Result{}
	case CmdSetWindowSize:
		f.Width, f.Height = cmd.Width, cmd.Height
		cmd.Response <- Result{}
	case CmdSetTitle:
		f.Title = cmd.Title
		cmd.Response <- Result{}
	case CmdSetFullscreen:
		f.Fullscreen = cmd.Fullscreen
		cmd.Response <- Result{}
	case CmdSetVisible:
		if !cmd.Visible {
			f.Visibility.Hide("main")
		} else {
			f.Visibility.Show("main")
		}
		cmd.Response <- Result{}
	case CmdSetPosition:
		f.X, f.Y = cmd.X, cmd.Y
		cmd.Response <- Result{}
	case CmdSetPositionMode:
		f.PositionMode = cmd.PositionMode
		cmd.Response <- Result{}
	case CmdSetResizable:
		f.Resizable = cmd.Resizable
		cmd.Response <- Result{}
	case CmdGetMousePosition:
		cmd.Response <- Result{MouseX: f.MouseX, MouseY: f.MouseY}
	case CmdIsKeyPressed:
		cmd.Response <- Result{KeyPressed: f.PressedKeys[cmd.Key]}
	case CmdGetPressedKeys:
		keys := make([]string, 0, len(f.PressedKeys))
		for k, pressed := range f.PressedKeys {
			if pressed {
				keys = append(keys, k)
			}
		}
		cmd.Response <- Result{PressedKeys: keys}
	case CmdGetEngineInfo:
		cmd.Response <- Result{EngineInfo: f.Info}
	case CmdShutdown:
		f.WindowOpen = false
		cmd.Response <- Result{}
	default:
		cmd.Response <- Result{}
	}
}
