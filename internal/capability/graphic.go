package capability

import (
	"time"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/graphics"
	"github.com/stamforge/modhost/internal/timeouts"
)

// Graphic implements the `graphic` capability. On a server runtime,
// Engine is nil and every call fails with CodeNotImplemented, per
// spec.md §4.8 ("server exposes a stub that errors"); on a client
// runtime it forwards commands to the shared engine command channel.
type Graphic struct {
	Engine chan<- graphics.Command
}

func (g *Graphic) send(cmd graphics.Command) (graphics.Result, error) {
	if g.Engine == nil {
		return graphics.Result{}, errs.New(errs.CodeNotImplemented, "graphic capability is not available on a server runtime")
	}
	g.Engine <- cmd
	return <-cmd.Response, nil
}

func (g *Graphic) CreateWindow(width, height int, title string) error {
	cmd := graphics.NewCommand(graphics.CmdCreateWindow)
	cmd.Width, cmd.Height, cmd.Title = width, height, title
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) CloseWindow() error {
	_, err := g.send(graphics.NewCommand(graphics.CmdCloseWindow))
	return err
}

func (g *Graphic) SetWindowSize(width, height int) error {
	cmd := graphics.NewCommand(graphics.CmdSetWindowSize)
	cmd.Width, cmd.Height = width, height
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetTitle(title string) error {
	cmd := graphics.NewCommand(graphics.CmdSetTitle)
	cmd.Title = title
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetFullscreen(fullscreen bool) error {
	cmd := graphics.NewCommand(graphics.CmdSetFullscreen)
	cmd.Fullscreen = fullscreen
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetVisible(visible bool) error {
	cmd := graphics.NewCommand(graphics.CmdSetVisible)
	cmd.Visible = visible
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetPosition(x, y int) error {
	cmd := graphics.NewCommand(graphics.CmdSetPosition)
	cmd.X, cmd.Y = x, y
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetPositionMode(mode graphics.PositionMode) error {
	cmd := graphics.NewCommand(graphics.CmdSetPositionMode)
	cmd.PositionMode = mode
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) SetResizable(resizable bool) error {
	cmd := graphics.NewCommand(graphics.CmdSetResizable)
	cmd.Resizable = resizable
	_, err := g.send(cmd)
	return err
}

func (g *Graphic) GetMousePosition() (int, int, error) {
	res, err := g.send(graphics.NewCommand(graphics.CmdGetMousePosition))
	return res.MouseX, res.MouseY, err
}

func (g *Graphic) IsKeyPressed(key string) (bool, error) {
	cmd := graphics.NewCommand(graphics.CmdIsKeyPressed)
	cmd.Key = key
	res, err := g.send(cmd)
	return res.KeyPressed, err
}

func (g *Graphic) GetPressedKeys() ([]string, error) {
	res, err := g.send(graphics.NewCommand(graphics.CmdGetPressedKeys))
	return res.PressedKeys, err
}

func (g *Graphic) GetEngineInfo() (graphics.EngineInfo, error) {
	res, err := g.send(graphics.NewCommand(graphics.CmdGetEngineInfo))
	return res.EngineInfo, err
}

// Shutdown sends CmdShutdown and waits up to timeouts.GraphicsShutdown for
// the engine's acknowledgement; past that it returns errs.CodeTimeout
// without stopping the engine.
func (g *Graphic) Shutdown() error {
	cmd := graphics.NewCommand(graphics.CmdShutdown)
	if g.Engine == nil {
		_, err := g.send(cmd)
		return err
	}
	g.Engine <- cmd
	select {
	case <-cmd.Response:
		return nil
	case <-time.After(timeouts.GraphicsShutdown):
		return errs.New(errs.CodeTimeout, "graphics engine did not acknowledge shutdown in time")
	}
}
