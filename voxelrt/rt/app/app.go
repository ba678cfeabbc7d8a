package app

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/editor"
	"github.com/gekko3d/voxgrid/voxelrt/rt/renderer"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type App struct {
	Window   *glfw.Window
	Config   Config
	Log      core.Logger
	Backend  Backend
	Renderer *renderer.Renderer
	Camera   *core.FlyCamera
	Editor   *editor.Editor
	Profiler *Profiler
	HUD      *HUD

	MouseX, MouseY float64
	MouseCaptured  bool
	DebugMode      bool

	lastTime float64
	lastHit  *editor.HitResult
}

func NewApp(window *glfw.Window, cfg Config, log core.Logger) *App {
	return &App{
		Window:    window,
		Config:    cfg,
		Log:       log,
		Camera:    core.NewFlyCamera(),
		Profiler:  NewProfiler(),
		DebugMode: cfg.Debug,
	}
}

func (a *App) Init() error {
	backend, err := OpenBackend(a.Config.Backend, a.Window)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", a.Config.Backend, err)
	}
	a.Backend = backend

	w, h := a.Window.GetFramebufferSize()
	a.Renderer = renderer.New(backend.Device(),
		renderer.WithLogger(a.Log),
		renderer.WithSettings(a.Config.Settings),
		renderer.WithViewport(uint32(w), uint32(h)),
	)
	voxels, err := BuildScene(a.Config.Scene, a.Config.Grid)
	if err != nil {
		return err
	}
	if err := a.Renderer.Init(a.Config.Grid, voxels); err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	a.Renderer.SetViewingMode(a.Config.Mode)
	if err := a.Renderer.SetPointLights(a.Config.PointLights()); err != nil {
		return err
	}

	a.Editor = editor.NewEditor(a.Renderer)
	a.Editor.Track(voxels)

	if a.HUD, err = NewHUD(backend.Device()); err != nil {
		return fmt.Errorf("hud: %w", err)
	}
	a.Renderer.SetOverlay(a.HUD.Overlay())

	extent := a.Config.Grid.WorldExtent()
	a.Camera.Pos = mgl32.Vec3{extent.X() / 2, extent.Y() * 0.75, extent.Z() * 1.8}
	a.Camera.Speed = extent.Len() / 4
	a.Camera.Far = extent.Len() * 4
	a.Camera.LookAt(extent.Mul(0.5))

	a.Log.Infof("%s: %d voxels, grid %v x %v", backend.Name(), a.Editor.Count(), a.Config.Grid.ChunkNum, a.Config.Grid.ChunkDims)
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Backend.Resize(uint32(w), uint32(h))
	if err := a.Renderer.OnResize(uint32(w), uint32(h)); err != nil {
		a.Log.Errorf("resize: %v", err)
	}
}

// HandleCursor tracks the cursor and turns the camera while the mouse is
// captured.
func (a *App) HandleCursor(x, y float64) {
	if a.MouseCaptured {
		a.Camera.Rotate(x-a.MouseX, y-a.MouseY)
	}
	a.MouseX, a.MouseY = x, y
}

func (a *App) HandleKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	if action == glfw.Press {
		switch key {
		case glfw.KeyTab:
			a.MouseCaptured = !a.MouseCaptured
			if a.MouseCaptured {
				a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyEscape:
			a.Window.SetShouldClose(true)
		case glfw.KeyM:
			a.Renderer.SetViewingMode(a.Renderer.ViewingMode().Next())
		case glfw.KeyF3:
			a.DebugMode = !a.DebugMode
		case glfw.KeyL:
			s := a.Renderer.Settings()
			s.ShadowEnabled = !s.ShadowEnabled
			a.Renderer.SetSettings(s)
		case glfw.KeyR:
			s := a.Renderer.Settings()
			s.EnableReflections = !s.EnableReflections
			a.Renderer.SetSettings(s)
		case glfw.KeyT:
			s := a.Renderer.Settings()
			s.EnableTransparency = !s.EnableTransparency
			a.Renderer.SetSettings(s)
		case glfw.KeyDelete:
			if err := a.Renderer.ClearAllVoxels(); err != nil {
				a.Log.Errorf("clear: %v", err)
			}
			a.Editor.Forget()
		}
	}

	switch key {
	case glfw.KeyEqual, glfw.KeyKPAdd:
		a.Editor.AdjustBrush(1.1)
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		a.Editor.AdjustBrush(1 / 1.1)
	case glfw.KeyLeft, glfw.KeyRight, glfw.KeyUp, glfw.KeyDown, glfw.KeyPageUp, glfw.KeyPageDown:
		if _, err := a.Editor.MoveSelected(arrowDelta(key)); err != nil {
			a.Log.Errorf("move: %v", err)
		}
	}
}

func arrowDelta(key glfw.Key) [3]int {
	switch key {
	case glfw.KeyLeft:
		return [3]int{-1, 0, 0}
	case glfw.KeyRight:
		return [3]int{1, 0, 0}
	case glfw.KeyUp:
		return [3]int{0, 0, -1}
	case glfw.KeyDown:
		return [3]int{0, 0, 1}
	case glfw.KeyPageUp:
		return [3]int{0, 1, 0}
	case glfw.KeyPageDown:
		return [3]int{0, -1, 0}
	}
	return [3]int{}
}

// HandleClick places voxels with the left button, erases with the right and
// selects with the middle one.
func (a *App) HandleClick(button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if a.MouseCaptured || action != glfw.Press {
		return
	}
	ray := a.cursorRay()
	var err error
	switch button {
	case glfw.MouseButtonLeft:
		err = a.Editor.Place(a.Editor.Pick(ray))
	case glfw.MouseButtonRight:
		err = a.Editor.Erase(a.Editor.Pick(ray))
	case glfw.MouseButtonMiddle:
		a.Editor.Select(ray)
	}
	if err != nil {
		a.Log.Errorf("edit: %v", err)
	}
}

func (a *App) cursorRay() editor.Ray {
	w, h := a.Window.GetSize()
	x, y := a.MouseX, a.MouseY
	if a.MouseCaptured {
		x, y = float64(w)/2, float64(h)/2
	}
	return editor.PickRay(x, y, w, h, a.Camera)
}

func axis(w *glfw.Window, pos, neg glfw.Key) float32 {
	var v float32
	if w.GetKey(pos) == glfw.Press {
		v++
	}
	if w.GetKey(neg) == glfw.Press {
		v--
	}
	return v
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.lastTime)
	if a.lastTime == 0 {
		dt = 0
	}
	a.lastTime = now

	a.Camera.Move(
		axis(a.Window, glfw.KeyW, glfw.KeyS),
		axis(a.Window, glfw.KeyD, glfw.KeyA),
		axis(a.Window, glfw.KeySpace, glfw.KeyLeftShift),
		dt,
	)

	a.Profiler.BeginScope("pick")
	a.lastHit = a.Editor.Pick(a.cursorRay())
	a.Profiler.EndScope("pick")

	fw, fh := a.Window.GetFramebufferSize()
	s := a.Renderer.Settings()
	s.EditRadius = a.Editor.RingRadius(a.lastHit, a.Camera, fh)
	a.Renderer.SetSettings(s)

	a.HUD.Clear()
	if a.DebugMode {
		a.Profiler.SetCount("voxels", a.Editor.Count())
		a.Profiler.SetCount("chunks", visibleChunks(a.Camera, a.Renderer.Layout(), fw, fh))
		status := Status(a.HUD.FPS, a.Backend.Name(), a.Renderer.ViewingMode(), a.Editor.BrushRadius, a.Editor.Count(), a.Profiler.Lines())
		a.HUD.DrawText(status, 10, 10, 1.0, hudColor)
	}
	if err := a.HUD.Upload(fw, fh); err != nil {
		a.Log.Errorf("hud upload: %v", err)
	}
}

// visibleChunks counts grid chunks inside the camera frustum.
func visibleChunks(cam core.Camera, l volume.Layout, w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	vp := cam.ProjectionMatrix(float32(w) / float32(h)).Mul4(cam.ViewMatrix())
	return core.VisibleChunks(l.ChunkNum, l.ChunkSize, core.ExtractFrustum(vp))
}

func (a *App) Render() {
	err := a.Profiler.Time("draw", func() error {
		return a.Renderer.Draw(a.Camera, a.Backend.Surface())
	})
	if err != nil {
		a.Log.Errorf("draw: %v", err)
		return
	}
	a.Backend.Present()
	a.HUD.Tick(glfw.GetTime())
}

func (a *App) Release() {
	if a.HUD != nil {
		a.HUD.Release()
	}
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.Backend != nil {
		a.Backend.Release()
	}
}
