package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/voxgrid/voxelrt/rt/app"
	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/shaders"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/naga"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "voxgrid.toml", "TOML configuration file")
	backend := flag.String("backend", "", "Device backend: webgpu, opengl or host")
	scene := flag.String("scene", "", "Initial scene preset")
	debug := flag.Bool("debug", false, "Enable debug logging and the HUD")
	headless := flag.Int("headless", 0, "Render this many frames on the host device and exit")
	checkShaders := flag.Bool("check-shaders", false, "Compile the embedded WGSL and exit")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to a file and exit")
	flag.Parse()

	log := core.NewDefaultLogger("voxgrid", *debug)

	if *checkShaders {
		os.Exit(runShaderCheck(log))
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *scene != "" {
		cfg.Scene = *scene
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}
	if *writeConfig != "" {
		if err := app.SaveConfig(*writeConfig, cfg); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	if *headless > 0 || cfg.Backend == app.BackendHost {
		frames := max(*headless, 1)
		if _, err := app.RunHeadless(cfg, frames, log.Named("headless"), os.Stdout); err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	app.WindowHints(cfg.Backend)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, log.Named(cfg.Backend))
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.HandleCursor(xpos, ypos)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleKey(key, action, mods)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleClick(button, action, mods)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}

func runShaderCheck(log core.Logger) int {
	failed := 0
	for _, label := range shaders.Labels() {
		src, _ := shaders.WGSL(label)
		spirv, err := naga.Compile(src)
		if err != nil {
			log.Errorf("%s: %v", label, err)
			failed++
			continue
		}
		fmt.Printf("%-12s ok, %d bytes of SPIR-V\n", label, len(spirv))
	}
	if failed > 0 {
		return 1
	}
	return 0
}
