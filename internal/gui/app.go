package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/recolor"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
	ColError   = rl.NewColor(220, 80, 80, 255)
)

const frameDt = 1.0 / 60

type App struct {
	Solver    *physics.Solver
	Director  *recolor.Director
	ImagePath string
	Running   bool

	layout Layout
	status string
}

// NewApp wraps a solver. director may be nil when no image is used.
func NewApp(s *physics.Solver, director *recolor.Director, imagePath string) *App {
	if director == nil {
		director = recolor.NewDirector(nil, 0)
	}
	return &App{
		Solver:    s,
		Director:  director,
		ImagePath: imagePath,
		Running:   true,
		layout:    NewLayout(s.Size()),
	}
}

// Run opens a window sized to the solver bounds and blocks until it closes.
func Run(s *physics.Solver, director *recolor.Director, imagePath string) {
	app := NewApp(s, director, imagePath)
	rl.InitWindow(app.layout.Width, app.layout.Height, "verletsim")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)
	rl.SetExitKey(rl.KeyQ)

	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Director.Restart(a.Solver)
		a.status = ""
	}
	if rl.IsKeyPressed(rl.KeyO) {
		a.reloadImage()
	}

	if a.Running {
		a.Director.Advance(a.Solver, frameDt)
		a.Solver.Tick(frameDt)
	}
}

func (a *App) reloadImage() {
	if a.ImagePath == "" {
		a.status = "no image configured"
		return
	}
	img, err := recolor.LoadImage(a.ImagePath)
	if err == nil {
		err = a.Director.Load(a.Solver, img)
	}
	if err != nil {
		a.status = err.Error()
		return
	}

	a.status = ""
	a.layout = NewLayout(a.Solver.Size())
	rl.SetWindowSize(int(a.layout.Width), int(a.layout.Height))
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.drawBounds()
	a.drawParticles()
	a.drawHeader()

	rl.EndDrawing()
}

func (a *App) drawHeader() {
	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), padding, padding, 16, ColText)
	rl.DrawText(fmt.Sprintf("%d/%d objects", a.Solver.Len(), a.Solver.MaxObjects()), padding+90, padding, 16, ColSelect)

	if !a.Running {
		rl.DrawText("PAUSED", a.layout.Width-padding-70, padding, 16, ColTextDim)
	}
	if a.status != "" {
		rl.DrawText(a.status, padding, padding+18, 12, ColError)
	}
}
