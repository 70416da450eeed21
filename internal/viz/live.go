package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/recolor"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 300
	gifScale        = 3
	gifPath         = "verletsim.gif"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a solver from the Bubble Tea event loop.
type Model struct {
	solver        *physics.Solver
	director      *recolor.Director
	dt            float64
	name          string
	canvas        *Canvas
	running       bool
	ticks         int
	t             float64
	energyHistory []float64
	lastFrame     time.Time
	fps           float64
	recording     bool
	frames        []*image.Paletted
	showHelp      bool
	message       string
}

// NewModel wraps a solver. director may be nil when no image is configured.
func NewModel(s *physics.Solver, director *recolor.Director, dt float64, name string) Model {
	if director == nil {
		director = recolor.NewDirector(nil, 0)
	}
	return Model{
		solver:        s,
		director:      director,
		dt:            dt,
		name:          name,
		canvas:        NewCanvas(width, height),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.restart()
		case "c":
			if m.director.Recolor(m.solver) {
				m.message = "recolored"
			} else {
				m.message = "no image to recolor from"
			}
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			if elapsed := now.Sub(m.lastFrame).Seconds(); elapsed > 0 {
				m.fps = 0.9*m.fps + 0.1/elapsed
			}
		}
		m.lastFrame = now

		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.director.Advance(m.solver, m.dt) {
		m.message = "settled, recolored from image"
	}
	m.solver.Tick(m.dt)
	m.ticks++
	m.t += m.dt

	m.energyHistory = append(m.energyHistory, m.solver.KineticEnergy())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) restart() {
	m.director.Restart(m.solver)
	m.ticks = 0
	m.t = 0
	m.energyHistory = m.energyHistory[:0]
	m.message = "restarted"
}

func (m *Model) toggleRecording() {
	if m.recording {
		if err := m.saveGIF(); err != nil {
			m.message = "gif: " + err.Error()
		} else {
			m.message = "saved " + gifPath
		}
		m.recording = false
		m.frames = nil
		return
	}
	m.recording = true
	m.frames = make([]*image.Paletted, 0)
}

func (m *Model) draw() {
	DrawParticles(m.canvas, m.solver.Size(), m.solver.Particles())
}

func (m Model) Canvas() *Canvas { return m.canvas }

// DrawParticles clears c and plots every particle, scaling bounds to the
// full canvas.
func DrawParticles(c *Canvas, bounds physics.Vec2, particles []physics.Particle) {
	c.Clear()
	cw, ch := float64(c.Width*2), float64(c.Height*4)
	for _, p := range particles {
		x := int(p.Position.X / bounds.X * cw)
		y := int(p.Position.Y / bounds.Y * ch)
		c.SetColor(x, y, p.Color)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.recording:
		status = StatusRecording.Render("● REC")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	case m.solver.Phase() == physics.Filling:
		status = StatusRunning.Render(AnimatedSpinner(m.ticks) + " FILLING")
	}
	s.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	fill := float64(m.solver.Len()) / float64(max(m.solver.MaxObjects(), 1))
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Objects", fmt.Sprintf("%d / %d", m.solver.Len(), m.solver.MaxObjects()))
	row("Fill", ProgressBar(fill, 20))
	row("Phase", m.solver.Phase().String())
	row("Overflow", fmt.Sprintf("%d", m.solver.Grid().Overflow()))
	row("FPS", fmt.Sprintf("%.0f", m.fps))
	row("Workers", fmt.Sprintf("%d (%d bands)", m.solver.Workers(), m.solver.Bands()))
	source := "procedural"
	if m.solver.HasColors() {
		source = "image"
	}
	row("Palette", source)
	if m.director.HasImage() && !m.solver.HasColors() {
		timer := m.director.Timer()
		row("Settle", ProgressBar(timer.Elapsed()/timer.After, 20))
	}
	if m.message != "" {
		s.WriteString("\n" + MetricValue.Render(m.message) + "\n")
	}

	s.WriteString(helpStyle.Render("\n" + Separator(24) + "\nSP:Pause R:Restart C:Recolor\nG:Record  ?:Help     Q:Quit"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Restart the fill         ║
║  C        - Recolor from image now   ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// captureFrame rasterizes the particles themselves, not the braille cells,
// so recordings keep full color.
func (m *Model) captureFrame() {
	size := m.solver.Size()
	w, h := int(size.X)*gifScale, int(size.Y)*gifScale
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	bg := uint8(img.Palette.Index(color.Black))
	for i := range img.Pix {
		img.Pix[i] = bg
	}
	for _, p := range m.solver.Particles() {
		idx := uint8(img.Palette.Index(p.Color))
		x0 := int(p.Position.X) * gifScale
		y0 := int(p.Position.Y) * gifScale
		for dy := 0; dy < gifScale; dy++ {
			for dx := 0; dx < gifScale; dx++ {
				img.SetColorIndex(x0+dx, y0+dy, idx)
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// Run starts the full-screen program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
