package ui

import (
	"fmt"
	"log/slog"
	"time"

	"asciiflight/internal/geo"
	"asciiflight/internal/poi"
	"asciiflight/internal/render"
	"asciiflight/internal/travel"

	"github.com/gdamore/tcell/v2"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	ViewModePanels ViewMode = iota
	ViewModeMapOnly
)

const (
	listWidth    = 36
	listHeight   = 12
	detailWidth  = 48
	detailHeight = 10
)

// Options configures the application
type Options struct {
	Map      MapOptions
	MinZoom  float64
	MaxZoom  float64
	PanStep  float64
	SpeedKms float64

	// Observer receives render statistics, OnLeg travel legs and
	// OnPOIError failed place queries; all optional
	Observer   render.StatsObserver
	OnLeg      func(travel.Leg)
	OnPOIError func(category string)
}

// App is the main application controller
type App struct {
	screen      tcell.Screen
	mapView     *MapView
	listView    *ListView
	detailView  *DetailView
	animator    *travel.Animator
	currentView ViewMode
	travelling  bool
	minZoom     float64
	maxZoom     float64
	panStep     float64
	events      chan tcell.Event
	quit        chan struct{}
}

// NewApp creates a new application on the terminal
func NewApp(shapes []geo.Shape, places poi.Source, opts Options) (*App, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}

	return newApp(screen, shapes, places, opts), nil
}

// newApp wires the views onto an initialized screen
func newApp(screen tcell.Screen, shapes []geo.Shape, places poi.Source, opts Options) *App {
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	width, height := screen.Size()

	mapView := NewMapView(width, height, shapes, places, opts.Map)
	if opts.Observer != nil {
		mapView.SetObserver(opts.Observer)
	}
	mapView.onPOIError = opts.OnPOIError

	animator := travel.New(opts.SpeedKms)
	animator.Steps = mapView.steps
	animator.OnLeg = opts.OnLeg

	a := &App{
		screen:      screen,
		mapView:     mapView,
		listView:    NewListView(0, height-listHeight, listWidth, listHeight),
		detailView:  NewDetailView(0, 0, detailWidth, detailHeight),
		animator:    animator,
		currentView: ViewModePanels,
		minZoom:     opts.MinZoom,
		maxZoom:     opts.MaxZoom,
		panStep:     opts.PanStep,
		quit:        make(chan struct{}),
	}
	if a.panStep <= 0 {
		a.panStep = 0.1
	}
	return a
}

// Run starts the application main loop
func (a *App) Run() error {
	defer a.cleanup()

	a.events = make(chan tcell.Event, 16)
	go a.screen.ChannelEvents(a.events, a.quit)

	ticker := time.NewTicker(100 * time.Millisecond) // 10 FPS
	defer ticker.Stop()

	a.render()
	for {
		select {
		case <-a.quit:
			return nil

		case ev, ok := <-a.events:
			if !ok || !a.handleEvent(ev) {
				return nil // Quit requested
			}

		case <-ticker.C:
			a.render()
		}
	}
}

// update refreshes the panels from the map state
func (a *App) update() {
	cam := a.mapView.Camera()
	origin := a.mapView.Origin()

	a.listView.Update(poi.SortByDistance(a.mapView.VisiblePlaces(), origin))

	dest, target := a.destination()
	a.detailView.SetState(InfoState{
		Origin:     origin,
		Center:     cam.Center,
		Zoom:       cam.Zoom,
		Mercator:   a.mapView.Mercator(),
		Target:     target,
		RouteKm:    geo.Distance(origin, dest),
		Travelling: a.travelling,
	})
}

// destination is where Enter flies to: the selected place, or the camera
// center when nothing is selected
func (a *App) destination() (geo.GeoPoint, string) {
	if sel := a.listView.GetSelected(); sel != nil {
		return sel.Point, sel.Label()
	}
	return a.mapView.Camera().Center, ""
}

// render draws one frame to the screen
func (a *App) render() {
	a.mapView.Draw(a.screen)
	a.update()

	if a.currentView == ViewModePanels {
		a.detailView.Draw(a.screen)
		a.listView.Draw(a.screen)
	}

	a.screen.Show()
}

// handleEvent processes keyboard events
func (a *App) handleEvent(ev tcell.Event) bool {
	cam := a.mapView.Camera()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape:
			if a.listView.GetSelected() != nil {
				a.listView.ClearSelection()
			} else {
				a.stop()
				return false
			}

		case tcell.KeyEnter:
			a.fly()

		case tcell.KeyUp:
			cam.Pan(0, a.panStep)
		case tcell.KeyDown:
			cam.Pan(0, -a.panStep)
		case tcell.KeyLeft:
			cam.Pan(-a.panStep, 0)
		case tcell.KeyRight:
			cam.Pan(a.panStep, 0)

		case tcell.KeyTab:
			a.listView.SelectNext()
		case tcell.KeyBacktab:
			a.listView.SelectPrev()

		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				a.stop()
				return false

			case 'w':
				cam.Pan(0, a.panStep)
			case 's':
				cam.Pan(0, -a.panStep)
			case 'a':
				cam.Pan(-a.panStep, 0)
			case 'd':
				cam.Pan(a.panStep, 0)

			case 'z', '-', '_':
				a.zoom(2)
			case 'x', '+', '=':
				a.zoom(0.5)

			case 'j':
				a.listView.SelectNext()
			case 'k':
				a.listView.SelectPrev()

			case 'p':
				a.mapView.ToggleProjection()
			case 'g':
				a.mapView.ToggleGraticule()
			case 'e':
				a.mapView.SetOrigin(cam.Center)
			case 'h':
				if a.currentView == ViewModePanels {
					a.currentView = ViewModeMapOnly
				} else {
					a.currentView = ViewModePanels
				}

			case 'r', 'R':
				a.screen.Sync()
			}
		}

	case *tcell.EventResize:
		a.handleResize()
	}

	a.render()
	return true
}

// zoom multiplies the zoom and clamps it to the configured range
func (a *App) zoom(factor float64) {
	cam := a.mapView.Camera()
	cam.ZoomBy(factor)
	if a.minZoom > 0 {
		cam.Zoom = max(cam.Zoom, a.minZoom)
	}
	if a.maxZoom > 0 {
		cam.Zoom = min(cam.Zoom, a.maxZoom)
	}
}

// fly animates the camera from the route origin to the destination. The
// animation blocks the loop; pending key events are only checked for Esc
// and q, which abort the flight where it is.
func (a *App) fly() {
	dest, target := a.destination()
	origin := a.mapView.Origin()
	slog.Info("flight started", "origin", origin, "destination", dest, "target", target)

	a.travelling = true
	defer func() {
		a.travelling = false
		a.mapView.SetRoute(nil)
	}()

	completed := a.animator.Animate(a.mapView.Camera(), []geo.GeoPoint{origin, dest}, func(_ *geo.Camera, preview []geo.GeoPoint) bool {
		if a.interrupted() {
			return false
		}
		a.mapView.SetRoute(preview)
		a.render()
		return true
	})

	if completed {
		a.mapView.SetOrigin(dest)
		a.listView.ClearSelection()
		slog.Info("flight completed", "destination", dest)
	} else {
		slog.Info("flight aborted", "at", a.mapView.Camera().Center)
	}
}

// interrupted drains pending events without blocking. Resizes are applied
// so the flight keeps filling the screen.
func (a *App) interrupted() bool {
	for {
		select {
		case ev, ok := <-a.events:
			if !ok {
				return true
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || (ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
					return true
				}
			case *tcell.EventResize:
				a.handleResize()
			}
		default:
			return false
		}
	}
}

// handleResize handles terminal resize events
func (a *App) handleResize() {
	a.screen.Sync()
	_, height := a.screen.Size()

	a.listView.UpdateDimensions(0, height-listHeight, listWidth, listHeight)
	a.detailView.UpdateDimensions(0, 0, detailWidth, detailHeight)
	slog.Debug("screen resized", "height", height)
}

func (a *App) stop() {
	select {
	case <-a.quit:
	default:
		close(a.quit)
	}
}

// cleanup performs cleanup before exit
func (a *App) cleanup() {
	a.stop()
	if a.screen != nil {
		a.screen.Fini()
	}
}
