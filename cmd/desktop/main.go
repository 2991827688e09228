package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	lru "github.com/hashicorp/golang-lru"

	"blocode/pkg/canvas"
	"blocode/pkg/config"
	"blocode/pkg/interp"
	"blocode/pkg/logging"
	"blocode/pkg/trace"
	"blocode/pkg/utils"
)

const (
	statusHeight = 32 // room below the canvas for the step line
	cachedImages = 64 // uploaded step images kept on the GPU
)

// frame is one recorded step as the viewer shows it.
type frame struct {
	label string
	state *canvas.State
}

// Viewer replays recorded steps. ←/→ move through them, wrapping at either
// end; B toggles the block overlay.
type Viewer struct {
	frames     []frame
	index      int
	showBlocks bool
	errText    string

	width, height int
	cache         *lru.Cache // cacheKey -> *ebiten.Image
}

type cacheKey struct {
	index  int
	blocks bool
}

func newViewer(frames []frame, width, height int, errText string) *Viewer {
	cache, _ := lru.NewWithEvict(cachedImages, func(_, value interface{}) {
		value.(*ebiten.Image).Deallocate()
	})
	return &Viewer{
		frames:  frames,
		width:   width,
		height:  height,
		errText: errText,
		cache:   cache,
	}
}

// move advances by delta steps, wrapping around.
func (v *Viewer) move(delta int) {
	n := len(v.frames)
	if n == 0 {
		return
	}
	v.index = ((v.index+delta)%n + n) % n
}

func (v *Viewer) status() string {
	if len(v.frames) == 0 {
		return "no steps"
	}
	return fmt.Sprintf("Step %d/%d: %s", v.index, len(v.frames)-1, v.frames[v.index].label)
}

// picture renders the current frame, with outlines when the overlay is on.
func (v *Viewer) picture() image.Image {
	st := v.frames[v.index].state
	img := canvas.Render(st)
	if !v.showBlocks {
		return img
	}
	return canvas.RenderOverlay(st, img, color.NRGBA{R: 255, A: 255})
}

func (v *Viewer) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		v.move(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		v.move(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		v.showBlocks = !v.showBlocks
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if len(v.frames) > 0 {
		key := cacheKey{v.index, v.showBlocks}
		var img *ebiten.Image
		if cached, ok := v.cache.Get(key); ok {
			img = cached.(*ebiten.Image)
		} else {
			img = ebiten.NewImageFromImage(v.picture())
			v.cache.Add(key, img)
		}
		screen.DrawImage(img, nil)
	}
	ebitenutil.DebugPrintAt(screen, v.status(), 2, v.height+2)
	if v.errText != "" {
		ebitenutil.DebugPrintAt(screen, v.errText, 2, v.height+16)
	}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height + statusHeight
}

// framesFromResult turns an interpreter result into viewer frames.
func framesFromResult(res *interp.Result) []frame {
	frames := make([]frame, 0, len(res.Steps))
	for _, st := range res.Steps {
		frames = append(frames, frame{
			label: fmt.Sprintf("%s; Step cost: %d", st.Command, st.Cost),
			state: st.State,
		})
	}
	return frames
}

// framesFromTrace rebuilds viewer frames from a trace archive.
func framesFromTrace(tr *trace.Trace) ([]frame, error) {
	frames := make([]frame, 0, len(tr.Steps))
	for i, info := range tr.Steps {
		st, err := info.State(tr.Initial.Width, tr.Initial.Height)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		frames = append(frames, frame{
			label: fmt.Sprintf("%s; Step cost: %d", strings.TrimSpace(string(info.Command)), info.StepCost),
			state: st,
		})
	}
	return frames, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: desktop <program.isl | trace.zip> [reference.png]")
		os.Exit(2)
	}
	logging.SetLogger(logging.NewTextLogger(os.Stderr, false))

	fullPath, _, err := utils.GetPathInfo(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", os.Args[1], err)
	}

	var (
		frames  []frame
		w, h    int
		errText string
	)
	title := "blocode viewer"
	if strings.HasSuffix(fullPath, ".zip") {
		tr, err := trace.Read(fullPath)
		if err != nil {
			log.Fatalf("Failed to read trace: %v", err)
		}
		if frames, err = framesFromTrace(tr); err != nil {
			log.Fatalf("Failed to restore trace: %v", err)
		}
		w, h, errText = tr.Initial.Width, tr.Initial.Height, tr.Error
		title += " - trace " + tr.ID
	} else {
		src, err := os.ReadFile(fullPath)
		if err != nil {
			log.Fatalf("Failed to read program: %v", err)
		}
		cfg := config.Defaults
		reference := ""
		if len(os.Args) > 2 {
			reference = os.Args[2]
		}
		initial, err := cfg.Initial("", reference)
		if err != nil {
			log.Fatalf("Failed to load initial canvas: %v", err)
		}
		opts, err := cfg.InterpOptions()
		if err != nil {
			log.Fatal(err)
		}
		res, runErr := interp.Execute(context.Background(), initial, string(src), opts)
		if res == nil {
			log.Fatalf("Program rejected: %v", runErr)
		}
		if runErr != nil {
			errText = runErr.Error()
		}
		frames, w, h = framesFromResult(res), initial.Width, initial.Height
	}

	v := newViewer(frames, w, h, errText)
	v.index = len(frames) - 1

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(2*w, 2*(h+statusHeight))
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
