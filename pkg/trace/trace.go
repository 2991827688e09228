// Package trace exports an execution history as a ZIP archive for later
// inspection: the program, the initial canvas, every step result as JSON and
// rendered PNGs.
package trace

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/google/uuid"

	"blocode/pkg/canvas"
	"blocode/pkg/interp"
)

// Trace is the content of an archive.
type Trace struct {
	ID        string          `json:"id"` // random, set by New
	Program   string          `json:"program"`
	Initial   *canvas.Initial `json:"initial"`
	Steps     []StepInfo      `json:"steps"`
	TotalCost int             `json:"totalCost"`
	Error     string          `json:"error,omitempty"`

	Final  image.Image   `json:"-"` // final.png
	Frames []image.Image `json:"-"` // step_NNN.png, only when steps were rendered
}

// StepInfo is the JSON form of an interp.ExecutionStep.
type StepInfo struct {
	Command  json.RawMessage      `json:"command"`
	Blocks   []interp.BlockResult `json:"blocks"`
	StepCost int                  `json:"stepCost"`
}

// State rebuilds the canvas of the step. Merge counters are not recorded and
// come back as zero.
func (s StepInfo) State(width, height int) (*canvas.State, error) {
	st := &canvas.State{Width: width, Height: height, Blocks: make(map[canvas.BlockID]*canvas.Block, len(s.Blocks))}
	for _, b := range s.Blocks {
		if b.Color != nil {
			st.Blocks[b.ID] = canvas.NewSolidBlock(b.X, b.Y, b.Width, b.Height, *b.Color)
			continue
		}
		img, err := png.Decode(bytes.NewReader(b.Pixels))
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		if img.Bounds().Dx() != b.Width || img.Bounds().Dy() != b.Height {
			return nil, fmt.Errorf("block %s: pixels are %v, want %dx%d", b.ID, img.Bounds().Size(), b.Width, b.Height)
		}
		st.Blocks[b.ID] = canvas.NewImageBlock(b.X, b.Y, img)
	}
	return st, nil
}

const manifestName = "trace.json"

func frameName(i int) string { return fmt.Sprintf("step_%03d.png", i) }

// New collects the parts of a run into a Trace. runErr may be nil.
func New(program string, initial *canvas.Initial, res *interp.Result, runErr error) (*Trace, error) {
	t := &Trace{ID: uuid.New().String(), Program: program, Initial: initial, TotalCost: res.TotalCost}
	if runErr != nil {
		t.Error = runErr.Error()
	}
	for _, st := range res.Steps {
		data, err := json.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("marshal step: %w", err)
		}
		var info StepInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("unmarshal step: %w", err)
		}
		t.Steps = append(t.Steps, info)
		if st.Raster != nil {
			t.Frames = append(t.Frames, st.Raster)
		}
	}
	t.Final = canvas.Render(res.Final())
	return t, nil
}

// Bytes serialises t into an in-memory ZIP archive.
func (t *Trace) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	manifest, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", manifestName, err)
	}
	if err := writeZipEntry(zw, manifestName, manifest); err != nil {
		return nil, err
	}
	for i, frame := range t.Frames {
		if err := writePNGEntry(zw, frameName(i), frame); err != nil {
			return nil, err
		}
	}
	if t.Final != nil {
		if err := writePNGEntry(zw, "final.png", t.Final); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// FromBytes reads an archive produced by Bytes.
func FromBytes(data []byte) (*Trace, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	manifest, err := readZipEntry(fileMap, manifestName)
	if err != nil {
		return nil, err
	}
	var t Trace
	if err := json.Unmarshal(manifest, &t); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", manifestName, err)
	}

	for i := 0; ; i++ {
		if _, ok := fileMap[frameName(i)]; !ok {
			break
		}
		img, err := readPNGEntry(fileMap, frameName(i))
		if err != nil {
			return nil, err
		}
		t.Frames = append(t.Frames, img)
	}
	if _, ok := fileMap["final.png"]; ok {
		if t.Final, err = readPNGEntry(fileMap, "final.png"); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Write stores t at path.
func Write(path string, t *Trace) error {
	data, err := t.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads the archive at path.
func Read(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func writePNGEntry(zw *zip.Writer, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return writeZipEntry(zw, name, buf.Bytes())
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func readPNGEntry(fileMap map[string]*zip.File, name string) (image.Image, error) {
	data, err := readZipEntry(fileMap, name)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
