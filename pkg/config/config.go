// Package config loads blocode settings from TOML.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"

	"blocode/pkg/canvas"
	"blocode/pkg/interp"
	"blocode/pkg/utils"
)

// Config holds the settings shared by the blocode binaries. TOML keys are the
// Go field names.
type Config struct {
	MergeCost     string // "min" or "max"
	ColorMode     string // "replace" or "over"
	RenderSteps   bool
	DefaultWidth  int
	DefaultHeight int
	ReferenceDir  string `toml:",omitempty"`
}

// Defaults reproduce the reference behaviour.
var Defaults = Config{
	MergeCost:     string(interp.MergeCostMin),
	ColorMode:     string(canvas.ColorReplace),
	DefaultWidth:  canvas.DefaultWidth,
	DefaultHeight: canvas.DefaultHeight,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Load decodes file over cfg. Keys absent from the file keep their value.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// Marshal encodes cfg as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return tomlSettings.Marshal(c)
}

func (c *Config) Validate() error {
	if _, err := c.InterpOptions(); err != nil {
		return err
	}
	if c.DefaultWidth <= 0 || c.DefaultHeight <= 0 {
		return fmt.Errorf("invalid default canvas size %dx%d", c.DefaultWidth, c.DefaultHeight)
	}
	return nil
}

// InterpOptions converts the interpreter settings.
func (c *Config) InterpOptions() (interp.Options, error) {
	mc, err := interp.ParseMergeCost(c.MergeCost)
	if err != nil {
		return interp.Options{}, err
	}
	cm, err := canvas.ParseColorMode(c.ColorMode)
	if err != nil {
		return interp.Options{}, err
	}
	return interp.Options{MergeCost: mc, ColorMode: cm, RenderSteps: c.RenderSteps}, nil
}

// ReferencePath resolves a reference image name against ReferenceDir and
// returns it as an absolute path.
func (c *Config) ReferencePath(name string) (string, error) {
	if c.ReferenceDir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(c.ReferenceDir, name)
	}
	full, _, err := utils.GetPathInfo(name)
	return full, err
}

// Initial returns the starting canvas for a run against reference. An
// explicit descriptor path wins; otherwise the descriptor next to the
// reference image is used when present, and the default canvas when not.
func (c *Config) Initial(descriptor, reference string) (*canvas.Initial, error) {
	if descriptor != "" {
		return canvas.LoadInitial(descriptor)
	}
	if reference != "" {
		ref, err := c.ReferencePath(reference)
		if err != nil {
			return nil, err
		}
		in, err := canvas.LoadInitial(utils.InitialDescriptorPath(ref))
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return in, err
		}
	}
	return canvas.DefaultInitial(c.DefaultWidth, c.DefaultHeight), nil
}
