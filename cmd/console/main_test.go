package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocode/pkg/canvas"
	"blocode/pkg/interp"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	start, err := canvas.NewState(canvas.DefaultInitial(400, 400))
	require.NoError(t, err)
	return newSession(start, interp.Options{})
}

func TestSessionSteps(t *testing.T) {
	s := newTestSession(t)
	var out bytes.Buffer
	step := func(line string) string {
		out.Reset()
		assert.False(t, s.exec(line, &out), line)
		return out.String()
	}

	assert.Contains(t, step("cut [0] [x] [200]"), "cost 7, total 7")
	blocks := step(":blocks")
	assert.Contains(t, blocks, "0.0")
	assert.Contains(t, blocks, "255,255,255,255")

	assert.Contains(t, step("swap [0.0] [9]"), "No such block: 9")
	assert.Contains(t, step("color [0.0] [0,0,0,255]"), "halted")
	assert.Contains(t, step(":undo"), "total 7")

	assert.Contains(t, step("merge [0.0] [0.1]"), "total 9")
	assert.Contains(t, step(":undo"), "total 7")
	assert.Contains(t, step("color [0]"), "rejection state reached")
	assert.Contains(t, step(":cost"), "Cost: 7")

	png := filepath.Join(t.TempDir(), "canvas.png")
	assert.Contains(t, step(":save "+png), "saved")
	_, err := os.Stat(png)
	assert.NoError(t, err)

	step(":reset")
	assert.Contains(t, step(":cost"), "Cost: 0")
	assert.Contains(t, step(":bogus"), "unknown command")
	assert.Equal(t, "", step("   "))

	assert.True(t, s.exec(":quit", &out))
}

func TestSessionLoadAndScore(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "p.isl")
	require.NoError(t, os.WriteFile(prog, []byte("# two steps\ncut [0] [y] [100]\ncolor [0.0] [255,255,255,255]\n"), 0644))

	ref := filepath.Join(dir, "ref.png")
	s := newTestSession(t)
	require.NoError(t, canvas.SavePNG(ref, canvas.Render(s.in.State())))
	s.refPath = ref

	var out bytes.Buffer
	s.exec(":load "+prog, &out)
	assert.Equal(t, 7+20, s.in.TotalCost())

	out.Reset()
	s.exec(":cost", &out)
	assert.Contains(t, out.String(), "Difference: 0")
	assert.Contains(t, out.String(), "Total score: 27")
}

func TestCompleter(t *testing.T) {
	assert.Equal(t, []string{"color ", "cut "}, completer("c"))
	assert.Equal(t, []string{":undo"}, completer(":u"))
	assert.Empty(t, completer("x"))
}
