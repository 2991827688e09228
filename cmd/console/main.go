package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	fcolor "github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"blocode/pkg/canvas"
	"blocode/pkg/config"
	"blocode/pkg/interp"
	"blocode/pkg/lang"
	"blocode/pkg/logging"
	"blocode/pkg/score"
)

const (
	historyFile = ".blocode_history"
	prompt      = "blocode> "
)

const helpText = `Enter program lines to apply them one at a time.
  :blocks        list live blocks
  :cost          show the total cost (and score with a reference)
  :undo          revert the last step, or clear an error
  :load <file>   apply every line of a program file
  :save <file>   write the canvas as PNG
  :reset         start over from the initial canvas
  :quit          leave
`

var errColor = fcolor.New(fcolor.FgRed)

// session is one interactive run over a live interpreter.
type session struct {
	start *canvas.State
	opts  interp.Options
	in    *interp.Interpreter

	refPath string // reference image for :cost, optional
}

func newSession(start *canvas.State, opts interp.Options) *session {
	return &session{start: start, opts: opts, in: interp.New(start, opts)}
}

// exec handles one line of input and reports whether the user asked to quit.
func (s *session) exec(line string, w io.Writer) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line, w)
	}
	s.apply(line, w)
	return false
}

func (s *session) apply(src string, w io.Writer) {
	program, err := lang.Parse(src)
	if err != nil {
		errColor.Fprintln(w, err)
		return
	}
	for _, cmd := range program {
		st, err := s.in.Step(cmd)
		if err != nil {
			errColor.Fprintln(w, err)
			return
		}
		fmt.Fprintf(w, "%s: cost %d, total %d\n", cmd, st.Cost, s.in.TotalCost())
	}
}

func (s *session) command(line string, w io.Writer) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":help":
		fmt.Fprint(w, helpText)

	case ":quit", ":exit":
		return true

	case ":blocks":
		s.printBlocks(w)

	case ":cost":
		fmt.Fprintf(w, "Cost: %d\n", s.in.TotalCost())
		if s.refPath != "" {
			s.printScore(w)
		}

	case ":undo":
		if !s.in.Undo() {
			fmt.Fprintln(w, "nothing to undo")
			return false
		}
		fmt.Fprintf(w, "total %d\n", s.in.TotalCost())

	case ":reset":
		s.in = interp.New(s.start, s.opts)
		fmt.Fprintln(w, "canvas reset.")

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: :load <file>")
			return false
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			errColor.Fprintf(w, "cannot read %s: %v\n", fields[1], err)
			return false
		}
		s.apply(string(src), w)

	case ":save":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: :save <file>")
			return false
		}
		if err := canvas.SavePNG(fields[1], canvas.Render(s.in.State())); err != nil {
			errColor.Fprintln(w, err)
			return false
		}
		fmt.Fprintf(w, "saved %s\n", fields[1])

	default:
		fmt.Fprintln(w, "unknown command. Type :help for help.")
	}
	return false
}

func (s *session) printBlocks(w io.Writer) {
	st := s.in.State()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Block", "X", "Y", "Width", "Height", "Content"})
	for _, id := range st.IDs() {
		b := st.Blocks[id]
		content := "pixels"
		if c, ok := b.Solid(); ok {
			content = c.String()
		}
		table.Append([]string{string(id), strconv.Itoa(b.X), strconv.Itoa(b.Y),
			strconv.Itoa(b.Width), strconv.Itoa(b.Height), content})
	}
	table.Render()
}

func (s *session) printScore(w io.Writer) {
	ref, err := score.Load(s.refPath)
	if err != nil {
		errColor.Fprintln(w, err)
		return
	}
	d, err := score.Distance(ref, canvas.Render(s.in.State()))
	if err != nil {
		errColor.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, "Difference: %d\nTotal score: %d\n", d, score.Total(s.in.TotalCost(), d))
}

// completer offers keywords and REPL commands.
func completer(line string) []string {
	words := []string{"cut ", "color ", "swap ", "merge ", ":blocks", ":cost", ":undo", ":load ", ":save ", ":reset", ":quit", ":help"}
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, line) {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

func repl(s *session) {
	fmt.Println("blocode console. Type :help for help.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			errColor.Fprintln(os.Stderr, err)
			break
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.exec(line, os.Stdout) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "blocode-console"
	app.Usage = "apply block canvas commands interactively"
	app.ArgsUsage = "[program]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		cli.StringFlag{Name: "initial", Usage: "initial canvas descriptor (JSON)"},
		cli.StringFlag{Name: "reference", Usage: "reference image for :cost"},
		cli.BoolFlag{Name: "verbose", Usage: "log interpreter decisions to stderr"},
	}
	app.Action = func(ctx *cli.Context) error {
		logging.SetLogger(logging.NewTextLogger(os.Stderr, ctx.Bool("verbose")))

		cfg := config.Defaults
		if file := ctx.String("config"); file != "" {
			if err := config.Load(file, &cfg); err != nil {
				return err
			}
		}
		initial, err := cfg.Initial(ctx.String("initial"), ctx.String("reference"))
		if err != nil {
			return err
		}
		start, err := canvas.NewState(initial)
		if err != nil {
			return err
		}
		opts, err := cfg.InterpOptions()
		if err != nil {
			return err
		}

		s := newSession(start, opts)
		if ref := ctx.String("reference"); ref != "" {
			if s.refPath, err = cfg.ReferencePath(ref); err != nil {
				return err
			}
		}
		if ctx.NArg() > 0 {
			s.exec(":load "+ctx.Args().First(), os.Stdout)
		}
		repl(s)
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
