//go:build !js

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strconv"

	fcolor "github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"blocode/pkg/canvas"
	"blocode/pkg/config"
	"blocode/pkg/interp"
	"blocode/pkg/lang"
	"blocode/pkg/logging"
	"blocode/pkg/score"
	"blocode/pkg/trace"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "log lexer, parser and interpreter decisions to stderr",
	}

	initialFlag = cli.StringFlag{
		Name:  "initial",
		Usage: "initial canvas descriptor (JSON); default: next to -reference, else a blank canvas",
	}
	referenceFlag = cli.StringFlag{
		Name:  "reference",
		Usage: "reference image to score the result against",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "print JSON instead of text",
	}
)

var (
	lexCommand = cli.Command{
		Action:    lexAction,
		Name:      "lex",
		Usage:     "Print the tokens of a program",
		ArgsUsage: "<program>",
	}
	parseCommand = cli.Command{
		Action:    parseAction,
		Name:      "parse",
		Usage:     "Check a program and print it in normal form",
		ArgsUsage: "<program>",
		Flags:     []cli.Flag{jsonFlag},
	}
	runCommand = cli.Command{
		Action:    runAction,
		Name:      "run",
		Usage:     "Execute a program and report its cost",
		ArgsUsage: "<program>",
		Flags: []cli.Flag{
			initialFlag,
			referenceFlag,
			jsonFlag,
			cli.StringFlag{Name: "out", Usage: "write the final canvas as PNG"},
			cli.BoolFlag{Name: "overlay", Usage: "draw block outlines and ids on -out"},
			cli.IntFlag{Name: "scale", Value: 1, Usage: "integer zoom for -out"},
			cli.StringFlag{Name: "heatmap", Usage: "write the difference heat map against -reference as PNG"},
			cli.StringFlag{Name: "trace", Usage: "write a ZIP trace of every step"},
		},
	}
	scoreCommand = cli.Command{
		Action:    scoreAction,
		Name:      "score",
		Usage:     "Compare an image with a reference",
		ArgsUsage: "<image> <reference>",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "cost", Usage: "program cost to add to the distance"},
		},
	}
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Description: `The dumpconfig command shows configuration values.`,
	}
)

// usageError marks errors caused by the command line rather than the input.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "blocode"
	app.Usage = "lex, parse and run block canvas programs"
	app.Flags = []cli.Flag{configFileFlag, verboseFlag}
	app.Commands = []cli.Command{lexCommand, parseCommand, runCommand, scoreCommand, dumpConfigCommand}
	app.Before = func(ctx *cli.Context) error {
		logging.SetLogger(logging.NewTextLogger(os.Stderr, ctx.GlobalBool(verboseFlag.Name)))
		return nil
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fcolor.New(fcolor.FgRed, fcolor.Bold).Fprintln(os.Stderr, err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// loadConfig returns the defaults overlaid with the -config file, if any.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Defaults
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func readProgram(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", usagef("%s: expected exactly one program file", ctx.Command.Name)
	}
	src, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return "", err
	}
	return string(src), nil
}

func lexAction(ctx *cli.Context) error {
	src, err := readProgram(ctx)
	if err != nil {
		return err
	}
	tokens, err := lang.Lex(src)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		fmt.Fprintln(ctx.App.Writer, tok)
	}
	return nil
}

func parseAction(ctx *cli.Context) error {
	src, err := readProgram(ctx)
	if err != nil {
		return err
	}
	program, err := lang.Parse(src)
	if err != nil {
		return err
	}
	if !ctx.Bool(jsonFlag.Name) {
		fmt.Fprint(ctx.App.Writer, lang.Format(program))
		return nil
	}
	enc := json.NewEncoder(ctx.App.Writer)
	for _, cmd := range program {
		if err := enc.Encode(cmd); err != nil {
			return err
		}
	}
	return nil
}

func runAction(ctx *cli.Context) error {
	src, err := readProgram(ctx)
	if err != nil {
		return err
	}
	if ctx.Int("scale") < 1 {
		return usagef("run: -scale must be at least 1")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	initial, err := cfg.Initial(ctx.String(initialFlag.Name), ctx.String(referenceFlag.Name))
	if err != nil {
		return err
	}
	opts, err := cfg.InterpOptions()
	if err != nil {
		return err
	}
	if ctx.String("trace") != "" {
		opts.RenderSteps = true
	}

	res, runErr := interp.Execute(context.Background(), initial, src, opts)
	if res == nil {
		return runErr
	}

	w := ctx.App.Writer
	if ctx.Bool(jsonFlag.Name) {
		if err := json.NewEncoder(w).Encode(res); err != nil {
			return err
		}
	} else {
		printSteps(w, res)
	}

	final := canvas.Render(res.Final())
	if out := ctx.String("out"); out != "" {
		var img image.Image = final
		if ctx.Bool("overlay") {
			img = canvas.RenderOverlay(res.Final(), final, color.Black)
		}
		if err := canvas.SavePNG(out, canvas.Scale(img, ctx.Int("scale"))); err != nil {
			return err
		}
	}
	if path := ctx.String("trace"); path != "" {
		tr, err := trace.New(src, initial, res, runErr)
		if err != nil {
			return err
		}
		if err := trace.Write(path, tr); err != nil {
			return err
		}
		logging.Logger().Info("trace written", "id", tr.ID, "path", path)
	}
	if ref := ctx.String(referenceFlag.Name); ref != "" {
		if err := reportScore(ctx, cfg, ref, final, res.TotalCost); err != nil {
			return err
		}
	}
	return runErr
}

func reportScore(ctx *cli.Context, cfg config.Config, ref string, final image.Image, cost int) error {
	path, err := cfg.ReferencePath(ref)
	if err != nil {
		return err
	}
	refImg, err := score.Load(path)
	if err != nil {
		return err
	}
	d, err := score.Distance(refImg, final)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Difference: %d\nTotal score: %d\n", d, score.Total(cost, d))

	if out := ctx.String("heatmap"); out != "" {
		hm, err := score.Heatmap(refImg, final, color.NRGBA{R: 255, A: 255})
		if err != nil {
			return err
		}
		return canvas.SavePNG(out, hm)
	}
	return nil
}

// printSteps renders the step table: one row per step, total cost as footer.
func printSteps(w io.Writer, res *interp.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Command", "Cost", "Blocks"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, st := range res.Steps {
		table.Append([]string{
			strconv.Itoa(i),
			st.Command.String(),
			strconv.Itoa(st.Cost),
			strconv.Itoa(len(st.State.Blocks)),
		})
	}
	table.SetFooter([]string{"", "Total", strconv.Itoa(res.TotalCost), ""})
	table.Render()
}

func scoreAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return usagef("score: expected <image> <reference>")
	}
	img, err := score.Load(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	ref, err := score.Load(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	d, err := score.Distance(ref, img)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Difference: %d\nTotal score: %d\n", d, score.Total(ctx.Int("cost"), d))
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := cfg.Marshal()
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
