// Command chromakey replaces green-screen pixels of one 24 bit bitmap with the
// matching pixels of another and writes the result to a new bitmap.
//
//	chromakey <base.bmp> <overlay.bmp> <output.bmp>
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/anas-shakeel/go-chromakey/internal/bmp"
	"github.com/anas-shakeel/go-chromakey/internal/config"
	"github.com/anas-shakeel/go-chromakey/internal/filters"
	"github.com/anas-shakeel/go-chromakey/internal/logging"
	"github.com/anas-shakeel/go-chromakey/internal/report"
)

const version = "0.2.0"

const (
	exitOK        = 0
	exitFailure   = 1
	exitArguments = 2
)

// CLI defines the command-line interface.
type CLI struct {
	Config    string `name:"config" short:"c" help:"YAML settings file" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	Quiet     bool   `name:"quiet" short:"q" help:"Do not print bitmap summaries"`

	Composite CompositeCmd `cmd:"" default:"withargs" help:"Replace key-coloured pixels of BASE with OVERLAY and save to OUTPUT"`
	Generate  GenerateCmd  `cmd:"" help:"Write a bitmap filled with a single colour"`
	Info      InfoCmd      `cmd:"" help:"Print bitmap summaries"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// App carries what commands share once flags and settings are resolved.
type App struct {
	Stdout io.Writer
	Config *config.Config
}

// load reads a bitmap and prints its summary unless reports are disabled.
func (a *App) load(path string) (*bmp.BitmapImage, error) {
	b, err := bmp.ReadBitmap(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("loaded bitmap", "path", path, "width", b.Width(), "height", b.Height(), "extra", len(b.Extra))
	if a.Config.Report {
		if err := report.Print(a.Stdout, report.Summarize(b)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// CompositeCmd is the default command.
type CompositeCmd struct {
	Base    string `arg:"" help:"Image whose key-coloured pixels are replaced" type:"path"`
	Overlay string `arg:"" help:"Image providing the replacement pixels" type:"path"`
	Output  string `arg:"" help:"Where to write the result (.zst/.xz to compress)" type:"path"`

	Preview bool `help:"Draw the result in the terminal (small images only)"`
	Digest  bool `help:"Print the BLAKE3 digest of the written file"`
}

func (c *CompositeCmd) Run(app *App) error {
	base, err := app.load(c.Base)
	if err != nil {
		return err
	}
	overlay, err := app.load(c.Overlay)
	if err != nil {
		return err
	}

	rules, err := app.Config.KeyRules()
	if err != nil {
		return err
	}
	stats, err := filters.ChromaKey(base, overlay, rules...)
	if err != nil {
		return err
	}
	logging.Info("composited", "pixels", stats.Pixels, "replaced", stats.Replaced, "by_rule", stats.ByRule, "undecided", stats.Failed)

	if err := base.Save(c.Output); err != nil {
		return err
	}
	logging.Info("saved bitmap", "path", c.Output)

	if c.Digest || app.Config.Digest {
		sum, err := report.Digest(c.Output)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Stdout, "blake3:%s  %s\n", sum, c.Output)
	}
	if c.Preview || app.Config.Preview {
		if err := report.Preview(app.Stdout, base); err != nil {
			logging.Warn("preview skipped", "error", err)
		}
	}
	return nil
}

// GenerateCmd writes a solid-colour bitmap, handy for building key images.
type GenerateCmd struct {
	Output string `arg:"" help:"Where to write the bitmap" type:"path"`
	Width  int    `help:"Width in pixels" default:"4"`
	Height int    `help:"Height in pixels" default:"4"`
	Fill   []int  `help:"Colour as blue,green,red" default:"4,255,2" sep:","`
}

func (g *GenerateCmd) Validate() error {
	if len(g.Fill) != 3 {
		return errors.New("--fill needs three values: blue,green,red")
	}
	for _, v := range g.Fill {
		if v < 0 || v > 255 {
			return fmt.Errorf("--fill value %d out of range 0-255", v)
		}
	}
	return nil
}

func (g *GenerateCmd) Run(app *App) error {
	b, err := bmp.NewBitmap(g.Width, g.Height)
	if err != nil {
		return err
	}
	fill := bmp.Pixel{B: byte(g.Fill[0]), G: byte(g.Fill[1]), R: byte(g.Fill[2])}
	for i := 0; i < b.Pixels.Len(); i++ {
		if err := b.Pixels.Set(i, fill); err != nil {
			return err
		}
	}
	if err := b.Save(g.Output); err != nil {
		return err
	}
	logging.Info("generated bitmap", "path", g.Output, "width", g.Width, "height", g.Height, "fill", fill.String())
	return nil
}

// InfoCmd prints summaries of existing bitmaps.
type InfoCmd struct {
	Files []string `arg:"" help:"Bitmaps to inspect" type:"path"`
}

func (i *InfoCmd) Run(app *App) error {
	for _, path := range i.Files {
		b, err := bmp.ReadBitmap(path)
		if err != nil {
			return err
		}
		if err := report.Print(app.Stdout, report.Summarize(b)); err != nil {
			return err
		}
	}
	return nil
}

// VersionCmd prints the program version.
type VersionCmd struct{}

func (v *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Stdout, "chromakey version %s\n", version)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line in args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("chromakey"),
		kong.Description("Chroma-key compositing for 24 bit bitmaps."),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitFailure
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Program Input: %v\n", err)
		return exitArguments
	}

	cfg, err := resolveConfig(&cli)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Configuration: %v\n", err)
		return exitFailure
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	logging.InitLogger(stderr, level, format)

	if err := ctx.Run(&App{Stdout: stdout, Config: cfg}); err != nil {
		logging.Error("command failed", "command", ctx.Command(), "error", err)
		fmt.Fprintf(stderr, "ERROR: %s: %v\n", category(err), err)
		return exitFailure
	}
	return exitOK
}

// resolveConfig loads the settings file and applies command-line overrides.
func resolveConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.Quiet {
		cfg.Report = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// category names the failure for the one-line diagnostic.
func category(err error) string {
	switch {
	case errors.Is(err, bmp.ErrFileNotFound):
		return "Loading File"
	case errors.Is(err, bmp.ErrTruncatedHeader),
		errors.Is(err, bmp.ErrCorruptStream),
		errors.Is(err, bmp.ErrInvalidOffset),
		errors.Is(err, bmp.ErrTruncatedExtra),
		errors.Is(err, bmp.ErrTruncatedPixelData),
		errors.Is(err, bmp.ErrNotBitmap),
		errors.Is(err, bmp.ErrUnsupportedFormat):
		return "Reading Bitmap"
	case errors.Is(err, bmp.ErrSizeMismatch):
		return "Compositing"
	case errors.Is(err, bmp.ErrFileCreate), errors.Is(err, bmp.ErrWriteTruncated):
		return "Writing File"
	}
	return "Failed"
}
