// GoInsert - Place an image into the regions of a template and record them.
//
// Usage:
//
//	goinsert -w <region> [-w <region> ...] INSERT TARGET OUTPUT
//	goinsert -i <insert> -t <target> -o <output> [-w <region> ...]
//	goinsert -d <target> [--preview <path>]
//	goinsert init [--config <path>]
//	goinsert version
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/xob0t/GoInsert/pkg/codec"
	"github.com/xob0t/GoInsert/pkg/compositor"
	"github.com/xob0t/GoInsert/pkg/config"
	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/metadata"
	"github.com/xob0t/GoInsert/pkg/preview"
	"github.com/xob0t/GoInsert/pkg/raster"
	"github.com/xob0t/GoInsert/pkg/specset"
)

// version is set with -ldflags "-X main.version=...".
var version = ""

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		if err := runInit(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		if err := run(os.Args[1:]); err != nil {
			fatal(err)
		}
	}
}

// specList collects repeated -w values.
type specList []string

func (s *specList) String() string { return strings.Join(*s, " ") }

func (s *specList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	specs                              specList
	insertPath, targetPath, outputPath string
	display                            bool
	previewPath                        string
	configPath                         string
	verbose                            bool

	filter, background, duplicates, rotation string
	fuzz                                     float64

	previewFont, previewColor string
	previewFontSize           float64
}

func run(args []string) error {
	fs := flag.NewFlagSet("goinsert", flag.ExitOnError)
	var o options

	fs.Var(&o.specs, "w", "Insertion region WxH+X+Y[/degrees] (repeatable)")
	fs.Var(&o.specs, "insert-spec", "Insertion region WxH+X+Y[/degrees] (repeatable)")
	fs.StringVar(&o.insertPath, "i", "", "Image to insert")
	fs.StringVar(&o.insertPath, "insert-img", "", "Image to insert")
	fs.StringVar(&o.targetPath, "t", "", "Template image")
	fs.StringVar(&o.targetPath, "target-img", "", "Template image")
	fs.StringVar(&o.outputPath, "o", "", "Output image")
	fs.StringVar(&o.outputPath, "output-img", "", "Output image")
	fs.BoolVar(&o.display, "d", false, "List the regions recorded in the template")
	fs.BoolVar(&o.display, "display", false, "List the regions recorded in the template")
	fs.StringVar(&o.previewPath, "preview", "", "Also write a copy with the regions outlined")
	fs.StringVar(&o.previewFont, "preview-font", "", "TTF or OTF font for preview labels")
	fs.Float64Var(&o.previewFontSize, "preview-font-size", 0, "Preview label size in pixels")
	fs.StringVar(&o.previewColor, "preview-color", "", "Preview outline and label color")
	fs.StringVar(&o.configPath, "config", "", "Configuration file (.json, .yaml or .toml)")
	fs.StringVar(&o.filter, "filter", "", "Resampling filter: "+strings.Join(raster.FilterNames(), ", "))
	fs.Float64Var(&o.fuzz, "fuzz", 0, "Color distance still keyed as background")
	fs.StringVar(&o.background, "background", "", "Background color of the insert, overriding the file")
	fs.StringVar(&o.duplicates, "duplicates", "", "Repeated regions: abort or coalesce")
	fs.StringVar(&o.rotation, "rotation", "", "Unreadable rotations: lenient or strict")
	fs.BoolVar(&o.verbose, "v", false, "Log every placement")
	fs.BoolVar(&o.verbose, "verbose", false, "Log every placement")

	fs.Usage = printUsage
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		return err
	}
	log := cfg.Log.NewLogger(os.Stderr, o.verbose)
	defer log.Sync()

	c := &codec.Codec{DefaultBackground: cfg.DefaultBackgroundColor(), JPEGQuality: cfg.JPEGQuality}

	if o.display {
		if o.targetPath == "" && len(positional) == 1 {
			o.targetPath = positional[0]
		} else if len(positional) > 0 {
			return fmt.Errorf("display mode takes one image, got %d", len(positional)+1)
		}
		if o.targetPath == "" {
			printUsage()
			return fmt.Errorf("display mode needs an image (-d <target>)")
		}
		return runDisplay(o, cfg, c, log)
	}

	for _, p := range []*string{&o.insertPath, &o.targetPath, &o.outputPath} {
		if *p == "" && len(positional) > 0 {
			*p, positional = positional[0], positional[1:]
		}
	}
	if len(positional) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(positional, " "))
	}
	if o.insertPath == "" || o.targetPath == "" || o.outputPath == "" {
		printUsage()
		return fmt.Errorf("insert, target and output images are required")
	}
	return runInsert(o, cfg, c, log)
}

// parseInterspersed parses flags that may follow positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were given on the command line on top of it.
func loadConfig(fs *flag.FlagSet, o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var warnings []string
		var err error
		cfg, warnings, err = config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "filter":
			cfg.Filter = o.filter
		case "fuzz":
			cfg.Fuzz = o.fuzz
		case "background":
			cfg.InsertBackground = o.background
		case "duplicates":
			cfg.Duplicates = o.duplicates
		case "rotation":
			cfg.Rotation = o.rotation
		case "preview-font":
			cfg.Preview.Font = o.previewFont
		case "preview-font-size":
			cfg.Preview.FontSize = o.previewFontSize
		case "preview-color":
			cfg.Preview.Color = o.previewColor
		}
	})
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readImage(c *codec.Codec, path string, log *zap.Logger) (*raster.Image, error) {
	img, warnings, err := c.Read(path)
	if err != nil {
		return nil, err
	}
	logWarnings(log, warnings)
	log.Debug("read image",
		zap.String("path", path),
		zap.String("format", img.Format),
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
		zap.String("background", raster.FormatColor(img.Background)))
	return img, nil
}

func logWarnings(log *zap.Logger, warnings []codec.Warning) {
	for _, w := range warnings {
		log.Warn(w.Message, zap.String("path", w.Path))
	}
}

func runInsert(o options, cfg *config.Config, c *codec.Codec, log *zap.Logger) error {
	insert, err := readImage(c, o.insertPath, log)
	if err != nil {
		return err
	}
	target, err := readImage(c, o.targetPath, log)
	if err != nil {
		return err
	}

	b := &specset.Builder{
		Parser:     geometry.Parser{Rotation: cfg.RotationPolicy()},
		Duplicates: cfg.DuplicatePolicy(),
		Logger:     log,
	}
	set, err := b.Resolve(o.specs, target)
	if err != nil {
		return err
	}

	comp := compositor.New(compositor.Options{
		Filter:     cfg.ResampleFilter(),
		Fuzz:       cfg.Fuzz,
		Background: cfg.InsertBackgroundColor(),
		Logger:     log,
	})
	out, err := comp.Composite(insert, target, set)
	if err != nil {
		return err
	}

	warnings, err := c.Write(out, o.outputPath)
	if err != nil {
		return err
	}
	logWarnings(log, warnings)

	if o.previewPath != "" {
		if err := writePreview(c, out, set, o.previewPath, cfg.Preview.Options(log)); err != nil {
			return err
		}
	}

	fmt.Printf("Done: %s (%d insertions)\n", o.outputPath, len(set))
	return nil
}

func runDisplay(o options, cfg *config.Config, c *codec.Codec, log *zap.Logger) error {
	img, err := readImage(c, o.targetPath, log)
	if err != nil {
		return err
	}
	texts := metadata.ReadInsertions(img)
	tty := term.IsTerminal(int(os.Stdout.Fd()))

	if len(texts) == 0 {
		if tty {
			fmt.Printf("No insertion regions recorded in %s\n", o.targetPath)
		}
	} else if tty {
		printTable(texts)
	} else {
		// Bare descriptors, one per line, ready to be passed back with -w.
		for _, t := range texts {
			fmt.Println(t)
		}
	}

	if o.previewPath == "" {
		return nil
	}
	var entities []geometry.Entity
	for _, t := range texts {
		e, err := geometry.Parse(t)
		if err != nil {
			log.Warn("skipping unreadable recorded region", zap.Error(err))
			continue
		}
		entities = append(entities, e)
	}
	return writePreview(c, img, entities, o.previewPath, cfg.Preview.Options(log))
}

func printTable(texts []string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tOFFSET\tROTATION")
	for i, t := range texts {
		e, err := geometry.Parse(t)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\t\t(unreadable)\n", metadata.Key(i+1), t)
			continue
		}
		g := e.Geometry
		fmt.Fprintf(tw, "%s\t%dx%d\t%+d%+d\t%g\n", metadata.Key(i+1), g.Width, g.Height, g.X, g.Y, e.Rotation)
	}
	tw.Flush()
}

func writePreview(c *codec.Codec, img *raster.Image, entities []geometry.Entity, path string, opts preview.Options) error {
	r, err := preview.New(opts)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	annotated, err := r.Render(img, entities)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	// The preview is not a template.
	for _, k := range annotated.Attributes.Keys() {
		if k == metadata.InsertCount || strings.HasPrefix(k, metadata.KeyPrefix) {
			annotated.Attributes.Delete(k)
		}
	}
	warnings, err := c.Write(annotated, path)
	if err != nil {
		return err
	}
	logWarnings(opts.Logger, warnings)
	fmt.Printf("Preview: %s\n", path)
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var out string
	var force bool
	fs.StringVar(&out, "config", "goinsert.json", "Output path for the sample configuration")
	fs.BoolVar(&force, "f", false, "Overwrite an existing file")
	fs.BoolVar(&force, "force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}
	if err := os.WriteFile(out, []byte(config.ExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Created: %s\n", out)
	fmt.Printf("Run: goinsert --config %s -w 200x150+50+60/15 insert.png template.png out.png\n", out)
	return nil
}

func printVersion() {
	info, ok := debug.ReadBuildInfo()
	v := version
	if v == "" && ok {
		v = info.Main.Version
	}
	if v == "" {
		v = "(devel)"
	}
	fmt.Printf("goinsert %s\n", v)
	if !ok {
		return
	}
	fmt.Printf("   Compiled with %s\n", info.GoVersion)
	for _, dep := range info.Deps {
		switch dep.Path {
		case "github.com/disintegration/imaging", "golang.org/x/image", "go.uber.org/zap":
			fmt.Printf("   Using %s %s\n", dep.Path, dep.Version)
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`GoInsert - Insert an image into template regions

USAGE:
    goinsert [options] -w <region> [-w <region> ...] INSERT TARGET OUTPUT
    goinsert [options] -i <insert> -t <target> -o <output>
    goinsert -d <target> [--preview <path>]
    goinsert init [--config <path>] [--force]
    goinsert version

REGIONS:
    -w, --insert-spec <region>  WxH+X+Y or WxH+X+Y/degrees, repeatable.
                                The insert is rotated clockwise, fitted into
                                the box keeping its aspect ratio and centered.
                                Without -w the regions recorded in TARGET are
                                used again.

IMAGES:
    -i, --insert-img <path>     Image to insert
    -t, --target-img <path>     Template image
    -o, --output-img <path>     Output image (.png keeps the recorded regions)

DISPLAY:
    -d, --display               List the regions recorded in the template
    --preview <path>            Also write a copy with the regions outlined
    --preview-font <path>       TTF or OTF label font (default: Go Regular)
    --preview-font-size <px>    Label size (default: scales with the image)
    --preview-color <hex>       Outline and label color (default: #ff00ff)

OPTIONS:
    --config <path>             Configuration file (.json, .yaml or .toml)
    --filter <name>             Resampling filter (default: lanczos)
    --fuzz <distance>           Color distance still keyed as background
    --background <hex>          Insert background color, overriding the file
    --duplicates abort|coalesce Repeated regions (default: abort)
    --rotation lenient|strict   Unreadable rotations (default: lenient)
    -v, --verbose               Log every placement

EXAMPLES:
    goinsert -w 200x150+50+60/15 logo.png card.png out.png
    goinsert -w 100x100+0+0 -w 100x100+200+0 logo.png card.png out.png
    goinsert logo.png out.png again.png
    goinsert -d out.png
    goinsert -d out.png --preview layout.png
`)
}
