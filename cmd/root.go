package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kiesman99/mapexport/internal/config"
	"github.com/kiesman99/mapexport/internal/export"
	"github.com/kiesman99/mapexport/internal/logging"
	"github.com/kiesman99/mapexport/internal/sink"
	"github.com/kiesman99/mapexport/pkg/tile"
)

var cfgFile string

// version is overridden at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mapexport",
	Short: "Export a map region as a single image",
	Long: `mapexport downloads the map tiles covering a bounding box, stitches them
together, crops the result to the box and writes it as PNG, JPEG or WebP.

Without --zoom the zoom level is chosen so the image is roughly 1024 pixels
wide; --detail moves up to two levels away from that choice. Optionally a
world file with georeferencing data is written next to the image.

Examples:
  # Export Berlin at the automatically chosen zoom level
  mapexport --bbox 13.3,52.45,13.5,52.55 -o berlin.png

  # One level more detail, as JPEG, with a world file
  mapexport --bbox 13.3,52.45,13.5,52.55 --detail 1 -f jpeg -w -o berlin.jpg

  # Explicit zoom and tile server
  mapexport --min-lat 37.37 --min-lon -122.92 --max-lat 38.23 --max-lon -121.56 --zoom 10 --url https://tile.openstreetmap.org/{z}/{x}/{y}.png -o bay.png

  # A box crossing the antimeridian, uploaded to S3
  mapexport --bbox 170,-20,-170,-10 --upload s3://maps/exports/

  # Start HTTP server
  mapexport serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !hasBounds(cmd) {
			return cmd.Help()
		}
		return runExport(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mapexport.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("log-development", false, "human readable development logging")

	// Tile source options shared by all commands
	rootCmd.PersistentFlags().StringP("url", "u", "https://tile.openstreetmap.org/{z}/{x}/{y}.png", "tile URL template with {z}, {x}, {y} placeholders")
	rootCmd.PersistentFlags().String("user-agent", "mapexport/"+version, "HTTP User-Agent header")
	rootCmd.PersistentFlags().StringToString("header", nil, "extra tile request header as key=value (repeatable)")
	rootCmd.PersistentFlags().Int("min-zoom", 0, "lowest zoom level served by the tile source")
	rootCmd.PersistentFlags().Int("max-zoom", 19, "highest zoom level served by the tile source")
	rootCmd.PersistentFlags().Int("concurrency", 8, "simultaneous tile downloads (0 = unlimited)")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "tile requests per second (0 = unlimited)")

	// Output options
	rootCmd.Flags().StringP("output", "o", "", "output file or directory (default: stdout)")
	rootCmd.Flags().StringP("format", "f", "png", "output format (png|jpeg|webp)")
	rootCmd.Flags().BoolP("worldfile", "w", false, "write world file")
	rootCmd.Flags().String("upload", "", "also upload the export to s3://bucket/prefix")
	rootCmd.Flags().Int64("max-pixels", export.DefaultMaxPixels, "refuse exports larger than this many pixels")

	// Coordinate options
	rootCmd.Flags().Float64("min-lat", 0, "minimum latitude (south boundary)")
	rootCmd.Flags().Float64("min-lon", 0, "minimum longitude (west boundary)")
	rootCmd.Flags().Float64("max-lat", 0, "maximum latitude (north boundary)")
	rootCmd.Flags().Float64("max-lon", 0, "maximum longitude (east boundary)")
	rootCmd.Flags().String("bbox", "", "bounding box as 'min-lon,min-lat,max-lon,max-lat'")

	// Zoom options
	rootCmd.Flags().IntP("zoom", "z", -1, "zoom level (default: chosen from the bounding box)")
	rootCmd.Flags().Int("detail", 0, "detail offset from the chosen zoom level (-2..2)")

	// Bind flags to viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.development", rootCmd.PersistentFlags().Lookup("log-development"))
	viper.BindPFlag("tiles.url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("tiles.user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	viper.BindPFlag("tiles.headers", rootCmd.PersistentFlags().Lookup("header"))
	viper.BindPFlag("tiles.min_zoom", rootCmd.PersistentFlags().Lookup("min-zoom"))
	viper.BindPFlag("tiles.max_zoom", rootCmd.PersistentFlags().Lookup("max-zoom"))
	viper.BindPFlag("tiles.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("tiles.rate_limit", rootCmd.PersistentFlags().Lookup("rate-limit"))
	viper.BindPFlag("export.max_pixels", rootCmd.Flags().Lookup("max-pixels"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
	viper.BindPFlag("worldfile", rootCmd.Flags().Lookup("worldfile"))
	viper.BindPFlag("upload", rootCmd.Flags().Lookup("upload"))
	viper.BindPFlag("bbox", rootCmd.Flags().Lookup("bbox"))
	viper.BindPFlag("zoom", rootCmd.Flags().Lookup("zoom"))
	viper.BindPFlag("detail", rootCmd.Flags().Lookup("detail"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".mapexport" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mapexport")
	}

	viper.SetEnvPrefix("MAPEXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup loads the configuration and builds the logger every command uses
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newFetcher builds the HTTP tile fetcher described by cfg
func newFetcher(cfg *config.Config) *tile.HTTPFetcher {
	return tile.NewHTTPFetcher(cfg.Tiles.UserAgent, cfg.Tiles.Timeout,
		tile.WithHeaders(cfg.Tiles.Headers),
		tile.WithRateLimit(cfg.Tiles.RateLimit, cfg.Tiles.Burst))
}

// newSource builds the URL template described by cfg
func newSource(cfg *config.Config) (*tile.Template, error) {
	src, err := tile.NewTemplate(cfg.Tiles.URL)
	if err != nil {
		return nil, err
	}
	src.MinZoom, src.MaxZoom = cfg.Tiles.MinZoom, cfg.Tiles.MaxZoom
	return src, nil
}

func hasBounds(cmd *cobra.Command) bool {
	if viper.GetString("bbox") != "" {
		return true
	}
	for _, name := range []string{"min-lat", "min-lon", "max-lat", "max-lon"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bounds, err := boundsFromFlags(cmd)
	if err != nil {
		return err
	}

	mimeType, err := export.MIMEType(viper.GetString("format"))
	if err != nil {
		return err
	}
	ext, err := export.Extension(mimeType)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	zoom := viper.GetInt("zoom")
	if zoom < 0 {
		p := export.OptimalParams(bounds)
		minZoom, maxZoom := src.ZoomRange()
		zoom, err = export.ResolveZoom(p, viper.GetInt("detail"), minZoom, maxZoom)
		if err != nil {
			return err
		}
		logger.Info("Chose zoom level",
			zap.Int("optimal_zoom", p.Zoom),
			zap.Int("detail", viper.GetInt("detail")),
			zap.Int("zoom", zoom))
	} else if zoom > export.MaxZoom {
		return fmt.Errorf("zoom must be between 0 and %d", export.MaxZoom)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worldFile := viper.GetBool("worldfile")
	output, upload := viper.GetString("output"), viper.GetString("upload")
	name := export.DownloadName(time.Now(), ext)

	destinations, err := openDestinations(ctx, output, upload, name, worldFile)
	if err != nil {
		return err
	}

	exporter := export.New(newFetcher(cfg), logger, export.Options{
		Concurrency: cfg.Tiles.Concurrency,
		MaxPixels:   cfg.Export.MaxPixels,
		WorldFile:   worldFile,
	})

	result, err := exporter.Export(ctx, mimeType, bounds, zoom, src)
	if err != nil {
		return err
	}

	for _, d := range destinations {
		if err := d.sink.Write(ctx, d.name, result.MIMEType, result.Data); err != nil {
			return err
		}
		if result.WorldFile != nil {
			if err := d.sink.Write(ctx, tile.WorldFileName(d.name), "text/plain", result.WorldFile.Bytes()); err != nil {
				return fmt.Errorf("failed to write world file: %w", err)
			}
		}
		logger.Info("Wrote export", zap.String("name", d.name), zap.String("sink", fmt.Sprintf("%T", d.sink)))
	}

	return nil
}

type destination struct {
	sink sink.Sink
	name string
}

// openDestinations resolves -o and --upload. Standard output is used only
// when neither is given.
func openDestinations(ctx context.Context, output, upload, name string, worldFile bool) ([]destination, error) {
	var targets []string
	if output != "" || upload == "" {
		targets = append(targets, output)
	}
	if upload != "" {
		if !strings.HasPrefix(upload, "s3://") {
			return nil, fmt.Errorf("--upload expects an s3://bucket/prefix target, got %q", upload)
		}
		targets = append(targets, upload)
	}

	var destinations []destination
	for _, target := range targets {
		s, objectName, err := sink.Open(ctx, target, name)
		if err != nil {
			return nil, err
		}
		if stdout, ok := s.(*sink.StdoutSink); ok {
			if worldFile {
				return nil, fmt.Errorf("writing a world file requires an output file (use -o)")
			}
			if err := stdout.Check(); err != nil {
				return nil, err
			}
		}
		destinations = append(destinations, destination{sink: s, name: objectName})
	}
	return destinations, nil
}

// boundsFromFlags reads --bbox or the four --min/--max flags
func boundsFromFlags(cmd *cobra.Command) (tile.BoundingBox, error) {
	var b tile.BoundingBox

	if bbox := viper.GetString("bbox"); bbox != "" {
		parsed, err := parseBBox(bbox)
		if err != nil {
			return b, err
		}
		b = parsed
	} else {
		for _, name := range []string{"min-lat", "min-lon", "max-lat", "max-lon"} {
			if !cmd.Flags().Changed(name) {
				return b, fmt.Errorf("bounding box mode requires all of: --min-lat, --min-lon, --max-lat, --max-lon (or --bbox)")
			}
		}
		b.MinLat, _ = cmd.Flags().GetFloat64("min-lat")
		b.MinLon, _ = cmd.Flags().GetFloat64("min-lon")
		b.MaxLat, _ = cmd.Flags().GetFloat64("max-lat")
		b.MaxLon, _ = cmd.Flags().GetFloat64("max-lon")
	}

	return b, checkBounds(b)
}

// parseBBox parses "min-lon,min-lat,max-lon,max-lat"
func parseBBox(s string) (tile.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return tile.BoundingBox{}, fmt.Errorf("bbox must be in format 'min-lon,min-lat,max-lon,max-lat'")
	}

	names := []string{"min-lon", "min-lat", "max-lon", "max-lat"}
	var values [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return tile.BoundingBox{}, fmt.Errorf("invalid %s in bbox: %w", names[i], err)
		}
		values[i] = v
	}

	return tile.BoundingBox{
		MinLon: values[0],
		MinLat: values[1],
		MaxLon: values[2],
		MaxLat: values[3],
	}, nil
}

// checkBounds rejects coordinates off the globe. MinLon > MaxLon is allowed
// and means the box crosses the antimeridian.
func checkBounds(b tile.BoundingBox) error {
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitudes must be between -90 and 90")
	}
	if b.MinLon < -180 || b.MinLon > 180 || b.MaxLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitudes must be between -180 and 180")
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("min-lat must not be greater than max-lat")
	}
	return nil
}
