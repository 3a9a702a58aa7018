package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/kektorgrid/pkg/core/box"
	"github.com/sanonone/kektorgrid/pkg/core/grid"
	"github.com/sanonone/kektorgrid/pkg/core/points"
	"github.com/sanonone/kektorgrid/pkg/persistence"
	"github.com/sanonone/kektorgrid/pkg/storage/mmap"
)

type options struct {
	configPath  string
	pointsPath  string
	mode        string
	box         string
	query       string
	radius      float64
	k           int
	hintPath    string
	savePath    string
	exportPath  string
	metricsAddr string
	verbose     bool
}

func main() {
	os.Exit(cli(os.Args[1:], os.Stdout, os.Stderr))
}

// cli runs the command with args and returns the process exit code. Deferred
// cleanup runs before main exits.
func cli(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("kektorgrid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML grid configuration (defaults apply when empty)")
	fs.StringVar(&opts.pointsPath, "points", "", "point file, one point per line")
	fs.StringVar(&opts.mode, "mode", "stats", "pairs | box | within | stats")
	fs.StringVar(&opts.box, "box", "", `box for -mode box, e.g. "0,0;1,1"`)
	fs.StringVar(&opts.query, "query", "", `query point for -mode within, e.g. "0.5,0.5"`)
	fs.Float64Var(&opts.radius, "radius", 0, "search radius for -mode within (0 means the grid scale)")
	fs.IntVar(&opts.k, "k", 0, "report only the k nearest points in -mode within")
	fs.StringVar(&opts.hintPath, "hint", "", "snapshot whose permutation seeds the build; restored as is when -points is empty")
	fs.StringVar(&opts.savePath, "save", "", "write a snapshot of the grid to this path")
	fs.StringVar(&opts.exportPath, "export", "", "write the points as a binary point file (.kgp) to this path")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(stdout)
	err := run(ctx, opts, out)
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		slog.Error("[CLI] failed", "error", err)
		return 1
	}

	if opts.metricsAddr != "" {
		serveMetrics(ctx, opts.metricsAddr)
	}
	return 0
}

func run(ctx context.Context, opts options, out *bufio.Writer) error {
	set, closeSet, err := loadPoints(opts.pointsPath)
	if err != nil {
		return err
	}
	defer closeSet()

	g, err := buildGrid(opts, set)
	if err != nil {
		return err
	}

	switch opts.mode {
	case "stats":
		writeStats(out, g)
	case "pairs":
		pairs, err := g.PairsParallel(ctx)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Fprintf(out, "%d %d\n", p[0], p[1])
		}
		slog.Info("[CLI] pairs", "count", len(pairs), "scale", g.Scale())
	case "box":
		lo, hi, err := parseBox(opts.box)
		if err != nil {
			return err
		}
		inside, err := g.InBox(box.Box{Min: lo, Max: hi})
		if err != nil {
			return err
		}
		for _, i := range inside {
			fmt.Fprintln(out, i)
		}
		slog.Info("[CLI] box", "count", len(inside))
	case "within":
		if err := writeWithin(out, g, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}

	if opts.savePath != "" {
		if err := persistence.SaveFile(opts.savePath, g); err != nil {
			return err
		}
	}
	if opts.exportPath != "" {
		if err := mmap.WritePoints(opts.exportPath, g.Positions()); err != nil {
			return err
		}
		slog.Info("[CLI] points exported", "path", opts.exportPath, "points", g.Len())
	}
	return nil
}

// loadPoints reads the point file at path. Binary point files are mapped
// and must stay open while the grid is in use; the returned func releases
// them.
func loadPoints(path string) (*points.Dense, func(), error) {
	switch {
	case path == "":
		return nil, func() {}, nil
	case strings.HasSuffix(path, ".kgp"):
		pf, err := mmap.OpenPoints(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to map points: %w", err)
		}
		return pf.Points(), func() { pf.Close() }, nil
	default:
		set, err := readPointsFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read points: %w", err)
		}
		return set, func() {}, nil
	}
}

// buildGrid builds the grid from -points, seeded by the -hint snapshot when
// given, or restores the -hint snapshot when no point file is given.
func buildGrid(opts options, set *points.Dense) (*grid.Grid, error) {
	var snap *persistence.GridSnapshot
	if opts.hintPath != "" {
		s, err := persistence.LoadFile(opts.hintPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load hint: %w", err)
		}
		snap = s
	}

	if set == nil {
		if snap == nil {
			return nil, errors.New("either -points or -hint is required")
		}
		return persistence.Restore(snap, nil)
	}

	cfg, err := grid.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	slog.Info("[CLI] points loaded", "path", opts.pointsPath, "points", set.Len(), "dims", set.Dims())

	if snap == nil {
		return grid.New(set, cfg)
	}
	return grid.Resume(set, cfg, snap.Permutation, snap.ID)
}

func writeStats(out *bufio.Writer, g *grid.Grid) {
	st := g.Stats()
	fmt.Fprintf(out, "id\t%s\n", g.ID())
	fmt.Fprintf(out, "points\t%d\n", st.Points)
	fmt.Fprintf(out, "dims\t%d\n", g.Dims())
	fmt.Fprintf(out, "extents\t%s\n", g.Extents())
	fmt.Fprintf(out, "shape\t%v\n", g.Shape())
	fmt.Fprintf(out, "stencil\t%v\n", g.Stencil())
	fmt.Fprintf(out, "buckets\t%d\n", st.Buckets)
	fmt.Fprintf(out, "keys\t%d\n", st.Keys)
	fmt.Fprintf(out, "aliased\t%d\n", st.Aliased)
	fmt.Fprintf(out, "max_bucket\t%d\n", st.MaxBucket)
	fmt.Fprintf(out, "mean_bucket\t%.3f\n", st.MeanBucket)
	fmt.Fprintf(out, "hinted\t%t\n", st.HintUsed)
}

func writeWithin(out *bufio.Writer, g *grid.Grid, opts options) error {
	q, err := parseVector(opts.query)
	if err != nil {
		return err
	}
	radius := opts.radius
	if radius == 0 {
		radius = g.Scale()
	}

	if opts.k > 0 {
		nearest, err := g.Nearest(q, opts.k, radius)
		if err != nil {
			return err
		}
		for _, nb := range nearest {
			fmt.Fprintf(out, "%d %g\n", nb.Index, math.Sqrt(nb.Distance2))
		}
		return nil
	}
	return g.ForEachWithin(q, radius, func(i int32, d2 float64) {
		fmt.Fprintf(out, "%d %g\n", i, math.Sqrt(d2))
	})
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		slog.Info("[CLI] serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[CLI] metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	srv.Shutdown(context.Background())
}
