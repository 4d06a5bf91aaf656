package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/config"
	"github.com/dd0wney/cluso-gather/pkg/gather"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/logging"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

func main() {
	cfgPath := flag.String("config", "worker.yaml", "Worker configuration file")
	partitions := flag.String("partitions", "", "Comma-separated partition file paths owned by this worker")
	vertices := flag.Uint64("vertices", 0, "Total vertices in the graph")
	rounds := flag.Int("rounds", 1, "Full gather rounds to run")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *partitions == "" {
		log.Fatal("At least one partition file is required (-partitions)")
	}
	if *vertices == 0 {
		log.Fatal("Total vertex count is required (-vertices)")
	}

	var logger logging.Logger = logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	logger = logger.With(
		logging.Component("gather-worker"),
		logging.Rank(cfg.Grid.Rank),
	)

	grid := comm.Grid{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}
	groupSize := grid.Rows * grid.Cols
	if err := grid.Validate(groupSize); err != nil {
		log.Fatalf("Invalid grid: %v", err)
	}

	logger.Info("worker starting",
		logging.String("config", *cfgPath),
		logging.String("transport", cfg.Transport.Kind),
		logging.Int("group_size", groupSize))

	// Load this worker's fragments through the mmap reader.
	paths := strings.Split(*partitions, ",")
	parts := make([]*graph.EdgePartition, 0, len(paths))
	for _, path := range paths {
		p, err := graph.ReadPartitionFile(strings.TrimSpace(path))
		if err != nil {
			log.Fatalf("Failed to read partition %s: %v", path, err)
		}
		parts = append(parts, p)
		logger.Info("partition loaded",
			logging.String("path", path),
			logging.Uint64("major_first", p.MajorFirst),
			logging.Uint64("major_last", p.MajorLast),
			logging.Int("edges", len(p.Indices)))
	}

	dir, err := graph.NewDirectory(parts, *vertices)
	if err != nil {
		log.Fatalf("Failed to build directory: %v", err)
	}

	ex, closeEx, err := buildExchanger(cfg, groupSize)
	if err != nil {
		log.Fatalf("Failed to set up transport: %v", err)
	}
	defer closeEx()

	pool, err := parallel.NewPool(cfg.Workers)
	if err != nil {
		log.Fatalf("Failed to create pool: %v", err)
	}
	defer pool.Close()

	engine := gather.NewEngine(dir, ex, gather.Options{
		Pool:   pool,
		Logger: logger,
	})

	// Every owned major is active each round.
	active := make([]uint64, 0, dir.OwnedCount())
	for f := 0; f < dir.Fragments(); f++ {
		p := dir.Fragment(f)
		for v := p.MajorFirst; v < p.MajorLast; v++ {
			active = append(active, v)
		}
	}

	for r := 0; r < *rounds; r++ {
		start := time.Now()
		res, err := engine.Round(active)
		if err != nil {
			log.Fatalf("Round %d failed: %v", r, err)
		}
		logger.Info("round finished",
			logging.Round(res.RoundID),
			logging.Int("round", r),
			logging.Int("edges", res.Edges.Len()),
			logging.Duration("took", time.Since(start)))
	}

	logger.Info("worker done", logging.Int("rounds", *rounds))
}

// buildExchanger wires the configured collective transport.
func buildExchanger(cfg *config.Config, groupSize int) (comm.Exchanger, func(), error) {
	switch cfg.Transport.Kind {
	case config.TransportSolo:
		return comm.Solo{}, func() {}, nil
	case config.TransportNNG:
		g, err := comm.NewNNGGroup(cfg.Grid.Rank, groupSize, cfg.Transport.ListenAddr, cfg.Transport.PeerAddrs)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { g.Close() }, nil
	case config.TransportLocal:
		return nil, nil, fmt.Errorf("local transport needs all ranks in one process; use the benchmark command")
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport.Kind)
	}
}
