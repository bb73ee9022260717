package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"evonet/internal/config"
	"evonet/internal/evo"
	"evonet/internal/genotype"
	"evonet/internal/model"
	"evonet/internal/storage"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	case "replicate":
		return runReplicate(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	configPath := fs.String("config", "", "INI configuration file")
	storeKind := fs.String("store", "memory", storeFlagUsage)
	dbPath := fs.String("db-path", "evonet.db", "sqlite database path")
	gens := fs.Int("gens", 0, "generations to run, overrides the config")
	seed := fs.Int64("seed", 0, "random seed, overrides the config")
	runID := fs.String("run-id", "", "run id, overrides the config")
	out := fs.String("out", "", "write the final snapshot JSON to this path")
	verbose := fs.Bool("v", false, "log every modification")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "store":
			cfg.Run.Store = *storeKind
		case "db-path":
			cfg.Run.DBPath = *dbPath
		case "gens":
			cfg.Run.Generations = *gens
		case "seed":
			cfg.Run.Seed = *seed
		case "run-id":
			cfg.Run.RunID = strings.TrimSpace(*runID)
		}
	})
	if cfg.Run.Store == "sqlite" && cfg.Run.DBPath == "" {
		cfg.Run.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	m, err := genotype.ConstructBaseline(cfg.Run.RunID, cfg.Baseline.Spec(), rand.New(rand.NewSource(cfg.Run.Seed)))
	if err != nil {
		return err
	}
	rep := evo.NewReplicator(cfg.Run.Seed)
	rep.Logger = logger
	if err := cfg.Replicator.Apply(rep); err != nil {
		return err
	}
	for g := 1; g <= cfg.Run.Generations; g++ {
		if err := rep.ModifyModel(ctx, m, fmt.Sprintf("g%d", g)); err != nil {
			return fmt.Errorf("generation %d: %w", g, err)
		}
	}

	store, err := openStore(ctx, cfg.Run.Store, cfg.Run.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	snapshot := m.Snapshot()
	if err := store.SaveModel(ctx, snapshot); err != nil {
		return err
	}
	if err := store.SaveLineage(ctx, cfg.Run.RunID, rep.History()); err != nil {
		return err
	}
	if *out != "" {
		data, err := storage.EncodeSnapshot(snapshot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "evolved run_id=%s generations=%d store=%s\n", cfg.Run.RunID, cfg.Run.Generations, cfg.Run.Store)
	printModelSummary(m)
	printLineageSummary(rep.History())
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	storeKind := fs.String("store", "sqlite", storeFlagUsage)
	dbPath := fs.String("db-path", "evonet.db", "sqlite database path")
	id := fs.String("id", "", "model id")
	runID := fs.String("run-id", "", "lineage run id, defaults to the model id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("show requires --id")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	m, err := loadModel(ctx, store, strings.TrimSpace(*id))
	if err != nil {
		return err
	}
	printModelSummary(m)

	lineageID := strings.TrimSpace(*runID)
	if lineageID == "" {
		lineageID = m.ID
	}
	lineage, ok, err := store.GetLineage(ctx, lineageID)
	if err != nil {
		return err
	}
	if ok {
		printLineageSummary(lineage)
	}
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind := fs.String("store", "sqlite", storeFlagUsage)
	dbPath := fs.String("db-path", "evonet.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	ids, err := store.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	storeKind := fs.String("store", "sqlite", storeFlagUsage)
	dbPath := fs.String("db-path", "evonet.db", "sqlite database path")
	id := fs.String("id", "", "model id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("delete requires --id")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.DeleteModel(ctx, strings.TrimSpace(*id)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted id=%s\n", strings.TrimSpace(*id))
	return nil
}

func runReplicate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replicate", flag.ContinueOnError)
	storeKind := fs.String("store", "sqlite", storeFlagUsage)
	dbPath := fs.String("db-path", "evonet.db", "sqlite database path")
	id := fs.String("id", "", "model id")
	n := fs.Int("n", 1, "number of replicas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("replicate requires --id")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	m, err := loadModel(ctx, store, strings.TrimSpace(*id))
	if err != nil {
		return err
	}
	replicas, err := genotype.ReplicateN(m, *n)
	if err != nil {
		return err
	}
	for _, replica := range replicas {
		if err := store.SaveModel(ctx, replica.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "replica id=%s\n", replica.ID)
	}
	return nil
}

func openStore(ctx context.Context, kind, dbPath string) (storage.Store, error) {
	store, err := storage.NewStore(kind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}

func loadModel(ctx context.Context, store storage.Store, id string) (*model.Model, error) {
	snapshot, ok, err := store.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("model not found: %s", id)
	}
	return model.FromSnapshot(snapshot)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

const storeFlagUsage = "store backend: memory|sqlite (sqlite needs a binary built with -tags sqlite; memory does not persist between runs)"

const usage = `usage: evonetctl <evolve|show|list|delete|replicate> [flags]

evolve writes to the memory store unless --store sqlite is given.
show, list, delete and replicate read the sqlite store, which is only
available when evonetctl is built with -tags sqlite.`

func usageError(msg string) error {
	return fmt.Errorf("%s\n%s", msg, usage)
}
