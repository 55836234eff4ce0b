package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/logger"
)

// preloadExt is the extension of bulk-load files; the base name is the table.
const preloadExt = ".csv"

// SetupResult describes the prepared benchmark database.
type SetupResult struct {
	Database  string
	Created   bool
	Preloaded []string
}

// Setup creates the benchmark database, initializes its schema and bulk
// loads the preload directory. An existing database is reused as is: its
// schema and data are left alone, and the preload files only name the
// tables.
func Setup(ctx context.Context, a backend.Adapter, cfg config.SetupConfig, log *logger.Logger) (*SetupResult, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	schema, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}
	files, err := preloadFiles(cfg.PreloadDir)
	if err != nil {
		return nil, err
	}

	res := &SetupResult{Database: cfg.Database}
	err = a.CreateDatabase(ctx, cfg.Database)
	switch backend.Classify(err) {
	case backend.OK:
		res.Created = true
		log.Infow("Created benchmark database", "database", cfg.Database)
	case backend.RecoverableConflict:
		log.Warnw("Benchmark database already exists, reusing it", "database", cfg.Database, "error", err)
	default:
		return nil, fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}

	if res.Created {
		log.Infow("Initializing schema", "database", cfg.Database, "bytes", len(schema))
		if err := a.InitializeSchema(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		commitSetup(ctx, a, log, "initialize schema")
	}

	for _, path := range files {
		table := strings.TrimSuffix(filepath.Base(path), preloadExt)
		if res.Created {
			log.Infow("Preloading table", "table", table, "file", path)
			if err := a.BulkLoad(ctx, table, path); err != nil {
				return nil, fmt.Errorf("failed to preload %s: %w", table, err)
			}
		}
		res.Preloaded = append(res.Preloaded, table)
	}
	if res.Created && len(files) > 0 {
		commitSetup(ctx, a, log, "preload data")
	}
	return res, nil
}

// Teardown drops the benchmark database when the setup asks for it.
func Teardown(ctx context.Context, a backend.Adapter, cfg config.SetupConfig, log *logger.Logger) error {
	if !cfg.DropAfter {
		return nil
	}
	if log == nil {
		log = logger.NewDefault()
	}
	err := a.DropDatabase(ctx, cfg.Database)
	switch backend.Classify(err) {
	case backend.OK:
		log.Infow("Dropped benchmark database", "database", cfg.Database)
	case backend.RecoverableConflict:
		log.Warnw("Benchmark database was already gone", "database", cfg.Database, "error", err)
	default:
		return fmt.Errorf("failed to drop database %s: %w", cfg.Database, err)
	}
	return nil
}

func loadSchema(cfg config.SetupConfig) (string, error) {
	if cfg.Schema != "" {
		return cfg.Schema, nil
	}
	if cfg.SchemaPath == "" {
		return "", &PreflightError{Check: "schema", Message: "setup.schema or setup.schema_path is required"}
	}
	b, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file: %w", err)
	}
	return string(b), nil
}

// preloadFiles lists the bulk-load files of dir in name order. An empty dir
// means no preload.
func preloadFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preload directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != preloadExt {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func commitSetup(ctx context.Context, a backend.Adapter, log *logger.Logger, message string) {
	if err := a.CommitChanges(ctx, "branchbench: "+message); err != nil {
		log.Warnw("Setup commit did not complete", "step", message, "outcome", backend.Classify(err).String(), "error", err)
	}
}
