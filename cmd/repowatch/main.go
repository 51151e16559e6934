// Package main provides the repowatch daemon.
//
// Repowatch observes the repositories named in a configuration file
// and records a content snapshot whenever one of them changes. The
// configuration file itself is watched, so edits to the repo list
// take effect without a restart.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
	"github.com/snapwatch/snapwatch/pkg/repo"
	"github.com/snapwatch/snapwatch/pkg/watch"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to watch configuration file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	initConfig := flag.Bool("init", false, "write a starter configuration to -config and exit")
	listRepo := flag.String("list", "", "print the snapshot records of a repository and exit")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("repowatch %s\n", version)
		return nil
	}

	if *listRepo != "" {
		return listSnapshots(*listRepo)
	}

	if *configPath == "" {
		return fmt.Errorf("missing required flag: -config")
	}

	if *initConfig {
		return writeStarterConfig(*configPath)
	}

	log := logger.New(logger.Config{
		Level:  *logLevel,
		Output: "stderr",
		Format: logFormat(),
	})

	w, err := watch.WithConfigFile(*configPath, watch.Deps{}, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			log.Error("failed to close watcher", "error", closeErr)
		}
	}()

	log.Info("repowatch started", "config", *configPath, "version", version)

	// Block until interrupted.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs

	log.Info("shutting down", "signal", sig.String())
	return nil
}

// logFormat picks text output on a terminal and JSON otherwise, so
// piped or collected logs stay machine-readable.
func logFormat() string {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "text"
	}
	return "json"
}

// writeStarterConfig writes a minimal configuration documenting the
// available fields.
func writeStarterConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing config: %s", path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &config.WatchConfig{
		Repos:          []config.RepoConfig{{Path: cwd}},
		Mode:           config.ModeEvent,
		DebouncePeriod: config.Duration(500 * time.Millisecond),
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Printf("wrote starter config to %s\n", path)
	return nil
}

// listSnapshots prints the snapshot records of one repository.
func listSnapshots(path string) error {
	r, err := repo.FromPath(path)
	if err != nil {
		return err
	}

	records, err := r.Snapshots()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("no snapshots recorded")
		return nil
	}

	for i, rec := range records {
		fmt.Printf("%4d  %s  %s  %d files\n",
			i+1,
			rec.TakenAt.Format("2006-01-02 15:04:05"),
			rec.TreeHash[:12],
			rec.FileCount)
	}

	return nil
}
