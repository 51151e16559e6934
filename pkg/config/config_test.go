package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	data := []byte(`
repos:
  - path: /src/project
  - path: /src/other
mode: event
debounce_period: 500ms
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Repos) != 2 {
		t.Errorf("len(Repos) = %d, want 2", len(cfg.Repos))
	}
	if cfg.Repos[0].Path != "/src/project" {
		t.Errorf("Repos[0].Path = %q, want /src/project", cfg.Repos[0].Path)
	}
	if cfg.Mode != ModeEvent {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeEvent)
	}
	if cfg.DebouncePeriod.Std() != 500*time.Millisecond {
		t.Errorf("DebouncePeriod = %v, want 500ms", cfg.DebouncePeriod.Std())
	}
}

func TestParseDefaultsMode(t *testing.T) {
	cfg, err := Parse([]byte("repos: []\ndebounce_period: 1s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Mode != ModeEvent {
		t.Errorf("Mode = %q, want default %q", cfg.Mode, ModeEvent)
	}
}

func TestParseEmptyRepos(t *testing.T) {
	// An empty repo list is a legal no-op watch.
	cfg, err := Parse([]byte("repos: []\nmode: poll\ndebounce_period: 1s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Repos) != 0 {
		t.Errorf("len(Repos) = %d, want 0", len(cfg.Repos))
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("repos: ["))
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("Parse() error = %v, want ErrInvalidYAML", err)
	}
}

func TestParseInvalidMode(t *testing.T) {
	_, err := Parse([]byte("repos: []\nmode: hybrid\ndebounce_period: 1s\n"))
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Parse() error = %v, want ErrInvalidMode", err)
	}
}

func TestParseInvalidDuration(t *testing.T) {
	_, err := Parse([]byte("repos: []\nmode: event\ndebounce_period: soon\n"))
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("Parse() error = %v, want ErrInvalidYAML", err)
	}
}

func TestValidateNegativeDebounce(t *testing.T) {
	cfg := &WatchConfig{Mode: ModeEvent, DebouncePeriod: Duration(-time.Second)}
	if err := cfg.Validate(); !errors.Is(err, ErrNegativeDebounce) {
		t.Errorf("Validate() error = %v, want ErrNegativeDebounce", err)
	}
}

func TestValidateEmptyRepoPath(t *testing.T) {
	cfg := &WatchConfig{
		Repos: []RepoConfig{{Path: "/a"}, {Path: ""}},
		Mode:  ModeEvent,
	}
	if err := cfg.Validate(); !errors.Is(err, ErrEmptyRepoPath) {
		t.Errorf("Validate() error = %v, want ErrEmptyRepoPath", err)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadFromFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "watch.yaml")

	cfg := &WatchConfig{
		Repos:          []RepoConfig{{Path: "/src/project"}},
		Mode:           ModePoll,
		DebouncePeriod: Duration(250 * time.Millisecond),
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %v, want 0600", perm)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Mode != cfg.Mode {
		t.Errorf("Mode = %q, want %q", loaded.Mode, cfg.Mode)
	}
	if loaded.DebouncePeriod != cfg.DebouncePeriod {
		t.Errorf("DebouncePeriod = %v, want %v", loaded.DebouncePeriod, cfg.DebouncePeriod)
	}
	if len(loaded.Repos) != 1 || loaded.Repos[0].Path != "/src/project" {
		t.Errorf("Repos = %+v, want one entry /src/project", loaded.Repos)
	}
}
