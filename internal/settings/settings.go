// Package settings provides the global notes switches read by the notes service.
package settings

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

//go:embed config/defaults.yaml
var defaultsFile embed.FS

// Defaults returns the embedded default settings
func Defaults() (notes.SystemNotesSettings, error) {
	data, err := defaultsFile.ReadFile("config/defaults.yaml")
	if err != nil {
		return notes.SystemNotesSettings{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return parse(data, notes.DefaultSystemNotesSettings())
}

// parse overlays YAML onto base; keys missing from data keep base's values
func parse(data []byte, base notes.SystemNotesSettings) (notes.SystemNotesSettings, error) {
	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return notes.SystemNotesSettings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return out, nil
}

// Static always returns the same settings
type Static struct {
	mu       sync.RWMutex
	settings notes.SystemNotesSettings
}

// NewStatic creates a provider returning s
func NewStatic(s notes.SystemNotesSettings) *Static {
	return &Static{settings: s}
}

var _ repositories.SystemSettingsProvider = (*Static)(nil)

func (p *Static) GetNotesSettings(context.Context) (notes.SystemNotesSettings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings, nil
}

// Set replaces the settings (tests, admin tooling)
func (p *Static) Set(s notes.SystemNotesSettings) {
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()
}

// FileProvider reads settings from a YAML file and reloads it when its
// modification time changes. Missing keys fall back to the embedded defaults.
type FileProvider struct {
	path     string
	defaults notes.SystemNotesSettings
	logger   *slog.Logger

	mu       sync.RWMutex
	modTime  time.Time
	settings notes.SystemNotesSettings
}

// NewFileProvider loads path once and fails if it is unreadable or malformed
func NewFileProvider(path string, logger *slog.Logger) (*FileProvider, error) {
	defaults, err := Defaults()
	if err != nil {
		return nil, err
	}

	p := &FileProvider{path: path, defaults: defaults, logger: logger}
	if err := p.reload(); err != nil {
		return nil, err
	}
	return p, nil
}

var _ repositories.SystemSettingsProvider = (*FileProvider)(nil)

// GetNotesSettings returns the current settings. A changed file that fails to
// load is logged once and the last good settings stay in effect.
func (p *FileProvider) GetNotesSettings(context.Context) (notes.SystemNotesSettings, error) {
	if info, err := os.Stat(p.path); err == nil {
		p.mu.RLock()
		fresh := info.ModTime().Equal(p.modTime)
		p.mu.RUnlock()
		if !fresh {
			if err := p.reload(); err != nil {
				p.logger.Error("system settings reload failed, keeping previous", "path", p.path, "error", err)
			} else {
				p.logger.Info("system settings reloaded", "path", p.path)
			}
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings, nil
}

func (p *FileProvider) reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", p.path, err)
	}
	// a bad version is attempted once, not on every call
	p.modTime = info.ModTime()

	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.path, err)
	}
	s, err := parse(data, p.defaults)
	if err != nil {
		return fmt.Errorf("%s: %w", p.path, err)
	}

	p.settings = s
	return nil
}
