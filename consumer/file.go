package consumer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

/* FileRegistry serves registrations loaded from consumers.yaml
 * and swaps them atomically when the file changes
 */

// File represents the structure of consumers.yaml
type File struct {
	Consumers []Entry `yaml:"consumers"`
}

// Entry is a single consumer in the YAML file
type Entry struct {
	ID            string   `yaml:"id"`
	Kind          string   `yaml:"kind"` // default: messages
	TeamID        string   `yaml:"team_id"`
	ChannelID     string   `yaml:"channel_id"`
	TargetURL     string   `yaml:"target_url"`
	SigningSecret string   `yaml:"signing_secret"`
	MaxRetries    *int     `yaml:"max_retries"` // default: 3
	EventTypes    []string `yaml:"event_types"`
}

const defaultMaxRetries = 3

type FileRegistry struct {
	path   string
	logger zerolog.Logger

	mu        sync.RWMutex
	consumers []Registration
	onReload  []func([]Registration)
}

func NewFileRegistry(path string, logger zerolog.Logger) *FileRegistry {
	return &FileRegistry{path: path, logger: logger}
}

// LoadFile reads and validates every entry of a consumers file
func LoadFile(path string) ([]Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading consumers file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing consumers YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Consumers))
	consumers := make([]Registration, 0, len(file.Consumers))
	for _, e := range file.Consumers {
		reg := Registration{
			ID:            e.ID,
			Kind:          e.Kind,
			TeamID:        e.TeamID,
			ChannelID:     e.ChannelID,
			TargetURL:     e.TargetURL,
			SigningSecret: e.SigningSecret,
			MaxRetries:    defaultMaxRetries,
			EventTypes:    e.EventTypes,
		}
		if reg.Kind == "" {
			reg.Kind = KindMessages
		}
		if e.MaxRetries != nil {
			reg.MaxRetries = *e.MaxRetries
		}

		if err := reg.Validate(); err != nil {
			return nil, fmt.Errorf("validating consumer: %w", err)
		}
		if seen[reg.ID] {
			return nil, fmt.Errorf("duplicate consumer id: %s", reg.ID)
		}
		seen[reg.ID] = true
		consumers = append(consumers, reg)
	}
	return consumers, nil
}

// Load replaces the current registrations. On error the previous set is kept.
func (r *FileRegistry) Load() error {
	consumers, err := LoadFile(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.consumers = consumers
	callbacks := slices.Clone(r.onReload)
	r.mu.Unlock()

	r.logger.Info().Int("consumers", len(consumers)).Str("path", r.path).Msg("consumers loaded")
	for _, fn := range callbacks {
		fn(slices.Clone(consumers))
	}
	return nil
}

// OnReload registers fn to receive the full set after every successful Load
func (r *FileRegistry) OnReload(fn func([]Registration)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = append(r.onReload, fn)
}

func (r *FileRegistry) List(ctx context.Context, kind string) ([]Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	consumers := make([]Registration, 0, len(r.consumers))
	for _, c := range r.consumers {
		if kind == "" || c.Kind == kind {
			consumers = append(consumers, c)
		}
	}
	return consumers, nil
}

func (r *FileRegistry) Get(id string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.consumers {
		if c.ID == id {
			return c, true
		}
	}
	return Registration{}, false
}

// Watch reloads the file whenever it changes until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (r *FileRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("watching %s: %w", r.path, err)
	}
	target := filepath.Clean(r.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Load(); err != nil {
				r.logger.Error().Err(err).Str("path", r.path).Msg("reloading consumers, keeping previous set")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn().Err(err).Msg("consumer file watcher error")
		}
	}
}
