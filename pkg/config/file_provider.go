package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// FileProvider resolves a configuration file into snapshots and republishes
// them whenever the file changes. A failed reload keeps the last good
// snapshot.
type FileProvider struct {
	path     string
	resolver SecretResolver
	logger   *slog.Logger
	metrics  *ReloadMetrics
	debounce time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	snapshot    Snapshot
	subscribers []chan Snapshot
	watcher     *fsnotify.Watcher
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// ProviderOption customises a FileProvider.
type ProviderOption func(*FileProvider)

// WithResolver sets the secret resolver used for key passwords and blobs.
func WithResolver(r SecretResolver) ProviderOption {
	return func(p *FileProvider) { p.resolver = r }
}

// WithLogger sets the provider logger.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *FileProvider) { p.logger = l }
}

// WithMetrics records reload outcomes in m.
func WithMetrics(m *ReloadMetrics) ProviderOption {
	return func(p *FileProvider) { p.metrics = m }
}

// WithDebounce sets how long the provider waits after the last file event
// before reloading.
func WithDebounce(d time.Duration) ProviderOption {
	return func(p *FileProvider) { p.debounce = d }
}

// NewFileProvider creates a new provider watching the specified file.
func NewFileProvider(path string, opts ...ProviderOption) (*FileProvider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	p := &FileProvider{
		path:     absPath,
		resolver: NewEnvFileResolver(),
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "config", "path", absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	p.watcher = watcher

	if err := p.Reload(); err != nil {
		// The file may appear later; keep watching.
		p.logger.Warn("initial config load failed", "error", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.watchLoop(ctx)

	return p, nil
}

// Current returns the active snapshot. It is the zero Snapshot until the
// first successful load.
func (p *FileProvider) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe returns a channel that receives every new snapshot. The current
// snapshot, if any, is delivered immediately. Slow subscribers miss
// intermediate snapshots rather than block reloads.
func (p *FileProvider) Subscribe() <-chan Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Snapshot, 1)
	p.subscribers = append(p.subscribers, ch)
	if !p.snapshot.IsZero() {
		ch <- p.snapshot
	}
	return ch
}

// Close stops the watcher and closes every subscriber channel.
func (p *FileProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		err = p.watcher.Close()

		p.mu.Lock()
		for _, ch := range p.subscribers {
			close(ch)
		}
		p.subscribers = nil
		p.mu.Unlock()
	})
	return err
}

func (p *FileProvider) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(p.debounce, func() {
					if ctx.Err() != nil {
						return
					}
					if err := p.Reload(); err != nil {
						p.logger.Error("config reload failed", "error", err)
					}
				})
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", "error", err)
		}
	}
}

// Reload reads and resolves the file now. An unchanged file is not
// republished.
func (p *FileProvider) Reload() error {
	// #nosec G304 -- File path is configured at startup
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.metrics.RecordReload(ReloadFailure)
		return fmt.Errorf("failed to read config file: %w", err)
	}

	digest := sha256.Sum256(data)
	checksum := hex.EncodeToString(digest[:])

	p.mu.RLock()
	unchanged := !p.snapshot.IsZero() && p.snapshot.Checksum == checksum
	p.mu.RUnlock()
	if unchanged {
		p.metrics.RecordReload(ReloadUnchanged)
		p.logger.Debug("config unchanged, skipping reload")
		return nil
	}

	cfg, err := Parse(data, FormatForPath(p.path))
	if err != nil {
		p.metrics.RecordReload(ReloadFailure)
		return err
	}
	ApplyEnvOverrides(cfg)
	record, err := cfg.Resolve(p.resolver)
	if err != nil {
		p.metrics.RecordReload(ReloadFailure)
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	p.mu.Lock()
	snapshot := Snapshot{
		ID:         uuid.New(),
		Generation: p.snapshot.Generation + 1,
		LoadedAt:   p.now(),
		Source:     p.path,
		Checksum:   checksum,
		Config:     record,
	}
	p.snapshot = snapshot
	// Sends never block, so delivery happens under the lock that Close
	// takes before closing the channels.
	for _, ch := range p.subscribers {
		publish(ch, snapshot)
	}
	p.mu.Unlock()

	p.metrics.RecordReload(ReloadSuccess)
	p.metrics.SetGeneration(snapshot.Generation)
	p.logger.Info("configuration loaded",
		"generation", snapshot.Generation,
		"snapshot_id", snapshot.ID.String())

	return nil
}

// publish replaces any pending snapshot in ch with s.
func publish(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
