package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ReloadFunc receives the settings that changed on a live reload.
type ReloadFunc func(changes ReloadedSettings)

// ReloadedSettings carries the subset of configuration that can change at
// runtime without a restart.
type ReloadedSettings struct {
	LogLevel     string
	MutePatterns []string
	AuthUser     string
	AuthPass     string
	APIToken     string
	Changed      []string
}

// Watcher monitors the .env file for changes and applies the
// runtime-changeable subset to the live config.
type Watcher struct {
	config      *Config
	envPath     string
	watcher     *fsnotify.Watcher
	stopChan    chan struct{}
	stopOnce    sync.Once
	lastModTime time.Time
	mu          sync.Mutex
	onReload    ReloadFunc
}

// NewWatcher creates a watcher for the config's env file. Returns nil when
// the config was loaded without an env file; there is nothing to watch then.
func NewWatcher(config *Config, onReload ReloadFunc) (*Watcher, error) {
	if config.EnvFile == "" {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:   config,
		envPath:  config.EnvFile,
		watcher:  watcher,
		stopChan: make(chan struct{}),
		onReload: onReload,
	}

	if stat, err := os.Stat(w.envPath); err == nil {
		w.lastModTime = stat.ModTime()
	}

	return w, nil
}

// Start begins watching. Editors replace files on save, so the parent
// directory is watched rather than the file itself; a polling fallback
// covers filesystems without inotify support.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.envPath)
	if err := w.watcher.Add(dir); err != nil {
		log.Warn().Err(err).Str("path", dir).Msg("Failed to watch config directory, falling back to polling")
		go w.pollForChanges()
		return nil
	}

	go w.watchForChanges()
	log.Info().Str("path", w.envPath).Msg("Watching env file for changes")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.watcher.Close()
	})
}

func (w *Watcher) watchForChanges() {
	base := filepath.Base(w.envPath)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base && event.Name != w.envPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// debounce: wait for the write to complete
			time.Sleep(100 * time.Millisecond)
			log.Info().Str("event", event.Op.String()).Msg("Detected env file change")
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Config watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stat, err := os.Stat(w.envPath)
			if err != nil {
				continue
			}
			if stat.ModTime().After(w.lastModTime) {
				w.lastModTime = stat.ModTime()
				log.Info().Msg("Detected env file change via polling")
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

// Reload manually triggers a config reload (e.g., from SIGHUP).
func (w *Watcher) Reload() {
	w.reload()
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	envMap, err := godotenv.Read(w.envPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Msg("Failed to read env file")
			return
		}
		envMap = make(map[string]string)
	}

	var changes []string

	settings := ReloadedSettings{
		LogLevel:     w.config.LogLevel,
		MutePatterns: w.config.MutePatterns,
		AuthUser:     w.config.AuthUser,
		AuthPass:     w.config.AuthPass,
		APIToken:     w.config.APIToken,
	}

	if level := strings.TrimSpace(envMap["AWSLENS_LOG_LEVEL"]); level != "" && level != w.config.LogLevel {
		w.config.LogLevel = level
		settings.LogLevel = level
		changes = append(changes, "log level")
	}

	newMutes := SplitList(envMap["AWSLENS_MUTES"])
	if !equalLists(newMutes, w.config.MutePatterns) {
		w.config.MutePatterns = newMutes
		settings.MutePatterns = newMutes
		changes = append(changes, "mute patterns")
	}

	if user := strings.Trim(envMap["AWSLENS_AUTH_USER"], "'\""); user != w.config.AuthUser {
		w.config.AuthUser = user
		settings.AuthUser = user
		changes = append(changes, "auth user")
	}
	if pass := strings.Trim(envMap["AWSLENS_AUTH_PASS"], "'\""); pass != "" && pass != w.config.AuthPass {
		w.config.AuthPass = pass
		settings.AuthPass = pass
		changes = append(changes, "auth password")
	}
	if token := strings.Trim(envMap["AWSLENS_API_TOKEN"], "'\""); token != w.config.APIToken {
		w.config.APIToken = token
		settings.APIToken = token
		changes = append(changes, "API token")
	}

	if len(changes) == 0 {
		log.Debug().Msg("No runtime-changeable settings in env file change")
		return
	}

	settings.Changed = changes
	log.Info().Strs("changes", changes).Msg("Applied env file changes to runtime config")

	if w.onReload != nil {
		w.onReload(settings)
	}
}

func equalLists(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
