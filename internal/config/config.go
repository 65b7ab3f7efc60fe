// Package config loads launcher preferences: notification allowlists,
// display toggles, the badge character limit, and application aliases.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lumenlauncher/lumen/internal/compose"
	"github.com/lumenlauncher/lumen/internal/logging"
)

const defaultCharLimit = 30

// Config is the on-disk preference schema.
type Config struct {
	// CharLimit caps the secondary badge line length in characters.
	CharLimit int `koanf:"char_limit"`

	// BadgeApps and ConversationApps are the two independent allowlists.
	// An empty list means "all applications".
	BadgeApps        []string `koanf:"badge_apps"`
	ConversationApps []string `koanf:"conversation_apps"`

	Toggles ToggleConfig `koanf:"toggles"`

	// Aliases overrides the display name per application ID.
	Aliases map[string]string `koanf:"aliases"`
}

// ToggleConfig holds the per-field display switches. All default to on.
type ToggleConfig struct {
	NotificationBadge *bool `koanf:"notification_badge"`
	MediaIndicator    *bool `koanf:"media_indicator"`
	MediaName         *bool `koanf:"media_name"`
	SenderName        *bool `koanf:"sender_name"`
	GroupName         *bool `koanf:"group_name"`
	Message           *bool `koanf:"message"`
}

// Load reads preference files in priority order (last wins) and applies
// defaults for unset values.
func Load() (*Config, error) {
	return LoadFrom(configPaths()...)
}

// LoadFrom reads the given preference files in order (last wins). Missing
// files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	// Application IDs contain dots, so the path delimiter must not be ".".
	k := koanf.New("/")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{CharLimit: defaultCharLimit}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.CharLimit <= 0 {
		cfg.CharLimit = defaultCharLimit
	}

	return cfg, nil
}

// DefaultPath returns the user preference file path.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "lumen", "config.toml")
	}
	return "config.toml"
}

func configPaths() []string {
	paths := []string{}

	// 1. ~/.config/lumen/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lumen", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// composeToggles converts the stored switches to compose toggles,
// defaulting unset values to on.
func (c *Config) composeToggles() compose.Toggles {
	on := func(v *bool) bool { return v == nil || *v }
	return compose.Toggles{
		NotificationBadge: on(c.Toggles.NotificationBadge),
		MediaIndicator:    on(c.Toggles.MediaIndicator),
		MediaName:         on(c.Toggles.MediaName),
		SenderName:        on(c.Toggles.SenderName),
		GroupName:         on(c.Toggles.GroupName),
		Message:           on(c.Toggles.Message),
	}
}

// Store provides live preference reads. Every accessor returns the current
// value, so a reload (manual or watcher-driven) takes effect on the next
// engine publish or badge render.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore wraps cfg for concurrent access.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// BadgeAllowlist returns the badge allow-set; empty means all.
func (s *Store) BadgeAllowlist() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toSet(s.cfg.BadgeApps)
}

// ConversationAllowlist returns the conversation allow-set; empty means all.
func (s *Store) ConversationAllowlist() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toSet(s.cfg.ConversationApps)
}

// Toggles returns the current display toggles.
func (s *Store) Toggles() compose.Toggles {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.composeToggles()
}

// CharLimit returns the current secondary-line character limit.
func (s *Store) CharLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.CharLimit
}

// AliasFor returns the configured alias for appID, if any.
func (s *Store) AliasFor(appID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alias, ok := s.cfg.Aliases[appID]
	return alias, ok
}

// DisplayName resolves the label shown for appID: the alias when set, else
// the application ID's last dot-segment, capitalized.
func (s *Store) DisplayName(appID string) string {
	if alias, ok := s.AliasFor(appID); ok && alias != "" {
		return alias
	}
	return defaultLabel(appID)
}

// Replace swaps the active configuration.
func (s *Store) Replace(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Watch reloads the store whenever path changes. The reload re-reads the full
// layered path list, not just the watched file, so overrides from the other
// layers survive. Reload failures keep the previous configuration.
func (s *Store) Watch(path string) error {
	return s.watch(path, configPaths)
}

func (s *Store) watch(path string, paths func() []string) error {
	log := logging.Component("config")
	f := file.Provider(path)
	return f.Watch(func(_ interface{}, err error) {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("preference watch error")
			return
		}
		cfg, err := LoadFrom(paths()...)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("preference reload failed, keeping previous")
			return
		}
		s.Replace(cfg)
		log.Debug().Str("path", path).Msg("preferences reloaded")
	})
}

func toSet(apps []string) map[string]struct{} {
	if len(apps) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		set[app] = struct{}{}
	}
	return set
}

func defaultLabel(appID string) string {
	segment := appID
	if i := strings.LastIndex(appID, "."); i >= 0 && i+1 < len(appID) {
		segment = appID[i+1:]
	}
	if segment == "" {
		return appID
	}
	return strings.ToUpper(segment[:1]) + segment[1:]
}
