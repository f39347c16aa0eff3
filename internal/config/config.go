package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// SourceKind selects the fetch strategy for a source.
type SourceKind string

const (
	// KindFeed is an RSS/Atom feed polled with a feed parser.
	KindFeed SourceKind = "feed"
	// KindListing is an HTML page whose anchors are scraped by CSS selector.
	KindListing SourceKind = "listing"
)

// UnmarshalText validates the kind while the config file is being decoded,
// so a typo fails at load time instead of at fetch time.
func (k *SourceKind) UnmarshalText(text []byte) error {
	switch kind := SourceKind(text); kind {
	case KindFeed, KindListing:
		*k = kind
		return nil
	default:
		return fmt.Errorf("invalid source kind %q: must be %q or %q", text, KindFeed, KindListing)
	}
}

// Source describes one polled origin of candidate items.
type Source struct {
	Name string     `toml:"name"`
	Kind SourceKind `toml:"kind"`
	URL  string     `toml:"url"`

	// ItemSelector is the CSS selector for item anchors on listing pages.
	// Defaults to "a". Ignored for feed sources.
	ItemSelector string `toml:"item_selector"`

	// BaseURL resolves relative hrefs on listing pages. Defaults to the
	// source URL. Ignored for feed sources.
	BaseURL string `toml:"base_url"`
}

// Config holds all application configuration.
type Config struct {
	Notify   NotifyConfig `toml:"notify"`
	Watch    WatchConfig  `toml:"watch"`
	Cache    CacheConfig  `toml:"cache"`
	Keywords []string     `toml:"keywords"`
	Sources  []Source     `toml:"sources"`
}

// NotifyConfig holds push delivery settings.
type NotifyConfig struct {
	URL   string `toml:"url"`
	Topic string `toml:"topic"`
}

// WatchConfig holds pipeline settings.
type WatchConfig struct {
	StateFile         string `toml:"state_file"`
	MaxItemsPerSource int    `toml:"max_items_per_source"`
	MaxNotifyItems    int    `toml:"max_notify_items"`
	ChunkSize         int    `toml:"chunk_size"`
	TitleMaxLen       int    `toml:"title_max_len"`
	Label             string `toml:"label"`
}

// CacheConfig holds relevance verdict cache settings. An empty path
// disables the cache.
type CacheConfig struct {
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

const defaultConfigContent = `# taxwatch configuration.
# The NTFY_URL, NTFY_TOPIC, STATE_FILE and MAX_ITEMS_PER_SOURCE environment
# variables override the corresponding values below.

keywords = [
  "세법", "개정", "고시", "보도자료", "예규", "해석", "사전답변", "판례",
  "법인세", "부가세", "부가가치세", "소득세", "원천세", "지방세",
  "감면", "공제", "가산세", "전자신고", "연말정산",
  "transfer pricing", "withholding", "international tax",
]

[notify]
url = "https://ntfy.sh"
topic = ""                           # set a topic to enable push delivery

[watch]
state_file = ".state/tax_state.json"
max_items_per_source = 30
max_notify_items = 10
chunk_size = 1500
title_max_len = 200
label = "세법/공지 업데이트"

[cache]
path = ".state/relevance.db"         # "" disables the verdict cache
ttl_hours = 24

# 기획재정부 보도자료 (RSS)
[[sources]]
name = "기재부_보도자료(RSS)"
kind = "feed"
url = "https://www.moef.go.kr/feeds/news_release.xml"

# 국세청 보도자료/공지 (HTML)
[[sources]]
name = "국세청_보도자료"
kind = "listing"
url = "https://www.nts.go.kr/nts/cm/cntnts/cntntsView.do?mi=11931"
item_selector = "div.bbsList li a"
base_url = "https://www.nts.go.kr"

[[sources]]
name = "국세청_공지사항"
kind = "listing"
url = "https://www.nts.go.kr/nts/cm/cntnts/cntntsList.do?mi=11932"
item_selector = "div.bbsList li a"
base_url = "https://www.nts.go.kr"

# 국가법령정보센터(법제처) 최근 공포 법령 (HTML)
[[sources]]
name = "법제처_최근공포법령"
kind = "listing"
url = "https://www.law.go.kr/LSW/lsInfoP.do?lsiSeq=&lsId=&efYd=&chrClsCd="
item_selector = "a"
base_url = "https://www.law.go.kr"

# 정부안 입법예고 공식 RSS (법제처 Open API)
[[sources]]
name = "법제처_입법예고(RSS)"
kind = "feed"
url = "https://open.moleg.go.kr/data/xml/li_rssSH01.xml"

# 기획재정부 입법·행정예고 (HTML 목록)
[[sources]]
name = "기재부_입법·행정예고"
kind = "listing"
url = "https://www.moef.go.kr/lw/lap/TbPrvntcList.do?bbsId=MOSFBBS_000000000055&menuNo=7050300"
item_selector = "table a, .bbsList a, a[href*='TbPrvntcView']"
base_url = "https://www.moef.go.kr"
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "chunk_size = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("watch", "max_items_per_source") && cfg.Watch.MaxItemsPerSource < 1 {
		return fmt.Errorf("invalid watch.max_items_per_source %d: must be >= 1", cfg.Watch.MaxItemsPerSource)
	}
	if md.IsDefined("watch", "max_notify_items") && cfg.Watch.MaxNotifyItems < 1 {
		return fmt.Errorf("invalid watch.max_notify_items %d: must be >= 1", cfg.Watch.MaxNotifyItems)
	}
	if md.IsDefined("watch", "chunk_size") && cfg.Watch.ChunkSize < 1 {
		return fmt.Errorf("invalid watch.chunk_size %d: must be >= 1", cfg.Watch.ChunkSize)
	}
	if md.IsDefined("watch", "title_max_len") && cfg.Watch.TitleMaxLen < 2 {
		return fmt.Errorf("invalid watch.title_max_len %d: must be >= 2", cfg.Watch.TitleMaxLen)
	}
	if md.IsDefined("cache", "ttl_hours") && cfg.Cache.TTLHours < 1 {
		return fmt.Errorf("invalid cache.ttl_hours %d: must be >= 1", cfg.Cache.TTLHours)
	}
	return nil
}

// applyDefaults sets default values for any unset fields.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Notify.URL == "" {
		cfg.Notify.URL = "https://ntfy.sh"
	}
	if cfg.Watch.StateFile == "" {
		cfg.Watch.StateFile = ".state/tax_state.json"
	}
	if cfg.Watch.MaxItemsPerSource == 0 {
		cfg.Watch.MaxItemsPerSource = 30
	}
	if cfg.Watch.MaxNotifyItems == 0 {
		cfg.Watch.MaxNotifyItems = 10
	}
	if cfg.Watch.ChunkSize == 0 {
		cfg.Watch.ChunkSize = 1500
	}
	if cfg.Watch.TitleMaxLen == 0 {
		cfg.Watch.TitleMaxLen = 200
	}
	if cfg.Watch.Label == "" {
		cfg.Watch.Label = "세법/공지 업데이트"
	}
	// An explicit empty cache path disables the cache, so the default only
	// applies when the key is absent from the file.
	if !md.IsDefined("cache", "path") {
		cfg.Cache.Path = ".state/relevance.db"
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.Kind == KindListing && src.ItemSelector == "" {
			src.ItemSelector = "a"
		}
		if src.Kind == KindListing && src.BaseURL == "" {
			src.BaseURL = src.URL
		}
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NTFY_URL"); v != "" {
		cfg.Notify.URL = v
	}
	if v := os.Getenv("NTFY_TOPIC"); v != "" {
		cfg.Notify.Topic = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Watch.StateFile = v
	}
	if v := os.Getenv("MAX_ITEMS_PER_SOURCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid MAX_ITEMS_PER_SOURCE %q: must be a positive integer", v)
		}
		cfg.Watch.MaxItemsPerSource = n
	}
	return nil
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if len(cfg.Keywords) == 0 {
		return errors.New("keywords must not be empty")
	}
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name must not be empty", i)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: url must not be empty", src.Name)
		}
		if src.Kind == "" {
			return fmt.Errorf("source %q: kind must be set", src.Name)
		}
	}
	if cfg.Notify.Topic == "" {
		slog.Warn("notify.topic is empty: matches will be logged but not pushed (set NTFY_TOPIC to enable delivery)")
	}
	return nil
}
