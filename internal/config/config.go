// internal/config/config.go
//
// This package handles configuration and the .cart directory structure.
// Every project that runs the cart terminal gets a .cart/ folder in its root
// holding config.yaml and the logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/cartstate/internal/cart"
	"github.com/kingrea/cartstate/internal/money"
)

const (
	// CartDir is the name of the directory we create in each project
	CartDir = ".cart"

	defaultSubscriberCapacity = 16
)

const defaultProjectConfigYAML = `# cart project configuration
version: 1

# Currency used for the formatted total. locale is a BCP 47 tag.
currency:
  locale: en-US
  symbol: "$"

store:
  # Snapshots buffered per subscriber before the oldest is dropped.
  subscriber_capacity: 16

# Products offered in the terminal. SKUs must end in four digits; the cart
# is displayed in the order of that suffix.
catalog:
  - sku: TEA0001
    name: Sencha
    price: 12.50
  - sku: TEA0002
    name: Genmaicha
    price: 9.75
  - sku: POT0010
    name: Kyusu teapot
    price: 48.00
  - sku: CUP0020
    name: Yunomi cup
    price: 14.00
`

// CurrencyConfig controls how totals are rendered.
type CurrencyConfig struct {
	Locale string `yaml:"locale"`
	Symbol string `yaml:"symbol"`
}

// StoreConfig tunes the cart store.
type StoreConfig struct {
	SubscriberCapacity int `yaml:"subscriber_capacity"`
}

// Product is one catalog entry offered for adding to the cart.
type Product struct {
	SKU   string          `yaml:"sku"`
	Name  string          `yaml:"name"`
	Price decimal.Decimal `yaml:"price"`
}

// LineItem converts the product into the payload of an ADD action.
func (p Product) LineItem() cart.LineItem {
	return cart.LineItem{SKU: p.SKU, Name: p.Name, Price: p.Price, Qty: 1}
}

// ProjectConfig models .cart/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Currency CurrencyConfig `yaml:"currency"`
	Store    StoreConfig    `yaml:"store"`
	Catalog  []Product      `yaml:"catalog"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory the terminal was started from
	ProjectDir string

	// CartProjectDir is ProjectDir/.cart
	CartProjectDir string

	Project ProjectConfig
}

// InitCartDir creates the .cart directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .cart/
// ├── config.yaml
// └── logs/
func InitCartDir(projectDir string) error {
	cartDir := filepath.Join(projectDir, CartDir)
	if err := os.MkdirAll(filepath.Join(cartDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure cart dir: %w", err)
	}
	return ensureProjectConfig(filepath.Join(cartDir, "config.yaml"))
}

// NewConfig creates a Config populated from .cart/config.yaml and the
// CART_* environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:     projectDir,
		CartProjectDir: filepath.Join(projectDir, CartDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.CartProjectDir, "logs")
}

// JournalPath returns the session journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.CartProjectDir, "config.yaml")
}

// Formatter builds the currency formatter for the configured locale.
func (c *Config) Formatter() *money.Formatter {
	return money.New(c.Project.Currency.Locale, c.Project.Currency.Symbol)
}

// SubscriberCapacity returns the per-subscriber snapshot buffer.
func (c *Config) SubscriberCapacity() int {
	return c.Project.Store.SubscriberCapacity
}

// Catalog returns the configured products.
func (c *Config) Catalog() []Product {
	return c.Project.Catalog
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		data = nil
	}

	parsed := defaultProjectConfig()
	if len(data) > 0 {
		parsed = ProjectConfig{}
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	parsed.applyDefaults()
	parsed.applyEnvOverrides()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Currency: CurrencyConfig{
			Locale: money.DefaultLocale,
			Symbol: money.DefaultSymbol,
		},
		Store: StoreConfig{SubscriberCapacity: defaultSubscriberCapacity},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Currency.Locale) == "" {
		pc.Currency.Locale = money.DefaultLocale
	}
	if pc.Currency.Symbol == "" {
		pc.Currency.Symbol = money.DefaultSymbol
	}
	if pc.Store.SubscriberCapacity <= 0 {
		pc.Store.SubscriberCapacity = defaultSubscriberCapacity
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if locale := strings.TrimSpace(os.Getenv("CART_LOCALE")); locale != "" {
		pc.Currency.Locale = locale
	}
	if symbol := os.Getenv("CART_CURRENCY_SYMBOL"); symbol != "" {
		pc.Currency.Symbol = symbol
	}
	if capacity := strings.TrimSpace(os.Getenv("CART_SUBSCRIBER_CAPACITY")); capacity != "" {
		if parsed, err := strconv.Atoi(capacity); err == nil && parsed > 0 {
			pc.Store.SubscriberCapacity = parsed
		}
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Currency.Locale = strings.TrimSpace(pc.Currency.Locale)
	for i := range pc.Catalog {
		pc.Catalog[i].SKU = strings.TrimSpace(pc.Catalog[i].SKU)
		pc.Catalog[i].Name = strings.TrimSpace(pc.Catalog[i].Name)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	seen := map[string]struct{}{}
	for i, product := range pc.Catalog {
		if err := product.validate(); err != nil {
			return fmt.Errorf("catalog[%d]: %w", i, err)
		}
		if _, dup := seen[product.SKU]; dup {
			return fmt.Errorf("catalog[%d]: duplicate sku %s", i, product.SKU)
		}
		seen[product.SKU] = struct{}{}
	}
	return nil
}

func (p Product) validate() error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if _, err := cart.SortKey(p.SKU); err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for %s", p.SKU)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price for %s cannot be negative", p.SKU)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
