package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StoreConfig carries storefront policy that can change without a restart.
type StoreConfig struct {
	TotalTolerance       float64  `mapstructure:"totalTolerance"`
	StatsWindowDays      int      `mapstructure:"statsWindowDays"`
	TopProductsLimit     int      `mapstructure:"topProductsLimit"`
	StatsCacheTTLSeconds int      `mapstructure:"statsCacheTTLSeconds"`
	ProofMaxBytes        int64    `mapstructure:"proofMaxBytes"`
	ProofMimeTypes       []string `mapstructure:"proofMimeTypes"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		TotalTolerance:       0.01,
		StatsWindowDays:      30,
		TopProductsLimit:     5,
		StatsCacheTTLSeconds: 60,
		ProofMaxBytes:        5 * 1024 * 1024,
		ProofMimeTypes: []string{
			"image/jpeg",
			"image/png",
			"image/gif",
			"application/pdf",
		},
	}
}

type StoreConfigHolder struct {
	current atomic.Value // holds StoreConfig
}

// NewStaticStoreConfigHolder returns a holder that never reloads.
func NewStaticStoreConfigHolder(cfg StoreConfig) *StoreConfigHolder {
	holder := &StoreConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewStoreConfigHolder(log *zap.Logger) (*StoreConfigHolder, error) {
	log = log.Named("store.config")
	v := viper.New()

	v.SetConfigName("store")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreConfig()
	v.SetDefault("store.totalTolerance", defaults.TotalTolerance)
	v.SetDefault("store.statsWindowDays", defaults.StatsWindowDays)
	v.SetDefault("store.topProductsLimit", defaults.TopProductsLimit)
	v.SetDefault("store.statsCacheTTLSeconds", defaults.StatsCacheTTLSeconds)
	v.SetDefault("store.proofMaxBytes", defaults.ProofMaxBytes)
	v.SetDefault("store.proofMimeTypes", defaults.ProofMimeTypes)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeStoreConfig(v)
	if err != nil {
		return nil, err
	}
	if err := validateStoreConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticStoreConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeStoreConfig(v)
		if err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateStoreConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// decodeStoreConfig goes through AllSettings so nested defaults survive a partial file.
func decodeStoreConfig(v *viper.Viper) (StoreConfig, error) {
	var wrapper struct {
		Store StoreConfig `mapstructure:"store"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return StoreConfig{}, err
	}
	return wrapper.Store, nil
}

func (h *StoreConfigHolder) Get() StoreConfig {
	if h == nil {
		return DefaultStoreConfig()
	}
	return h.current.Load().(StoreConfig)
}

func validateStoreConfig(cfg StoreConfig) error {
	if cfg.TotalTolerance < 0 {
		return errors.New("store.totalTolerance cannot be negative")
	}
	if cfg.StatsWindowDays <= 0 {
		return errors.New("store.statsWindowDays must be positive")
	}
	if cfg.TopProductsLimit <= 0 {
		return errors.New("store.topProductsLimit must be positive")
	}
	if cfg.StatsCacheTTLSeconds < 0 {
		return errors.New("store.statsCacheTTLSeconds cannot be negative")
	}
	if cfg.ProofMaxBytes <= 0 {
		return errors.New("store.proofMaxBytes must be positive")
	}
	if len(cfg.ProofMimeTypes) == 0 {
		return errors.New("store.proofMimeTypes cannot be empty")
	}
	return nil
}
