// Package config describes a tier chain in TOML and builds it.
//
//	[redis]
//	addr = "127.0.0.1:6379"
//
//	[[tier]]
//	name = "l1"
//	kind = "ristretto"
//	ttl = "5m"
//
//	[[tier]]
//	name = "shared"
//	kind = "redis"
//	compress = "zstd"
//	generations = "redis"
//
// Tiers are listed in read order; the last one is main.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	KindMemory    = "memory"
	KindRistretto = "ristretto"
	KindBigcache  = "bigcache"
	KindRedis     = "redis"

	CompressGzip = "gzip"
	CompressZstd = "zstd"

	GenLocal = "local"
	GenRedis = "redis"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Redis Redis
	Tiers []Tier
}

// Redis is the connection shared by redis tiers and redis generations.
type Redis struct {
	Addr     string
	Username string
	Password string
	DB       int
}

type Tier struct {
	Name        string
	Kind        string
	Namespace   string // defaults to Name
	TTL         time.Duration
	Compress    string // "", gzip, zstd
	MaxDecode   int    // bytes handed to the value codec; 0 = unlimited
	Generations string // "", local, redis

	// ristretto
	NumCounters int64
	MaxCost     int64 // bytes
	BufferItems int64
	Synchronous bool

	// bigcache
	Shards             int
	CleanWindow        time.Duration
	HardMaxCacheSizeMB int
}

type fileConfig struct {
	Redis fileRedis  `toml:"redis"`
	Tier  []fileTier `toml:"tier"`
}

type fileRedis struct {
	Addr     string `toml:"addr"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type fileTier struct {
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	Namespace   string `toml:"namespace"`
	TTL         string `toml:"ttl"`
	Compress    string `toml:"compress"`
	MaxDecode   int    `toml:"max_decode"`
	Generations string `toml:"generations"`

	NumCounters int64 `toml:"num_counters"`
	MaxCost     int64 `toml:"max_cost"`
	BufferItems int64 `toml:"buffer_items"`
	Synchronous bool  `toml:"synchronous"`

	Shards             int    `toml:"shards"`
	CleanWindow        string `toml:"clean_window"`
	HardMaxCacheSizeMB int    `toml:"hard_max_cache_size_mb"`
}

// Load reads and validates a TOML file.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load tier config: %w", err)
	}
	return fromFile(raw, meta)
}

// Parse is Load for in-memory TOML.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse tier config: %w", err)
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys: %s", ErrInvalid, strings.Join(keys, ", "))
	}

	cfg := Config{
		Redis: Redis{
			Addr:     strings.TrimSpace(raw.Redis.Addr),
			Username: raw.Redis.Username,
			Password: raw.Redis.Password,
			DB:       raw.Redis.DB,
		},
		Tiers: make([]Tier, 0, len(raw.Tier)),
	}

	for i, ft := range raw.Tier {
		t := Tier{
			Name:               strings.TrimSpace(ft.Name),
			Kind:               strings.ToLower(strings.TrimSpace(ft.Kind)),
			Namespace:          strings.TrimSpace(ft.Namespace),
			Compress:           strings.ToLower(strings.TrimSpace(ft.Compress)),
			MaxDecode:          ft.MaxDecode,
			Generations:        strings.ToLower(strings.TrimSpace(ft.Generations)),
			NumCounters:        ft.NumCounters,
			MaxCost:            ft.MaxCost,
			BufferItems:        ft.BufferItems,
			Synchronous:        ft.Synchronous,
			Shards:             ft.Shards,
			HardMaxCacheSizeMB: ft.HardMaxCacheSizeMB,
		}
		if ft.TTL != "" {
			d, err := time.ParseDuration(strings.TrimSpace(ft.TTL))
			if err != nil {
				return Config{}, fmt.Errorf("%w: tier %d: parse ttl: %v", ErrInvalid, i, err)
			}
			t.TTL = d
		}
		if ft.CleanWindow != "" {
			d, err := time.ParseDuration(strings.TrimSpace(ft.CleanWindow))
			if err != nil {
				return Config{}, fmt.Errorf("%w: tier %d: parse clean_window: %v", ErrInvalid, i, err)
			}
			t.CleanWindow = d
		}
		cfg.Tiers = append(cfg.Tiers, t)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills namespace defaults and checks every tier. Errors name the
// offending tier by index.
func (c *Config) Validate() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: at least one [[tier]] is required", ErrInvalid)
	}
	seen := make(map[string]int, len(c.Tiers))
	for i := range c.Tiers {
		t := &c.Tiers[i]
		if t.Name == "" {
			return fmt.Errorf("%w: tier %d: name is required", ErrInvalid, i)
		}
		if j, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: tier %d: name %q already used by tier %d", ErrInvalid, i, t.Name, j)
		}
		seen[t.Name] = i
		if t.Namespace == "" {
			t.Namespace = t.Name
		}
		if t.TTL < 0 || t.MaxDecode < 0 {
			return fmt.Errorf("%w: tier %d: ttl and max_decode must not be negative", ErrInvalid, i)
		}

		switch t.Kind {
		case KindMemory, KindRistretto:
		case KindBigcache:
			if t.TTL == 0 {
				return fmt.Errorf("%w: tier %d: bigcache needs a ttl (its life window)", ErrInvalid, i)
			}
		case KindRedis:
			if c.Redis.Addr == "" {
				return fmt.Errorf("%w: tier %d: kind redis needs [redis] addr", ErrInvalid, i)
			}
		default:
			return fmt.Errorf("%w: tier %d: unknown kind %q", ErrInvalid, i, t.Kind)
		}

		switch t.Compress {
		case "", CompressGzip, CompressZstd:
		default:
			return fmt.Errorf("%w: tier %d: unknown compress %q", ErrInvalid, i, t.Compress)
		}

		switch t.Generations {
		case "", GenLocal:
		case GenRedis:
			if c.Redis.Addr == "" {
				return fmt.Errorf("%w: tier %d: redis generations need [redis] addr", ErrInvalid, i)
			}
		default:
			return fmt.Errorf("%w: tier %d: unknown generations %q", ErrInvalid, i, t.Generations)
		}
	}
	return nil
}
