package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tierkv"
	c "github.com/unkn0wn-root/tierkv/codec"
)

const chainTOML = `
[redis]
addr = "127.0.0.1:6379"
db = 2

[[tier]]
name = "l1"
kind = "ristretto"
ttl = "5m"
max_cost = 1048576
synchronous = true

[[tier]]
name = "l2"
kind = "bigcache"
namespace = "users"
ttl = "10m"
clean_window = "1m"
compress = "zstd"

[[tier]]
name = "main"
kind = "redis"
compress = "gzip"
max_decode = 65536
generations = "redis"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(chainTOML)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	require.Len(t, cfg.Tiers, 3)

	l1 := cfg.Tiers[0]
	assert.Equal(t, KindRistretto, l1.Kind)
	assert.Equal(t, "l1", l1.Namespace)
	assert.Equal(t, 5*time.Minute, l1.TTL)
	assert.Equal(t, int64(1048576), l1.MaxCost)
	assert.True(t, l1.Synchronous)

	l2 := cfg.Tiers[1]
	assert.Equal(t, "users", l2.Namespace)
	assert.Equal(t, time.Minute, l2.CleanWindow)
	assert.Equal(t, CompressZstd, l2.Compress)

	main := cfg.Tiers[2]
	assert.Equal(t, KindRedis, main.Kind)
	assert.Equal(t, 65536, main.MaxDecode)
	assert.Equal(t, GenRedis, main.Generations)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.toml")
	require.NoError(t, os.WriteFile(path, []byte(chainTOML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Tiers, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]struct {
		toml string
		want string
	}{
		"no tiers": {
			toml: `[redis]` + "\n" + `addr = "x"`,
			want: "at least one [[tier]]",
		},
		"unknown kind": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\n[[tier]]\nname = \"b\"\nkind = \"lru\"",
			want: `tier 1: unknown kind "lru"`,
		},
		"missing name": {
			toml: "[[tier]]\nkind = \"memory\"",
			want: "tier 0: name is required",
		},
		"duplicate name": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\n[[tier]]\nname = \"a\"\nkind = \"memory\"",
			want: `tier 1: name "a" already used by tier 0`,
		},
		"bad ttl": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\nttl = \"soon\"",
			want: "tier 0: parse ttl",
		},
		"bigcache without ttl": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"bigcache\"",
			want: "tier 0: bigcache needs a ttl",
		},
		"redis without addr": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"redis\"",
			want: "tier 0: kind redis needs [redis] addr",
		},
		"redis generations without addr": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\ngenerations = \"redis\"",
			want: "tier 0: redis generations need [redis] addr",
		},
		"unknown compress": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\ncompress = \"lz4\"",
			want: `tier 0: unknown compress "lz4"`,
		},
		"unknown key": {
			toml: "[[tier]]\nname = \"a\"\nkind = \"memory\"\nsize = 3",
			want: "unknown keys: tier.size",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.toml)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "err=%v", err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuildLocalChain(t *testing.T) {
	ctx := context.Background()
	cfg, err := Parse(`
[[tier]]
name = "l1"
kind = "ristretto"
synchronous = true
generations = "local"

[[tier]]
name = "l2"
kind = "bigcache"
ttl = "1m"
compress = "gzip"
generations = "local"

[[tier]]
name = "main"
kind = "memory"
compress = "zstd"
max_decode = 4096
generations = "local"
`)
	require.NoError(t, err)

	tt, closeAll, err := Build[string](ctx, cfg, c.String{}, BuildOptions{Logger: tierkv.NopLogger{}, Backfill: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, closeAll(ctx)) }()

	tiers := tt.Tiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, "l1", tiers[0].Name)
	assert.Equal(t, "main", tt.Main().Name)

	ok, err := tt.Set(ctx, "k", "v")
	require.NoError(t, err)
	require.True(t, ok)

	for _, tier := range tiers {
		v, found, err := tier.Adapter.Get(ctx, "k")
		require.NoError(t, err, tier.Name)
		assert.True(t, found, tier.Name)
		assert.Equal(t, "v", v, tier.Name)
	}

	removed, err := tt.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)
	_, found, err := tt.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// backfill from main into both caches
	_, err = tiers[2].Adapter.Set(ctx, "j", "w")
	require.NoError(t, err)
	items, err := tt.GetAll(ctx, []string{"j"})
	require.NoError(t, err)
	require.True(t, items[0].Found)
	_, found, err = tiers[0].Adapter.Get(ctx, "j")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBuildRedisDoesNotDial(t *testing.T) {
	ctx := context.Background()
	cfg, err := Parse(chainTOML)
	require.NoError(t, err)

	tt, closeAll, err := Build[string](ctx, cfg, c.String{}, BuildOptions{Logger: tierkv.NopLogger{}})
	require.NoError(t, err)
	assert.Equal(t, "main", tt.Main().Name)
	assert.NoError(t, closeAll(ctx))
}

func TestBuildRequiresCodec(t *testing.T) {
	cfg, err := Parse("[[tier]]\nname = \"a\"\nkind = \"memory\"")
	require.NoError(t, err)
	_, _, err = Build[string](context.Background(), cfg, nil, BuildOptions{})
	assert.ErrorIs(t, err, ErrInvalid)
}
