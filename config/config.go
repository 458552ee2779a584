package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SOLIDBG_"

type Config struct {
	Addr         string
	ImageTTL     time.Duration
	SweepSpec    string // cron 表达式，例如 "@every 5m"
	FetchTimeout time.Duration
	Workers      int
	MaxSize      int
	Trim         bool
}

func Default() Config {
	return Config{
		Addr:         ":8080",
		ImageTTL:     30 * time.Minute,
		SweepSpec:    "@every 5m",
		FetchTimeout: 30 * time.Second,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// Load 先读 .env 文件（不存在则忽略），再用 SOLIDBG_* 环境变量覆盖默认值
// 已经存在的环境变量不会被 .env 覆盖
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv lookup 通常是 os.LookupEnv，测试里可以替换
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + key); ok && v != "" && err == nil {
			var d time.Duration
			if d, err = time.ParseDuration(v); err != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok && v != "" && err == nil {
			var n int
			if n, err = strconv.Atoi(v); err != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok && v != "" && err == nil {
			var b bool
			if b, err = strconv.ParseBool(v); err != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
				return
			}
			*dst = b
		}
	}

	str("ADDR", &cfg.Addr)
	str("SWEEP", &cfg.SweepSpec)
	dur("IMAGE_TTL", &cfg.ImageTTL)
	dur("FETCH_TIMEOUT", &cfg.FetchTimeout)
	integer("WORKERS", &cfg.Workers)
	integer("MAX_SIZE", &cfg.MaxSize)
	boolean("TRIM", &cfg.Trim)

	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
