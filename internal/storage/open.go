package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendSQLite  = "sqlite"
	BackendJSONBin = "jsonbin"
	BackendMemory  = "memory"
)

// Options selects and configures a Recorder backend.
type Options struct {
	Backend          string
	FilePath         string
	RedisURL         string
	RedisKey         string
	SQLitePath       string
	JSONBinURL       string
	JSONBinMasterKey string
}

// Open builds the Recorder named by opts.Backend.
func Open(ctx context.Context, opts Options) (Recorder, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendFile, "":
		return NewFileRecorder(opts.FilePath)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis log store requires REDIS_URL")
		}
		return NewRedisRecorder(ctx, opts.RedisURL, opts.RedisKey)
	case BackendSQLite:
		return NewSQLiteRecorder(ctx, opts.SQLitePath)
	case BackendJSONBin:
		return NewJSONBinRecorder(opts.JSONBinURL, opts.JSONBinMasterKey, nil)
	case BackendMemory:
		return NewMemoryRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown log store backend: %s", opts.Backend)
	}
}
