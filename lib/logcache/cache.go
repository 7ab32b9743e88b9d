// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logcache keeps derivation build logs on disk so repeated
// summaries of the same builds (a retried post step, or the summarize
// command run by hand) do not invoke "nix log" again.
//
// A [Cache] wraps any failuresummary.LogFetcher. Entries are keyed by
// the BLAKE3 hash of the derivation path and stored as
// <directory>/<hex>.log with a one-byte compression tag and the
// uncompressed length in front of the body. Only logs that were
// actually read are cached: a fetch that reported no log is retried on
// the next call.
package logcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/nix-installer-action/lib/failuresummary"
)

// Cache is a failuresummary.LogFetcher backed by a directory.
type Cache struct {
	directory   string
	fetcher     failuresummary.LogFetcher
	compression Compression
	logger      *slog.Logger
}

// Options configure a Cache.
type Options struct {
	// Compression applies to new entries. Entries written with any
	// other compression remain readable.
	Compression Compression

	// Logger receives cache hits, misses, and unreadable entries at
	// debug and warn level. Nil discards.
	Logger *slog.Logger
}

// New returns a Cache in directory, creating it if needed, that fills
// misses from fetcher.
func New(directory string, fetcher failuresummary.LogFetcher, options Options) (*Cache, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log cache directory: %w", err)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		directory:   directory,
		fetcher:     fetcher,
		compression: options.Compression,
		logger:      logger,
	}, nil
}

// Key returns the cache key for a derivation path.
func Key(derivation string) string {
	sum := blake3.Sum256([]byte(derivation))
	return hex.EncodeToString(sum[:])
}

// Path returns the file that holds, or would hold, the log for
// derivation.
func (cache *Cache) Path(derivation string) string {
	return filepath.Join(cache.directory, Key(derivation)+".log")
}

// FetchLog returns the cached log for derivation, or fetches, stores
// and returns it. A failure to write the cache is logged and does not
// affect the result.
func (cache *Cache) FetchLog(ctx context.Context, derivation string) (string, bool, error) {
	path := cache.Path(derivation)

	log, err := cache.read(path)
	switch {
	case err == nil:
		cache.logger.Debug("build log cache hit", "derivation", derivation)
		return log, true, nil
	case errors.Is(err, fs.ErrNotExist):
		cache.logger.Debug("build log cache miss", "derivation", derivation)
	default:
		cache.logger.Warn("discarding unreadable build log cache entry",
			"derivation", derivation, "path", path, "error", err)
	}

	log, ok, err := cache.fetcher.FetchLog(ctx, derivation)
	if err != nil || !ok {
		return log, ok, err
	}

	if err := cache.write(path, log); err != nil {
		cache.logger.Warn("caching build log failed",
			"derivation", derivation, "path", path, "error", err)
	}
	return log, true, nil
}

func (cache *Cache) read(path string) (string, error) {
	entry, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data, err := decodeEntry(entry)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(data), nil
}

// write replaces path atomically so a concurrent reader never sees a
// partial entry.
func (cache *Cache) write(path, log string) error {
	entry, err := encodeEntry([]byte(log), cache.compression)
	if err != nil {
		return err
	}

	temporary, err := os.CreateTemp(cache.directory, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := temporary.Write(entry); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return err
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return err
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return err
	}
	return nil
}
