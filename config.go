// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/imdario/mergo"
	"gopkg.in/yaml.v3"
)

// DBConfig is the closed set of options a caller may tune: buffer pool
// size, maximum database size, compression, multiple concurrent writers,
// automatic checkpointing, the checkpoint wait timeout, and read-only
// mode. It has no thread-count, checkpoint-threshold,
// force-checkpoint-on-close or spill-to-disk options. Grounded on the
// teacher's `Options` struct/merge-loop (collection.go).
type DBConfig struct {
	// BufferPoolSizeRaw accepts a humanized size ("4GB", "512MiB") and is
	// parsed into BufferPoolSize bytes by LoadConfig.
	BufferPoolSizeRaw string `yaml:"bufferPoolSize"`
	BufferPoolSize    uint64 `yaml:"-"`

	MaxDBSizeRaw string `yaml:"maxDBSize"`
	MaxDBSize    uint64 `yaml:"-"`

	EnableCompression     bool          `yaml:"enableCompression"`
	EnableMultiWrites     bool          `yaml:"enableMultiWrites"`
	AutoCheckpoint        bool          `yaml:"autoCheckpoint"`
	CheckpointWaitTimeout time.Duration `yaml:"checkpointWaitTimeout"`
	ReadOnly              bool          `yaml:"readOnly"`
}

// defaultConfig returns the baseline every Load call merges user input
// on top of, the same role the teacher's NewCollection literal plays.
func defaultConfig() DBConfig {
	return DBConfig{
		BufferPoolSizeRaw:     "1GB",
		MaxDBSizeRaw:          "8TB",
		EnableCompression:     true,
		EnableMultiWrites:     false,
		AutoCheckpoint:        true,
		CheckpointWaitTimeout: 5 * time.Second,
		ReadOnly:              false,
	}
}

// LoadConfig parses YAML-encoded configuration, merges it onto
// defaultConfig (user-supplied non-zero fields win, via mergo's
// WithOverride option — the same policy the teacher's Options merge-loop
// hand-rolls field by field), and resolves humanized size strings.
func LoadConfig(yamlBytes []byte) (DBConfig, error) {
	cfg := defaultConfig()
	if len(yamlBytes) == 0 {
		return resolveSizes(cfg)
	}

	var parsed DBConfig
	if err := yaml.Unmarshal(yamlBytes, &parsed); err != nil {
		return DBConfig{}, fmt.Errorf("graphdb: parsing config: %w", err)
	}

	if err := mergo.Merge(&cfg, parsed, mergo.WithOverride); err != nil {
		return DBConfig{}, fmt.Errorf("graphdb: merging config: %w", err)
	}
	return resolveSizes(cfg)
}

func resolveSizes(cfg DBConfig) (DBConfig, error) {
	bp, err := humanize.ParseBytes(cfg.BufferPoolSizeRaw)
	if err != nil {
		return DBConfig{}, fmt.Errorf("graphdb: invalid bufferPoolSize %q: %w", cfg.BufferPoolSizeRaw, err)
	}
	cfg.BufferPoolSize = bp

	maxDB, err := humanize.ParseBytes(cfg.MaxDBSizeRaw)
	if err != nil {
		return DBConfig{}, fmt.Errorf("graphdb: invalid maxDBSize %q: %w", cfg.MaxDBSizeRaw, err)
	}
	cfg.MaxDBSize = maxDB
	return cfg, nil
}

// String renders the resolved sizes back in humanized form, mirroring
// how the teacher's Options are logged at startup.
func (c DBConfig) String() string {
	return fmt.Sprintf("bufferPool=%s maxDB=%s compression=%t multiWrites=%t autoCheckpoint=%t",
		humanize.Bytes(c.BufferPoolSize), humanize.Bytes(c.MaxDBSize), c.EnableCompression, c.EnableMultiWrites, c.AutoCheckpoint)
}
