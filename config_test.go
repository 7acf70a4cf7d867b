// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	assert.NoError(t, err)
	assert.True(t, cfg.EnableCompression)
	assert.False(t, cfg.EnableMultiWrites)
	assert.Equal(t, uint64(1e9), cfg.BufferPoolSize)
}

func TestLoadConfigOverrides(t *testing.T) {
	yamlDoc := []byte("bufferPoolSize: 2GB\nenableMultiWrites: true\n")
	cfg, err := LoadConfig(yamlDoc)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2e9), cfg.BufferPoolSize)
	assert.True(t, cfg.EnableMultiWrites)
	assert.True(t, cfg.AutoCheckpoint, "unspecified fields should keep their default")
}

func TestLoadConfigRejectsBadSize(t *testing.T) {
	_, err := LoadConfig([]byte("bufferPoolSize: not-a-size\n"))
	assert.Error(t, err)
}
