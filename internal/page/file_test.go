// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package page

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileReadWritePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.page")
	f, err := Open(path)
	assert.NoError(t, err)
	defer f.Close()

	payload := []byte("hello page")
	assert.NoError(t, f.WritePage(3, payload))
	assert.NoError(t, f.Sync())

	got, err := f.ReadPage(3)
	assert.NoError(t, err)
	assert.Equal(t, payload, got[:len(payload)])
}

func TestShadowFileApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.page")
	main, err := Open(path)
	assert.NoError(t, err)
	defer main.Close()

	shadow, err := OpenShadow(path)
	assert.NoError(t, err)
	defer shadow.Close()

	assert.NoError(t, shadow.WriteShadow(0, []byte("v1")))
	assert.NoError(t, shadow.Flush())
	assert.NoError(t, shadow.Apply(main))

	got, err := main.ReadPage(0)
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), got[:2])
}

func TestShadowFileDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main2.page")
	main, err := Open(path)
	assert.NoError(t, err)
	defer main.Close()

	shadow, err := OpenShadow(path)
	assert.NoError(t, err)
	defer shadow.Close()

	assert.NoError(t, shadow.WriteShadow(0, []byte("staged")))
	shadow.Discard()
	assert.NoError(t, shadow.Apply(main))

	got, err := main.ReadPage(0)
	assert.NoError(t, err)
	for _, b := range got {
		assert.Equal(t, byte(0), b)
	}
}
