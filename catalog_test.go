// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogCreateTable(t *testing.T) {
	cat := NewCatalog()

	update, err := cat.CreateTable(TableSchema{
		Name:       "Person",
		PrimaryKey: "id",
		Columns:    []ColumnSchema{{Name: "id", Kind: KindUncompressed}},
	})
	assert.NoError(t, err)
	assert.True(t, update.Applied)

	tbl, ok := cat.Table("Person")
	assert.True(t, ok)
	assert.NotNil(t, tbl.Group)

	_, err = cat.CreateTable(TableSchema{Name: "Person"})
	assert.Error(t, err)
}

func TestCatalogAddColumn(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.CreateTable(TableSchema{Name: "Person"})
	assert.NoError(t, err)

	_, err = cat.AddColumn("Person", ColumnSchema{Name: "age", Kind: KindBitpacked})
	assert.NoError(t, err)

	tbl, _ := cat.Table("Person")
	assert.Len(t, tbl.Columns, 1)

	_, err = cat.AddColumn("Ghost", ColumnSchema{Name: "x"})
	assert.Error(t, err)
}

func TestDiskArrayCollectionChainsHeaderPages(t *testing.T) {
	d := newDiskArrayCollection()
	for i := 0; i < numHeadersPerPage+1; i++ {
		d.allocateHeaderPage("x")
	}
	assert.Equal(t, 2, d.NumHeaderPages())
}
