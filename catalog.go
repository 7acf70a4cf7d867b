// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"fmt"
	"sync"

	"github.com/imdario/mergo"
)

// ColumnKind narrows a column's storage type for codec selection.
type ColumnKind uint8

const (
	KindUncompressed ColumnKind = iota
	KindBitpacked
	KindALPFloat
	KindConstant
)

// ColumnSchema describes one column of a table.
type ColumnSchema struct {
	Name string
	Kind ColumnKind
}

// TableSchema describes one node or relationship table, per spec.md §2's
// table model. Grounded on the teacher's `columns` map (columns.go)
// generalized from "dynamic column set" to "fixed schema plus a node
// group".
type TableSchema struct {
	Name       string
	Columns    []ColumnSchema
	PrimaryKey string
	Group      *NodeGroup
}

// StructuralUpdate tags a catalog mutation that is NOT undoable by a
// transaction rollback — only DDL (CreateTable, AddColumn) uses it.
// Per the Open Question resolved in DESIGN.md: disk-array header-page
// allocation survives rollback in the original, and this tag keeps that
// behavior explicit rather than silently conflated with ordinary
// per-row undo entries.
type StructuralUpdate struct {
	TableName string
	Applied   bool
}

// Catalog owns every TableSchema in the database plus the disk-array
// header-page chain backing their on-disk layout. Grounded on the
// teacher's `Collection.cols`/`CreateColumn` (collection.go) generalized
// from one flat column map to multiple named tables, and on
// original_source/src/storage/disk_array_collection.cpp for the
// header-page chain.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*TableSchema
	disk   *DiskArrayCollection
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[string]*TableSchema),
		disk:   newDiskArrayCollection(),
	}
}

// CreateTable registers a new table schema and gives it a fresh node
// group. It is a StructuralUpdate: once applied it is never rolled back
// by a transaction abort, mirroring the original's own "structural
// changes in the PKIndex cannot be rolled back" behavior.
func (c *Catalog) CreateTable(schema TableSchema) (*StructuralUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[schema.Name]; exists {
		return nil, newError(ErrRuntime, ReasonNone, "table %q already exists", schema.Name)
	}

	schema.Group = NewNodeGroup()
	tbl := schema
	c.tables[schema.Name] = &tbl
	c.disk.allocateHeaderPage(schema.Name)

	return &StructuralUpdate{TableName: schema.Name, Applied: true}, nil
}

// Table returns a table schema by name.
func (c *Catalog) Table(name string) (*TableSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

// AddColumn appends a new column to an existing table, backfilling a
// default-populated chunk as spec.md §4.2 describes for `addColumn`.
// Also a StructuralUpdate.
func (c *Catalog) AddColumn(tableName string, col ColumnSchema) (*StructuralUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tbl, ok := c.tables[tableName]
	if !ok {
		return nil, newError(ErrRuntime, ReasonNone, "table %q does not exist", tableName)
	}
	tbl.Columns = append(tbl.Columns, col)
	c.disk.allocateHeaderPage(fmt.Sprintf("%s.%s", tableName, col.Name))

	return &StructuralUpdate{TableName: tableName, Applied: true}, nil
}

// Merge overlays override onto base for every non-zero field, the same
// mergo-driven policy config.go uses, applied here to TableSchema
// defaults supplied by callers that only specify a subset of columns.
func Merge(base, override *TableSchema) error {
	return mergo.Merge(base, override, mergo.WithOverride)
}

// --------------------------- DiskArrayCollection ----------------------------

// numHeadersPerPage bounds how many header entries one header page
// holds before a new page is linked in, matching
// original_source/src/storage/disk_array_collection.cpp's
// NUM_HEADERS_PER_PAGE.
const numHeadersPerPage = 256

// diskArrayHeader is one entry in the header-page chain. It records only
// the name it indexes; the entry's position in DiskArrayCollection's
// in-memory header pages is its only locator, and no page ID is stored.
type diskArrayHeader struct {
	Name string
}

// DiskArrayCollection models the original's header-page chain: a list of
// fixed-size header pages, each holding up to numHeadersPerPage entries,
// linked via nextHeaderPage. Allocating a new header never reuses a
// freed slot and is never rolled back, per the Open Question decision in
// DESIGN.md.
type DiskArrayCollection struct {
	mu    sync.Mutex
	pages [][]diskArrayHeader
}

func newDiskArrayCollection() *DiskArrayCollection {
	return &DiskArrayCollection{pages: [][]diskArrayHeader{{}}}
}

// allocateHeaderPage appends a new header entry for name, linking a new
// header page (nextHeaderPage) once the current tail page is full.
func (d *DiskArrayCollection) allocateHeaderPage(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tail := len(d.pages) - 1
	if len(d.pages[tail]) >= numHeadersPerPage {
		d.pages = append(d.pages, nil)
		tail++
	}
	d.pages[tail] = append(d.pages[tail], diskArrayHeader{Name: name})
}

// NumHeaderPages reports how many header pages are currently chained
// (tests/diagnostics).
func (d *DiskArrayCollection) NumHeaderPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pages)
}
