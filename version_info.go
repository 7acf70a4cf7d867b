// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

// InvalidTransaction marks a slot in a TS array as never written.
const InvalidTransaction = ^uint64(0)

// InsertionStatus classifies how a VectorVersionInfo's insertedVersions
// array should be interpreted.
type InsertionStatus uint8

const (
	NoInserted     InsertionStatus = iota // nothing in this vector was ever inserted under MVCC tracking
	CheckVersion                          // consult insertedVersions[i] per row
	AlwaysInserted                        // every row is visible regardless of snapshot (post-checkpoint steady state)
)

// DeletionStatus classifies how a VectorVersionInfo's deletedVersions
// array should be interpreted.
type DeletionStatus uint8

const (
	NoDeleted    DeletionStatus = iota // nothing in this vector was ever deleted
	CheckDeleted                       // consult deletedVersions[i] per row
)

// VectorVersionInfo is the per-2048-row MVCC record described in
// spec.md §3/§4.4: two transaction-id arrays plus two status enums.
type VectorVersionInfo struct {
	insertedVersions [DefaultVectorCapacity]uint64
	deletedVersions  [DefaultVectorCapacity]uint64
	insertionStatus  InsertionStatus
	deletionStatus   DeletionStatus
}

// newVectorVersionInfo returns a vector-version band with every slot
// marked invalid (never written).
func newVectorVersionInfo() *VectorVersionInfo {
	v := &VectorVersionInfo{}
	for i := range v.insertedVersions {
		v.insertedVersions[i] = InvalidTransaction
		v.deletedVersions[i] = InvalidTransaction
	}
	return v
}

// append records that rows [startRow, startRow+numRows) were inserted by
// transactionID.
func (v *VectorVersionInfo) append(transactionID uint64, startRow, numRows uint32) {
	v.insertionStatus = CheckVersion
	for i := uint32(0); i < numRows; i++ {
		v.insertedVersions[startRow+i] = transactionID
	}
}

// delete_ marks rowIdx deleted by transactionID. Returns false if this
// exact transaction already deleted the row (idempotent no-op); returns
// a write/write-conflict Error if a *different* still-recorded
// transaction holds the deletion, so the caller can surface it to the
// invoking transaction as a rollback signal.
func (v *VectorVersionInfo) delete_(transactionID uint64, rowIdx uint32) (bool, error) {
	v.deletionStatus = CheckDeleted
	if v.deletedVersions[rowIdx] == transactionID {
		return false, nil
	}
	if v.deletedVersions[rowIdx] != InvalidTransaction {
		return false, errWriteWriteConflict(uint64(rowIdx))
	}
	v.deletedVersions[rowIdx] = transactionID
	return true, nil
}

func (v *VectorVersionInfo) isInserted(startTS, transactionID uint64, rowIdx uint32) bool {
	switch v.insertionStatus {
	case AlwaysInserted:
		return true
	case NoInserted:
		return false
	default: // CheckVersion
		ins := v.insertedVersions[rowIdx]
		return ins == transactionID || ins <= startTS
	}
}

func (v *VectorVersionInfo) isDeleted(startTS, transactionID uint64, rowIdx uint32) bool {
	switch v.deletionStatus {
	case NoDeleted:
		return false
	default: // CheckDeleted
		del := v.deletedVersions[rowIdx]
		return del == transactionID || del <= startTS
	}
}

// getNumDeletions counts visible deletions over [startRow, startRow+numRows).
func (v *VectorVersionInfo) getNumDeletions(startTS, transactionID uint64, startRow, numRows uint32) uint32 {
	if v.deletionStatus == NoDeleted {
		return 0
	}
	var n uint32
	for i := uint32(0); i < numRows; i++ {
		if v.isDeleted(startTS, transactionID, startRow+i) {
			n++
		}
	}
	return n
}

// numCommittedDeletions counts deletions visible to transaction's own
// snapshot, across the whole band.
func (v *VectorVersionInfo) numCommittedDeletions(startTS, transactionID uint64) uint32 {
	var n uint32
	for i := range v.deletedVersions {
		if v.isDeleted(startTS, transactionID, uint32(i)) {
			n++
		}
	}
	return n
}

// getSelVectorForScan appends the visible output positions of
// [startRow, startRow+numRows) (offset by outputPos) onto sel.
func (v *VectorVersionInfo) getSelVectorForScan(startTS, transactionID uint64, sel Selection, startRow, numRows, outputPos uint32) Selection {
	if v.deletionStatus == NoDeleted && v.insertionStatus == AlwaysInserted {
		for i := uint32(0); i < numRows; i++ {
			sel = append(sel, outputPos+i)
		}
		return sel
	}
	if v.insertionStatus == NoInserted {
		return sel
	}
	for i := uint32(0); i < numRows; i++ {
		rowIdx := startRow + i
		if v.isInserted(startTS, transactionID, rowIdx) && !v.isDeleted(startTS, transactionID, rowIdx) {
			sel = append(sel, outputPos+i)
		}
	}
	return sel
}

// rollbackInsertions undoes append() for [startRow, startRow+numRows),
// collapsing the status back to NoInserted/NoDeleted if nothing remains.
func (v *VectorVersionInfo) rollbackInsertions(startRow, numRows uint32) {
	for row := startRow; row < startRow+numRows; row++ {
		v.insertedVersions[row] = InvalidTransaction
	}
	for _, ver := range v.insertedVersions {
		if ver != InvalidTransaction {
			return
		}
	}
	v.insertionStatus = NoInserted
	v.deletionStatus = NoDeleted
}

// rollbackDeletions undoes delete_() for [startRow, startRow+numRows).
func (v *VectorVersionInfo) rollbackDeletions(startRow, numRows uint32) {
	for row := startRow; row < startRow+numRows; row++ {
		v.deletedVersions[row] = InvalidTransaction
	}
	for _, ver := range v.deletedVersions {
		if ver != InvalidTransaction {
			return
		}
	}
	v.deletionStatus = NoDeleted
}

// finalizeStatusFromVersions collapses a vector whose every recorded
// version is either invalid or a committed timestamp (i.e. no longer
// in-flight: 0 here stands for "committed and visible to everyone",
// matching the checkpoint-time invariant that all live transactions have
// been drained). Returns false if the vector carries no information
// worth keeping (caller should drop it).
func (v *VectorVersionInfo) finalizeStatusFromVersions() bool {
	if v.insertionStatus == NoInserted {
		return true
	}

	hasAnyDeletion := false
	for _, ver := range v.deletedVersions {
		if ver == 0 {
			hasAnyDeletion = true
			break
		}
	}
	if !hasAnyDeletion {
		v.deletionStatus = NoDeleted
	}

	allCommitted := true
	anyCommitted := false
	for _, ver := range v.insertedVersions {
		if ver == 0 {
			anyCommitted = true
		} else {
			allCommitted = false
		}
	}

	switch {
	case allCommitted:
		v.insertionStatus = AlwaysInserted
	case !anyCommitted:
		v.insertionStatus = NoInserted
	default:
		v.insertionStatus = CheckVersion
	}

	return !(v.insertionStatus == AlwaysInserted && v.deletionStatus == NoDeleted)
}

// --------------------------- VersionInfo ----------------------------

// VersionInfo is the lazily-allocated per-chunked-group MVCC structure:
// a sparse slice of VectorVersionInfo bands, one per DefaultVectorCapacity
// rows.
type VersionInfo struct {
	vectors []*VectorVersionInfo
}

// NewVersionInfo creates an empty VersionInfo with no allocated vector
// bands; bands are created lazily by getOrCreate as rows are appended.
func NewVersionInfo() *VersionInfo {
	return &VersionInfo{}
}

func quotientRemainder(row, capacity uint32) (q, r uint32) {
	return row / capacity, row % capacity
}

func (vi *VersionInfo) getOrCreate(vectorIdx uint32) *VectorVersionInfo {
	for uint32(len(vi.vectors)) <= vectorIdx {
		vi.vectors = append(vi.vectors, nil)
	}
	if vi.vectors[vectorIdx] == nil {
		vi.vectors[vectorIdx] = newVectorVersionInfo()
	}
	return vi.vectors[vectorIdx]
}

func (vi *VersionInfo) get(vectorIdx uint32) *VectorVersionInfo {
	if vectorIdx >= uint32(len(vi.vectors)) {
		return nil
	}
	return vi.vectors[vectorIdx]
}

// NumVectors returns the number of per-vector bands currently retained
// (property 3 of spec.md §8: after checkpoint this equals the number of
// vectors still carrying deletions or partial inserts).
func (vi *VersionInfo) NumVectors() int {
	n := 0
	for _, v := range vi.vectors {
		if v != nil {
			n++
		}
	}
	return n
}

// Append records that [startRow, startRow+numRows) were inserted by txn,
// splitting the range across DefaultVectorCapacity-row bands. Pushes one
// undo entry per touched band when txn.shouldAppendToUndoBuffer().
func (vi *VersionInfo) Append(txn *Transaction, startRow, numRows uint32) {
	startVec, startOff := quotientRemainder(startRow, DefaultVectorCapacity)
	endVec, endOff := quotientRemainder(startRow+numRows, DefaultVectorCapacity)

	for vecIdx := startVec; vecIdx <= endVec; vecIdx++ {
		band := vi.getOrCreate(vecIdx)
		from := uint32(0)
		if vecIdx == startVec {
			from = startOff
		}
		to := uint32(DefaultVectorCapacity)
		if vecIdx == endVec {
			to = endOff
		}
		if to <= from {
			continue
		}
		n := to - from
		band.append(txn.id, from, n)
		if txn.shouldAppendToUndoBuffer {
			txn.pushVectorInsert(vi, vecIdx, from, n)
		}
	}
}

// Delete marks rowIdx deleted by txn. Raises WRITE_WRITE_CONFLICT if a
// different live transaction already holds the deletion.
func (vi *VersionInfo) Delete(txn *Transaction, rowIdx uint32) (bool, error) {
	vecIdx, rowInVec := quotientRemainder(rowIdx, DefaultVectorCapacity)
	band := vi.getOrCreate(vecIdx)
	if band.insertionStatus == NoInserted {
		// This band exists only because of this delete; every row in it
		// must already be checkpointed, so treat it as always-visible.
		band.insertionStatus = AlwaysInserted
	}
	deleted, err := band.delete_(txn.id, rowInVec)
	if err != nil {
		return false, err
	}
	if deleted && txn.shouldAppendToUndoBuffer {
		txn.pushVectorDelete(vi, vecIdx, rowInVec, 1)
	}
	return deleted, nil
}

// GetSelVectorToScan returns a filtered selection vector over
// [startRow, startRow+numRows) naming the positions visible to a reader
// with the given snapshot (startTS, transactionID).
func (vi *VersionInfo) GetSelVectorToScan(startTS, transactionID uint64, startRow, numRows uint32) Selection {
	if numRows == 0 {
		return nil
	}
	startVec, startOff := quotientRemainder(startRow, DefaultVectorCapacity)
	endVec, endOff := quotientRemainder(startRow+numRows-1, DefaultVectorCapacity)

	var sel Selection
	outputPos := uint32(0)
	for vecIdx := startVec; vecIdx <= endVec; vecIdx++ {
		from := uint32(0)
		if vecIdx == startVec {
			from = startOff
		}
		to := uint32(DefaultVectorCapacity - 1)
		if vecIdx == endVec {
			to = endOff
		}
		n := to - from + 1

		if band := vi.get(vecIdx); band != nil {
			sel = band.getSelVectorForScan(startTS, transactionID, sel, from, n, outputPos)
		} else {
			// No version info at all: every row is committed and visible.
			for i := uint32(0); i < n; i++ {
				sel = append(sel, outputPos+i)
			}
		}
		outputPos += n
	}
	return sel
}

// IsInserted reports whether rowInChunk is visible (inserted) to the
// given transaction's snapshot; true when there is no version info at
// all (the row predates any MVCC tracking, i.e. was checkpointed).
func (vi *VersionInfo) IsInserted(txn *Transaction, rowInChunk uint32) bool {
	vecIdx, rowInVec := quotientRemainder(rowInChunk, DefaultVectorCapacity)
	band := vi.get(vecIdx)
	if band == nil {
		return true
	}
	return band.isInserted(txn.startTS, txn.id, rowInVec)
}

// IsDeleted reports whether rowInChunk is deleted as seen by txn.
func (vi *VersionInfo) IsDeleted(txn *Transaction, rowInChunk uint32) bool {
	vecIdx, rowInVec := quotientRemainder(rowInChunk, DefaultVectorCapacity)
	band := vi.get(vecIdx)
	if band == nil {
		return false
	}
	return band.isDeleted(txn.startTS, txn.id, rowInVec)
}

// HasDeletions reports whether any band is still tracking deletions.
func (vi *VersionInfo) HasDeletions() bool {
	for _, v := range vi.vectors {
		if v != nil && v.deletionStatus == CheckDeleted {
			return true
		}
	}
	return false
}

// HasInsertions reports whether any band is still tracking partial
// (in-flight) insertions.
func (vi *VersionInfo) HasInsertions() bool {
	for _, v := range vi.vectors {
		if v != nil && v.insertionStatus == CheckVersion {
			return true
		}
	}
	return false
}

// clearVectorInfo drops a band entirely (it became trivial).
func (vi *VersionInfo) clearVectorInfo(vectorIdx uint32) {
	vi.vectors[vectorIdx] = nil
}

// RollbackInsertions undoes an Append for one band, used by the undo
// buffer during transaction rollback.
func (vi *VersionInfo) RollbackInsertions(vectorIdx, startRow, numRows uint32) {
	if band := vi.get(vectorIdx); band != nil {
		band.rollbackInsertions(startRow, numRows)
	}
}

// RollbackDeletions undoes a Delete for one band.
func (vi *VersionInfo) RollbackDeletions(vectorIdx, startRow, numRows uint32) {
	if band := vi.get(vectorIdx); band != nil {
		band.rollbackDeletions(startRow, numRows)
	}
}

// FinalizeStatusFromVersions is called at checkpoint: collapses every
// band whose state has become uniform and drops those that became
// trivial. Returns false if no per-vector info remains at all, in which
// case the caller should drop the whole VersionInfo.
func (vi *VersionInfo) FinalizeStatusFromVersions() bool {
	for idx, band := range vi.vectors {
		if band == nil {
			continue
		}
		if !band.finalizeStatusFromVersions() {
			vi.clearVectorInfo(uint32(idx))
		}
	}
	for _, v := range vi.vectors {
		if v != nil {
			return true
		}
	}
	return false
}

// GetNumDeletions counts deletions visible to txn across the whole
// VersionInfo (used for fast row-count bookkeeping).
func (vi *VersionInfo) GetNumDeletions(txn *Transaction) uint32 {
	var n uint32
	for _, band := range vi.vectors {
		if band != nil {
			n += band.numCommittedDeletions(txn.startTS, txn.id)
		}
	}
	return n
}
