// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package wal

// Applier is the narrow interface recovery replays records against; the
// root package's storage layer implements it so this package never
// depends upward on graphdb.
type Applier interface {
	ApplyAppend(table string, startRow uint64, numRows uint32, payload []byte) error
	ApplyDelete(table string, startRow uint64, numRows uint32) error
	ApplyUpdate(table string, startRow uint64, columnIdx uint32, payload []byte) error
}

// Replay re-applies every durably committed transaction in the log to
// applier, in order, per spec.md §4.6's recovery contract: only records
// belonging to a transaction whose Commit record was also durably
// logged are applied; anything from a transaction that never committed
// (a Begin with no matching Commit, or a dangling Rollback) is
// discarded.
func Replay(w *WAL, applier Applier) error {
	pending := make(map[uint64][]Record)
	committed := make(map[uint64]bool)
	var order []uint64 // committed transaction IDs in commit-record order

	if err := w.Range(func(rec Record) error {
		switch rec.Kind {
		case KindBegin:
			pending[rec.TxnID] = nil
		case KindCommit:
			if !committed[rec.TxnID] {
				order = append(order, rec.TxnID)
			}
			committed[rec.TxnID] = true
		case KindRollback:
			delete(pending, rec.TxnID)
		case KindCheckpoint:
			pending = make(map[uint64][]Record)
			committed = make(map[uint64]bool)
			order = nil
		default:
			pending[rec.TxnID] = append(pending[rec.TxnID], rec)
		}
		return nil
	}); err != nil {
		return err
	}

	for _, txnID := range order {
		for _, rec := range pending[txnID] {
			if err := applyOne(applier, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyOne(applier Applier, rec Record) error {
	switch rec.Kind {
	case KindAppend:
		return applier.ApplyAppend(rec.Table, rec.StartRow, rec.NumRows, rec.Payload)
	case KindDelete:
		return applier.ApplyDelete(rec.Table, rec.StartRow, rec.NumRows)
	case KindUpdate:
		return applier.ApplyUpdate(rec.Table, rec.StartRow, rec.ColumnIdx, rec.Payload)
	}
	return nil
}
