package core

import "fmt"

// RecordID identifies one store/experiment observation. It is derived, not
// generated: the same dataset always yields the same ids, and the id is the
// only key used to reconcile semantic index hits back to records.
type RecordID string

// NewRecordID derives the id for a row: experiment, store id and the
// zero-based row index in the source file.
func NewRecordID(experiment, storeID string, row int) RecordID {
	return RecordID(fmt.Sprintf("%s_%s_%d", experiment, storeID, row))
}

// String returns the string representation
func (id RecordID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id RecordID) IsEmpty() bool {
	return id == ""
}
