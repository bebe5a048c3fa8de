package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// ErrNotFound is returned by Update for an id that is not in the collection.
var ErrNotFound = domain.NotFound("record not found")

// Record is implemented by every stored struct through domain.Meta.
type Record interface {
	RecordID() int64
	SetRecordID(id int64)
	StampCreated(t time.Time)
	StampUpdated(t time.Time)
}

type recordPtr[T any] interface {
	*T
	Record
}

// Table is a typed view of one collection. Every call loads the whole
// document, works on it in memory and writes it back before returning.
// A Table is not safe for concurrent use.
type Table[T any, P recordPtr[T]] struct {
	backend    Backend
	collection Collection
	now        func() time.Time
}

// NewTable binds a collection of T to a backend.
func NewTable[T any, P recordPtr[T]](b Backend, c Collection, now func() time.Time) *Table[T, P] {
	if now == nil {
		now = time.Now
	}
	return &Table[T, P]{backend: b, collection: mustKnow(c), now: now}
}

// Collection returns the collection the table is bound to.
func (t *Table[T, P]) Collection() Collection { return t.collection }

// Load returns all records in stored order. A collection that was never
// written is empty.
func (t *Table[T, P]) Load() ([]T, error) {
	data, err := t.backend.Read(t.collection)
	if err != nil {
		return nil, domain.Storage("could not read "+string(t.collection), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.Storage("could not decode "+string(t.collection), err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Save replaces the collection with records.
func (t *Table[T, P]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.Storage("could not encode "+string(t.collection), err)
	}
	if err := t.backend.Write(t.collection, data); err != nil {
		return domain.Storage("could not save "+string(t.collection), err)
	}
	return nil
}

// Insert appends rec, assigning the next id (max existing id + 1, or 1)
// when rec has none, and stamping its creation time. An id that is already
// taken is a conflict.
func (t *Table[T, P]) Insert(rec T) (T, error) {
	var zero T
	records, err := t.Load()
	if err != nil {
		return zero, err
	}
	p := P(&rec)
	switch id := p.RecordID(); {
	case id == 0:
		p.SetRecordID(nextID[T, P](records))
	case slices.ContainsFunc(records, func(r T) bool { return P(&r).RecordID() == id }):
		return zero, domain.Conflict(fmt.Sprintf("%s #%d already exists", t.collection, id))
	}
	p.StampCreated(t.now())

	records = append(records, rec)
	if err := t.Save(records); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update applies mutate to the record with the given id and stamps its
// update time. The id itself cannot be changed by mutate.
func (t *Table[T, P]) Update(id int64, mutate func(*T)) (T, error) {
	var zero T
	records, err := t.Load()
	if err != nil {
		return zero, err
	}
	for i := range records {
		p := P(&records[i])
		if p.RecordID() != id {
			continue
		}
		mutate(&records[i])
		p.SetRecordID(id)
		p.StampUpdated(t.now())
		if err := t.Save(records); err != nil {
			return zero, err
		}
		return records[i], nil
	}
	return zero, fmt.Errorf("%s #%d: %w", t.collection, id, ErrNotFound)
}

// Delete removes the record with the given id and reports whether it existed.
func (t *Table[T, P]) Delete(id int64) (bool, error) {
	n, err := t.DeleteWhere(func(rec T) bool { return P(&rec).RecordID() == id })
	return n > 0, err
}

// DeleteWhere removes every record matching match and returns how many
// were removed. Nothing is written when nothing matches.
func (t *Table[T, P]) DeleteWhere(match func(T) bool) (int, error) {
	records, err := t.Load()
	if err != nil {
		return 0, err
	}
	kept := records[:0]
	for _, rec := range records {
		if !match(rec) {
			kept = append(kept, rec)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := t.Save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// FindByID returns the record with the given id.
func (t *Table[T, P]) FindByID(id int64) (T, bool, error) {
	return t.Find(func(rec T) bool { return P(&rec).RecordID() == id })
}

// Find returns the first record matching match.
func (t *Table[T, P]) Find(match func(T) bool) (T, bool, error) {
	var zero T
	records, err := t.Load()
	if err != nil {
		return zero, false, err
	}
	for _, rec := range records {
		if match(rec) {
			return rec, true, nil
		}
	}
	return zero, false, nil
}

// FindAll returns every record matching match, in stored order.
func (t *Table[T, P]) FindAll(match func(T) bool) ([]T, error) {
	records, err := t.Load()
	if err != nil {
		return nil, err
	}
	var out []T
	for _, rec := range records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func nextID[T any, P recordPtr[T]](records []T) int64 {
	var maxID int64
	for i := range records {
		if id := P(&records[i]).RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
