// Package storage implements the file substrate (component F): the
// abstract storage the catalog cache runs on top of, split into two
// file flavors — a heap file offering append/iterate/update over
// variable-length records, and a raw file offering direct access to a
// single fixed-size page (used for the DB meta page) — plus one
// concrete volatile, in-memory implementation of both.
//
// The original engine's single `create(formatHeap bool)` entry point
// splits here into CreateHeapFile and CreateRawFile: Go has no default
// arguments, and two differently-shaped return values (a HeapFile vs. a
// RawFile) read better as two named constructors than as one call
// branching on a flag.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corvidb/corvid/pkg/ids"
)

// PageSize is the fixed size of the single page a raw file holds.
const PageSize = 8192

// maxAlign is the alignment every stored record's payload is padded to
// on disk, matching the record-length alignment the schema engine
// already produces; padding here is cheap insurance against a future
// substrate that mmaps pages and needs word alignment.
const maxAlign = 8

// ErrUnknownFile is returned by Open* when no file exists under the
// requested id.
var ErrUnknownFile = errors.New("storage: unknown file id")

// ErrWrongIteratorType is returned by UpdateCurrent when passed an
// Iterator that did not originate from this HeapFile.
var ErrWrongIteratorType = errors.New("storage: iterator does not belong to this heap file")

// HeapFile is an append/iterate/update interface over a sequence of
// variable-length records, backing every systable and every
// user-created table.
type HeapFile interface {
	// Append adds record to the end of the file and returns its
	// record id. The payload is padded to maxAlign bytes on storage.
	Append(record []byte) (ids.RecordID, error)
	// Iterate returns an iterator positioned before the first record.
	Iterate() Iterator
	// IterateFrom returns an iterator positioned at start (inclusive
	// of start on the first Next call).
	IterateFrom(start ids.RecordID) (Iterator, error)
	// UpdateCurrent replaces the record the iterator currently points
	// at. It updates the slot in place if newRecord's padded size
	// fits in the original slot; otherwise it marks the slot invalid
	// and appends newRecord as a new record. An iteration in progress
	// does not observe the replacement unless it happens to reach the
	// new slot.
	UpdateCurrent(it Iterator, newRecord []byte) error
	Close() error
}

// Iterator walks the valid records of a HeapFile in slot order,
// skipping slots marked invalid by UpdateCurrent.
type Iterator interface {
	// Next advances to the next valid record, returning false at
	// end of file.
	Next() bool
	// Current returns the record the iterator currently points at.
	// It is only valid to call after Next returns true.
	Current() []byte
	// CurrentRID returns the record id of the current record.
	CurrentRID() ids.RecordID
	// End releases any resource held by the iterator. The volatile
	// implementation holds none, but callers should call it anyway
	// for parity with implementations that do.
	End()
}

// PageHandle identifies a page checked out of a RawFile between
// FirstPage and ReleasePage.
type PageHandle int

// RawFile is direct access to a single fixed-size page, used for the
// DB meta page: the OID allocator counter and the file ids of every
// systable.
type RawFile interface {
	// FirstPage checks out the file's one page, returning a handle
	// and the page's buffer. Mutations to the buffer are only
	// durable after MarkDirty.
	FirstPage() (PageHandle, []byte)
	MarkDirty(h PageHandle)
	ReleasePage(h PageHandle)
	Close() error
}

// VolatileSubstrate is the one concrete file substrate this core
// ships: every file lives purely in memory and is lost when the
// process exits. It is the substrate a freshly initialized database
// and every test in this module run against.
type VolatileSubstrate struct {
	mu         sync.Mutex
	nextFileID ids.FileID
	heapFiles  map[ids.FileID]*volatileHeap
	rawFiles   map[ids.FileID]*volatileRaw
}

// NewVolatileSubstrate returns an empty substrate. File id 1
// (ids.DBMetaFileID) is reserved for the DB meta page and is never
// handed out by CreateHeapFile or CreateRawFile; the catalog's FromInit
// creates it with CreateDBMetaFile.
func NewVolatileSubstrate() *VolatileSubstrate {
	return &VolatileSubstrate{
		nextFileID: ids.FirstUserFileID,
		heapFiles:  make(map[ids.FileID]*volatileHeap),
		rawFiles:   make(map[ids.FileID]*volatileRaw),
	}
}

func (s *VolatileSubstrate) allocFileID() ids.FileID {
	id := s.nextFileID
	s.nextFileID++
	return id
}

// CreateHeapFile allocates a fresh, empty heap file and returns its id.
func (s *VolatileSubstrate) CreateHeapFile() (ids.FileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocFileID()
	s.heapFiles[id] = &volatileHeap{fileID: id}
	return id, nil
}

// OpenHeapFile returns the heap file previously created under id.
func (s *VolatileSubstrate) OpenHeapFile(id ids.FileID) (HeapFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heapFiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: heap file %d", ErrUnknownFile, id)
	}
	return h, nil
}

// CreateRawFile allocates a fresh, zeroed one-page raw file.
func (s *VolatileSubstrate) CreateRawFile() (ids.FileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocFileID()
	s.rawFiles[id] = &volatileRaw{buf: make([]byte, PageSize)}
	return id, nil
}

// CreateDBMetaFile allocates the raw file for the DB meta page under
// its reserved id (ids.DBMetaFileID), bypassing the regular file id
// counter. It fails if called more than once per substrate.
func (s *VolatileSubstrate) CreateDBMetaFile() (ids.FileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rawFiles[ids.DBMetaFileID]; exists {
		return ids.InvalidFileID, fmt.Errorf("storage: DB meta file already created")
	}
	s.rawFiles[ids.DBMetaFileID] = &volatileRaw{buf: make([]byte, PageSize)}
	return ids.DBMetaFileID, nil
}

// OpenRawFile returns the raw file previously created under id.
func (s *VolatileSubstrate) OpenRawFile(id ids.FileID) (RawFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rawFiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: raw file %d", ErrUnknownFile, id)
	}
	return r, nil
}

// padRecord rounds a record's length up to maxAlign by appending zero
// bytes, mirroring the MAXALIGN padding the schema engine's own
// payloads already satisfy for the header region.
func padRecord(rec []byte) []byte {
	n := len(rec)
	padded := (n + maxAlign - 1) / maxAlign * maxAlign
	if padded == n {
		return rec
	}
	out := make([]byte, padded)
	copy(out, rec)
	return out
}

// volatileHeap is the in-memory HeapFile implementation: two parallel
// slices play the role of the spec's (validBit[], slotOffset[],
// contiguousBytes[]) triple, collapsed here into one slice of record
// byte slices plus one slice of valid flags, since Go
// slices already track their own length and offset is implicit.
type volatileHeap struct {
	mu      sync.Mutex
	fileID  ids.FileID
	records [][]byte
	valid   []bool
}

func (h *volatileHeap) Append(record []byte) (ids.RecordID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) >= int(ids.MaxSlotNumber) {
		return ids.InvalidRecordID, fmt.Errorf("storage: heap file %d is full", h.fileID)
	}
	h.records = append(h.records, padRecord(record))
	h.valid = append(h.valid, true)
	slot := ids.SlotNumber(len(h.records))
	return ids.RecordID{Page: ids.PageNumber(h.fileID), Slot: slot}, nil
}

func (h *volatileHeap) Iterate() Iterator {
	return &volatileIterator{h: h, idx: -1}
}

func (h *volatileHeap) IterateFrom(start ids.RecordID) (Iterator, error) {
	if ids.FileID(start.Page) != h.fileID {
		return nil, fmt.Errorf("storage: record id %s does not belong to heap file %d", start, h.fileID)
	}
	return &volatileIterator{h: h, idx: int(start.Slot) - 2}, nil
}

func (h *volatileHeap) UpdateCurrent(it Iterator, newRecord []byte) error {
	vit, ok := it.(*volatileIterator)
	if !ok || vit.h != h {
		return ErrWrongIteratorType
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if vit.idx < 0 || vit.idx >= len(h.records) {
		return fmt.Errorf("storage: iterator is not positioned at a record")
	}
	padded := padRecord(newRecord)
	if len(padded) <= len(h.records[vit.idx]) {
		copy(h.records[vit.idx], padded)
		h.records[vit.idx] = h.records[vit.idx][:len(padded)]
		return nil
	}
	h.valid[vit.idx] = false
	h.records = append(h.records, padded)
	h.valid = append(h.valid, true)
	return nil
}

func (h *volatileHeap) Close() error { return nil }

type volatileIterator struct {
	h   *volatileHeap
	idx int
}

func (it *volatileIterator) Next() bool {
	it.h.mu.Lock()
	defer it.h.mu.Unlock()
	for {
		it.idx++
		if it.idx >= len(it.h.records) {
			return false
		}
		if it.h.valid[it.idx] {
			return true
		}
	}
}

func (it *volatileIterator) Current() []byte {
	it.h.mu.Lock()
	defer it.h.mu.Unlock()
	return it.h.records[it.idx]
}

func (it *volatileIterator) CurrentRID() ids.RecordID {
	return ids.RecordID{Page: ids.PageNumber(it.h.fileID), Slot: ids.SlotNumber(it.idx + 1)}
}

func (it *volatileIterator) End() {}

// volatileRaw is the in-memory RawFile implementation: a single
// PageSize buffer, checked out through FirstPage.
type volatileRaw struct {
	mu  sync.Mutex
	buf []byte
}

func (r *volatileRaw) FirstPage() (PageHandle, []byte) {
	return PageHandle(0), r.buf
}

func (r *volatileRaw) MarkDirty(h PageHandle) {}

func (r *volatileRaw) ReleasePage(h PageHandle) {}

func (r *volatileRaw) Close() error { return nil }
