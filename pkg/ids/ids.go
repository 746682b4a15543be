// Package ids defines the small fixed-width identifier types shared by the
// schema, catalog, and file substrate packages: object identifiers, field
// identifiers, page numbers, slot numbers, record identifiers, and file
// identifiers.
package ids

import "fmt"

// OID is a catalog object identifier. Zero is never a valid object.
// Values below MinUserOID are reserved for objects created by the
// bootstrap catalog (component D).
type OID uint32

// InvalidOID is the zero value and is never assigned to a real object.
const InvalidOID OID = 0

// MinUserOID is the first object identifier available for user-created
// tables, types, functions, and indexes. Everything below it is reserved
// for the bootstrap catalog's hard-coded rows.
const MinUserOID OID = 20000

// Valid reports whether oid could name a real catalog object.
func (oid OID) Valid() bool { return oid != InvalidOID }

func (oid OID) String() string { return fmt.Sprintf("%d", uint32(oid)) }

// FieldID identifies a field within a Schema by its declaration position.
// It is signed so that negative values can be used as sentinels internal
// to the schema layout algorithm (see package schema).
type FieldID int16

// InvalidFieldID is returned when a field lookup by name fails.
const InvalidFieldID FieldID = 0x7FFF

// MaxNumFields bounds the number of fields a Schema may declare.
const MaxNumFields = 32767

// PageNumber identifies a page within a file. Zero is invalid; the all-ones
// value is reserved (mirrors the convention of the abstract file substrate
// that regular page numbers never reach it).
type PageNumber uint32

// InvalidPageNumber is never assigned to a real page.
const InvalidPageNumber PageNumber = 0

// ReservedPageNumber is never assigned to a real page either; it is kept
// free for future buffer-manager sentinel values.
const ReservedPageNumber PageNumber = ^PageNumber(0)

// SlotNumber identifies a record's slot within a page's slot directory.
// Zero is invalid so that a zeroed RecordID reads as "no record".
type SlotNumber uint16

// InvalidSlotNumber is never assigned to a real slot.
const InvalidSlotNumber SlotNumber = 0

// MaxSlotNumber is the largest slot number a page may hand out.
const MaxSlotNumber SlotNumber = 0xFFFE

// RecordID names a single record inside a heap file: a page number and the
// slot within that page.
type RecordID struct {
	Page PageNumber
	Slot SlotNumber
}

// InvalidRecordID is the zero RecordID; no real record uses it.
var InvalidRecordID = RecordID{}

// Valid reports whether r could name a real record.
func (r RecordID) Valid() bool {
	return r.Page != InvalidPageNumber && r.Slot != InvalidSlotNumber
}

func (r RecordID) String() string {
	return fmt.Sprintf("(%d,%d)", uint32(r.Page), uint16(r.Slot))
}

// FileID identifies a file managed by the file substrate (component F).
// The high bits are reserved for write-ahead-log and temporary file spaces
// in a full implementation; this core only ever allocates from the regular
// space starting at FirstUserFileID.
type FileID uint32

// InvalidFileID is never assigned to a real file.
const InvalidFileID FileID = 0

// FirstUserFileID is the first file id handed out by a file substrate's
// Create call; id 1 is reserved for the DB meta page.
const FirstUserFileID FileID = 2

// DBMetaFileID names the single raw file holding the DB meta page.
const DBMetaFileID FileID = 1
