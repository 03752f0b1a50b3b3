// Package rowstore models the flat, row-oriented contact store underneath
// the bridge. One logical contact is scattered across many rows, each tagged
// with a kind discriminator; rows are read through Query and written through
// atomic batches of typed operations.
package rowstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Kind discriminator values carried in the mimetype column.
const (
	KindName         = "contact/name"
	KindPhone        = "contact/phone"
	KindEmail        = "contact/email"
	KindPostal       = "contact/postal-address"
	KindOrganization = "contact/organization"
	KindNote         = "contact/note"
	KindWebsite      = "contact/website"
	KindIM           = "contact/im"
	KindEvent        = "contact/event"
	KindNickname     = "contact/nickname"
	KindPhoto        = "contact/photo"
)

// Column names of the contact_data table, used by write operations.
const (
	ColRawContactID       = "raw_contact_id"
	ColContactID          = "contact_id"
	ColMimeType           = "mimetype"
	ColDisplayName        = "display_name"
	ColGivenName          = "given_name"
	ColMiddleName         = "middle_name"
	ColFamilyName         = "family_name"
	ColPrefix             = "prefix"
	ColSuffix             = "suffix"
	ColPhoneticGivenName  = "phonetic_given_name"
	ColPhoneticMiddleName = "phonetic_middle_name"
	ColPhoneticFamilyName = "phonetic_family_name"
	ColData               = "data"
	ColTypeCode           = "type_code"
	ColLabel              = "label"
	ColStreet             = "street"
	ColCity               = "city"
	ColRegion             = "region"
	ColPostcode           = "postcode"
	ColCountry            = "country"
	ColFormattedAddress   = "formatted_address"
	ColCompany            = "company"
	ColTitle              = "title"
	ColDepartment         = "department"
	ColPhoto              = "photo"
)

// Columns of the raw_contacts table.
const (
	ColAccountName = "account_name"
	ColAccountType = "account_type"
	ColSourceID    = "source_id"
	ColStarred     = "starred"
)

// Collections addressable by operations.
const (
	CollectionRawContacts = "raw_contacts"
	CollectionData        = "contact_data"
)

// Query describes one read against the store. Profile restricts the query to
// the device owner's own rows, which come back without identifier columns.
type Query struct {
	Profile bool
	Where   string
	Args    []any
	OrderBy string
}

// OpKind is the type of a write operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// Ref is a placeholder for the store-assigned id of an insert that has not
// executed yet. The batch executor fills it in and resolves any operation
// that points at it, so a builder never needs to know operation positions.
type Ref struct {
	id  int64
	set bool
}

// NewRef returns an unresolved placeholder.
func NewRef() *Ref { return &Ref{} }

// Resolve records the generated id.
func (r *Ref) Resolve(id int64) {
	r.id = id
	r.set = true
}

// ID returns the resolved id, or false when the referenced insert has not
// executed.
func (r *Ref) ID() (int64, bool) { return r.id, r.set }

// Value is one column assignment of an insert or update. Operations carry an
// ordered list rather than a map so generated SQL is deterministic.
type Value struct {
	Column string
	Val    any
}

// Operation is a typed insert, update or delete against one collection.
// For inserts, Ref (when non-nil) receives the generated row id and
// ParentRef/ParentCols back-reference the id of an earlier insert in the same
// batch into the named columns.
type Operation struct {
	Kind       OpKind
	Collection string
	Values     []Value
	Where      string
	Args       []any
	Ref        *Ref
	ParentRef  *Ref
	ParentCols []string
}

// Result reports the outcome of one operation in an applied batch.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Store is the platform contact store boundary. ApplyBatch is atomic: either
// every operation takes effect or none does.
type Store interface {
	QueryRows(ctx context.Context, q Query) ([]Row, error)
	ApplyBatch(ctx context.Context, ops []*Operation) ([]Result, error)
	Count(ctx context.Context) (int, error)
	PhotoURI(ctx context.Context, contactID string) (string, error)
	OpenPhoto(ctx context.Context, contactID string) (io.ReadCloser, error)
	Ping(ctx context.Context) error
}
