package provider

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/batch"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/model"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/rowstore"
)

// memStore is an in-memory Store used to exercise the full write-then-read
// path without a database. It interprets the same operation shapes the batch
// builder emits and the same query filters the read path issues.
type memStore struct {
	nextID  int64
	parents map[int64]bool
	data    []memRow
	profile []memRow
	pingErr error
}

type memRow struct {
	id           int64
	rawContactID int64
	contactID    int64
	cols         map[string]any
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, parents: map[int64]bool{}}
}

func (m *memStore) QueryRows(_ context.Context, q rowstore.Query) ([]rowstore.Row, error) {
	if q.Profile {
		out := make([]rowstore.Row, 0, len(m.profile))
		for _, r := range m.profile {
			out = append(out, toRow(r, false))
		}
		return out, nil
	}
	var out []rowstore.Row
	for _, r := range m.data {
		switch q.Where {
		case "d.contact_id = ?":
			if r.contactID != asInt64(q.Args[0]) {
				continue
			}
		case "d.raw_contact_id = ?":
			if r.rawContactID != asInt64(q.Args[0]) {
				continue
			}
		}
		out = append(out, toRow(r, true))
	}
	return out, nil
}

func (m *memStore) ApplyBatch(_ context.Context, ops []*rowstore.Operation) ([]rowstore.Result, error) {
	results := make([]rowstore.Result, 0, len(ops))
	for _, op := range ops {
		switch {
		case op.Kind == rowstore.OpInsert && op.Collection == rowstore.CollectionRawContacts:
			id := m.nextID
			m.nextID++
			m.parents[id] = true
			if op.Ref != nil {
				op.Ref.Resolve(id)
			}
			results = append(results, rowstore.Result{LastInsertID: id, RowsAffected: 1})

		case op.Kind == rowstore.OpInsert && op.Collection == rowstore.CollectionData:
			row := memRow{id: m.nextID, cols: map[string]any{}}
			m.nextID++
			for _, v := range op.Values {
				row.cols[v.Column] = v.Val
			}
			if op.ParentRef != nil {
				id, ok := op.ParentRef.ID()
				if !ok {
					return nil, errors.New("unresolved back-reference")
				}
				row.rawContactID, row.contactID = id, id
			} else {
				row.rawContactID = asInt64(row.cols[rowstore.ColRawContactID])
				row.contactID = asInt64(row.cols[rowstore.ColContactID])
			}
			m.data = append(m.data, row)
			results = append(results, rowstore.Result{LastInsertID: row.id, RowsAffected: 1})

		case op.Kind == rowstore.OpUpdate:
			rawID := asInt64(op.Args[0])
			kind := op.Args[1].(string)
			var n int64
			for i := range m.data {
				if m.data[i].rawContactID != rawID || m.data[i].cols[rowstore.ColMimeType] != kind {
					continue
				}
				for _, v := range op.Values {
					m.data[i].cols[v.Column] = v.Val
				}
				n++
			}
			results = append(results, rowstore.Result{RowsAffected: n})

		case op.Kind == rowstore.OpDelete:
			keep := m.data[:0]
			var n int64
			for _, r := range m.data {
				if m.deleteMatches(op, r) {
					n++
					continue
				}
				keep = append(keep, r)
			}
			m.data = keep
			if op.Collection == rowstore.CollectionRawContacts {
				id := asInt64(op.Args[0])
				if m.parents[id] {
					delete(m.parents, id)
					n++
				}
			}
			results = append(results, rowstore.Result{RowsAffected: n})

		default:
			return nil, fmt.Errorf("unsupported operation %d on %s", op.Kind, op.Collection)
		}
	}
	return results, nil
}

func (m *memStore) deleteMatches(op *rowstore.Operation, r memRow) bool {
	if op.Collection != rowstore.CollectionData {
		return false
	}
	switch op.Where {
	case "contact_id = ?":
		return r.contactID == asInt64(op.Args[0])
	case "mimetype = ? AND raw_contact_id = ?":
		return r.cols[rowstore.ColMimeType] == op.Args[0] && r.rawContactID == asInt64(op.Args[1])
	}
	return false
}

func (m *memStore) Count(context.Context) (int, error) {
	return len(m.parents), nil
}

func (m *memStore) PhotoURI(_ context.Context, contactID string) (string, error) {
	id := asInt64(contactID)
	for _, r := range m.data {
		if r.contactID == id && r.cols[rowstore.ColMimeType] == rowstore.KindPhoto {
			return "/contacts/" + contactID + "/photo", nil
		}
	}
	return "", nil
}

func (m *memStore) OpenPhoto(_ context.Context, contactID string) (io.ReadCloser, error) {
	id := asInt64(contactID)
	for _, r := range m.data {
		if r.contactID == id && r.cols[rowstore.ColMimeType] == rowstore.KindPhoto {
			blob, _ := r.cols[rowstore.ColPhoto].([]byte)
			return io.NopCloser(bytes.NewReader(blob)), nil
		}
	}
	return nil, rowstore.ErrNotFound
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}

func toRow(r memRow, withIDs bool) rowstore.Row {
	row := rowstore.Row{
		ID:   sql.NullInt64{Int64: r.id, Valid: true},
		Kind: fmt.Sprint(r.cols[rowstore.ColMimeType]),
	}
	if withIDs {
		row.RawContactID = sql.NullInt64{Int64: r.rawContactID, Valid: true}
		row.ContactID = sql.NullInt64{Int64: r.contactID, Valid: true}
	}
	str := func(col string) sql.NullString {
		s, ok := r.cols[col].(string)
		return sql.NullString{String: s, Valid: ok}
	}
	row.DisplayName = str(rowstore.ColDisplayName)
	row.GivenName = str(rowstore.ColGivenName)
	row.MiddleName = str(rowstore.ColMiddleName)
	row.FamilyName = str(rowstore.ColFamilyName)
	row.Prefix = str(rowstore.ColPrefix)
	row.Suffix = str(rowstore.ColSuffix)
	row.PhoneticGivenName = str(rowstore.ColPhoneticGivenName)
	row.PhoneticMiddleName = str(rowstore.ColPhoneticMiddleName)
	row.PhoneticFamilyName = str(rowstore.ColPhoneticFamilyName)
	row.Data = str(rowstore.ColData)
	row.Label = str(rowstore.ColLabel)
	row.Street = str(rowstore.ColStreet)
	row.City = str(rowstore.ColCity)
	row.Region = str(rowstore.ColRegion)
	row.Postcode = str(rowstore.ColPostcode)
	row.Country = str(rowstore.ColCountry)
	row.FormattedAddress = str(rowstore.ColFormattedAddress)
	row.Company = str(rowstore.ColCompany)
	row.Title = str(rowstore.ColTitle)
	row.Department = str(rowstore.ColDepartment)
	if code, ok := r.cols[rowstore.ColTypeCode]; ok {
		row.TypeCode = sql.NullInt64{Int64: asInt64(code), Valid: true}
	}
	return row
}

func adaRequest() *model.WriteRequest {
	return &model.WriteRequest{
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Nickname:   "Enchantress",
		Company:    "Analytical Engines Ltd",
		JobTitle:   "Engineer",
		Note:       "met at the exhibition",
		PhoneNumbers: []model.Item{
			{Label: "cell", Value: "555-1234"},
			{Label: "work", Value: "555-5678"},
		},
		EmailAddresses: []model.Item{{Label: "home", Value: "ada@x.com"}},
		PostalAddresses: []model.PostalAddress{
			{Label: "home", Street: "12 St James's Sq", City: "London", Country: "UK"},
		},
		Birthday: &model.Birthday{Year: 1815, Month: 12, Day: 10},
	}
}

// TestAddContactRoundTrip creates a contact and checks that the aggregate
// read back from the store carries everything that was submitted, with
// labels canonicalized by the stored type codes.
func TestAddContactRoundTrip(t *testing.T) {
	p := New(newMemStore())
	ctx := context.Background()

	c, err := p.AddContact(ctx, adaRequest())
	assert.NoError(t, err)
	assert.NotNil(t, c)

	assert.Equal(t, "1", c.RecordID)
	assert.Equal(t, "1", c.RawContactID)
	assert.Equal(t, "Ada", c.GivenName)
	assert.Equal(t, "Lovelace", c.FamilyName)
	assert.Equal(t, "Ada Lovelace", c.DisplayName)
	assert.Equal(t, "Enchantress", c.Nickname)
	assert.Equal(t, "Analytical Engines Ltd", c.Company)
	assert.Equal(t, "Engineer", c.JobTitle)
	assert.Equal(t, "met at the exhibition", c.Note)
	assert.Equal(t, &model.Birthday{Year: 1815, Month: 12, Day: 10}, c.Birthday)

	// "cell" shares the mobile type code, so it reads back canonicalized.
	assert.Len(t, c.PhoneNumbers, 2)
	assert.Equal(t, "mobile", c.PhoneNumbers[0].Label)
	assert.Equal(t, "555-1234", c.PhoneNumbers[0].Value)
	assert.Equal(t, "work", c.PhoneNumbers[1].Label)

	assert.Equal(t, []model.Item{{Label: "home", Value: "ada@x.com", RowID: c.EmailAddresses[0].RowID}}, c.EmailAddresses)
	assert.Len(t, c.PostalAddresses, 1)
	assert.Equal(t, "London", c.PostalAddresses[0].City)
}

// TestAddContactValidation checks that a nil request is rejected before any
// store call.
func TestAddContactValidation(t *testing.T) {
	p := New(newMemStore())
	_, err := p.AddContact(context.Background(), nil)
	assert.True(t, errors.Is(err, batch.ErrValidation))
}

// TestUpdateContactReplacesGroups checks that a supplied list replaces the
// stored group while an absent list survives the update untouched.
func TestUpdateContactReplacesGroups(t *testing.T) {
	p := New(newMemStore())
	ctx := context.Background()

	created, err := p.AddContact(ctx, adaRequest())
	assert.NoError(t, err)

	updated, err := p.UpdateContact(ctx, &model.WriteRequest{
		RecordID:     created.RecordID,
		RawContactID: created.RawContactID,
		GivenName:    "Augusta",
		FamilyName:   "King",
		Note:         created.Note,
		PhoneNumbers: []model.Item{{Label: "home", Value: "555-9999"}},
	})
	assert.NoError(t, err)
	assert.NotNil(t, updated)

	assert.Equal(t, "Augusta", updated.GivenName)
	assert.Equal(t, "King", updated.FamilyName)
	assert.Equal(t, []model.Item{{Label: "home", Value: "555-9999", RowID: updated.PhoneNumbers[0].RowID}}, updated.PhoneNumbers)
	// emails were not part of the request and must survive
	assert.Len(t, updated.EmailAddresses, 1)
	assert.Equal(t, "ada@x.com", updated.EmailAddresses[0].Value)
}

// TestUpdateContactClearsGroupWithEmptyList checks that an empty non-nil
// list wipes the stored group. The request carries no record id, so the
// read-back resolves the contact through its raw contact id.
func TestUpdateContactClearsGroupWithEmptyList(t *testing.T) {
	p := New(newMemStore())
	ctx := context.Background()

	created, err := p.AddContact(ctx, adaRequest())
	assert.NoError(t, err)

	updated, err := p.UpdateContact(ctx, &model.WriteRequest{
		RawContactID: created.RawContactID,
		GivenName:    created.GivenName,
		FamilyName:   created.FamilyName,
		PhoneNumbers: []model.Item{},
	})
	assert.NoError(t, err)
	assert.Empty(t, updated.PhoneNumbers)
}

// TestUpdateContactValidation checks that an update without a target raw
// contact id never reaches the store.
func TestUpdateContactValidation(t *testing.T) {
	p := New(newMemStore())
	_, err := p.UpdateContact(context.Background(), &model.WriteRequest{GivenName: "Ada"})
	assert.True(t, errors.Is(err, batch.ErrValidation))
}

// TestDeleteContact checks that deleting an existing contact reports its id
// and that deleting it again reports nothing.
func TestDeleteContact(t *testing.T) {
	p := New(newMemStore())
	ctx := context.Background()

	created, err := p.AddContact(ctx, adaRequest())
	assert.NoError(t, err)

	id, err := p.DeleteContact(ctx, created.RecordID)
	assert.NoError(t, err)
	assert.Equal(t, created.RecordID, id)

	gone, err := p.ContactByID(ctx, created.RecordID)
	assert.NoError(t, err)
	assert.Nil(t, gone)

	id, err = p.DeleteContact(ctx, created.RecordID)
	assert.NoError(t, err)
	assert.Equal(t, "", id)
}

// TestContactByIDMissing checks that an unknown id yields nil without error.
func TestContactByIDMissing(t *testing.T) {
	p := New(newMemStore())
	c, err := p.ContactByID(context.Background(), "999")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

// TestListAllProfileFirst checks that the owner's profile contact leads the
// list and every other contact follows in store order.
func TestListAllProfileFirst(t *testing.T) {
	store := newMemStore()
	store.profile = []memRow{{
		id: 900,
		cols: map[string]any{
			rowstore.ColMimeType:  rowstore.KindName,
			rowstore.ColGivenName: "Me",
		},
	}}
	p := New(store)
	ctx := context.Background()

	_, err := p.AddContact(ctx, adaRequest())
	assert.NoError(t, err)

	contacts, err := p.ListAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, contacts, 2)
	assert.Equal(t, model.ProfileRecordID, contacts[0].RecordID)
	assert.Equal(t, "", contacts[0].RawContactID)
	assert.Equal(t, "Me", contacts[0].GivenName)
	assert.Equal(t, "Ada", contacts[1].GivenName)
}

// TestCount checks the contact count after a create and a delete.
func TestCount(t *testing.T) {
	p := New(newMemStore())
	ctx := context.Background()

	n, err := p.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	created, _ := p.AddContact(ctx, adaRequest())
	n, err = p.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	p.DeleteContact(ctx, created.RecordID)
	n, err = p.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestCheckPermission maps store reachability onto the permission
// vocabulary.
func TestCheckPermission(t *testing.T) {
	store := newMemStore()
	p := New(store)
	ctx := context.Background()

	assert.Equal(t, PermissionAuthorized, p.CheckPermission(ctx))
	assert.Equal(t, PermissionAuthorized, p.RequestPermission(ctx))

	store.pingErr = errors.New("connection refused")
	assert.Equal(t, PermissionDenied, p.CheckPermission(ctx))
	assert.Equal(t, PermissionDenied, p.RequestPermission(ctx))
}

// TestIsNotFound recognizes the store's missing-record signal through
// wrapping.
func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(rowstore.ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("open photo: %w", rowstore.ErrNotFound)))
	assert.False(t, IsNotFound(errors.New("other")))
}
