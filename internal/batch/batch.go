// Package batch translates a Contact-shaped write request into the ordered
// operation list applied atomically against the row store.
package batch

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/codec"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/model"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/rowstore"
)

// ErrValidation marks a write request rejected before any store call.
var ErrValidation = errors.New("invalid write request")

// parentCols are the columns back-filled with the parent insert's generated
// id on every child row of a create batch.
var parentCols = []string{rowstore.ColRawContactID, rowstore.ColContactID}

// BuildCreate produces the operation list for a new contact. The first
// operation inserts the parent record with no account binding; every child
// row back-references its generated id through the parent's Ref, so the whole
// contact lands in one atomic batch.
func BuildCreate(req *model.WriteRequest) ([]*rowstore.Operation, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing contact", ErrValidation)
	}

	parent := &rowstore.Operation{
		Kind:       rowstore.OpInsert,
		Collection: rowstore.CollectionRawContacts,
		Values: []rowstore.Value{
			{Column: rowstore.ColAccountName, Val: nil},
			{Column: rowstore.ColAccountType, Val: nil},
		},
		Ref: rowstore.NewRef(),
	}
	ops := []*rowstore.Operation{parent}

	ops = append(ops, childInsert(parent,
		rowstore.Value{Column: rowstore.ColMimeType, Val: rowstore.KindName},
		rowstore.Value{Column: rowstore.ColDisplayName, Val: displayName(req)},
		rowstore.Value{Column: rowstore.ColGivenName, Val: req.GivenName},
		rowstore.Value{Column: rowstore.ColMiddleName, Val: req.MiddleName},
		rowstore.Value{Column: rowstore.ColFamilyName, Val: req.FamilyName},
		rowstore.Value{Column: rowstore.ColPrefix, Val: req.Prefix},
		rowstore.Value{Column: rowstore.ColSuffix, Val: req.Suffix},
		rowstore.Value{Column: rowstore.ColPhoneticGivenName, Val: req.PhoneticGivenName},
		rowstore.Value{Column: rowstore.ColPhoneticMiddleName, Val: req.PhoneticMiddleName},
		rowstore.Value{Column: rowstore.ColPhoneticFamilyName, Val: req.PhoneticFamilyName},
	))

	if req.Company != "" || req.JobTitle != "" || req.Department != "" {
		ops = append(ops, childInsert(parent, organizationValues(req)...))
	}
	if req.Note != "" {
		ops = append(ops, childInsert(parent,
			rowstore.Value{Column: rowstore.ColMimeType, Val: rowstore.KindNote},
			rowstore.Value{Column: rowstore.ColData, Val: req.Note},
		))
	}
	if req.Nickname != "" {
		ops = append(ops, childInsert(parent,
			rowstore.Value{Column: rowstore.ColMimeType, Val: rowstore.KindNickname},
			rowstore.Value{Column: rowstore.ColData, Val: req.Nickname},
		))
	}

	for _, item := range req.PhoneNumbers {
		ops = append(ops, childInsert(parent, itemValues(rowstore.KindPhone, codec.Phone, item)...))
	}
	for _, item := range req.EmailAddresses {
		ops = append(ops, childInsert(parent, itemValues(rowstore.KindEmail, codec.Email, item)...))
	}
	for _, item := range req.URLAddresses {
		ops = append(ops, childInsert(parent, itemValues(rowstore.KindWebsite, codec.Website, item)...))
	}
	for _, item := range req.IMAddresses {
		ops = append(ops, childInsert(parent, itemValues(rowstore.KindIM, codec.IM, item)...))
	}
	for _, addr := range req.PostalAddresses {
		ops = append(ops, childInsert(parent, postalValues(addr)...))
	}
	if req.Birthday != nil {
		ops = append(ops, childInsert(parent, birthdayValues(req.Birthday)...))
	}

	if req.ThumbnailPath != "" {
		photo, err := EncodePhoto(req.ThumbnailPath)
		if err != nil {
			log.Printf("batch: skipping photo %q: %v", req.ThumbnailPath, err)
		} else {
			ops = append(ops, childInsert(parent,
				rowstore.Value{Column: rowstore.ColMimeType, Val: rowstore.KindPhoto},
				rowstore.Value{Column: rowstore.ColPhoto, Val: photo},
			))
		}
	}
	return ops, nil
}

// BuildUpdate produces the operation list for an existing contact. The
// fixed-cardinality name and organization rows are updated in place, filtered
// by the target identifier. Every multi-valued group that the request carries
// (a non-nil list) is fully replaced: one delete for the whole group, then
// one insert per supplied entry. The parent row already exists, so no
// back-references are involved.
func BuildUpdate(req *model.WriteRequest) ([]*rowstore.Operation, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing contact", ErrValidation)
	}
	if req.RawContactID == "" {
		return nil, fmt.Errorf("%w: missing rawContactId", ErrValidation)
	}
	rawID := req.RawContactID
	contactID := req.RecordID
	if contactID == "" {
		contactID = rawID
	}

	ops := []*rowstore.Operation{
		{
			Kind:       rowstore.OpUpdate,
			Collection: rowstore.CollectionData,
			Values: []rowstore.Value{
				{Column: rowstore.ColDisplayName, Val: displayName(req)},
				{Column: rowstore.ColGivenName, Val: req.GivenName},
				{Column: rowstore.ColMiddleName, Val: req.MiddleName},
				{Column: rowstore.ColFamilyName, Val: req.FamilyName},
				{Column: rowstore.ColPrefix, Val: req.Prefix},
				{Column: rowstore.ColSuffix, Val: req.Suffix},
				{Column: rowstore.ColPhoneticGivenName, Val: req.PhoneticGivenName},
				{Column: rowstore.ColPhoneticMiddleName, Val: req.PhoneticMiddleName},
				{Column: rowstore.ColPhoneticFamilyName, Val: req.PhoneticFamilyName},
			},
			Where: "raw_contact_id = ? AND mimetype = ?",
			Args:  []any{rawID, rowstore.KindName},
		},
		{
			Kind:       rowstore.OpUpdate,
			Collection: rowstore.CollectionData,
			Values:     organizationValues(req)[1:],
			Where:      "raw_contact_id = ? AND mimetype = ?",
			Args:       []any{rawID, rowstore.KindOrganization},
		},
	}

	replace := func(kind string, inserts [][]rowstore.Value) {
		ops = append(ops, deleteGroup(kind, rawID))
		for _, values := range inserts {
			ops = append(ops, updateInsert(rawID, contactID, values))
		}
	}

	if req.PhoneNumbers != nil {
		replace(rowstore.KindPhone, itemInserts(rowstore.KindPhone, codec.Phone, req.PhoneNumbers))
	}
	if req.EmailAddresses != nil {
		replace(rowstore.KindEmail, itemInserts(rowstore.KindEmail, codec.Email, req.EmailAddresses))
	}
	if req.URLAddresses != nil {
		replace(rowstore.KindWebsite, itemInserts(rowstore.KindWebsite, codec.Website, req.URLAddresses))
	}
	if req.IMAddresses != nil {
		replace(rowstore.KindIM, itemInserts(rowstore.KindIM, codec.IM, req.IMAddresses))
	}
	if req.PostalAddresses != nil {
		var inserts [][]rowstore.Value
		for _, addr := range req.PostalAddresses {
			inserts = append(inserts, postalValues(addr))
		}
		replace(rowstore.KindPostal, inserts)
	}

	ops = append(ops, deleteGroup(rowstore.KindNote, rawID))
	if req.Note != "" {
		ops = append(ops, updateInsert(rawID, contactID, []rowstore.Value{
			{Column: rowstore.ColMimeType, Val: rowstore.KindNote},
			{Column: rowstore.ColData, Val: req.Note},
		}))
	}

	if req.Birthday != nil {
		ops = append(ops, deleteGroup(rowstore.KindEvent, rawID))
		ops = append(ops, updateInsert(rawID, contactID, birthdayValues(req.Birthday)))
	}

	if req.ThumbnailPath != "" {
		photo, err := EncodePhoto(req.ThumbnailPath)
		if err != nil {
			log.Printf("batch: skipping photo %q: %v", req.ThumbnailPath, err)
		} else {
			ops = append(ops, deleteGroup(rowstore.KindPhoto, rawID))
			ops = append(ops, updateInsert(rawID, contactID, []rowstore.Value{
				{Column: rowstore.ColMimeType, Val: rowstore.KindPhoto},
				{Column: rowstore.ColPhoto, Val: photo},
			}))
		}
	}
	return ops, nil
}

// BuildDelete produces the operation list removing a contact and all of its
// rows.
func BuildDelete(contactID string) ([]*rowstore.Operation, error) {
	if contactID == "" {
		return nil, fmt.Errorf("%w: missing recordID", ErrValidation)
	}
	return []*rowstore.Operation{
		{
			Kind:       rowstore.OpDelete,
			Collection: rowstore.CollectionData,
			Where:      "contact_id = ?",
			Args:       []any{contactID},
		},
		{
			Kind:       rowstore.OpDelete,
			Collection: rowstore.CollectionRawContacts,
			Where:      "id = ?",
			Args:       []any{contactID},
		},
	}, nil
}

func childInsert(parent *rowstore.Operation, values ...rowstore.Value) *rowstore.Operation {
	return &rowstore.Operation{
		Kind:       rowstore.OpInsert,
		Collection: rowstore.CollectionData,
		Values:     values,
		ParentRef:  parent.Ref,
		ParentCols: parentCols,
	}
}

func updateInsert(rawID, contactID string, values []rowstore.Value) *rowstore.Operation {
	values = append(values,
		rowstore.Value{Column: rowstore.ColRawContactID, Val: rawID},
		rowstore.Value{Column: rowstore.ColContactID, Val: contactID},
	)
	return &rowstore.Operation{
		Kind:       rowstore.OpInsert,
		Collection: rowstore.CollectionData,
		Values:     values,
	}
}

func deleteGroup(kind, rawID string) *rowstore.Operation {
	return &rowstore.Operation{
		Kind:       rowstore.OpDelete,
		Collection: rowstore.CollectionData,
		Where:      "mimetype = ? AND raw_contact_id = ?",
		Args:       []any{kind, rawID},
	}
}

func itemValues(kind string, codecKind codec.Kind, item model.Item) []rowstore.Value {
	return []rowstore.Value{
		{Column: rowstore.ColMimeType, Val: kind},
		{Column: rowstore.ColData, Val: item.Value},
		{Column: rowstore.ColTypeCode, Val: codec.LabelToType(codecKind, item.Label)},
		{Column: rowstore.ColLabel, Val: item.Label},
	}
}

func itemInserts(kind string, codecKind codec.Kind, items []model.Item) [][]rowstore.Value {
	var out [][]rowstore.Value
	for _, item := range items {
		out = append(out, itemValues(kind, codecKind, item))
	}
	return out
}

func organizationValues(req *model.WriteRequest) []rowstore.Value {
	return []rowstore.Value{
		{Column: rowstore.ColMimeType, Val: rowstore.KindOrganization},
		{Column: rowstore.ColCompany, Val: req.Company},
		{Column: rowstore.ColTitle, Val: req.JobTitle},
		{Column: rowstore.ColDepartment, Val: req.Department},
	}
}

func postalValues(addr model.PostalAddress) []rowstore.Value {
	return []rowstore.Value{
		{Column: rowstore.ColMimeType, Val: rowstore.KindPostal},
		{Column: rowstore.ColTypeCode, Val: codec.LabelToType(codec.Postal, addr.Label)},
		{Column: rowstore.ColLabel, Val: addr.Label},
		{Column: rowstore.ColStreet, Val: addr.Street},
		{Column: rowstore.ColCity, Val: addr.City},
		{Column: rowstore.ColRegion, Val: addr.Region},
		{Column: rowstore.ColPostcode, Val: addr.Postcode},
		{Column: rowstore.ColCountry, Val: addr.Country},
		{Column: rowstore.ColFormattedAddress, Val: addr.FormattedAddress},
	}
}

func birthdayValues(b *model.Birthday) []rowstore.Value {
	date := fmt.Sprintf("%04d-%02d-%02d", b.Year, b.Month, b.Day)
	if b.Year == 0 {
		date = fmt.Sprintf("--%02d-%02d", b.Month, b.Day)
	}
	return []rowstore.Value{
		{Column: rowstore.ColMimeType, Val: rowstore.KindEvent},
		{Column: rowstore.ColTypeCode, Val: codec.TypeEventBirthday},
		{Column: rowstore.ColData, Val: date},
	}
}

// displayName returns the submitted display name, or one composed from the
// name parts when absent.
func displayName(req *model.WriteRequest) string {
	if req.DisplayName != "" {
		return req.DisplayName
	}
	parts := []string{req.Prefix, req.GivenName, req.MiddleName, req.FamilyName, req.Suffix}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
