package rowstore

import "database/sql"

// Row is one discriminated row scanned from the store. Columns that do not
// apply to a row's kind come back NULL; consumers must check validity before
// use.
type Row struct {
	ID           sql.NullInt64  `db:"id"`
	RawContactID sql.NullInt64  `db:"raw_contact_id"`
	ContactID    sql.NullInt64  `db:"contact_id"`
	SourceID     sql.NullString `db:"source_id"`
	Kind         string         `db:"mimetype"`

	DisplayName sql.NullString `db:"display_name"`
	PhotoURI    sql.NullString `db:"photo_uri"`
	Starred     sql.NullBool   `db:"starred"`

	GivenName          sql.NullString `db:"given_name"`
	MiddleName         sql.NullString `db:"middle_name"`
	FamilyName         sql.NullString `db:"family_name"`
	Prefix             sql.NullString `db:"prefix"`
	Suffix             sql.NullString `db:"suffix"`
	PhoneticGivenName  sql.NullString `db:"phonetic_given_name"`
	PhoneticMiddleName sql.NullString `db:"phonetic_middle_name"`
	PhoneticFamilyName sql.NullString `db:"phonetic_family_name"`

	// Data carries the kind-specific value: phone number, email address,
	// URL, IM handle, nickname, note text or event date string.
	Data     sql.NullString `db:"data"`
	TypeCode sql.NullInt64  `db:"type_code"`
	Label    sql.NullString `db:"label"`

	Street           sql.NullString `db:"street"`
	City             sql.NullString `db:"city"`
	Region           sql.NullString `db:"region"`
	Postcode         sql.NullString `db:"postcode"`
	Country          sql.NullString `db:"country"`
	FormattedAddress sql.NullString `db:"formatted_address"`

	Company    sql.NullString `db:"company"`
	Title      sql.NullString `db:"title"`
	Department sql.NullString `db:"department"`
}

// AllContacts selects every data row of every contact except the device
// owner, in the store's natural order.
func AllContacts() Query {
	return Query{}
}

// ProfileContact selects the device owner's own data rows. The store returns
// them without contact or source identifiers.
func ProfileContact() Query {
	return Query{Profile: true}
}

// MatchingText selects the data rows of contacts whose display name or
// company contains the given text.
func MatchingText(text string) Query {
	like := "%" + text + "%"
	return Query{
		Where: `d.contact_id IN (SELECT contact_id FROM contact_data WHERE display_name LIKE ? OR company LIKE ?)`,
		Args:  []any{like, like},
	}
}

// MatchingPhone selects the data rows of contacts having a phone number that
// contains the given digits.
func MatchingPhone(number string) Query {
	return Query{
		Where: `d.contact_id IN (SELECT contact_id FROM contact_data WHERE mimetype = ? AND data LIKE ?)`,
		Args:  []any{KindPhone, "%" + number + "%"},
	}
}

// MatchingEmail selects the data rows of contacts having an email address
// that starts with the given prefix.
func MatchingEmail(address string) Query {
	return Query{
		Where: `d.contact_id IN (SELECT contact_id FROM contact_data WHERE mimetype = ? AND data LIKE ?)`,
		Args:  []any{KindEmail, address + "%"},
	}
}

// ByContactID selects the data rows of a single contact.
func ByContactID(contactID string) Query {
	return Query{
		Where: `d.contact_id = ?`,
		Args:  []any{contactID},
	}
}

// ByRawContactID selects the data rows of the contact owning a raw record.
func ByRawContactID(rawContactID string) Query {
	return Query{
		Where: `d.raw_contact_id = ?`,
		Args:  []any{rawContactID},
	}
}
