// Package model holds the nested Contact aggregate assembled from address
// book rows and the write request consumed by the batch builder.
package model

import "encoding/json"

// ProfileRecordID is the record id assigned to the device owner's own
// pseudo-contact, which the underlying store exposes without an identifier.
// Such a contact can be read but never targeted by a write.
const ProfileRecordID = "-1"

// Item is one entry of a multi-valued field: a phone number, email address,
// URL or instant-message handle. RowID identifies the backing row when known,
// allowing in-place updates instead of delete+insert.
type Item struct {
	Label string `json:"label"`
	Value string `json:"value"`
	RowID string `json:"id,omitempty"`
}

// PostalAddress is one structured postal address entry.
type PostalAddress struct {
	Label            string `json:"label"`
	Street           string `json:"street"`
	City             string `json:"city"`
	Region           string `json:"region"`
	Postcode         string `json:"postCode"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formattedAddress,omitempty"`
}

// Birthday is a calendar date with an omissible year. Year 0 means the
// stored date carried no year.
type Birthday struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Contact is the aggregate assembled from the row store. A fresh aggregate is
// built per read operation and discarded after serialization.
type Contact struct {
	RecordID     string `json:"recordID"`
	RawContactID string `json:"rawContactId,omitempty"`

	DisplayName        string `json:"displayName"`
	GivenName          string `json:"givenName"`
	MiddleName         string `json:"middleName"`
	FamilyName         string `json:"familyName"`
	Prefix             string `json:"prefix"`
	Suffix             string `json:"suffix"`
	PhoneticGivenName  string `json:"phoneticGivenName"`
	PhoneticMiddleName string `json:"phoneticMiddleName"`
	PhoneticFamilyName string `json:"phoneticFamilyName"`
	Nickname           string `json:"nickname"`
	Company            string `json:"company"`
	JobTitle           string `json:"jobTitle"`
	Department         string `json:"department"`
	Note               string `json:"note"`
	PhotoURI           string `json:"thumbnailPath"`
	HasPhoto           bool   `json:"hasThumbnail"`
	IsStarred          bool   `json:"isStarred"`

	PhoneNumbers    []Item          `json:"phoneNumbers"`
	EmailAddresses  []Item          `json:"emailAddresses"`
	URLAddresses    []Item          `json:"urlAddresses"`
	IMAddresses     []Item          `json:"imAddresses"`
	PostalAddresses []PostalAddress `json:"postalAddresses"`

	Birthday *Birthday `json:"birthday,omitempty"`
}

// NewContact returns an aggregate with all multi-valued lists initialized, so
// that a contact with no entries still serializes them as empty arrays.
func NewContact(recordID string) *Contact {
	return &Contact{
		RecordID:        recordID,
		PhoneNumbers:    []Item{},
		EmailAddresses:  []Item{},
		URLAddresses:    []Item{},
		IMAddresses:     []Item{},
		PostalAddresses: []PostalAddress{},
	}
}

// MarshalJSON substitutes the display name for an empty given name. The
// fallback happens at serialization time only; the aggregate keeps the stored
// value untouched.
func (c *Contact) MarshalJSON() ([]byte, error) {
	type alias Contact
	out := alias(*c)
	if out.GivenName == "" {
		out.GivenName = out.DisplayName
	}
	return json.Marshal(out)
}

// WriteRequest carries one create or update submission. It mirrors the
// Contact shape; a nil multi-valued list means "leave that group untouched"
// on update, while an empty non-nil list replaces the group with nothing.
type WriteRequest struct {
	RecordID     string `json:"recordID,omitempty"`
	RawContactID string `json:"rawContactId,omitempty"`

	DisplayName        string `json:"displayName"`
	GivenName          string `json:"givenName"`
	MiddleName         string `json:"middleName"`
	FamilyName         string `json:"familyName"`
	Prefix             string `json:"prefix"`
	Suffix             string `json:"suffix"`
	PhoneticGivenName  string `json:"phoneticGivenName"`
	PhoneticMiddleName string `json:"phoneticMiddleName"`
	PhoneticFamilyName string `json:"phoneticFamilyName"`
	Nickname           string `json:"nickname"`
	Company            string `json:"company"`
	JobTitle           string `json:"jobTitle"`
	Department         string `json:"department"`
	Note               string `json:"note"`
	ThumbnailPath      string `json:"thumbnailPath"`

	PhoneNumbers    []Item          `json:"phoneNumbers"`
	EmailAddresses  []Item          `json:"emailAddresses"`
	URLAddresses    []Item          `json:"urlAddresses"`
	IMAddresses     []Item          `json:"imAddresses"`
	PostalAddresses []PostalAddress `json:"postalAddresses"`

	Birthday *Birthday `json:"birthday,omitempty"`
}
