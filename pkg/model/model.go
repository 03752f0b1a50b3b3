// Package model is the application-facing wire shape of a contact, for use
// by clients of the bridge API.
package model

// Item is one entry of a multi-valued field.
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

// Birthday is a calendar date with an omissible year.
type Birthday struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Contact is a full address book entry as returned by the bridge.
type Contact struct {
	RecordID           string          `json:"recordID"`
	RawContactID       string          `json:"rawContactId,omitempty"`
	DisplayName        string          `json:"displayName"`
	GivenName          string          `json:"givenName"`
	MiddleName         string          `json:"middleName"`
	FamilyName         string          `json:"familyName"`
	Prefix             string          `json:"prefix"`
	Suffix             string          `json:"suffix"`
	PhoneticGivenName  string          `json:"phoneticGivenName"`
	PhoneticMiddleName string          `json:"phoneticMiddleName"`
	PhoneticFamilyName string          `json:"phoneticFamilyName"`
	Nickname           string          `json:"nickname"`
	Company            string          `json:"company"`
	JobTitle           string          `json:"jobTitle"`
	Department         string          `json:"department"`
	Note               string          `json:"note"`
	ThumbnailPath      string          `json:"thumbnailPath"`
	HasThumbnail       bool            `json:"hasThumbnail"`
	IsStarred          bool            `json:"isStarred"`
	PhoneNumbers       []Item          `json:"phoneNumbers"`
	EmailAddresses     []Item          `json:"emailAddresses"`
	URLAddresses       []Item          `json:"urlAddresses"`
	IMAddresses        []Item          `json:"imAddresses"`
	PostalAddresses    []PostalAddress `json:"postalAddresses"`
	Birthday           *Birthday       `json:"birthday,omitempty"`
}
