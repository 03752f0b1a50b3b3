// Package aggregate folds the row store's discriminated rows into nested
// Contact aggregates, one per contact key, preserving the order in which
// contacts are first seen.
package aggregate

import (
	"fmt"
	"iter"
	"log"
	"strconv"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/codec"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/model"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/rowstore"
)

// ContactSet is an insertion-ordered collection of Contact aggregates keyed
// by contact key.
type ContactSet struct {
	order []string
	byKey map[string]*model.Contact
}

// NewContactSet returns an empty set.
func NewContactSet() *ContactSet {
	return &ContactSet{byKey: make(map[string]*model.Contact)}
}

// Collect folds a row sequence into a fresh set.
func Collect(rows iter.Seq[rowstore.Row]) *ContactSet {
	set := NewContactSet()
	for row := range rows {
		set.Fold(row)
	}
	return set
}

// Len returns the number of distinct contacts folded so far.
func (s *ContactSet) Len() int { return len(s.order) }

// Contacts returns the aggregates in first-seen order.
func (s *ContactSet) Contacts() []*model.Contact {
	out := make([]*model.Contact, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Get returns the aggregate for a key, or nil.
func (s *ContactSet) Get(key string) *model.Contact {
	return s.byKey[key]
}

// Fold is one fold step: it assigns the row to its aggregate, creating the
// aggregate on first sight, and dispatches on the row's kind. Rows with an
// unrecognized kind are skipped without aborting the fold.
func (s *ContactSet) Fold(row rowstore.Row) {
	key := contactKey(row)
	c, ok := s.byKey[key]
	if !ok {
		c = model.NewContact(key)
		s.byKey[key] = c
		s.order = append(s.order, key)
	}

	// The profile pseudo-contact is readable but never a write target, so it
	// must not expose a raw contact id even when a store leaks one.
	if key != model.ProfileRecordID && c.RawContactID == "" && row.RawContactID.Valid {
		c.RawContactID = strconv.FormatInt(row.RawContactID.Int64, 10)
	}
	// Display name and photo are carried on whichever row happens to have
	// them; adopt the first non-empty sighting and never overwrite it.
	if c.DisplayName == "" && row.DisplayName.Valid && row.DisplayName.String != "" {
		c.DisplayName = row.DisplayName.String
	}
	if c.PhotoURI == "" && row.PhotoURI.Valid && row.PhotoURI.String != "" {
		c.PhotoURI = row.PhotoURI.String
		c.HasPhoto = true
	}
	if row.Starred.Valid && row.Starred.Bool {
		c.IsStarred = true
	}

	switch row.Kind {
	case rowstore.KindName:
		c.GivenName = row.GivenName.String
		c.MiddleName = row.MiddleName.String
		c.FamilyName = row.FamilyName.String
		c.Prefix = row.Prefix.String
		c.Suffix = row.Suffix.String
		c.PhoneticGivenName = row.PhoneticGivenName.String
		c.PhoneticMiddleName = row.PhoneticMiddleName.String
		c.PhoneticFamilyName = row.PhoneticFamilyName.String
	case rowstore.KindPhone:
		if item, ok := rowItem(row, codec.Phone); ok {
			c.PhoneNumbers = append(c.PhoneNumbers, item)
		}
	case rowstore.KindEmail:
		if item, ok := rowItem(row, codec.Email); ok {
			c.EmailAddresses = append(c.EmailAddresses, item)
		}
	case rowstore.KindWebsite:
		if item, ok := rowItem(row, codec.Website); ok {
			c.URLAddresses = append(c.URLAddresses, item)
		}
	case rowstore.KindIM:
		if item, ok := rowItem(row, codec.IM); ok {
			c.IMAddresses = append(c.IMAddresses, item)
		}
	case rowstore.KindPostal:
		c.PostalAddresses = append(c.PostalAddresses, model.PostalAddress{
			Label:            codec.TypeToLabel(codec.Postal, typeCode(row), row.Label.String),
			Street:           row.Street.String,
			City:             row.City.String,
			Region:           row.Region.String,
			Postcode:         row.Postcode.String,
			Country:          row.Country.String,
			FormattedAddress: row.FormattedAddress.String,
		})
	case rowstore.KindOrganization:
		c.Company = row.Company.String
		c.JobTitle = row.Title.String
		c.Department = row.Department.String
	case rowstore.KindNote:
		c.Note = row.Data.String
	case rowstore.KindNickname:
		c.Nickname = row.Data.String
	case rowstore.KindEvent:
		if typeCode(row) != codec.TypeEventBirthday {
			break
		}
		b, err := ParseEventDate(row.Data.String)
		if err != nil {
			log.Printf("aggregate: skipping malformed birthday %q: %v", row.Data.String, err)
			break
		}
		c.Birthday = &b
	case rowstore.KindPhoto:
		c.HasPhoto = true
	}
}

// contactKey picks the stable key for a row: the external source id when
// present, else the raw contact id column, else the profile sentinel for the
// owner's rows, which come without identifiers.
func contactKey(row rowstore.Row) string {
	if row.SourceID.Valid && row.SourceID.String != "" {
		return row.SourceID.String
	}
	if row.ContactID.Valid {
		return strconv.FormatInt(row.ContactID.Int64, 10)
	}
	return model.ProfileRecordID
}

// rowItem decodes a value-bearing row into a list entry. Rows with an empty
// value contribute nothing.
func rowItem(row rowstore.Row, kind codec.Kind) (model.Item, bool) {
	if !row.Data.Valid || row.Data.String == "" {
		return model.Item{}, false
	}
	item := model.Item{
		Label: codec.TypeToLabel(kind, typeCode(row), row.Label.String),
		Value: row.Data.String,
	}
	if row.ID.Valid {
		item.RowID = strconv.FormatInt(row.ID.Int64, 10)
	}
	return item, true
}

func typeCode(row rowstore.Row) int {
	return int(row.TypeCode.Int64)
}

// ParseEventDate parses the date string stored on event rows. Two formats
// exist: "--MM-DD" for dates without a year and "YYYY-MM-DD" for full dates.
func ParseEventDate(s string) (model.Birthday, error) {
	var b model.Birthday
	var parts []string
	if len(s) > 2 && s[:2] == "--" {
		parts = []string{"", s[2:]}
	} else {
		parts = nil
	}
	if parts != nil {
		month, day, err := parseMonthDay(parts[1])
		if err != nil {
			return b, err
		}
		b.Month, b.Day = month, day
		return b, nil
	}
	if len(s) < 6 || s[4] != '-' {
		return b, fmt.Errorf("unrecognized date %q", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return b, fmt.Errorf("unrecognized date %q", s)
	}
	month, day, err := parseMonthDay(s[5:])
	if err != nil {
		return b, err
	}
	b.Year, b.Month, b.Day = year, month, day
	return b, nil
}

func parseMonthDay(s string) (int, int, error) {
	if len(s) != 5 || s[2] != '-' {
		return 0, 0, fmt.Errorf("unrecognized month-day %q", s)
	}
	month, err := strconv.Atoi(s[:2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("unrecognized month in %q", s)
	}
	day, err := strconv.Atoi(s[3:])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("unrecognized day in %q", s)
	}
	return month, day, nil
}
