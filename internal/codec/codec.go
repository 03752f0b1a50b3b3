// Package codec translates between the numeric type codes stored on address
// book rows and the human-readable labels exposed to applications. Every
// translation is a pure table lookup; unknown input degrades to "other" or to
// the custom escape code instead of failing.
package codec

import "strings"

// Kind selects which translation table applies.
type Kind int

const (
	Phone Kind = iota
	Email
	Postal
	Website
	IM
	Event
)

// Phone type codes.
const (
	TypePhoneCustom     = 0
	TypePhoneHome       = 1
	TypePhoneMobile     = 2
	TypePhoneWork       = 3
	TypePhoneFaxWork    = 4
	TypePhoneFaxHome    = 5
	TypePhonePager      = 6
	TypePhoneOther      = 7
	TypePhoneMain       = 12
	TypePhoneWorkMobile = 17
	TypePhoneWorkPager  = 18
)

// Email type codes.
const (
	TypeEmailCustom = 0
	TypeEmailHome   = 1
	TypeEmailWork   = 2
	TypeEmailOther  = 3
	TypeEmailMobile = 4
)

// Postal address type codes.
const (
	TypePostalCustom = 0
	TypePostalHome   = 1
	TypePostalWork   = 2
	TypePostalOther  = 3
)

// Website type codes.
const (
	TypeWebsiteCustom   = 0
	TypeWebsiteHomepage = 1
	TypeWebsiteBlog     = 2
	TypeWebsiteProfile  = 3
	TypeWebsiteHome     = 4
	TypeWebsiteWork     = 5
	TypeWebsiteFTP      = 6
	TypeWebsiteOther    = 7
)

// Instant-message protocol codes. The custom sentinel is negative so that the
// protocol table can start at zero.
const (
	TypeIMCustom     = -1
	TypeIMAIM        = 0
	TypeIMMSN        = 1
	TypeIMYahoo      = 2
	TypeIMSkype      = 3
	TypeIMQQ         = 4
	TypeIMGoogleTalk = 5
	TypeIMICQ        = 6
	TypeIMJabber     = 7
	TypeIMNetMeeting = 8
)

// Event type codes.
const (
	TypeEventCustom      = 0
	TypeEventAnniversary = 1
	TypeEventOther       = 2
	TypeEventBirthday    = 3
)

type entry struct {
	code  int
	label string
}

// table holds the canonical code/label pairs for one kind plus extra label
// synonyms accepted on the write path only.
type table struct {
	entries  []entry
	synonyms map[string]int
	custom   int
}

var tables = map[Kind]table{
	Phone: {
		entries: []entry{
			{TypePhoneHome, "home"},
			{TypePhoneWork, "work"},
			{TypePhoneMobile, "mobile"},
			{TypePhoneMain, "main"},
			{TypePhoneFaxWork, "work fax"},
			{TypePhoneFaxHome, "home fax"},
			{TypePhonePager, "pager"},
			{TypePhoneWorkPager, "work_pager"},
			{TypePhoneWorkMobile, "work_mobile"},
			{TypePhoneOther, "other"},
		},
		synonyms: map[string]int{"cell": TypePhoneMobile},
		custom:   TypePhoneCustom,
	},
	Email: {
		entries: []entry{
			{TypeEmailHome, "home"},
			{TypeEmailWork, "work"},
			{TypeEmailMobile, "mobile"},
			{TypeEmailOther, "other"},
		},
		// Several address book clients write "personal"; it shares the home
		// type code rather than getting a code of its own.
		synonyms: map[string]int{"personal": TypeEmailHome},
		custom:   TypeEmailCustom,
	},
	Postal: {
		entries: []entry{
			{TypePostalHome, "home"},
			{TypePostalWork, "work"},
			{TypePostalOther, "other"},
		},
		custom: TypePostalCustom,
	},
	Website: {
		entries: []entry{
			{TypeWebsiteHomepage, "homepage"},
			{TypeWebsiteBlog, "blog"},
			{TypeWebsiteProfile, "profile"},
			{TypeWebsiteHome, "home"},
			{TypeWebsiteWork, "work"},
			{TypeWebsiteFTP, "ftp"},
			{TypeWebsiteOther, "other"},
		},
		custom: TypeWebsiteCustom,
	},
	IM: {
		entries: []entry{
			{TypeIMAIM, "AIM"},
			{TypeIMMSN, "MSN"},
			{TypeIMYahoo, "Yahoo"},
			{TypeIMSkype, "Skype"},
			{TypeIMQQ, "QQ"},
			{TypeIMGoogleTalk, "GoogleTalk"},
			{TypeIMICQ, "ICQ"},
			{TypeIMJabber, "Jabber"},
			{TypeIMNetMeeting, "NetMeeting"},
		},
		custom: TypeIMCustom,
	},
	Event: {
		entries: []entry{
			{TypeEventAnniversary, "anniversary"},
			{TypeEventOther, "other"},
			{TypeEventBirthday, "birthday"},
		},
		custom: TypeEventCustom,
	},
}

// TypeToLabel returns the canonical label for a stored type code. The custom
// sentinel yields the stored free-text label lower-cased, so that a label
// written through LabelToType round-trips case-insensitively. Codes outside
// the table degrade to "other".
func TypeToLabel(kind Kind, typeCode int, rawLabel string) string {
	t := tables[kind]
	if typeCode == t.custom {
		return strings.ToLower(rawLabel)
	}
	for _, e := range t.entries {
		if e.code == typeCode {
			return e.label
		}
	}
	return "other"
}

// LabelToType returns the type code for a label. Matching is case-sensitive
// against the canonical labels and their synonyms; anything else maps to the
// kind's custom sentinel, leaving the original label text to be stored
// alongside the code.
func LabelToType(kind Kind, label string) int {
	t := tables[kind]
	for _, e := range t.entries {
		if e.label == label {
			return e.code
		}
	}
	if code, ok := t.synonyms[label]; ok {
		return code
	}
	return t.custom
}

// CustomType returns the custom sentinel code for a kind.
func CustomType(kind Kind) int {
	return tables[kind].custom
}
