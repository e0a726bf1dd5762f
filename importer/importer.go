// SPDX-License-Identifier: GPL-3.0-only

// Package importer turns raw tabular records into validated contacts:
// field-mapping resolution, email/phone normalization, deduplication against
// existing records, then a quota-gated batch insert. Filtering is per-row and
// partial-tolerant; only the storage call itself is all-or-nothing.
package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const minPhoneDigits = 7

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Canonical contact fields.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldCompany  = "company"
	FieldPosition = "position"
	FieldIndustry = "industry"
	FieldNotes    = "notes"
)

// fieldAliases maps common raw header spellings to canonical fields, applied
// after any caller-supplied mapping.
var fieldAliases = map[string]string{
	"name":          FieldName,
	"full name":     FieldName,
	"full_name":     FieldName,
	"fullname":      FieldName,
	"contact":       FieldName,
	"contact name":  FieldName,
	"email":         FieldEmail,
	"e-mail":        FieldEmail,
	"email address": FieldEmail,
	"mail":          FieldEmail,
	"phone":         FieldPhone,
	"phone number":  FieldPhone,
	"phone_number":  FieldPhone,
	"mobile":        FieldPhone,
	"cell":          FieldPhone,
	"tel":           FieldPhone,
	"telephone":     FieldPhone,
	"company":       FieldCompany,
	"organization":  FieldCompany,
	"organisation":  FieldCompany,
	"employer":      FieldCompany,
	"position":      FieldPosition,
	"title":         FieldPosition,
	"job title":     FieldPosition,
	"role":          FieldPosition,
	"industry":      FieldIndustry,
	"sector":        FieldIndustry,
	"notes":         FieldNotes,
	"note":          FieldNotes,
	"comments":      FieldNotes,
	"remarks":       FieldNotes,
}

type RawRow map[string]string

type Contact struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Position string
	Industry string
	Notes    string
}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type NormalizeResult struct {
	Contacts []Contact
	Errors   []RowError
}

func resolveField(header string, mapping map[string]string) string {
	if mapping != nil {
		if canonical, ok := mapping[header]; ok {
			return canonical
		}
	}
	key := strings.ToLower(strings.TrimSpace(header))
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return ""
}

// NormalizeEmail lowercases and validates an email address. Malformed input
// yields the empty string; the row is kept, the field dropped.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// NormalizePhone coerces a phone number toward E.164. Parsing goes through
// the phonenumbers library with the given default region; inputs it cannot
// handle fall back to trunk-prefix replacement (leading 0 becomes the region
// country code) or a bare plus prefix. Results below the minimum digit count
// are dropped.
func NormalizePhone(raw, defaultRegion string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if defaultRegion == "" {
		defaultRegion = "US"
	}

	if parsed, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}

	digits := keepDigits(trimmed)
	if len(digits) < minPhoneDigits {
		return ""
	}
	countryCode := phonenumbers.GetCountryCodeForRegion(defaultRegion)
	var candidate string
	if strings.HasPrefix(digits, "0") {
		candidate = fmt.Sprintf("+%d%s", countryCode, digits[1:])
	} else {
		candidate = "+" + digits
	}
	if len(keepDigits(candidate)) < minPhoneDigits {
		return ""
	}
	return candidate
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// PhoneSuffix returns the trailing 8 digits used as the phone dedup key, or
// empty when the number is shorter than that.
func PhoneSuffix(phone string) string {
	digits := keepDigits(phone)
	if len(digits) < 8 {
		return ""
	}
	return digits[len(digits)-8:]
}

// Normalize maps and validates raw rows. A row with no resolvable name,
// email, or phone carries no identifiable information and becomes an error
// rather than being silently dropped.
func Normalize(rows []RawRow, mapping map[string]string, defaultRegion string) NormalizeResult {
	result := NormalizeResult{}
	for i, row := range rows {
		contact := Contact{}
		for header, value := range row {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			switch resolveField(header, mapping) {
			case FieldName:
				contact.Name = value
			case FieldEmail:
				contact.Email = NormalizeEmail(value)
			case FieldPhone:
				contact.Phone = NormalizePhone(value, defaultRegion)
			case FieldCompany:
				contact.Company = value
			case FieldPosition:
				contact.Position = value
			case FieldIndustry:
				contact.Industry = value
			case FieldNotes:
				contact.Notes = value
			}
		}

		if contact.Name == "" && contact.Email == "" && contact.Phone == "" {
			result.Errors = append(result.Errors, RowError{Row: i, Reason: "no identifiable information"})
			continue
		}
		if contact.Name == "" {
			if contact.Email != "" {
				contact.Name = contact.Email
			} else {
				contact.Name = contact.Phone
			}
		}
		result.Contacts = append(result.Contacts, contact)
	}
	return result
}

// ExistingKeys indexes the dedup keys of a tenant's current contacts.
type ExistingKeys struct {
	emails        map[string]struct{}
	phoneSuffixes map[string]struct{}
}

func NewExistingKeys() *ExistingKeys {
	return &ExistingKeys{
		emails:        make(map[string]struct{}),
		phoneSuffixes: make(map[string]struct{}),
	}
}

func (k *ExistingKeys) AddEmail(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		k.emails[email] = struct{}{}
	}
}

func (k *ExistingKeys) AddPhone(phone string) {
	if suffix := PhoneSuffix(phone); suffix != "" {
		k.phoneSuffixes[suffix] = struct{}{}
	}
}

func (k *ExistingKeys) matches(c Contact) bool {
	if c.Email != "" {
		if _, ok := k.emails[c.Email]; ok {
			return true
		}
	}
	if suffix := PhoneSuffix(c.Phone); suffix != "" {
		if _, ok := k.phoneSuffixes[suffix]; ok {
			return true
		}
	}
	return false
}

type DedupResult struct {
	Unique     []Contact
	Duplicates []Contact
}

// Deduplicate splits contacts into unique and duplicate sets by
// case-normalized email or last-8-digit phone suffix, checking against both
// existing records and earlier rows in the same batch.
func Deduplicate(contacts []Contact, existing *ExistingKeys) DedupResult {
	if existing == nil {
		existing = NewExistingKeys()
	}
	result := DedupResult{}
	for _, contact := range contacts {
		if existing.matches(contact) {
			result.Duplicates = append(result.Duplicates, contact)
			continue
		}
		result.Unique = append(result.Unique, contact)
		existing.AddEmail(contact.Email)
		existing.AddPhone(contact.Phone)
	}
	return result
}
