// SPDX-License-Identifier: GPL-3.0-only

package importer

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane.Doe@Example.COM", "jane.doe@example.com"},
		{"  user@host.org  ", "user@host.org"},
		{"not-an-email", ""},
		{"missing@tld", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in     string
		region string
		want   string
	}{
		{"(415) 555-0123", "US", "+14155550123"},
		{"+44 20 7946 0958", "US", "+442079460958"},
		{"0412 345 678", "AU", "+61412345678"},
		{"12345", "US", ""},
		{"", "US", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in, tc.region); got != tc.want {
			t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}

func TestPhoneSuffix(t *testing.T) {
	if got := PhoneSuffix("+14155550123"); got != "55550123" {
		t.Errorf("PhoneSuffix = %q, want 55550123", got)
	}
	if got := PhoneSuffix("12345"); got != "" {
		t.Errorf("PhoneSuffix of short number = %q, want empty", got)
	}
}

func TestNormalizeResolvesAliases(t *testing.T) {
	rows := []RawRow{
		{"Full Name": "Jane Doe", "E-mail": "Jane@Example.com", "Phone Number": "(415) 555-0123", "Organization": "Acme"},
	}
	result := Normalize(rows, nil, "US")
	if len(result.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(result.Contacts))
	}
	contact := result.Contacts[0]
	if contact.Name != "Jane Doe" || contact.Email != "jane@example.com" ||
		contact.Phone != "+14155550123" || contact.Company != "Acme" {
		t.Errorf("contact = %+v", contact)
	}
}

func TestNormalizeCallerMappingWins(t *testing.T) {
	rows := []RawRow{
		{"col_a": "John Smith", "col_b": "john@acme.com"},
	}
	mapping := map[string]string{"col_a": FieldName, "col_b": FieldEmail}
	result := Normalize(rows, mapping, "US")
	if len(result.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(result.Contacts))
	}
	if result.Contacts[0].Name != "John Smith" || result.Contacts[0].Email != "john@acme.com" {
		t.Errorf("contact = %+v", result.Contacts[0])
	}
}

func TestNormalizeRejectsUnidentifiableRows(t *testing.T) {
	rows := []RawRow{
		{"Notes": "just a note"},
		{"Name": "Has Name"},
	}
	result := Normalize(rows, nil, "US")
	if len(result.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(result.Contacts))
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 0 {
		t.Errorf("errors = %+v, want row 0 rejected", result.Errors)
	}
}

func TestNormalizeBackfillsName(t *testing.T) {
	rows := []RawRow{
		{"Email": "anon@example.com"},
		{"Phone": "+14155550123"},
	}
	result := Normalize(rows, nil, "US")
	if len(result.Contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(result.Contacts))
	}
	if result.Contacts[0].Name != "anon@example.com" {
		t.Errorf("email-only name = %q", result.Contacts[0].Name)
	}
	if result.Contacts[1].Name != "+14155550123" {
		t.Errorf("phone-only name = %q", result.Contacts[1].Name)
	}
}

func TestNormalizeDropsInvalidFieldKeepsRow(t *testing.T) {
	rows := []RawRow{
		{"Name": "Jane Doe", "Email": "broken-email"},
	}
	result := Normalize(rows, nil, "US")
	if len(result.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(result.Contacts))
	}
	if result.Contacts[0].Email != "" {
		t.Errorf("invalid email should be dropped, got %q", result.Contacts[0].Email)
	}
}

func TestDeduplicateAgainstExisting(t *testing.T) {
	existing := NewExistingKeys()
	existing.AddEmail("Jane@Example.com")
	existing.AddPhone("+14155550123")

	contacts := []Contact{
		{Name: "Jane", Email: "jane@example.com"},
		{Name: "Same phone", Phone: "415-555-0123"},
		{Name: "Fresh", Email: "new@example.com"},
	}
	result := Deduplicate(contacts, existing)
	if len(result.Unique) != 1 || len(result.Duplicates) != 2 {
		t.Errorf("unique = %d duplicates = %d, want 1 and 2", len(result.Unique), len(result.Duplicates))
	}
}

func TestDeduplicateWithinBatch(t *testing.T) {
	contacts := []Contact{
		{Name: "First", Email: "dup@example.com"},
		{Name: "Second", Email: "dup@example.com"},
		{Name: "Third", Phone: "+14155550123"},
		{Name: "Fourth", Phone: "+1 (415) 555-0123"},
	}
	result := Deduplicate(contacts, NewExistingKeys())
	if len(result.Unique) != 2 {
		t.Errorf("unique = %d, want 2 (first of each key)", len(result.Unique))
	}
	if len(result.Duplicates) != 2 {
		t.Errorf("duplicates = %d, want 2", len(result.Duplicates))
	}
}
