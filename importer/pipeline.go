// SPDX-License-Identifier: GPL-3.0-only

package importer

import (
	"fmt"

	"reachcrm-server/models"
	"reachcrm-server/quota"

	"gorm.io/gorm"
)

// Summary accounts for every input row exactly once:
// Imported + Duplicates + Errors + SkippedByLimit == Total.
type Summary struct {
	Total          int        `json:"total"`
	Imported       int        `json:"imported"`
	Duplicates     int        `json:"duplicates"`
	Errors         int        `json:"errors"`
	SkippedByLimit int        `json:"skipped_by_limit"`
	RowErrors      []RowError `json:"row_errors,omitempty"`
}

type Pipeline struct {
	DB            *gorm.DB
	Quota         *quota.Tracker
	DefaultRegion string
}

// Run executes normalize, deduplicate, quota reservation, and a single batch
// insert. The insert is all-or-nothing: a storage failure releases the
// reservation and fails the whole remaining batch. The progress callback may
// be nil.
func (p *Pipeline) Run(userID uint, rows []RawRow, mapping map[string]string, progress func(int, string)) (Summary, error) {
	report := func(pct int, msg string) {
		if progress != nil {
			progress(pct, msg)
		}
	}

	summary := Summary{Total: len(rows)}
	if len(rows) == 0 {
		return summary, nil
	}

	report(10, "Normalizing rows")
	normalized := Normalize(rows, mapping, p.DefaultRegion)
	summary.Errors = len(normalized.Errors)
	summary.RowErrors = normalized.Errors

	report(30, "Checking for duplicates")
	existing, err := p.loadExistingKeys(userID)
	if err != nil {
		return summary, fmt.Errorf("load existing contacts: %w", err)
	}
	deduped := Deduplicate(normalized.Contacts, existing)
	summary.Duplicates = len(deduped.Duplicates)

	if len(deduped.Unique) == 0 {
		report(100, "Nothing to import")
		return summary, nil
	}

	report(60, "Reserving contact quota")
	granted, err := p.Quota.ReserveUpTo(userID, int64(len(deduped.Unique)))
	if err != nil {
		return summary, fmt.Errorf("reserve quota: %w", err)
	}
	summary.SkippedByLimit = len(deduped.Unique) - int(granted)
	if granted == 0 {
		report(100, "Contact limit reached")
		return summary, nil
	}

	report(80, "Inserting contacts")
	entities := make([]models.Contact, 0, granted)
	for _, contact := range deduped.Unique[:granted] {
		entities = append(entities, toModel(userID, contact))
	}
	if err := p.DB.Create(&entities).Error; err != nil {
		if releaseErr := p.Quota.Release(userID, granted); releaseErr != nil {
			return summary, fmt.Errorf("insert contacts: %w (quota release also failed: %v)", err, releaseErr)
		}
		return summary, fmt.Errorf("insert contacts: %w", err)
	}
	summary.Imported = int(granted)

	report(100, "Import finished")
	return summary, nil
}

func (p *Pipeline) loadExistingKeys(userID uint) (*ExistingKeys, error) {
	var existing []models.Contact
	if err := p.DB.Select("email", "phone").
		Where("user_id = ?", userID).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	keys := NewExistingKeys()
	for _, contact := range existing {
		if contact.Email != nil {
			keys.AddEmail(*contact.Email)
		}
		if contact.Phone != nil {
			keys.AddPhone(*contact.Phone)
		}
	}
	return keys, nil
}

func toModel(userID uint, c Contact) models.Contact {
	entity := models.Contact{
		Name:   c.Name,
		UserID: userID,
	}
	if c.Email != "" {
		entity.Email = &c.Email
	}
	if c.Phone != "" {
		entity.Phone = &c.Phone
	}
	if c.Company != "" {
		entity.Company = &c.Company
	}
	if c.Position != "" {
		entity.Position = &c.Position
	}
	if c.Industry != "" {
		entity.Industry = &c.Industry
	}
	if c.Notes != "" {
		entity.Notes = &c.Notes
	}
	return entity
}
