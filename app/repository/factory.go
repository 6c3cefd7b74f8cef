package repository

import (
	"gorm.io/gorm"
)

// NewRepositories wires the record-store and index-facing repositories.
// Collaborators are injected here so tests can substitute fakes instead of
// reaching for process-wide singletons.
func NewRepositories(db *gorm.DB, index IndexClient, now Clock) *Repositories {
	return &Repositories{
		Gig:     NewGigRepository(db),
		Catalog: NewCatalogRepository(index, now),
	}
}
