package domain

import "errors"

var (
	ErrDiscovery       = errors.New("no categories discovered")
	ErrNavigation      = errors.New("navigation failed")
	ErrConceptNotFound = errors.New("concept not found")
	ErrUnitExtraction  = errors.New("unit extraction failed")
	ErrEmptyTaxonomy   = errors.New("no filter groups extracted")
	ErrPersistence     = errors.New("persistence failed")
	ErrReestablish     = errors.New("navigation state could not be re-established")
)
