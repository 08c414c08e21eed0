package models

import "time"

// Summary is one row of an index page.
type Summary struct {
	ID       int64
	Href     string // Href is relative to the site base URL.
	Title    string
	Distance float64 // Distance in kilometres.
}

// IndexPage is the parsed content of one index page.
type IndexPage struct {
	Summaries []Summary
	HasMore   bool
}

// Place describes a group of free places offered by a daycare.
type Place struct {
	Count         int     `json:"count"`
	AgeGroup      string  `json:"age_group"`
	AvailableFrom string  `json:"available_from"`
	PricePerUnit  float64 `json:"price_per_unit"`
}

// Detail is the parsed content of a detail page.
type Detail struct {
	Type        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	LastUpdate  time.Time // LastUpdate is zero when the page does not show one.
	Places      []Place
}

// Listing holds every mutable field of a stored record.
type Listing struct {
	Href        string
	Title       string
	Distance    float64
	Type        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	LastUpdate  time.Time
	Places      []Place
}

// NewListing merges an index summary with its detail page.
func NewListing(s Summary, d Detail) Listing {
	return Listing{
		Href:        s.Href,
		Title:       s.Title,
		Distance:    s.Distance,
		Type:        d.Type,
		ContactName: d.ContactName,
		Email:       d.Email,
		Phone:       d.Phone,
		Address:     d.Address,
		LastUpdate:  d.LastUpdate,
		Places:      d.Places,
	}
}

// Record is the stored representation of a listing.
type Record struct {
	ID int64
	Listing

	// Revision is 0 for a record created in the current run and grows by one on every update.
	Revision    int
	DateUpdated time.Time
}

// IsNew reports whether the record has never been updated since it was created.
func (r Record) IsNew() bool {
	return r.Revision == 0
}
