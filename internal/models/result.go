package models

// TaskFailure describes a detail task that did not reach the store.
type TaskFailure struct {
	ID   int64
	Href string
	Err  error
}

// CrawlResult is the outcome of one crawl run.
type CrawlResult struct {
	// Records holds created and updated records in completion order.
	Records    []Record
	Failures   []TaskFailure
	IndexPages int
}

// Query is the fixed set of search filters sent with every index request.
// Nil pointers and an empty postal code are left out of the request.
type Query struct {
	NumberOfSpaces *int
	PostalCode     string
	MaxPrice       *float64
	AgeInMonths    *int
}
