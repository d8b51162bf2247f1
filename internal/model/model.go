// Package model defines the domain types used across the application.
package model

import "time"

// AvailableMarker is the status text a row gets when its status cell is empty.
const AvailableMarker = "future option"

// RawRow is one row as delivered by a data source, before normalization.
type RawRow struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Status string `json:"status" yaml:"status"`
	Link   string `json:"link,omitempty" yaml:"link"`
}

// BookRecord is one catalog entry. Title identifies the book within a session.
type BookRecord struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	StatusText     string `json:"status"`
	Link           string `json:"link,omitempty"`
	SourceRowIndex int    `json:"rowIndex"`
}

// ReadingSession is a book actively or formerly being read.
type ReadingSession struct {
	BookRecord
	ProgressPercent int        `json:"progress"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Finished        bool       `json:"finished"`
}

// DiscussionQuestion is a question the club wants to talk about.
type DiscussionQuestion struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Answered  bool      `json:"answered"`
	CreatedAt time.Time `json:"createdAt"`
}

// FinishedTitle records a book finished in this club, independent of
// what the data source says about it.
type FinishedTitle struct {
	Title      string    `json:"title"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Bucket is a lifecycle bucket of the catalog.
type Bucket string

// Lifecycle buckets. BucketNone marks a row that matched no rule.
const (
	BucketNone             Bucket = ""
	BucketAvailable        Bucket = "available"
	BucketCurrentlyReading Bucket = "currently_reading"
	BucketFinished         Bucket = "finished"
)

// ProgressEntry is one recorded progress update.
type ProgressEntry struct {
	ID         int64
	Title      string
	Percent    int
	RecordedAt time.Time
}
