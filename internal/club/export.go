package club

import (
	"encoding/json"
	"fmt"
	"time"

	"bookclub_bot/internal/model"
)

// Export is the document produced by Club.Export.
type Export struct {
	ExportDate     time.Time                  `json:"exportDate"`
	Current        *model.ReadingSession      `json:"currentBook"`
	Questions      []model.DiscussionQuestion `json:"questions"`
	Counts         BucketCounts               `json:"counts"`
	FinishedTitles []model.FinishedTitle      `json:"finishedTitles"`
}

// BucketCounts holds the size of each catalog bucket.
type BucketCounts struct {
	Available        int `json:"available"`
	CurrentlyReading int `json:"currentlyReading"`
	Finished         int `json:"finished"`
}

// Export builds the export document.
func (c *Club) Export() Export {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.engine.Snapshot()
	reading, finished := c.engine.History()
	e := Export{
		ExportDate: c.now().UTC(),
		Current:    snap.Current,
		Questions:  snap.Questions,
		Counts: BucketCounts{
			Available:        len(snap.Available),
			CurrentlyReading: len(reading),
			Finished:         len(finished),
		},
		FinishedTitles: snap.FinishedTitles,
	}
	if e.Questions == nil {
		e.Questions = []model.DiscussionQuestion{}
	}
	if e.FinishedTitles == nil {
		e.FinishedTitles = []model.FinishedTitle{}
	}
	return e
}

// ExportJSON renders Export as indented JSON.
func (c *Club) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}
