package domain

import "time"

// PublishTimeLayout is the second-precision layout used by the news source and the stream payload.
const PublishTimeLayout = "2006-01-02 15:04:05"

// Article is one cleaned news article fetched for a tracked symbol.
type Article struct {
	Symbol      string
	Link        string
	Text        string
	PublishedAt time.Time
}

// StreamRecord is the per-article payload written to the event stream.
type StreamRecord struct {
	Content   string  `json:"content"`
	Time      string  `json:"time"`
	Symbol    string  `json:"symbol"`
	Link      string  `json:"link"`
	Sentiment float64 `json:"sentiment"`
}

// SeriesRow is one (time, symbol) point of the sentiment time series.
type SeriesRow struct {
	Time      time.Time
	Symbol    string
	Sentiment float64
}

// FeatureRow is one row of the per-symbol feature snapshot.
type FeatureRow struct {
	Symbol    string  `json:"symbol"`
	Sentiment float64 `json:"sentiment"`
}
