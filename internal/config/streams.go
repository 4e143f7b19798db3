package config

import "github.com/JosephStocks/roberthalf-scraper/internal/model"

// Stream labels. The state stream queries non-remote postings near the
// configured state; the remote stream queries nationwide remote postings.
const (
	StreamState  = "state"
	StreamRemote = "remote"
)

// Streams builds the two query streams for a run from the fixed search
// parameters. Only the page number varies per request afterwards.
func (c *Config) Streams() []model.QueryStream {
	base := model.QueryStream{
		Country:      "us",
		Distance:     c.Search.Distance,
		Source:       c.Search.Source,
		LobIDs:       c.Search.LobIDs,
		PostedWithin: c.PostPeriod,
		SortBy:       "PUBLISHED_DATE_DESC",
		PageSize:     c.PageSize,
	}

	state := base
	state.Label = StreamState
	state.Remote = "No"

	remote := base
	remote.Label = StreamRemote
	remote.Remote = "yes"

	return []model.QueryStream{state, remote}
}
