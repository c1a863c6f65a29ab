package search

import "github.com/poiesic/brainbase/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *SearchQuery)
	AfterQueryEmbedding(vector []float32)
	AfterRanking(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *SearchQuery)                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)      {}
func (n *noopMonitor) AfterRanking(_ []*core.SearchResult)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)        {}
