// Package search ranks a tenant's embedding records against a text query.
//
// The Searcher embeds the query, delegates the cosine ranking to the
// repository, and degrades gracefully: when the embedding provider is
// down the query answers with zero matches instead of an error, since
// search results only enrich the caller's response.
package search
