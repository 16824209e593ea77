package extractor

import (
	"context"
	"strings"

	"github.com/jeanpaul/shelver/internal/criteria"
)

// KeywordExtractor classifies requests by keyword scoring. It is
// deterministic and dependency-free, which makes it the reference
// implementation for harness runs and a fallback when no model
// endpoint is configured.
type KeywordExtractor struct{}

// NewKeyword creates a keyword-scoring extractor.
func NewKeyword() *KeywordExtractor {
	return &KeywordExtractor{}
}

// storageIntentKeywords maps each storage intent to trigger keywords.
var storageIntentKeywords = map[criteria.StorageIntent][]string{
	criteria.IntentMemory: {
		"remember", "recall", "memorize", "memory", "remind",
		"preference", "for later", "context",
	},
	criteria.IntentDatabase: {
		"database", "table", "record", "transaction", "ledger",
		"row", "rows", "sql", "orders", "invoice", "inventory",
	},
	criteria.IntentVector: {
		"similar", "similarity", "semantic", "embedding", "embeddings",
		"related", "meaning", "like this",
	},
	criteria.IntentFile: {
		"file", "files", "document", "upload", "attachment",
		"pdf", "image", "photo", "export",
	},
}

var accessPatternKeywords = map[criteria.AccessPattern][]string{
	criteria.AccessCRUD: {
		"save", "store", "update", "delete", "insert", "create", "put", "keep",
	},
	criteria.AccessQuery: {
		"query", "report", "how many", "count", "sum", "average",
		"total", "list all",
	},
	criteria.AccessSearch: {
		"search", "find", "look up", "lookup", "retrieve",
	},
	criteria.AccessFilter: {
		"filter", "only the", "matching", "narrow down", "where the",
	},
}

var dataTypeKeywords = map[criteria.DataType][]string{
	criteria.DataStructured: {
		"table", "row", "rows", "record", "fields", "csv", "json", "schema",
	},
	criteria.DataNumeric: {
		"number", "numbers", "metric", "metrics", "price", "temperature",
		"measurement", "measurements", "readings",
	},
	criteria.DataBinary: {
		"image", "photo", "pdf", "video", "audio", "attachment", "binary", "blob",
	},
	criteria.DataText: {
		"note", "notes", "text", "message", "conversation", "article", "snippet",
	},
}

var analyticKeywords = []string{
	"analyze", "analytics", "analysis", "trend", "trends", "aggregate",
	"average", "sum", "how many", "over time", "statistics", "report",
}

var highIntensityKeywords = []string{
	"semantic", "similar", "similarity", "fuzzy", "relevance",
	"best match", "by meaning",
}

var lowIntensityKeywords = []string{
	"look up", "lookup", "find", "search", "retrieve",
}

// Candidate orders are fixed so ties always resolve the same way.
var (
	storageIntentOrder = []criteria.StorageIntent{
		criteria.IntentMemory, criteria.IntentDatabase,
		criteria.IntentVector, criteria.IntentFile,
	}
	accessPatternOrder = []criteria.AccessPattern{
		criteria.AccessCRUD, criteria.AccessQuery,
		criteria.AccessSearch, criteria.AccessFilter,
	}
	dataTypeOrder = []criteria.DataType{
		criteria.DataStructured, criteria.DataNumeric,
		criteria.DataBinary, criteria.DataText,
	}
)

// Extract scores each field's candidates by keyword hits. A request
// with no storage-intent signal cannot be classified and returns
// *ParseError; the other fields fall back to conservative defaults
// (crud access, text payload, no search intensity).
func (k *KeywordExtractor) Extract(ctx context.Context, request string) (criteria.Criteria, error) {
	if err := ctx.Err(); err != nil {
		return criteria.Criteria{}, err
	}
	msg := strings.ToLower(request)

	intent, score := bestMatch(msg, storageIntentOrder, storageIntentKeywords)
	if score == 0 {
		return criteria.Criteria{}, &ParseError{Request: request, Reason: "no storage intent signal in request"}
	}

	c := criteria.Criteria{
		StorageIntent:   intent,
		AccessPattern:   criteria.AccessCRUD,
		DataType:        criteria.DataText,
		SearchIntensity: criteria.SearchNone,
	}

	if pattern, n := bestMatch(msg, accessPatternOrder, accessPatternKeywords); n > 0 {
		c.AccessPattern = pattern
	}
	if dt, n := bestMatch(msg, dataTypeOrder, dataTypeKeywords); n > 0 {
		c.DataType = dt
	}
	c.AnalyticIntent = countHits(msg, analyticKeywords) > 0

	// High-intensity wording dominates; plain retrieval words score low.
	if countHits(msg, highIntensityKeywords) > 0 {
		c.SearchIntensity = criteria.SearchHigh
	} else if countHits(msg, lowIntensityKeywords) > 0 {
		c.SearchIntensity = criteria.SearchLow
	}

	return c, nil
}

// bestMatch returns the candidate with the most keyword hits, scanning
// candidates in a fixed order so equal scores keep the earlier one.
func bestMatch[T comparable](msg string, order []T, keywords map[T][]string) (T, int) {
	var best T
	bestScore := 0
	for _, candidate := range order {
		score := countHits(msg, keywords[candidate])
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best, bestScore
}

func countHits(msg string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits
}
