package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/shelver/internal/criteria"
)

func TestKeywordExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want criteria.Criteria
	}{
		{
			name: "memory note",
			text: "Remember this note: I prefer dark mode",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentMemory,
				AccessPattern:   criteria.AccessCRUD,
				DataType:        criteria.DataText,
				SearchIntensity: criteria.SearchNone,
			},
		},
		{
			name: "transactional record",
			text: "Save a record of this transaction in the orders table",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentDatabase,
				AccessPattern:   criteria.AccessCRUD,
				DataType:        criteria.DataStructured,
				SearchIntensity: criteria.SearchNone,
			},
		},
		{
			name: "analytic report",
			text: "How many orders did we get per region? Build a report over time",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentDatabase,
				AccessPattern:   criteria.AccessQuery,
				AnalyticIntent:  true,
				DataType:        criteria.DataText,
				SearchIntensity: criteria.SearchNone,
			},
		},
		{
			name: "similarity search",
			text: "Find notes similar to this meeting recap",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentVector,
				AccessPattern:   criteria.AccessSearch,
				DataType:        criteria.DataText,
				SearchIntensity: criteria.SearchHigh,
			},
		},
		{
			name: "binary upload",
			text: "Upload this PDF attachment",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentFile,
				AccessPattern:   criteria.AccessCRUD,
				DataType:        criteria.DataBinary,
				SearchIntensity: criteria.SearchNone,
			},
		},
		{
			name: "numeric measurements with analytics",
			text: "Store these temperature readings in the metrics table so we can analyze trends over time",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentDatabase,
				AccessPattern:   criteria.AccessCRUD,
				AnalyticIntent:  true,
				DataType:        criteria.DataNumeric,
				SearchIntensity: criteria.SearchNone,
			},
		},
		{
			name: "low intensity lookup",
			text: "Look up the invoice record with the matching id",
			want: criteria.Criteria{
				StorageIntent:   criteria.IntentDatabase,
				AccessPattern:   criteria.AccessSearch,
				DataType:        criteria.DataStructured,
				SearchIntensity: criteria.SearchLow,
			},
		},
	}

	k := NewKeyword()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.Extract(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordExtractNoIntentSignal(t *testing.T) {
	k := NewKeyword()
	_, err := k.Extract(context.Background(), "hello there, how are you?")

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Reason, "no storage intent signal")
}

func TestKeywordExtractDefaults(t *testing.T) {
	// An intent keyword alone: every other field falls back to the
	// conservative default.
	k := NewKeyword()
	got, err := k.Extract(context.Background(), "remember the thing")
	require.NoError(t, err)
	assert.Equal(t, criteria.IntentMemory, got.StorageIntent)
	assert.Equal(t, criteria.AccessCRUD, got.AccessPattern)
	assert.False(t, got.AnalyticIntent)
	assert.Equal(t, criteria.DataText, got.DataType)
	assert.Equal(t, criteria.SearchNone, got.SearchIntensity)
}

func TestKeywordExtractDeterministicTies(t *testing.T) {
	// "rows" scores database twice and "meaning"/"similar" score vector
	// twice; the fixed candidate order keeps database on a tie.
	k := NewKeyword()
	got, err := k.Extract(context.Background(), "rows similar in meaning")
	require.NoError(t, err)
	assert.Equal(t, criteria.IntentDatabase, got.StorageIntent)
}

func TestKeywordExtractCaseInsensitive(t *testing.T) {
	k := NewKeyword()
	got, err := k.Extract(context.Background(), "REMEMBER MY PREFERENCE")
	require.NoError(t, err)
	assert.Equal(t, criteria.IntentMemory, got.StorageIntent)
}

func TestKeywordExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	k := NewKeyword()
	_, err := k.Extract(ctx, "remember this")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeywordExtractAlwaysValid(t *testing.T) {
	// Whatever the scoring picks, the result must pass vocabulary
	// validation so the engine never sees malformed criteria.
	texts := []string{
		"remember this note",
		"query the sales table and report the average price over time",
		"find documents semantically related to the embeddings index",
		"upload the photo files and export the video",
	}
	k := NewKeyword()
	for _, text := range texts {
		got, err := k.Extract(context.Background(), text)
		require.NoError(t, err, text)
		assert.NoError(t, got.Validate(), text)
	}
}
