package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultScoreDivisor, DefaultGeneralThreshold)
}

func TestClassify_ControlCommand(t *testing.T) {
	c := newTestClassifier()

	it := c.Classify("set speed limit to 80")

	assert.Equal(t, TypeControl, it.Type)
	assert.Greater(t, it.Confidence, 0.6)
	assert.True(t, it.RequiresFreshData)
	assert.False(t, it.RequiresHistory)
	assert.Contains(t, it.MatchedKeywords, "speed limit")
}

func TestClassify_EmptyQuery(t *testing.T) {
	c := newTestClassifier()

	it := c.Classify("")

	assert.Equal(t, TypeGeneral, it.Type)
	assert.Zero(t, it.Confidence)
	assert.Empty(t, it.MatchedKeywords)
}

func TestClassify_LowConfidenceFallsBackToGeneral(t *testing.T) {
	c := newTestClassifier()

	it := c.Classify("hmm okay thanks")

	assert.Equal(t, TypeGeneral, it.Type)
	assert.Less(t, it.Confidence, DefaultGeneralThreshold)
}

func TestClassify_Categories(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		query string
		want  Type
	}{
		{"where is my car right now", TypeLocation},
		{"show me the trips from this morning", TypeTrip},
		{"what was the total distance driven, any stats?", TypeStats},
		{"is the battery ok? any maintenance warnings", TypeMaintenance},
		{"unlock the doors", TypeControl},
		{"show the full history of alerts", TypeHistory},
		{"who was driving yesterday, which driver?", TypeDriver},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			it := c.Classify(tt.query)
			assert.Equal(t, tt.want, it.Type, "query %q", tt.query)
		})
	}
}

func TestClassify_KeywordsDedupedAndCapped(t *testing.T) {
	c := newTestClassifier()

	it := c.Classify("trip trip trip trips journey drive route trips history of trips")

	require.Equal(t, TypeTrip, it.Type)
	assert.LessOrEqual(t, len(it.MatchedKeywords), 5)
	seen := map[string]bool{}
	for _, k := range it.MatchedKeywords {
		assert.GreaterOrEqual(t, len(k), 3)
		assert.False(t, seen[k], "duplicate keyword %q", k)
		seen[k] = true
	}
}

func TestRequiresFreshData(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"strong maintenance", "check maintenance health: battery warning and oil fault", true},
		{"weak maintenance", "battery", false},
		{"realtime marker on any intent", "how far did it drive, exactly", true},
		{"plain history", "show the trip history", false},
		{"now marker", "what is the speed now", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RequiresFreshData(tt.query))
		})
	}
}

func TestClassifyConversation_RecencyWeighting(t *testing.T) {
	c := newTestClassifier()

	// An older stats question followed by two recent trip messages must
	// land on trip.
	it := c.ClassifyConversation([]string{
		"any stats on total distance?",
		"show my trips",
		"which trip was the longest trip today",
	})

	assert.Equal(t, TypeTrip, it.Type)
	assert.Greater(t, it.Confidence, 0.0)
	assert.LessOrEqual(t, it.Confidence, 1.0)
}

func TestClassifyConversation_Empty(t *testing.T) {
	c := newTestClassifier()

	it := c.ClassifyConversation(nil)

	assert.Equal(t, TypeGeneral, it.Type)
	assert.Zero(t, it.Confidence)
}
