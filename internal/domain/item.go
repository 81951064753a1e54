package domain

// Timeframe selects the listing window requested from the source.
type Timeframe string

const (
	TimeframeHour  Timeframe = "hour"
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

// Valid reports whether the timeframe is one the source accepts.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeHour, TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return true
	}
	return false
}

// Community is an immutable collection target: one subreddit with its
// requested window and item budget.
type Community struct {
	Name      string
	Timeframe Timeframe
	Limit     int
}

// RawItem is a source-native post or comment as returned by the listing API.
// Opaque beyond the fields needed for normalization.
type RawItem struct {
	ID           string  `json:"id"`
	Fullname     string  `json:"name"`
	Title        string  `json:"title"`
	SelfText     string  `json:"selftext"`
	SelfTextHTML string  `json:"selftext_html"`
	Body         string  `json:"body"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	CreatedUTC   float64 `json:"created_utc"`
	Author       string  `json:"author"`
	Subreddit    string  `json:"subreddit"`
	ParentID     string  `json:"parent_id"`
}

// CanonicalItem is the normalized shape every downstream stage consumes.
// Immutable once created; IDs are unique within a run.
type CanonicalItem struct {
	ID          string
	Community   string
	Title       string
	Body        string
	Score       int
	NumComments int
	CreatedUTC  int64
	Author      string
	ParentID    string
}

// TopicUnassigned marks items the topic model could not place, either
// because the corpus was too small to fit or the assignment call failed.
const TopicUnassigned = -1

// Entity is a named-entity span extracted from item text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Classification is the trained classifier's per-text output.
type Classification struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Emotion    string  `json:"emotion"`
	Sarcasm    float64 `json:"sarcasm"`
}

// AnalyzedItem is a CanonicalItem with attached analysis outputs. Created
// from exactly one CanonicalItem and never mutated afterwards; Partial
// records that one or more capabilities failed or were skipped.
type AnalyzedItem struct {
	CanonicalItem

	SentimentScore float64
	SentimentLabel string
	EmotionLabel   string
	TopicID        int
	Entities       []Entity
	Features       []float64
	Partial        bool
}
