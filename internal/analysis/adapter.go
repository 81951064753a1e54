package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"RedditPulse/internal/domain"
	"RedditPulse/internal/ports"
)

var errNoClassifier = errors.New("no classifier configured")

// Fixed blend constants. The hybrid score averages the lexicon and
// classifier signals equally; title and body contribute 0.3/0.7 when both
// are present. Not tunable at runtime.
const (
	lexiconWeight    = 0.5
	classifierWeight = 0.5

	titleWeight = 0.3
	bodyWeight  = 0.7

	// sarcasmDamp scales down the hybrid score by the classifier's
	// sarcasm probability. Skipped when the classifier call failed.
	sarcasmDamp = 0.7

	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// EmotionUnknown labels items whose classifier call failed.
const EmotionUnknown = "unknown"

// Adapter attaches external NLP outputs to canonical items. Pure with
// respect to pipeline state; per-item failures are absorbed and flagged,
// never propagated.
type Adapter struct {
	lexicon    ports.LexiconScorer
	classifier ports.SentimentClassifier
	topics     ports.TopicModel
	entities   ports.EntityRecognizer

	topicMinCorpus int
	logger         *slog.Logger
}

// Deps wires the external model capabilities into the adapter.
type Deps struct {
	Lexicon    ports.LexiconScorer
	Classifier ports.SentimentClassifier
	Topics     ports.TopicModel
	Entities   ports.EntityRecognizer

	TopicMinCorpus int
	Logger         *slog.Logger
}

// NewAdapter constructs the analysis component.
func NewAdapter(deps Deps) *Adapter {
	minCorpus := deps.TopicMinCorpus
	if minCorpus <= 0 {
		minCorpus = 25
	}
	return &Adapter{
		lexicon:        deps.Lexicon,
		classifier:     deps.Classifier,
		topics:         deps.Topics,
		entities:       deps.Entities,
		topicMinCorpus: minCorpus,
		logger:         deps.Logger,
	}
}

// FitTopics fits the topic model over a community corpus and returns the
// model handle used for per-item assignment. Returns "" when the corpus is
// below the configured minimum or the fit failed; items then stay unassigned.
func (a *Adapter) FitTopics(ctx context.Context, docs []string) string {
	if a.topics == nil {
		return ""
	}

	nonEmpty := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc != "" {
			nonEmpty = append(nonEmpty, doc)
		}
	}

	if len(nonEmpty) < a.topicMinCorpus {
		a.debug("topic corpus below minimum, leaving topics unassigned",
			"docs", len(nonEmpty), "min", a.topicMinCorpus)
		return ""
	}

	model, err := a.topics.Fit(ctx, nonEmpty)
	if err != nil {
		a.debug("topic model fit failed", "error", err)
		return ""
	}
	return model
}

// Analyze attaches sentiment, emotion, topic, entity, and engagement-feature
// outputs to one canonical item. topicModel is the handle from FitTopics;
// "" leaves the item's topic unassigned.
func (a *Adapter) Analyze(ctx context.Context, item domain.CanonicalItem, topicModel string) domain.AnalyzedItem {
	out := domain.AnalyzedItem{
		CanonicalItem: item,
		TopicID:       domain.TopicUnassigned,
		EmotionLabel:  EmotionUnknown,
	}

	lexScore := a.blendedLexiconScore(item)
	full := fullText(item)

	cls, clsErr := a.classify(ctx, full)
	if clsErr != nil {
		a.debug("classifier unavailable, using lexicon score alone", "item", item.ID, "error", clsErr)
		out.Partial = true
		out.SentimentScore = clamp(lexScore)
	} else {
		hybrid := lexiconWeight*lexScore + classifierWeight*cls.Score
		hybrid *= 1 - sarcasmDamp*cls.Sarcasm
		out.SentimentScore = clamp(hybrid)
		out.EmotionLabel = cls.Emotion
	}
	out.SentimentLabel = Label(out.SentimentScore)

	if topicModel != "" && a.topics != nil {
		topic, err := a.topics.Assign(ctx, topicModel, full)
		if err != nil {
			a.debug("topic assignment failed", "item", item.ID, "error", err)
			out.Partial = true
		} else {
			out.TopicID = topic
		}
	}

	if a.entities != nil && full != "" {
		ents, err := a.entities.Recognize(ctx, full)
		if err != nil {
			a.debug("entity recognition failed", "item", item.ID, "error", err)
			out.Partial = true
		} else {
			out.Entities = ents
		}
	}

	out.Features = buildFeatures(item, cls, lexScore)

	return out
}

// blendedLexiconScore scores title and body separately and blends them
// 0.3/0.7; a missing part hands its weight to the other.
func (a *Adapter) blendedLexiconScore(item domain.CanonicalItem) float64 {
	if a.lexicon == nil {
		return 0
	}

	switch {
	case item.Title != "" && item.Body != "":
		return titleWeight*a.lexicon.Score(item.Title) + bodyWeight*a.lexicon.Score(item.Body)
	case item.Body != "":
		return a.lexicon.Score(item.Body)
	case item.Title != "":
		return a.lexicon.Score(item.Title)
	}
	return 0
}

func (a *Adapter) classify(ctx context.Context, text string) (domain.Classification, error) {
	if a.classifier == nil {
		return domain.Classification{}, errNoClassifier
	}
	return a.classifier.Classify(ctx, text)
}

// Label maps a bounded score onto the categorical sentiment label.
func Label(score float64) string {
	switch {
	case score > positiveThreshold:
		return "positive"
	case score < negativeThreshold:
		return "negative"
	}
	return "neutral"
}

// buildFeatures assembles the engagement predictor's per-item feature row:
// posting hour, weekday, word count, lexicon score, classifier confidence,
// and sarcasm probability. Classifier fields are zero on failure.
func buildFeatures(item domain.CanonicalItem, cls domain.Classification, lexScore float64) []float64 {
	posted := time.Unix(item.CreatedUTC, 0).UTC()
	words := wordCount(item.Title) + wordCount(item.Body)

	return []float64{
		float64(posted.Hour()),
		float64(posted.Weekday()),
		float64(words),
		lexScore,
		cls.Confidence,
		cls.Sarcasm,
	}
}

func wordCount(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

func fullText(item domain.CanonicalItem) string {
	switch {
	case item.Title != "" && item.Body != "":
		return item.Title + " " + item.Body
	case item.Body != "":
		return item.Body
	}
	return item.Title
}

func clamp(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
