package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"RedditPulse/internal/domain"
)

type fixedLexicon struct {
	scores map[string]float64
}

func (f fixedLexicon) Score(text string) float64 { return f.scores[text] }

type fakeClassifier struct {
	result domain.Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(context.Context, string) (domain.Classification, error) {
	f.calls++
	return f.result, f.err
}

type fakeTopics struct {
	fitErr    error
	assignErr error
	topic     int
	fitDocs   int
}

func (f *fakeTopics) Fit(_ context.Context, docs []string) (string, error) {
	f.fitDocs = len(docs)
	if f.fitErr != nil {
		return "", f.fitErr
	}
	return "model-1", nil
}

func (f *fakeTopics) Assign(_ context.Context, model, _ string) (int, error) {
	if f.assignErr != nil {
		return domain.TopicUnassigned, f.assignErr
	}
	return f.topic, nil
}

type fakeNER struct {
	entities []domain.Entity
	err      error
}

func (f fakeNER) Recognize(context.Context, string) ([]domain.Entity, error) {
	return f.entities, f.err
}

func TestAnalyzeHybridBlend(t *testing.T) {
	t.Parallel()

	item := domain.CanonicalItem{ID: "t3_1", Title: "title", Body: "body"}
	lex := fixedLexicon{scores: map[string]float64{"title": 1.0, "body": 0.5}}
	cls := &fakeClassifier{result: domain.Classification{Score: 0.8, Emotion: "joy"}}

	adapter := NewAdapter(Deps{Lexicon: lex, Classifier: cls})
	out := adapter.Analyze(context.Background(), item, "")

	// Lexicon part: 0.3*1.0 + 0.7*0.5 = 0.65. Hybrid: 0.5*0.65 + 0.5*0.8.
	want := 0.5*0.65 + 0.5*0.8
	if math.Abs(out.SentimentScore-want) > 1e-12 {
		t.Fatalf("hybrid score: want %v, got %v", want, out.SentimentScore)
	}
	if out.Partial {
		t.Fatalf("successful analysis must not be partial")
	}
	if out.SentimentLabel != "positive" {
		t.Fatalf("unexpected label: %s", out.SentimentLabel)
	}
	if out.EmotionLabel != "joy" {
		t.Fatalf("unexpected emotion: %s", out.EmotionLabel)
	}
}

func TestAnalyzeSarcasmDamping(t *testing.T) {
	t.Parallel()

	item := domain.CanonicalItem{ID: "t3_1", Body: "body"}
	lex := fixedLexicon{scores: map[string]float64{"body": 0.6}}
	cls := &fakeClassifier{result: domain.Classification{Score: 0.6, Sarcasm: 1.0}}

	adapter := NewAdapter(Deps{Lexicon: lex, Classifier: cls})
	out := adapter.Analyze(context.Background(), item, "")

	// Full sarcasm dampens the hybrid 0.6 down by factor 1-0.7.
	want := 0.6 * (1 - sarcasmDamp)
	if math.Abs(out.SentimentScore-want) > 1e-12 {
		t.Fatalf("damped score: want %v, got %v", want, out.SentimentScore)
	}
}

func TestAnalyzeClassifierFailureFallsBackToLexicon(t *testing.T) {
	t.Parallel()

	item := domain.CanonicalItem{ID: "t3_1", Body: "body"}
	lex := fixedLexicon{scores: map[string]float64{"body": -0.4}}
	cls := &fakeClassifier{err: errors.New("model unavailable")}

	adapter := NewAdapter(Deps{Lexicon: lex, Classifier: cls})
	out := adapter.Analyze(context.Background(), item, "")

	if !out.Partial {
		t.Fatalf("classifier failure must mark the item partial")
	}
	if math.Abs(out.SentimentScore-(-0.4)) > 1e-12 {
		t.Fatalf("expected lexicon-only score -0.4, got %v", out.SentimentScore)
	}
	if out.SentimentLabel != "negative" {
		t.Fatalf("unexpected label: %s", out.SentimentLabel)
	}
	if out.EmotionLabel != EmotionUnknown {
		t.Fatalf("emotion should be unknown on failure, got %s", out.EmotionLabel)
	}
}

func TestFitTopicsBelowMinimumLeavesUnassigned(t *testing.T) {
	t.Parallel()

	topics := &fakeTopics{topic: 3}
	adapter := NewAdapter(Deps{
		Lexicon:        fixedLexicon{},
		Classifier:     &fakeClassifier{},
		Topics:         topics,
		TopicMinCorpus: 10,
	})

	model := adapter.FitTopics(context.Background(), []string{"one", "two", "three"})
	if model != "" {
		t.Fatalf("corpus below minimum must not fit a model")
	}

	out := adapter.Analyze(context.Background(), domain.CanonicalItem{ID: "t3_1", Body: "one"}, model)
	if out.TopicID != domain.TopicUnassigned {
		t.Fatalf("expected unassigned topic, got %d", out.TopicID)
	}
	if out.Partial {
		t.Fatalf("unfit topic model is not a per-item failure")
	}
}

func TestFitTopicsSkipsEmptyDocs(t *testing.T) {
	t.Parallel()

	topics := &fakeTopics{topic: 2}
	adapter := NewAdapter(Deps{
		Lexicon:        fixedLexicon{},
		Classifier:     &fakeClassifier{},
		Topics:         topics,
		TopicMinCorpus: 2,
	})

	model := adapter.FitTopics(context.Background(), []string{"a", "", "b", ""})
	if model != "model-1" {
		t.Fatalf("expected fit model handle, got %q", model)
	}
	if topics.fitDocs != 2 {
		t.Fatalf("empty docs must not count toward the corpus, fit saw %d", topics.fitDocs)
	}

	out := adapter.Analyze(context.Background(), domain.CanonicalItem{ID: "t3_1", Body: "a"}, model)
	if out.TopicID != 2 {
		t.Fatalf("expected topic 2, got %d", out.TopicID)
	}
}

func TestAnalyzeTopicAssignFailureMarksPartial(t *testing.T) {
	t.Parallel()

	topics := &fakeTopics{assignErr: errors.New("assign failed")}
	adapter := NewAdapter(Deps{
		Lexicon:    fixedLexicon{},
		Classifier: &fakeClassifier{},
		Topics:     topics,
	})

	out := adapter.Analyze(context.Background(), domain.CanonicalItem{ID: "t3_1", Body: "a"}, "model-1")
	if out.TopicID != domain.TopicUnassigned {
		t.Fatalf("failed assignment should leave topic unassigned")
	}
	if !out.Partial {
		t.Fatalf("failed assignment should mark the item partial")
	}
}

func TestAnalyzeEntitiesEmptyTextSkipsRecognizer(t *testing.T) {
	t.Parallel()

	ner := fakeNER{err: errors.New("must not be called")}
	adapter := NewAdapter(Deps{
		Lexicon:    fixedLexicon{},
		Classifier: &fakeClassifier{},
		Entities:   ner,
	})

	// Empty title and body never reach the recognizer; the normalizer
	// rejects such items, but the adapter guards anyway.
	out := adapter.Analyze(context.Background(), domain.CanonicalItem{ID: "t3_1"}, "")
	if len(out.Entities) != 0 {
		t.Fatalf("expected no entities for empty text")
	}
}

func TestAnalyzeAttachesEntities(t *testing.T) {
	t.Parallel()

	ner := fakeNER{entities: []domain.Entity{{Text: "GME", Label: "ORG"}}}
	adapter := NewAdapter(Deps{
		Lexicon:    fixedLexicon{},
		Classifier: &fakeClassifier{},
		Entities:   ner,
	})

	out := adapter.Analyze(context.Background(), domain.CanonicalItem{ID: "t3_1", Body: "GME earnings"}, "")
	if len(out.Entities) != 1 || out.Entities[0].Text != "GME" {
		t.Fatalf("entities not attached: %+v", out.Entities)
	}
}

func TestBuildFeaturesShape(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(Deps{Lexicon: fixedLexicon{}, Classifier: &fakeClassifier{}})
	out := adapter.Analyze(context.Background(), domain.CanonicalItem{
		ID:         "t3_1",
		Body:       "three word body",
		CreatedUTC: 1700000000,
	}, "")

	if len(out.Features) != 6 {
		t.Fatalf("expected 6 features, got %d", len(out.Features))
	}
	if out.Features[2] != 3 {
		t.Fatalf("expected word count 3, got %v", out.Features[2])
	}
}
