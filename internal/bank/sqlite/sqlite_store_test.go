package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func mustCreateTopic(t *testing.T, store *SQLiteStore, name string) int64 {
	t.Helper()
	id, err := store.CreateTopic(context.Background(), bank.Topic{Name: name})
	if err != nil {
		t.Fatalf("CreateTopic(%q) failed: %v", name, err)
	}
	return id
}

func mustCreateQuestion(t *testing.T, store *SQLiteStore, topicID int64, text string, points float64) int64 {
	t.Helper()
	id, err := store.CreateQuestion(context.Background(), bank.Question{
		Text:       text,
		TopicID:    topicID,
		Difficulty: 1,
		Points:     points,
		IsActive:   true,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion(%q) failed: %v", text, err)
	}
	return id
}

func mustCreateTest(t *testing.T, store *SQLiteStore, test bank.Test) int64 {
	t.Helper()
	id, err := store.CreateTest(context.Background(), test)
	if err != nil {
		t.Fatalf("CreateTest(%q) failed: %v", test.Name, err)
	}
	return id
}

func links(ids ...int64) []bank.TestQuestion {
	out := make([]bank.TestQuestion, 0, len(ids))
	for idx, id := range ids {
		out = append(out, bank.TestQuestion{QuestionID: id, Position: idx + 1})
	}
	return out
}

func previewIDs(t *testing.T, store *SQLiteStore, testID int64) ([]int64, []int) {
	t.Helper()
	items, err := store.ListPreviewItems(context.Background(), testID)
	if err != nil {
		t.Fatalf("ListPreviewItems failed: %v", err)
	}
	ids := make([]int64, 0, len(items))
	positions := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.QuestionID)
		positions = append(positions, item.Position)
	}
	return ids, positions
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSQLiteStoreSchemaIsIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestSQLiteStoreTopicsOrderedByNameAndUnique(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	mustCreateTopic(t, store, "Motor")
	mustCreateTopic(t, store, "Elektrik")

	topics, err := store.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if len(topics) != 2 || topics[0].Name != "Elektrik" || topics[1].Name != "Motor" {
		t.Fatalf("unexpected topic order: %+v", topics)
	}

	_, err = store.CreateTopic(ctx, bank.Topic{Name: "Motor"})
	if !errors.Is(err, bank.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated name, got %v", err)
	}

	if _, err := store.GetTopic(ctx, 999); !errors.Is(err, bank.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
	if err := store.UpdateTopic(ctx, bank.Topic{ID: 999, Name: "x"}); !errors.Is(err, bank.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound on update, got %v", err)
	}
}

func TestSQLiteStoreQuestionRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Elektrik")
	first := mustCreateQuestion(t, store, topicID, "Explain CAN bus", 3.0)
	second := mustCreateQuestion(t, store, topicID, "Ohm's law?", 1.0)

	questions, err := store.ListQuestionsByTopic(ctx, topicID)
	if err != nil {
		t.Fatalf("ListQuestionsByTopic failed: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != first || questions[1].ID != second {
		t.Fatalf("questions not in creation order: %+v", questions)
	}
	if questions[0].Points != 3.0 || !questions[0].IsActive || questions[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected question fields: %+v", questions[0])
	}
	if !questions[0].UpdatedAt.IsZero() {
		t.Fatalf("new question should not have updated_at: %+v", questions[0])
	}

	updatedAt := time.Unix(1700001000, 0).UTC()
	if err := store.UpdateQuestion(ctx, bank.Question{
		ID:         first,
		Text:       "Explain the CAN bus",
		TopicID:    topicID,
		Difficulty: 2,
		Points:     4.5,
		Solution:   "Nodes, bus, termination",
		IsActive:   false,
		UpdatedAt:  updatedAt,
	}); err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}

	got, err := store.GetQuestion(ctx, first)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.Text != "Explain the CAN bus" || got.Difficulty != 2 || got.Points != 4.5 || got.IsActive {
		t.Fatalf("update not persisted: %+v", got)
	}
	if !got.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, updatedAt)
	}

	catalog, err := store.ListCatalog(ctx, topicID)
	if err != nil {
		t.Fatalf("ListCatalog failed: %v", err)
	}
	if len(catalog) != 2 || catalog[1].Text != "Ohm's law?" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}

	_, err = store.CreateQuestion(ctx, bank.Question{Text: "orphan", TopicID: 999, Difficulty: 1, Points: 1})
	if !errors.Is(err, bank.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for unknown topic, got %v", err)
	}
}

func TestSQLiteStoreReplaceTestQuestionsOrdersByPosition(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Hydraulik")
	q1 := mustCreateQuestion(t, store, topicID, "q1", 1)
	q2 := mustCreateQuestion(t, store, topicID, "q2", 1)
	q3 := mustCreateQuestion(t, store, topicID, "q3", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam1"})

	if err := store.ReplaceTestQuestions(ctx, testID, links(q3, q1, q2)); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}
	ids, positions := previewIDs(t, store, testID)
	if !equalSlices(ids, []int64{q3, q1, q2}) || !equalSlices(positions, []int{1, 2, 3}) {
		t.Fatalf("preview order = %v / %v", ids, positions)
	}

	if err := store.ReplaceTestQuestions(ctx, testID, links(q2)); err != nil {
		t.Fatalf("ReplaceTestQuestions second save failed: %v", err)
	}
	ids, _ = previewIDs(t, store, testID)
	if !equalSlices(ids, []int64{q2}) {
		t.Fatalf("expected full replacement, got %v", ids)
	}

	if err := store.ReplaceTestQuestions(ctx, testID, nil); err != nil {
		t.Fatalf("ReplaceTestQuestions empty failed: %v", err)
	}
	ids, _ = previewIDs(t, store, testID)
	if len(ids) != 0 {
		t.Fatalf("expected empty test, got %v", ids)
	}

	if err := store.ReplaceTestQuestions(ctx, 999, links(q1)); !errors.Is(err, bank.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
}

func TestSQLiteStoreReplaceTestQuestionsIsAtomic(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Motor")
	q1 := mustCreateQuestion(t, store, topicID, "q1", 1)
	q2 := mustCreateQuestion(t, store, topicID, "q2", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam"})

	if err := store.ReplaceTestQuestions(ctx, testID, links(q1, q2)); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}

	err := store.ReplaceTestQuestions(ctx, testID, links(q2, q2))
	if !errors.Is(err, bank.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated id, got %v", err)
	}
	err = store.ReplaceTestQuestions(ctx, testID, links(q2, 999))
	if !errors.Is(err, bank.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for unknown id, got %v", err)
	}

	ids, _ := previewIDs(t, store, testID)
	if !equalSlices(ids, []int64{q1, q2}) {
		t.Fatalf("failed save must keep previous links, got %v", ids)
	}
}

func TestSQLiteStoreDuplicateTestCopiesLinks(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Elektrik")
	q1 := mustCreateQuestion(t, store, topicID, "q1", 1)
	q2 := mustCreateQuestion(t, store, topicID, "q2", 2)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam1", Date: "2024-05-01", Notes: "room 4"})

	override := 5.0
	if err := store.ReplaceTestQuestions(ctx, testID, []bank.TestQuestion{
		{QuestionID: q2, Position: 1, PointsOverride: &override},
		{QuestionID: q1, Position: 2},
	}); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}

	newID, err := store.DuplicateTest(ctx, testID, "Exam1 (Kopie)")
	if err != nil {
		t.Fatalf("DuplicateTest failed: %v", err)
	}
	if newID == testID {
		t.Fatalf("duplicate must get a new id")
	}

	copied, err := store.GetTest(ctx, newID)
	if err != nil {
		t.Fatalf("GetTest failed: %v", err)
	}
	if copied.Name != "Exam1 (Kopie)" || copied.Date != "2024-05-01" || copied.Notes != "room 4" {
		t.Fatalf("unexpected copy: %+v", copied)
	}

	items, err := store.ListPreviewItems(ctx, newID)
	if err != nil {
		t.Fatalf("ListPreviewItems failed: %v", err)
	}
	if len(items) != 2 || items[0].QuestionID != q2 || items[1].QuestionID != q1 {
		t.Fatalf("copied links out of order: %+v", items)
	}
	if items[0].PointsOverride == nil || *items[0].PointsOverride != 5.0 || items[1].PointsOverride != nil {
		t.Fatalf("overrides not copied: %+v", items)
	}

	if _, err := store.DuplicateTest(ctx, 999, "x"); !errors.Is(err, bank.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
}

func TestSQLiteStoreListTestsNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	older := mustCreateTest(t, store, bank.Test{Name: "older", Date: "2024-01-10"})
	sameDayFirst := mustCreateTest(t, store, bank.Test{Name: "a", Date: "2024-03-01"})
	sameDaySecond := mustCreateTest(t, store, bank.Test{Name: "b", Date: "2024-03-01"})

	tests, err := store.ListTests(ctx)
	if err != nil {
		t.Fatalf("ListTests failed: %v", err)
	}
	got := []int64{tests[0].ID, tests[1].ID, tests[2].ID}
	if !equalSlices(got, []int64{sameDaySecond, sameDayFirst, older}) {
		t.Fatalf("test order = %v", got)
	}
}

func TestSQLiteStoreDeleteTopicCascades(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	elektrik := mustCreateTopic(t, store, "Elektrik")
	motor := mustCreateTopic(t, store, "Motor")
	e1 := mustCreateQuestion(t, store, elektrik, "e1", 1)
	m1 := mustCreateQuestion(t, store, motor, "m1", 1)
	e2 := mustCreateQuestion(t, store, elektrik, "e2", 1)
	m2 := mustCreateQuestion(t, store, motor, "m2", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "mixed"})

	if err := store.ReplaceTestQuestions(ctx, testID, links(e1, m1, e2, m2)); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}

	if err := store.DeleteTopic(ctx, elektrik); err != nil {
		t.Fatalf("DeleteTopic failed: %v", err)
	}

	if _, err := store.GetTopic(ctx, elektrik); !errors.Is(err, bank.ErrTopicNotFound) {
		t.Fatalf("topic still present: %v", err)
	}
	for _, id := range []int64{e1, e2} {
		if _, err := store.GetQuestion(ctx, id); !errors.Is(err, bank.ErrQuestionNotFound) {
			t.Fatalf("question %d still present: %v", id, err)
		}
	}

	ids, positions := previewIDs(t, store, testID)
	if !equalSlices(ids, []int64{m1, m2}) || !equalSlices(positions, []int{1, 2}) {
		t.Fatalf("remaining links = %v / %v", ids, positions)
	}

	var orphans int
	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_questions WHERE question_id NOT IN (SELECT id FROM questions)`,
	).Scan(&orphans); err != nil {
		t.Fatalf("orphan count failed: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("found %d orphaned links", orphans)
	}

	if err := store.DeleteTopic(ctx, elektrik); !errors.Is(err, bank.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStoreDeleteQuestionCompactsPositions(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Motor")
	q1 := mustCreateQuestion(t, store, topicID, "q1", 1)
	q2 := mustCreateQuestion(t, store, topicID, "q2", 1)
	q3 := mustCreateQuestion(t, store, topicID, "q3", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam"})

	if err := store.ReplaceTestQuestions(ctx, testID, links(q1, q2, q3)); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}
	if err := store.DeleteQuestion(ctx, q2); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}

	ids, positions := previewIDs(t, store, testID)
	if !equalSlices(ids, []int64{q1, q3}) || !equalSlices(positions, []int{1, 2}) {
		t.Fatalf("after delete = %v / %v", ids, positions)
	}

	if err := store.DeleteQuestion(ctx, q2); !errors.Is(err, bank.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSQLiteStoreDeleteTestRemovesLinks(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	topicID := mustCreateTopic(t, store, "Motor")
	q1 := mustCreateQuestion(t, store, topicID, "q1", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam"})
	if err := store.ReplaceTestQuestions(ctx, testID, links(q1)); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}

	if err := store.DeleteTest(ctx, testID); err != nil {
		t.Fatalf("DeleteTest failed: %v", err)
	}
	if _, err := store.GetTest(ctx, testID); !errors.Is(err, bank.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
	ids, _ := previewIDs(t, store, testID)
	if len(ids) != 0 {
		t.Fatalf("links survived test delete: %v", ids)
	}

	if err := store.DeleteTest(ctx, testID); !errors.Is(err, bank.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStoreQuestionChoicesMarkSelection(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	motor := mustCreateTopic(t, store, "Motor")
	elektrik := mustCreateTopic(t, store, "Elektrik")
	m1 := mustCreateQuestion(t, store, motor, "m1", 1)
	e1 := mustCreateQuestion(t, store, elektrik, "e1", 1)
	testID := mustCreateTest(t, store, bank.Test{Name: "Exam"})

	override := 2.5
	if err := store.ReplaceTestQuestions(ctx, testID, []bank.TestQuestion{
		{QuestionID: m1, Position: 1, PointsOverride: &override},
	}); err != nil {
		t.Fatalf("ReplaceTestQuestions failed: %v", err)
	}

	choices, err := store.ListQuestionChoices(ctx, testID)
	if err != nil {
		t.Fatalf("ListQuestionChoices failed: %v", err)
	}
	if len(choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(choices))
	}
	// Ordered by topic name first.
	if choices[0].ID != e1 || choices[0].Selected || choices[0].TopicName != "Elektrik" {
		t.Fatalf("unexpected first choice: %+v", choices[0])
	}
	if choices[1].ID != m1 || !choices[1].Selected || choices[1].Position != 1 {
		t.Fatalf("unexpected second choice: %+v", choices[1])
	}
	if choices[1].PointsOverride == nil || *choices[1].PointsOverride != 2.5 {
		t.Fatalf("override missing: %+v", choices[1])
	}
}

func TestSQLiteStoreImportQuestionsReusesTopics(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	existing := mustCreateTopic(t, store, "Elektrik")

	count, err := store.ImportQuestions(ctx, []bank.ImportRow{
		{TopicName: "Elektrik", Text: "What is a relay?", Points: 2},
		{TopicName: "Pneumatik", Text: "What is a valve?", Points: 1},
		{TopicName: "Pneumatik", Text: "What is a cylinder?", Points: 1.5},
	})
	if err != nil {
		t.Fatalf("ImportQuestions failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	topics, err := store.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %+v", topics)
	}

	questions, err := store.ListQuestionsByTopic(ctx, existing)
	if err != nil {
		t.Fatalf("ListQuestionsByTopic failed: %v", err)
	}
	if len(questions) != 1 || questions[0].Difficulty != 1 || questions[0].Solution != "" || questions[0].Points != 2 {
		t.Fatalf("unexpected imported question: %+v", questions)
	}
}

func TestSQLiteStoreSeedDemoDataTwice(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.SeedDemoData(ctx); err != nil {
			t.Fatalf("SeedDemoData run %d failed: %v", i+1, err)
		}
	}

	topics, err := store.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("expected 3 demo topics, got %d", len(topics))
	}
	for _, topic := range topics {
		questions, err := store.ListQuestionsByTopic(ctx, topic.ID)
		if err != nil {
			t.Fatalf("ListQuestionsByTopic failed: %v", err)
		}
		if len(questions) != 1 {
			t.Fatalf("topic %s has %d questions, want 1", topic.Name, len(questions))
		}
	}
}
