package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeCatalogRepo struct {
	languages []catalog.Language
	lessons   map[string]*catalog.Lesson
	exercises map[string][]catalog.Exercise
	counts    map[string]int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		lessons:   make(map[string]*catalog.Lesson),
		exercises: make(map[string][]catalog.Exercise),
		counts:    make(map[string]int),
	}
}

func (f *fakeCatalogRepo) GetLanguages(_ context.Context) ([]catalog.Language, error) {
	return f.languages, nil
}

func (f *fakeCatalogRepo) GetLanguageByCode(_ context.Context, code string) (*catalog.Language, error) {
	for i := range f.languages {
		if f.languages[i].Code == code {
			return &f.languages[i], nil
		}
	}
	return nil, shared.ErrLanguageNotFound
}

func (f *fakeCatalogRepo) GetLanguageByID(_ context.Context, id string) (*catalog.Language, error) {
	for i := range f.languages {
		if f.languages[i].ID == id {
			return &f.languages[i], nil
		}
	}
	return nil, shared.ErrLanguageNotFound
}

func (f *fakeCatalogRepo) GetLesson(_ context.Context, id string) (*catalog.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return l, nil
}

func (f *fakeCatalogRepo) GetLessonsByLanguage(_ context.Context, languageID string) ([]catalog.Lesson, error) {
	var out []catalog.Lesson
	for _, l := range f.lessons {
		if l.LanguageID == languageID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetExercises(_ context.Context, lessonID string) ([]catalog.Exercise, error) {
	return f.exercises[lessonID], nil
}

func (f *fakeCatalogRepo) CountLessonsByLanguage(_ context.Context, languageID string) (int, error) {
	return f.counts[languageID], nil
}

type fakeProgressRepo struct {
	rows map[string]*enrollment.Progress // userID + "/" + lessonID
	err  error
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[string]*enrollment.Progress)}
}

func (f *fakeProgressRepo) Upsert(_ context.Context, p *enrollment.Progress) error {
	f.rows[p.UserID+"/"+p.LessonID] = p
	return nil
}

func (f *fakeProgressRepo) Get(_ context.Context, userID, lessonID string) (*enrollment.Progress, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[userID+"/"+lessonID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return p, nil
}

func (f *fakeProgressRepo) GetByUser(_ context.Context, userID string) ([]*enrollment.Progress, error) {
	var out []*enrollment.Progress
	for _, p := range f.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountCompleted(_ context.Context, userID string) (int, error) {
	n := 0
	for _, p := range f.rows {
		if p.UserID == userID && p.Completed {
			n++
		}
	}
	return n, nil
}

func (f *fakeProgressRepo) CountCompletedByLanguage(_ context.Context, _, _ string) (int, error) {
	return 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ListLanguages
// ─────────────────────────────────────────────────────────────────────────────

func TestListLanguages_IncludesLessonCounts(t *testing.T) {
	repo := newFakeCatalogRepo()
	repo.languages = []catalog.Language{
		{ID: "lang-de", Code: "de", Name: "German", Flag: "🇩🇪", IsActive: true},
		{ID: "lang-es", Code: "es", Name: "Spanish", Flag: "🇪🇸", IsActive: true},
	}
	repo.counts["lang-de"] = 12
	repo.counts["lang-es"] = 7

	h := NewListLanguagesHandler(repo)

	out, err := h.Handle(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, LanguageDTO{Code: "de", Name: "German", Flag: "🇩🇪", LessonCount: 12}, out[0])
	assert.Equal(t, LanguageDTO{Code: "es", Name: "Spanish", Flag: "🇪🇸", LessonCount: 7}, out[1])
}

// ─────────────────────────────────────────────────────────────────────────────
// GetLesson
// ─────────────────────────────────────────────────────────────────────────────

func catalogFixture() (*fakeCatalogRepo, *fakeProgressRepo) {
	repo := newFakeCatalogRepo()
	repo.lessons["lesson-1"] = &catalog.Lesson{
		ID:          "lesson-1",
		LanguageID:  "lang-de",
		Title:       "Greetings",
		Description: "Hello and goodbye",
		Position:    1,
		IsActive:    true,
		TotalPoints: 20,
	}
	repo.exercises["lesson-1"] = []catalog.Exercise{
		{ID: "ex-1", LessonID: "lesson-1", Type: catalog.ExerciseTranslate, Prompt: "Hallo", Answer: "Hello", Points: 10, Position: 1},
		{ID: "ex-2", LessonID: "lesson-1", Type: catalog.ExerciseTranslate, Prompt: "Tschüss", Answer: "Goodbye", Points: 10, Position: 2},
	}
	return repo, newFakeProgressRepo()
}

func TestGetLesson_AnonymousHasNoProgress(t *testing.T) {
	repo, progress := catalogFixture()
	h := NewGetLessonHandler(repo, progress)

	dto, err := h.Handle(context.Background(), GetLessonQuery{LessonID: "lesson-1"})
	require.NoError(t, err)

	assert.Equal(t, "Greetings", dto.Title)
	assert.Equal(t, 20, dto.TotalPoints)
	require.Len(t, dto.Exercises, 2)
	assert.Equal(t, "Hallo", dto.Exercises[0].Prompt)
	assert.Nil(t, dto.Progress)
}

func TestGetLesson_MergesUserProgress(t *testing.T) {
	repo, progress := catalogFixture()
	completedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	progress.rows["user-1/lesson-1"] = &enrollment.Progress{
		UserID:      "user-1",
		LessonID:    "lesson-1",
		Score:       85,
		Completed:   true,
		CompletedAt: &completedAt,
	}

	h := NewGetLessonHandler(repo, progress)

	dto, err := h.Handle(context.Background(), GetLessonQuery{LessonID: "lesson-1", UserID: "user-1"})
	require.NoError(t, err)

	require.NotNil(t, dto.Progress)
	assert.Equal(t, 85, dto.Progress.Score)
	assert.True(t, dto.Progress.Completed)
	assert.Equal(t, &completedAt, dto.Progress.CompletedAt)
}

func TestGetLesson_NoProgressRowIsNotAnError(t *testing.T) {
	repo, progress := catalogFixture()
	h := NewGetLessonHandler(repo, progress)

	dto, err := h.Handle(context.Background(), GetLessonQuery{LessonID: "lesson-1", UserID: "user-2"})
	require.NoError(t, err)
	assert.Nil(t, dto.Progress)
}

func TestGetLesson_ProgressErrorPropagates(t *testing.T) {
	repo, progress := catalogFixture()
	progress.err = errors.New("connection reset")

	h := NewGetLessonHandler(repo, progress)

	_, err := h.Handle(context.Background(), GetLessonQuery{LessonID: "lesson-1", UserID: "user-1"})
	assert.Error(t, err)
}

func TestGetLesson_UnknownLesson(t *testing.T) {
	repo, progress := catalogFixture()
	h := NewGetLessonHandler(repo, progress)

	_, err := h.Handle(context.Background(), GetLessonQuery{LessonID: "lesson-404"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
