package command

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// In-memory fakes backing the command handler tests. The fake unit of work
// snapshots state before fn and restores it when fn fails, mirroring the
// rollback semantics of the postgres implementation.

type fakeState struct {
	mu           sync.Mutex
	users        map[string]*user.User
	achievements map[string]user.Achievement // keyed by user + dedup key
	progress     map[string]*enrollment.Progress
	enrollments  map[string]*enrollment.Enrollment
	languages    map[string]*catalog.Language
	lessons      map[string]*catalog.Lesson

	// failAchievementCreate forces Create to fail, for atomicity tests.
	failAchievementCreate bool
	// staleUserUpdates makes the next N user updates fail with a version
	// conflict, for retry tests.
	staleUserUpdates int
}

func newFakeState() *fakeState {
	return &fakeState{
		users:        make(map[string]*user.User),
		achievements: make(map[string]user.Achievement),
		progress:     make(map[string]*enrollment.Progress),
		enrollments:  make(map[string]*enrollment.Enrollment),
		languages:    make(map[string]*catalog.Language),
		lessons:      make(map[string]*catalog.Lesson),
	}
}

func (s *fakeState) snapshot() *fakeState {
	c := newFakeState()
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.achievements {
		c.achievements[k] = v
	}
	for k, v := range s.progress {
		p := *v
		c.progress[k] = &p
	}
	for k, v := range s.enrollments {
		e := *v
		c.enrollments[k] = &e
	}
	return c
}

func (s *fakeState) restore(from *fakeState) {
	s.users = from.users
	s.achievements = from.achievements
	s.progress = from.progress
	s.enrollments = from.enrollments
}

// ─────────────────────────────────────────────────────────────────────────────
// user.Repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct{ s *fakeState }

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return shared.ErrUserAlreadyExists
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email user.Email) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.staleUserUpdates > 0 {
		r.s.staleUserUpdates--
		return shared.ErrUserVersionStale
	}
	stored, ok := r.s.users[u.ID]
	if !ok {
		return shared.ErrUserNotFound
	}
	if stored.Version != u.Version {
		return shared.ErrUserVersionStale
	}
	u.Version++
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) TopByExperience(_ context.Context, limit int) ([]*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Experience > users[j].Experience })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// user.AchievementRepository
// ─────────────────────────────────────────────────────────────────────────────

type fakeAchievementRepo struct{ s *fakeState }

func achievementKey(userID string, a user.Achievement) string {
	return userID + "/" + a.DedupKey()
}

func (r *fakeAchievementRepo) Create(_ context.Context, a *user.Achievement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAchievementCreate {
		return fmt.Errorf("achievement insert: %w", shared.ErrInternal)
	}
	key := achievementKey(a.UserID, *a)
	if _, ok := r.s.achievements[key]; ok {
		return shared.ErrAchievementExists
	}
	r.s.achievements[key] = *a
	return nil
}

func (r *fakeAchievementRepo) GetByUser(_ context.Context, userID string) ([]user.Achievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []user.Achievement
	for _, a := range r.s.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.After(out[j].UnlockedAt) })
	return out, nil
}

func (r *fakeAchievementRepo) Exists(_ context.Context, userID string, achievementType user.AchievementType, lessonID, title string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	candidate := user.Achievement{Type: achievementType, Title: title, LessonID: lessonID}
	_, ok := r.s.achievements[userID+"/"+candidate.DedupKey()]
	return ok, nil
}

func (r *fakeAchievementRepo) CountPerfectScores(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, a := range r.s.achievements {
		if a.UserID == userID && a.Type == user.AchievementPerfectScore && a.LessonID != "" {
			count++
		}
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// enrollment repositories
// ─────────────────────────────────────────────────────────────────────────────

type fakeProgressRepo struct{ s *fakeState }

func progressKey(userID, lessonID string) string { return userID + "/" + lessonID }

func (r *fakeProgressRepo) Upsert(_ context.Context, p *enrollment.Progress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.progress[progressKey(p.UserID, p.LessonID)] = &cp
	return nil
}

func (r *fakeProgressRepo) Get(_ context.Context, userID, lessonID string) (*enrollment.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.progress[progressKey(userID, lessonID)]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProgressRepo) GetByUser(_ context.Context, userID string) ([]*enrollment.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*enrollment.Progress
	for _, p := range r.s.progress {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) CountCompleted(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, p := range r.s.progress {
		if p.UserID == userID && p.Completed {
			count++
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) CountCompletedByLanguage(_ context.Context, userID, languageID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, p := range r.s.progress {
		if p.UserID != userID || !p.Completed {
			continue
		}
		if lesson, ok := r.s.lessons[p.LessonID]; ok && lesson.LanguageID == languageID {
			count++
		}
	}
	return count, nil
}

type fakeEnrollmentRepo struct{ s *fakeState }

func enrollmentKey(userID, languageID string) string { return userID + "/" + languageID }

func (r *fakeEnrollmentRepo) Create(_ context.Context, e *enrollment.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := enrollmentKey(e.UserID, e.LanguageID)
	if _, ok := r.s.enrollments[key]; ok {
		return shared.ErrAlreadyEnrolled
	}
	cp := *e
	r.s.enrollments[key] = &cp
	return nil
}

func (r *fakeEnrollmentRepo) Get(_ context.Context, userID, languageID string) (*enrollment.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[enrollmentKey(userID, languageID)]
	if !ok {
		return nil, shared.NewDomainError("enrollment", "Get", shared.ErrNotFound, "enrollment not found")
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEnrollmentRepo) GetActive(ctx context.Context, userID, languageID string) (*enrollment.Enrollment, error) {
	e, err := r.Get(ctx, userID, languageID)
	if err != nil {
		return nil, shared.ErrNotEnrolled
	}
	if !e.IsActive {
		return nil, shared.ErrNotEnrolled
	}
	return e, nil
}

func (r *fakeEnrollmentRepo) GetByUser(_ context.Context, userID string) ([]*enrollment.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*enrollment.Enrollment
	for _, e := range r.s.enrollments {
		if e.UserID == userID && e.IsActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) Update(_ context.Context, e *enrollment.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := enrollmentKey(e.UserID, e.LanguageID)
	if _, ok := r.s.enrollments[key]; !ok {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "enrollment not found")
	}
	cp := *e
	r.s.enrollments[key] = &cp
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// catalog.Repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeCatalogRepo struct{ s *fakeState }

func (r *fakeCatalogRepo) GetLanguages(_ context.Context) ([]catalog.Language, error) {
	var out []catalog.Language
	for _, l := range r.s.languages {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetLanguageByCode(_ context.Context, code string) (*catalog.Language, error) {
	for _, l := range r.s.languages {
		if l.Code == code && l.IsActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, shared.ErrLanguageNotFound
}

func (r *fakeCatalogRepo) GetLanguageByID(_ context.Context, id string) (*catalog.Language, error) {
	l, ok := r.s.languages[id]
	if !ok || !l.IsActive {
		return nil, shared.ErrLanguageNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeCatalogRepo) GetLesson(_ context.Context, id string) (*catalog.Lesson, error) {
	l, ok := r.s.lessons[id]
	if !ok || !l.IsActive {
		return nil, shared.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeCatalogRepo) GetLessonsByLanguage(_ context.Context, languageID string) ([]catalog.Lesson, error) {
	var out []catalog.Lesson
	for _, l := range r.s.lessons {
		if l.LanguageID == languageID && l.IsActive {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeCatalogRepo) GetExercises(_ context.Context, _ string) ([]catalog.Exercise, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) CountLessonsByLanguage(_ context.Context, languageID string) (int, error) {
	count := 0
	for _, l := range r.s.lessons {
		if l.LanguageID == languageID && l.IsActive {
			count++
		}
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// unit of work + event publisher
// ─────────────────────────────────────────────────────────────────────────────

type fakeUnitOfWork struct{ s *fakeState }

func (u *fakeUnitOfWork) Within(_ context.Context, fn func(repos TxRepos) error) error {
	before := u.s.snapshot()
	err := fn(TxRepos{
		Users:        &fakeUserRepo{s: u.s},
		Achievements: &fakeAchievementRepo{s: u.s},
		Progress:     &fakeProgressRepo{s: u.s},
		Enrollments:  &fakeEnrollmentRepo{s: u.s},
	})
	if err != nil {
		u.s.restore(before)
		return err
	}
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesSeen() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// testLogger returns a logger that discards everything below error level.
func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

// sequentialIDs returns a deterministic ID generator for tests.
func sequentialIDs() IDGenerator {
	n := 0
	return IDGeneratorFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}
