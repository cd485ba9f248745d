package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/application/command"
	"github.com/lingoquest/lingoquest-backend/internal/application/query"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE BODIES
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Experience int       `json:"experience"`
	Level      int       `json:"level"`
	Streak     int       `json:"streak"`
}

type enrollResponse struct {
	EnrollmentID string    `json:"enrollment_id"`
	LanguageCode string    `json:"language_code"`
	Reactivated  bool      `json:"reactivated"`
	StartedAt    time.Time `json:"started_at"`
}

type completeLessonRequest struct {
	Score            int `json:"score"`
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

type completeLessonResponse struct {
	Score                int                `json:"score"`
	ExperienceGained     int                `json:"experience_gained"`
	Experience           int                `json:"experience"`
	Level                int                `json:"level"`
	LeveledUp            bool               `json:"leveled_up"`
	UnlockedAchievements []user.Achievement `json:"unlocked_achievements"`
	CompletedAt          time.Time          `json:"completed_at"`
}

type streakResponse struct {
	Streak     int        `json:"streak"`
	BestStreak int        `json:"best_streak"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	Changed    bool       `json:"changed"`
	Broken     bool       `json:"broken"`
}

// decodeJSON decodes a request body, rejecting unknown fields and trailing
// garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.WrapError("http", "Decode", shared.ErrInvalidInput, "invalid request body", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return shared.NewDomainError("http", "Decode", shared.ErrInvalidInput, "unexpected trailing data")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	if !status.Ready {
		s.writeErrorStatus(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.deps.Register.Handle(r.Context(), command.RegisterCommand{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, registerResponse{
		UserID:    result.UserID,
		Email:     result.Email,
		Username:  result.Username,
		CreatedAt: result.CreatedAt,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.deps.Login.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt,
		UserID:     result.UserID,
		Username:   result.Username,
		Experience: result.Experience,
		Level:      result.Level,
		Streak:     result.Streak,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := handlers.SessionID(r.Context())
	if sessionID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	if err := s.deps.Logout.Handle(r.Context(), command.LogoutCommand{SessionID: sessionID}); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG & ENROLLMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := s.deps.ListLanguages.Handle(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, languages)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	result, err := s.deps.Enroll.Handle(r.Context(), command.EnrollCommand{
		UserID:       userID,
		LanguageCode: r.PathValue("code"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, enrollResponse{
		EnrollmentID: result.EnrollmentID,
		LanguageCode: result.LanguageCode,
		Reactivated:  result.Reactivated,
		StartedAt:    result.StartedAt,
	})
}

func (s *Server) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	err := s.deps.Unenroll.Handle(r.Context(), command.UnenrollCommand{
		UserID:       userID,
		LanguageCode: r.PathValue("code"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"unenrolled": true})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	// UserID is optional here: anonymous callers get the lesson without
	// per-user progress.
	userID := handlers.UserID(r.Context())

	lesson, err := s.deps.GetLesson.Handle(r.Context(), query.GetLessonQuery{
		LessonID: r.PathValue("id"),
		UserID:   userID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, lesson)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	var req completeLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.deps.CompleteLesson.Handle(r.Context(), command.CompleteLessonCommand{
		UserID:    userID,
		LessonID:  r.PathValue("id"),
		RawScore:  req.Score,
		TimeSpent: time.Duration(req.TimeSpentSeconds) * time.Second,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, completeLessonResponse{
		Score:                result.FinalScore,
		ExperienceGained:     result.ExperienceGained,
		Experience:           result.NewExperience,
		Level:                result.NewLevel,
		LeveledUp:            result.LeveledUp,
		UnlockedAchievements: result.UnlockedAchievements,
		CompletedAt:          result.CompletedAt,
	})
}

func (s *Server) handleCheckStreak(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	result, err := s.deps.CheckStreak.Handle(r.Context(), command.CheckStreakCommand{UserID: userID})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, streakResponse{
		Streak:     result.Streak,
		BestStreak: result.BestStreak,
		LastLogin:  result.LastLogin,
		Changed:    result.Changed,
		Broken:     result.Broken,
	})
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	achievements, err := s.deps.ListAchievements.Handle(r.Context(), query.ListAchievementsQuery{UserID: userID})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, achievements)
}

func (s *Server) handleAchievementTargets(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	targets, err := s.deps.ListAchievementTargets.Handle(r.Context(), query.ListAchievementTargetsQuery{UserID: userID})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleProgressSummary(w http.ResponseWriter, r *http.Request) {
	userID := handlers.UserID(r.Context())
	if userID == "" {
		s.writeError(w, shared.ErrMissingToken)
		return
	}

	summary, err := s.deps.GetProgressSummary.Handle(r.Context(), query.GetProgressSummaryQuery{
		UserID:             userID,
		RecentAchievements: queryParamInt(r, "recent", 0),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Limit: queryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, entries)
}
