package app

import (
	"context"
	"fmt"
	"hash/maphash"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"study-portal-service/internal/domain"
	"study-portal-service/internal/metrics"
	"study-portal-service/internal/roles"
	"study-portal-service/internal/scoring"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ChecklistRepository loads the topic checklist for a subject.
type ChecklistRepository interface {
	GetChecklist(ctx context.Context, subject string) (domain.Checklist, error)
}

// CompletionStore persists completion state per (user, subject).
// A missing record loads as an empty state; saving is an upsert.
type CompletionStore interface {
	LoadCompletion(ctx context.Context, userID, subject string) (domain.CompletionState, error)
	SaveCompletion(ctx context.Context, userID, subject string, state domain.CompletionState) error
}

// ExperienceStore keeps each user's running experience point balance.
type ExperienceStore interface {
	AddExperience(ctx context.Context, userID string, points int) (int, error)
	Experience(ctx context.Context, userID string) (int, error)
}

// FeedRepository abstracts where live progress feeds are kept (in-memory, Redis, etc).
type FeedRepository interface {
	GetOrCreate(key string) *Feed
	Get(key string) (*Feed, bool)
	DeleteIfEmpty(key string)
}

// Dependencies wires a StudyService. Logger, Metrics, Rewards and Clock have defaults.
type Dependencies struct {
	Quizzes     QuizRepository
	Checklists  ChecklistRepository
	Completions CompletionStore
	Experience  ExperienceStore
	Feeds       FeedRepository
	Rewards     domain.RewardTable
	Roles       *roles.Directory
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// StudyService contains the study-tracking use cases.
type StudyService struct {
	quizzes     QuizRepository
	checklists  ChecklistRepository
	completions CompletionStore
	experience  ExperienceStore
	feeds       FeedRepository
	rewards     domain.RewardTable
	roles       *roles.Directory
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	seed  maphash.Seed
	locks [64]sync.Mutex
}

func NewStudyService(deps Dependencies) *StudyService {
	s := &StudyService{
		quizzes:     deps.Quizzes,
		checklists:  deps.Checklists,
		completions: deps.Completions,
		experience:  deps.Experience,
		feeds:       deps.Feeds,
		rewards:     deps.Rewards,
		roles:       deps.Roles,
		log:         deps.Logger,
		metrics:     deps.Metrics,
		now:         deps.Clock,
		seed:        maphash.MakeSeed(),
	}
	if s.rewards == nil {
		s.rewards = domain.DefaultRewardTable()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// AssessmentOutcome is the scored sheet plus the user's experience balance after crediting it.
type AssessmentOutcome struct {
	QuizID     string             `json:"quizId"`
	Score      domain.ScoreResult `json:"score"`
	Experience int                `json:"experience"`
}

// ScoreAssessment scores an answer sheet and credits the awarded points to the user.
// Configuration errors abort before anything is credited.
func (s *StudyService) ScoreAssessment(ctx context.Context, id domain.Identity, quizID string, answers domain.AnswerSheet) (AssessmentOutcome, error) {
	if id.UserID == "" {
		return AssessmentOutcome{}, domain.ErrMissingIdentity
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AssessmentOutcome{}, err
	}

	result, err := scoring.Score(quiz.Questions, maps.Clone(answers), s.rewards)
	if err != nil {
		s.metrics.AssessmentsScored.WithLabelValues("config_error").Inc()
		s.log.Error("assessment scoring misconfigured",
			zap.String("quizId", quizID),
			zap.Error(err),
		)
		return AssessmentOutcome{}, err
	}

	if len(result.UnknownAnswers) > 0 {
		s.metrics.UnknownAnswers.Add(float64(len(result.UnknownAnswers)))
		s.log.Warn("answers reference unknown questions",
			zap.String("quizId", quizID),
			zap.String("userId", id.UserID),
			zap.Strings("questionIds", result.UnknownAnswers),
		)
	}
	if !result.Applicable {
		s.metrics.AssessmentsScored.WithLabelValues("empty").Inc()
	} else {
		s.metrics.AssessmentsScored.WithLabelValues("ok").Inc()
		s.metrics.ScorePercent.Observe(float64(result.PercentageCorrect))
	}

	outcome := AssessmentOutcome{QuizID: quizID, Score: result}
	if s.experience != nil {
		if result.TotalReward > 0 {
			outcome.Experience, err = s.experience.AddExperience(ctx, id.UserID, result.TotalReward)
			s.metrics.RewardAwarded.Add(float64(result.TotalReward))
		} else {
			outcome.Experience, err = s.experience.Experience(ctx, id.UserID)
		}
		if err != nil {
			return AssessmentOutcome{}, fmt.Errorf("credit experience: %w", err)
		}
	}

	s.log.Debug("assessment scored",
		zap.String("quizId", quizID),
		zap.String("userId", id.UserID),
		zap.Int("correct", result.CorrectCount),
		zap.Int("total", result.TotalQuestions),
		zap.Int("reward", result.TotalReward),
	)
	return outcome, nil
}

// Progress returns the user's completion summary for a subject.
func (s *StudyService) Progress(ctx context.Context, id domain.Identity, subject string) (domain.ProgressSummary, error) {
	if id.UserID == "" {
		return domain.ProgressSummary{}, domain.ErrMissingIdentity
	}
	list, err := s.checklists.GetChecklist(ctx, subject)
	if err != nil {
		return domain.ProgressSummary{}, err
	}
	state, err := s.completions.LoadCompletion(ctx, id.UserID, subject)
	if err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("load completion: %w", err)
	}
	return s.summarize(subject, list, state), nil
}

// ToggleTopic flips one checklist item, persists the new state and notifies live subscribers.
func (s *StudyService) ToggleTopic(ctx context.Context, id domain.Identity, subject, itemID string) (domain.ProgressSummary, error) {
	if id.UserID == "" {
		return domain.ProgressSummary{}, domain.ErrMissingIdentity
	}
	list, err := s.checklists.GetChecklist(ctx, subject)
	if err != nil {
		return domain.ProgressSummary{}, err
	}
	if !list.Has(itemID) {
		return domain.ProgressSummary{}, domain.ErrTopicNotFound
	}

	key := FeedKey(id.UserID, subject)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.completions.LoadCompletion(ctx, id.UserID, subject)
	if err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("load completion: %w", err)
	}
	next := scoring.Toggle(state, itemID)
	if err := s.completions.SaveCompletion(ctx, id.UserID, subject, next); err != nil {
		return domain.ProgressSummary{}, fmt.Errorf("save completion: %w", err)
	}
	s.metrics.TopicToggles.WithLabelValues(subject).Inc()

	summary := s.summarize(subject, list, next)
	if feed, ok := s.feeds.Get(key); ok {
		feed.publish(summary)
	}
	s.log.Debug("topic toggled",
		zap.String("userId", id.UserID),
		zap.String("subject", subject),
		zap.String("itemId", itemID),
		zap.Bool("done", next[itemID]),
	)
	return summary, nil
}

// Subscribe returns a channel that receives the current summary and every later change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *StudyService) Subscribe(ctx context.Context, id domain.Identity, subject string) (<-chan domain.ProgressSummary, func(), error) {
	if id.UserID == "" {
		return nil, nil, domain.ErrMissingIdentity
	}
	key := FeedKey(id.UserID, subject)
	// Holding the key lock keeps a concurrent toggle from landing between the snapshot and registration.
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	summary, err := s.Progress(ctx, id, subject)
	if err != nil {
		return nil, nil, err
	}
	feed := s.feeds.GetOrCreate(key)
	ch, unsubscribe := feed.subscribe(summary)
	// Cancel holds the key lock so the feed is never dropped while another subscriber joins it.
	cancel := func() {
		lock.Lock()
		defer lock.Unlock()
		unsubscribe()
		s.feeds.DeleteIfEmpty(key)
	}
	return ch, cancel, nil
}

// Profile summarises who the caller is to the portal.
type Profile struct {
	UserID     string     `json:"userId"`
	Email      string     `json:"email,omitempty"`
	Role       roles.Tier `json:"role"`
	Experience int        `json:"experience"`
}

// Profile returns the caller's role and experience balance.
func (s *StudyService) Profile(ctx context.Context, id domain.Identity) (Profile, error) {
	if id.UserID == "" {
		return Profile{}, domain.ErrMissingIdentity
	}
	xp, err := s.Experience(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("load experience: %w", err)
	}
	return Profile{UserID: id.UserID, Email: id.Email, Role: s.Role(id), Experience: xp}, nil
}

// Experience returns the caller's accumulated experience points.
func (s *StudyService) Experience(ctx context.Context, id domain.Identity) (int, error) {
	if id.UserID == "" {
		return 0, domain.ErrMissingIdentity
	}
	if s.experience == nil {
		return 0, nil
	}
	return s.experience.Experience(ctx, id.UserID)
}

// Role resolves the caller's privilege tier from their email.
func (s *StudyService) Role(id domain.Identity) roles.Tier {
	return s.roles.Lookup(id.Email)
}

func (s *StudyService) summarize(subject string, list domain.Checklist, state domain.CompletionState) domain.ProgressSummary {
	summary := scoring.Summarize(list.Items, state)
	summary.Subject = subject
	summary.UpdatedAt = s.now()
	return summary
}

// lockFor serialises read-modify-write cycles on one key within this process.
// Writers on other instances are ordered by the store itself.
func (s *StudyService) lockFor(key string) *sync.Mutex {
	return &s.locks[maphash.String(s.seed, key)%uint64(len(s.locks))]
}
