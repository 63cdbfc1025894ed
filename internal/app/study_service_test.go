package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"study-portal-service/internal/app"
	"study-portal-service/internal/content"
	"study-portal-service/internal/domain"
	"study-portal-service/internal/infra/memory"
	"study-portal-service/internal/roles"
)

var alice = domain.Identity{UserID: "u1", Email: "alice@club.org"}

func TestScoreAssessmentCreditsExperience(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(domain.DefaultRewardTable())

	outcome, err := service.ScoreAssessment(ctx, alice, "quiz-1", domain.AnswerSheet{"q1": 1, "q2": 0})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if outcome.Score.CorrectCount != 1 || outcome.Score.IncorrectCount != 1 || outcome.Score.SkippedCount != 1 {
		t.Fatalf("unexpected tallies: %+v", outcome.Score)
	}
	if outcome.Score.TotalReward != 10 || outcome.Experience != 10 {
		t.Fatalf("expected 10 xp awarded, got reward=%d experience=%d", outcome.Score.TotalReward, outcome.Experience)
	}

	outcome, err = service.ScoreAssessment(ctx, alice, "quiz-1", domain.AnswerSheet{"q1": 1, "q2": 1, "q3": 1})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if outcome.Experience != 10+60 {
		t.Fatalf("expected experience to accumulate to 70, got %d", outcome.Experience)
	}

	profile, err := service.Profile(ctx, alice)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.Experience != 70 || profile.Role != roles.TierAdmin {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestScoreAssessmentConfigurationError(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(domain.RewardTable{domain.DifficultyEasy: 10})

	_, err := service.ScoreAssessment(ctx, alice, "quiz-1", domain.AnswerSheet{"q1": 1})
	if !domain.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	profile, _ := service.Profile(ctx, alice)
	if profile.Experience != 0 {
		t.Fatalf("no experience may be credited on configuration error, got %d", profile.Experience)
	}
}

func TestScoreAssessmentWarnsOnUnknownAnswers(t *testing.T) {
	ctx := context.Background()
	service, logs := newTestService(domain.DefaultRewardTable())

	outcome, err := service.ScoreAssessment(ctx, alice, "quiz-1", domain.AnswerSheet{"q1": 1, "q99": 0})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if len(outcome.Score.UnknownAnswers) != 1 || outcome.Score.UnknownAnswers[0] != "q99" {
		t.Fatalf("expected q99 reported, got %v", outcome.Score.UnknownAnswers)
	}
	if logs.FilterMessage("answers reference unknown questions").Len() != 1 {
		t.Fatalf("expected a warning to be logged, got %v", logs.All())
	}
}

func TestScoreAssessmentEmptyQuiz(t *testing.T) {
	service, _ := newTestService(domain.DefaultRewardTable())

	outcome, err := service.ScoreAssessment(context.Background(), alice, "empty", nil)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if outcome.Score.Applicable || outcome.Score.PercentageCorrect != 0 {
		t.Fatalf("expected non-applicable 0%%, got %+v", outcome.Score)
	}
}

func TestCallsRequireIdentity(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(domain.DefaultRewardTable())
	anon := domain.Identity{}

	if _, err := service.ScoreAssessment(ctx, anon, "quiz-1", nil); err != domain.ErrMissingIdentity {
		t.Fatalf("expected identity error, got %v", err)
	}
	if _, err := service.Progress(ctx, anon, "calculus"); err != domain.ErrMissingIdentity {
		t.Fatalf("expected identity error, got %v", err)
	}
	if _, err := service.ToggleTopic(ctx, anon, "calculus", "limits"); err != domain.ErrMissingIdentity {
		t.Fatalf("expected identity error, got %v", err)
	}
}

func TestToggleTopicPersistsAndSummarizes(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(domain.DefaultRewardTable())

	summary, err := service.ToggleTopic(ctx, alice, "calculus", "limits")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if summary.Done != 1 || summary.OverallPercent != 33 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.PerGroup["Foundations"].Percent != 50 {
		t.Fatalf("expected Foundations at 50%%, got %+v", summary.PerGroup)
	}

	progress, err := service.Progress(ctx, alice, "calculus")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.Done != 1 {
		t.Fatalf("expected toggle persisted, got %+v", progress)
	}

	bob := domain.Identity{UserID: "u2"}
	other, _ := service.Progress(ctx, bob, "calculus")
	if other.Done != 0 {
		t.Fatalf("expected progress isolated per user, got %+v", other)
	}

	summary, _ = service.ToggleTopic(ctx, alice, "calculus", "limits")
	if summary.Done != 0 {
		t.Fatalf("expected second toggle to unmark, got %+v", summary)
	}
}

func TestToggleTopicRejectsUnknownItem(t *testing.T) {
	service, _ := newTestService(domain.DefaultRewardTable())

	_, err := service.ToggleTopic(context.Background(), alice, "calculus", "topology")
	if !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected topic error, got %v", err)
	}
	_, err = service.ToggleTopic(context.Background(), alice, "history", "limits")
	if !errors.Is(err, domain.ErrChecklistNotFound) {
		t.Fatalf("expected checklist error, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(domain.DefaultRewardTable())

	ch, cancel, err := service.Subscribe(ctx, alice, "calculus")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Total != 3 || initial.Done != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	if _, err := service.ToggleTopic(ctx, alice, "calculus", "integrals"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	select {
	case update := <-ch:
		if update.Done != 1 || update.PerGroup["Integration"].Percent != 100 {
			t.Fatalf("unexpected update: %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for update")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	service, _ := newTestService(domain.DefaultRewardTable())

	ch, cancel, err := service.Subscribe(context.Background(), alice, "calculus")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	<-ch
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func newTestService(rewards domain.RewardTable) (*app.StudyService, *observer.ObservedLogs) {
	return newTestServiceWithFeeds(rewards, memory.NewFeedStore())
}

func newTestServiceWithFeeds(rewards domain.RewardTable, feeds app.FeedRepository) (*app.StudyService, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	catalog := content.NewCatalog(domain.DefaultRewardTable(),
		[]domain.Quiz{
			{
				ID: "quiz-1",
				Questions: []domain.Question{
					{ID: "q1", Prompt: "2 + 2?", Options: []string{"3", "4"}, Difficulty: domain.DifficultyEasy, CorrectOptionIndex: 1},
					{ID: "q2", Prompt: "d/dx x^2?", Options: []string{"x", "2x", "x^2"}, Difficulty: domain.DifficultyMedium, CorrectOptionIndex: 1},
					{ID: "q3", Prompt: "integral of 1/x?", Options: []string{"x", "ln|x|"}, Difficulty: domain.DifficultyHard, CorrectOptionIndex: 1},
				},
			},
			{ID: "empty"},
		},
		[]domain.Checklist{{
			Subject: "calculus",
			Items: []domain.TopicItem{
				{ID: "limits", GroupName: "Foundations", Label: "Limits"},
				{ID: "derivatives", GroupName: "Foundations", Label: "Derivatives"},
				{ID: "integrals", GroupName: "Integration", Label: "Integrals"},
			},
		}},
	)
	repo := memory.NewContentRepository(catalog, time.Minute)
	service := app.NewStudyService(app.Dependencies{
		Quizzes:     repo,
		Checklists:  repo,
		Completions: memory.NewCompletionStore(),
		Experience:  memory.NewExperienceStore(),
		Feeds:       feeds,
		Rewards:     rewards,
		Roles:       roles.NewDirectory([]string{"alice@club.org"}, nil),
		Logger:      zap.New(core),
	})
	return service, logs
}

func TestExperienceStartsAtZero(t *testing.T) {
	service, _ := newTestService(domain.DefaultRewardTable())

	xp, err := service.Experience(context.Background(), alice)
	if err != nil {
		t.Fatalf("experience failed: %v", err)
	}
	if xp != 0 {
		t.Fatalf("expected no experience yet, got %d", xp)
	}
	if _, err := service.Experience(context.Background(), domain.Identity{}); err != domain.ErrMissingIdentity {
		t.Fatalf("expected identity error, got %v", err)
	}
}

// joiningFeeds runs onJoin in the background while a subscriber is between looking up its
// feed and registering on it, giving it a short head start before the lookup returns.
type joiningFeeds struct {
	app.FeedRepository
	once   sync.Once
	onJoin func()
	done   chan struct{}
}

func (f *joiningFeeds) GetOrCreate(key string) *app.Feed {
	feed := f.FeedRepository.GetOrCreate(key)
	if f.onJoin == nil {
		return feed
	}
	f.once.Do(func() {
		go func() {
			defer close(f.done)
			f.onJoin()
		}()
		select {
		case <-f.done:
		case <-time.After(50 * time.Millisecond):
		}
	})
	return feed
}

func TestSubscribeSurvivesConcurrentCancel(t *testing.T) {
	ctx := context.Background()
	feeds := &joiningFeeds{FeedRepository: memory.NewFeedStore(), done: make(chan struct{})}
	service, _ := newTestServiceWithFeeds(domain.DefaultRewardTable(), feeds)

	// The first tab subscribes, then closes exactly while the second one joins.
	_, cancelA, err := service.Subscribe(ctx, alice, "calculus")
	if err != nil {
		t.Fatalf("subscribe A failed: %v", err)
	}
	feeds.onJoin = cancelA

	chB, cancelB, err := service.Subscribe(ctx, alice, "calculus")
	if err != nil {
		t.Fatalf("subscribe B failed: %v", err)
	}
	defer cancelB()
	<-feeds.done
	<-chB

	if _, err := service.ToggleTopic(ctx, alice, "calculus", "limits"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	select {
	case update := <-chB:
		if update.Done != 1 {
			t.Fatalf("unexpected update: %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("second subscriber never received the toggle")
	}
}
