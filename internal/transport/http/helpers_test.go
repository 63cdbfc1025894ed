package http

import (
	"time"

	"study-portal-service/internal/app"
	"study-portal-service/internal/content"
	"study-portal-service/internal/domain"
	"study-portal-service/internal/infra/memory"
	"study-portal-service/internal/roles"
)

func newTestService() *app.StudyService {
	catalog := content.NewCatalog(domain.DefaultRewardTable(),
		[]domain.Quiz{{
			ID: "quiz-1",
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Difficulty: domain.DifficultyEasy, CorrectOptionIndex: 1},
				{ID: "q2", Prompt: "What is 3 * 3?", Options: []string{"6", "9"}, Difficulty: domain.DifficultyMedium, CorrectOptionIndex: 1},
			},
		}},
		[]domain.Checklist{{
			Subject: "calculus",
			Items: []domain.TopicItem{
				{ID: "limits", GroupName: "Foundations", Label: "Limits"},
				{ID: "integrals", GroupName: "Integration", Label: "Integrals"},
			},
		}},
	)
	repo := memory.NewContentRepository(catalog, time.Minute)
	return app.NewStudyService(app.Dependencies{
		Quizzes:     repo,
		Checklists:  repo,
		Completions: memory.NewCompletionStore(),
		Experience:  memory.NewExperienceStore(),
		Feeds:       memory.NewFeedStore(),
		Roles:       roles.NewDirectory(nil, []string{"mod@club.org"}),
	})
}
