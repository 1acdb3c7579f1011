package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"survai/internal/aiclient"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/questiontype"
	"survai/internal/repository"

	"github.com/google/uuid"
)

const (
	maxEmailAttempts = 20
	hireWindowDays   = 3 * 365
)

var wrappingQuotes = regexp.MustCompile(`^["']|["']$`)

// Assignee pairs a new assignment with the user it was given to
type Assignee struct {
	Assignment *model.Assignment
	User       *model.User
}

type substitution struct {
	re           *regexp.Regexp
	alternatives []string
}

// DataGenerator populates a survey with realistic assignments and
// responses. It never publishes progress; callers wrap each step.
type DataGenerator struct {
	users       repository.UserRepo
	assignments repository.AssignmentRepo
	responses   *ResponseService
	registry    *questiontype.Registry
	ai          Completer
	profile     GeneratorProfile
	subs        []substitution
	log         *logger.Logger
	now         func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDataGenerator(
	users repository.UserRepo,
	assignments repository.AssignmentRepo,
	responses *ResponseService,
	registry *questiontype.Registry,
	ai Completer,
	profile GeneratorProfile,
	rng *rand.Rand,
	log *logger.Logger,
) *DataGenerator {
	if log == nil {
		log = logger.Nop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	subs := make([]substitution, 0, len(profile.Substitutions))
	for _, s := range profile.Substitutions {
		subs = append(subs, substitution{
			re:           regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s.Phrase) + `\b`),
			alternatives: s.Alternatives,
		})
	}
	return &DataGenerator{
		users:       users,
		assignments: assignments,
		responses:   responses,
		registry:    registry,
		ai:          ai,
		profile:     profile,
		subs:        subs,
		log:         log.With("service", "DataGenerator"),
		now:         time.Now,
		rng:         rng,
	}
}

func (g *DataGenerator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *DataGenerator) chance(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < p
}

// between returns a uniform int in [lo, hi]
func (g *DataGenerator) between(lo, hi int) int {
	return lo + g.intn(hi-lo+1)
}

func (g *DataGenerator) pick(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[g.intn(len(list))]
}

// CreateAssignments assigns count users who are active and not yet
// assigned, synthesizing users when the organization runs short.
func (g *DataGenerator) CreateAssignments(ctx context.Context, survey *model.Survey, count int) ([]Assignee, error) {
	existing, err := g.assignments.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	exclude := make([]string, 0, len(existing))
	for _, a := range existing {
		exclude = append(exclude, a.UserID)
	}

	available, err := g.users.ListAvailable(ctx, survey.OrganizationID, exclude, count)
	if err != nil {
		return nil, fmt.Errorf("list available users: %w", err)
	}
	for len(available) < count {
		u, err := g.synthesizeUser(ctx, survey.OrganizationID)
		if err != nil {
			return nil, &DataError{Op: "create assignments", Msg: "could not create enough users", Err: err}
		}
		available = append(available, u)
	}

	now := g.now()
	out := make([]Assignee, 0, count)
	for _, u := range available[:count] {
		a := &model.Assignment{
			SurveyID:   survey.ID,
			UserID:     u.ID,
			AssignedBy: survey.CreatedBy,
			AssignedAt: now.Add(-time.Duration(g.between(1, 7)) * 24 * time.Hour),
		}
		if _, err := g.assignments.Create(ctx, a); err != nil {
			if errors.Is(err, repository.ErrDuplicateAssignment) {
				return nil, &DataError{Op: "create assignments", Msg: "user already assigned", Err: err}
			}
			return nil, fmt.Errorf("create assignment: %w", err)
		}
		out = append(out, Assignee{Assignment: a, User: u})
	}
	g.log.Debug("assignments created", "surveyId", survey.ID, "count", len(out))
	return out, nil
}

// PickForResponses returns a random subset of n assignees
func (g *DataGenerator) PickForResponses(assignees []Assignee, n int) []Assignee {
	if n > len(assignees) {
		n = len(assignees)
	}
	g.mu.Lock()
	perm := g.rng.Perm(len(assignees))
	g.mu.Unlock()

	out := make([]Assignee, 0, n)
	for _, i := range perm[:n] {
		out = append(out, assignees[i])
	}
	return out
}

func (g *DataGenerator) synthesizeUser(ctx context.Context, orgID string) (*model.User, error) {
	now := g.now()
	for attempt := 0; attempt < maxEmailAttempts; attempt++ {
		first, last := g.pick(g.profile.FirstNames), g.pick(g.profile.LastNames)
		email := fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.between(1, 9999), g.profile.EmailDomain)

		exists, err := g.users.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		hired := now.AddDate(0, 0, -g.intn(hireWindowDays))
		u := &model.User{
			OrganizationID: orgID,
			FirstName:      first,
			LastName:       last,
			Email:          email,
			Department:     g.pick(g.profile.Departments),
			Role:           model.RoleRespondent,
			Status:         model.UserActive,
			HireDate:       &hired,
		}
		if _, err := g.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				continue
			}
			return nil, err
		}
		return u, nil
	}
	return nil, fmt.Errorf("no unique email after %d attempts", maxEmailAttempts)
}

// CreateResponseForAssignment answers every question as the assigned user
// and completes the assignment through the response service
func (g *DataGenerator) CreateResponseForAssignment(ctx context.Context, survey *model.Survey, assignment *model.Assignment, user *model.User) (*model.Response, error) {
	completedAt := g.now().Add(-time.Duration(g.between(1, 24)) * time.Hour)
	startedAt := completedAt.Add(-time.Duration(g.between(3, 15)) * time.Minute)

	resp := &model.Response{
		SurveyID:     survey.ID,
		UserID:       user.ID,
		AssignmentID: assignment.ID,
		SessionID:    strings.ReplaceAll(uuid.New().String(), "-", ""),
		StartedAt:    startedAt,
	}
	for _, q := range survey.OrderedQuestions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp.Answers = append(resp.Answers, model.Answer{QuestionID: q.ID, Value: g.answerFor(ctx, q, user)})
	}

	if err := g.responses.CompleteResponse(ctx, survey, resp, completedAt); err != nil {
		return nil, err
	}
	assignment.Completed = true
	assignment.CompletedAt = resp.CompletedAt
	assignment.ResponseID = resp.ID
	return resp, nil
}

func (g *DataGenerator) answerFor(ctx context.Context, q model.Question, user *model.User) string {
	switch {
	case q.Type == model.QuestionScale:
		w := g.profile.scaleWeights(user.Department)
		return fmt.Sprint(w[g.intn(len(w))])
	case g.registry.IsFreeText(q.Type):
		return g.textAnswer(ctx, q, user)
	default:
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.registry.Sample(g.rng, q)
	}
}

func personaPrompt(user *model.User) string {
	return fmt.Sprintf(`You are generating realistic survey responses from employees at a technology company called TechCorp.

Context:
- Department: %s
- Role: %s
- Employee: %s

Generate ONE realistic response to the survey question. The response should:
1. Sound like a real person, not corporate speak
2. Be 1-3 sentences (vary the length)
3. Include some personality and authentic voice
4. Reflect the employee's department and role perspective
5. Use casual, conversational language
6. Sometimes include minor imperfections (casual grammar, contractions)
7. Show varied sentiment - not all positive or negative

Department context:
- Engineering: Technical focus, mentions tools, processes, code, systems
- Marketing: Brand, campaigns, creativity, customer engagement
- Sales: Targets, clients, revenue, relationships, quotas
- Operations: Efficiency, logistics, processes, coordination
- Customer Success: Support, satisfaction, relationships, feedback

Response tone should be professional but human - like someone actually filling out a survey.`,
		user.Department, user.Role, user.DisplayName())
}

func (g *DataGenerator) textAnswer(ctx context.Context, q model.Question, user *model.User) string {
	if g.ai == nil {
		return g.fallbackText(q, user)
	}
	reply, err := g.ai.Complete(ctx, fmt.Sprintf("Question: \"%s\"\n\nGenerate a realistic response:", q.Text), personaPrompt(user))
	if err != nil {
		g.log.Warn("AI response generation failed, using fallback", "questionId", q.ID, "kind", aiclient.KindOf(err), "error", err)
		return g.fallbackText(q, user)
	}
	text := wrappingQuotes.ReplaceAllString(strings.TrimSpace(reply), "")
	if strings.TrimSpace(text) == "" {
		return g.fallbackText(q, user)
	}
	return g.polish(text)
}

// polish makes AI text read less like AI text
func (g *DataGenerator) polish(text string) string {
	if g.chance(0.3) {
		for _, s := range g.subs {
			if g.chance(0.5) {
				text = s.re.ReplaceAllString(text, g.pick(s.alternatives))
			}
		}
	}
	if g.chance(0.1) {
		text = sentenceCase(text)
	}
	return text
}

// sentenceCase lowercases text and capitalizes its first rune
func sentenceCase(text string) string {
	lower := strings.ToLower(text)
	r, size := utf8.DecodeRuneInString(lower)
	if r == utf8.RuneError {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}

func (g *DataGenerator) fallbackText(q model.Question, user *model.User) string {
	lower := strings.ToLower(q.Text)
	switch {
	case strings.Contains(lower, "enjoy") || strings.Contains(lower, "like"):
		return g.pick(g.profile.departmentPool(g.profile.PositivePool, user.Department))
	case strings.Contains(lower, "improve") || strings.Contains(lower, "better") || strings.Contains(lower, "change"):
		return g.pick(g.profile.departmentPool(g.profile.ImprovementPool, user.Department))
	case strings.Contains(lower, "challenge") || strings.Contains(lower, "difficult"):
		return g.pick(g.profile.ChallengePool)
	default:
		return g.pick(g.profile.GeneralPool)
	}
}
