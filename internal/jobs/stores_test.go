package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"survai/internal/model"
)

// memDB backs the in-memory repositories used by the job tests
type memDB struct {
	mu          sync.Mutex
	seq         int
	surveys     map[string]*model.Survey
	users       map[string]*model.User
	assignments map[string]*model.Assignment
	responses   map[string]*model.Response
}

func newMemDB() *memDB {
	return &memDB{
		surveys:     map[string]*model.Survey{},
		users:       map[string]*model.User{},
		assignments: map[string]*model.Assignment{},
		responses:   map[string]*model.Response{},
	}
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%03d", prefix, m.seq)
}

func (m *memDB) completedResponses(surveyID string) []*model.Response {
	var out []*model.Response
	for _, r := range m.responses {
		if r.SurveyID == surveyID && r.Completed() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memSurveyRepo struct{ *memDB }

func (r memSurveyRepo) Create(_ context.Context, s *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surveys[s.ID] = s
	return s.ID, nil
}

func (r memSurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surveys[id], nil
}

func (r memSurveyRepo) ListByOrganization(context.Context, string) ([]*model.Survey, error) {
	return nil, nil
}
func (r memSurveyRepo) Update(context.Context, *model.Survey) error { return nil }
func (r memSurveyRepo) Delete(context.Context, string) error        { return nil }

type memUserRepo struct{ *memDB }

func (r memUserRepo) Create(_ context.Context, u *model.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = r.nextID("u")
	}
	r.users[u.ID] = u
	return u.ID, nil
}

func (r memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r memUserRepo) GetByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r memUserRepo) ListAvailable(_ context.Context, orgID string, exclude []string, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*model.User
	for _, u := range r.users {
		if u.OrganizationID == orgID && u.Status == model.UserActive && !skip[u.ID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUserRepo) TouchLastResponse(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.LastSurveyResponseAt = &at
	}
	return nil
}

type memAssignmentRepo struct{ *memDB }

func (r memAssignmentRepo) Create(_ context.Context, a *model.Assignment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = r.nextID("a")
	}
	cp := *a
	r.assignments[a.ID] = &cp
	return a.ID, nil
}

func (r memAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assignments[id], nil
}

func (r memAssignmentRepo) ListBySurvey(_ context.Context, surveyID string) ([]*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Assignment
	for _, a := range r.assignments {
		if a.SurveyID == surveyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAssignmentRepo) MarkCompleted(_ context.Context, id, responseID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return errors.New("no such assignment")
	}
	a.Completed = true
	a.CompletedAt = &at
	a.ResponseID = responseID
	return nil
}

func (r memAssignmentRepo) Detach(context.Context, string) error             { return nil }
func (r memAssignmentRepo) ClearResponseLinks(context.Context, string) error { return nil }
func (r memAssignmentRepo) DeleteBySurvey(context.Context, string) (int64, error) {
	return 0, nil
}

type memResponseRepo struct{ *memDB }

func (r memResponseRepo) Create(_ context.Context, resp *model.Response) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp.ID == "" {
		resp.ID = r.nextID("r")
	}
	cp := *resp
	r.responses[resp.ID] = &cp
	return resp.ID, nil
}

func (r memResponseRepo) GetByID(_ context.Context, id string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responses[id], nil
}

func (r memResponseRepo) Update(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *resp
	r.responses[resp.ID] = &cp
	return nil
}

func (r memResponseRepo) ListBySurvey(_ context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Response
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r memResponseRepo) ListCompletedBySurvey(_ context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completedResponses(surveyID), nil
}

func (r memResponseRepo) CountCompletedBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.completedResponses(surveyID))), nil
}

func (r memResponseRepo) ClearAssignmentLinks(context.Context, string) error { return nil }
func (r memResponseRepo) DeleteBySurvey(context.Context, string) (int64, error) {
	return 0, nil
}

// memSentimentCache keeps reports by survey id
type memSentimentCache struct {
	mu      sync.Mutex
	reports map[string]*model.SentimentReport
}

func newMemSentimentCache() *memSentimentCache {
	return &memSentimentCache{reports: map[string]*model.SentimentReport{}}
}

func (c *memSentimentCache) Get(_ context.Context, surveyID string) (*model.SentimentReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reports[surveyID], nil
}

func (c *memSentimentCache) Set(_ context.Context, report *model.SentimentReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[report.SurveyID] = report
	return nil
}

func (c *memSentimentCache) Delete(_ context.Context, surveyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, surveyID)
	return nil
}

func (c *memSentimentCache) Exists(_ context.Context, surveyID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.reports[surveyID]
	return ok, nil
}

// seedJobSurvey stores a published survey with one scale and two text
// questions plus n active respondents in its organization
func seedJobSurvey(db *memDB, n int) *model.Survey {
	s := &model.Survey{
		ID:             "s-1",
		OrganizationID: "org-1",
		CreatedBy:      "creator-1",
		Title:          "Engagement pulse",
		Status:         model.SurveyPublished,
		Questions: []model.Question{
			{ID: "q-scale", Text: "Rate your week", Type: model.QuestionScale, Required: true, Position: 1},
			{ID: "q-enjoy", Text: "What do you enjoy about work?", Type: model.QuestionText, Position: 2},
			{ID: "q-improve", Text: "What should we improve?", Type: model.QuestionText, Position: 3},
		},
		CreatedAt: testNow.Add(-30 * 24 * time.Hour),
	}
	db.surveys[s.ID] = s

	depts := []string{"Engineering", "Sales", "Marketing"}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user-%02d", i)
		db.users[id] = &model.User{
			ID:             id,
			OrganizationID: s.OrganizationID,
			FirstName:      "User",
			LastName:       id,
			Email:          id + "@techcorp.com",
			Department:     depts[i%len(depts)],
			Role:           model.RoleRespondent,
			Status:         model.UserActive,
		}
	}
	return s
}
