package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"survai/internal/model"
	"survai/internal/repository"
)

// In-memory repositories shared by the service tests.

type memStore struct {
	mu          sync.Mutex
	seq         int
	surveys     map[string]*model.Survey
	users       map[string]*model.User
	assignments map[string]*model.Assignment
	responses   map[string]*model.Response
	insights    []*model.SurveyInsight
}

func newMemStore() *memStore {
	return &memStore{
		surveys:     map[string]*model.Survey{},
		users:       map[string]*model.User{},
		assignments: map[string]*model.Assignment{},
		responses:   map[string]*model.Response{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%03d", prefix, m.seq)
}

type memSurveys struct{ *memStore }

func (r memSurveys) Create(_ context.Context, s *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = r.nextID("s")
	}
	for i := range s.Questions {
		if s.Questions[i].ID == "" {
			s.Questions[i].ID = r.nextID("q")
		}
	}
	r.surveys[s.ID] = s
	return s.ID, nil
}

func (r memSurveys) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surveys[id], nil
}

func (r memSurveys) ListByOrganization(_ context.Context, orgID string) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Survey
	for _, s := range r.surveys {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memSurveys) Update(_ context.Context, s *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surveys[s.ID] = s
	return nil
}

func (r memSurveys) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surveys, id)
	return nil
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *model.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return "", repository.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = r.nextID("u")
	}
	r.users[u.ID] = u
	return u.ID, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
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

func (r memUsers) ListAvailable(_ context.Context, orgID string, exclude []string, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	skip := toSet(exclude)
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

func (r memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) TouchLastResponse(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.LastSurveyResponseAt = &at
	}
	return nil
}

type memAssignments struct{ *memStore }

func (r memAssignments) Create(_ context.Context, a *model.Assignment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.assignments {
		if existing.SurveyID == a.SurveyID && existing.UserID == a.UserID {
			return "", repository.ErrDuplicateAssignment
		}
	}
	if a.ID == "" {
		a.ID = r.nextID("a")
	}
	cp := *a
	r.assignments[a.ID] = &cp
	return a.ID, nil
}

func (r memAssignments) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assignments[id], nil
}

func (r memAssignments) ListBySurvey(_ context.Context, surveyID string) ([]*model.Assignment, error) {
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

func (r memAssignments) MarkCompleted(_ context.Context, id, responseID string, at time.Time) error {
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

func (r memAssignments) Detach(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.assignments[id]; ok {
		a.Completed = false
		a.CompletedAt = nil
		a.ResponseID = ""
	}
	return nil
}

func (r memAssignments) ClearResponseLinks(_ context.Context, surveyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.SurveyID == surveyID {
			a.ResponseID = ""
		}
	}
	return nil
}

func (r memAssignments) DeleteBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.assignments {
		if a.SurveyID == surveyID {
			delete(r.assignments, id)
			n++
		}
	}
	return n, nil
}

type memResponses struct{ *memStore }

func (r memResponses) Create(_ context.Context, resp *model.Response) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp.ID == "" {
		resp.ID = r.nextID("r")
	}
	cp := *resp
	r.responses[resp.ID] = &cp
	return resp.ID, nil
}

func (r memResponses) GetByID(_ context.Context, id string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responses[id], nil
}

func (r memResponses) Update(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *resp
	r.responses[resp.ID] = &cp
	return nil
}

func (r memResponses) list(surveyID string, completedOnly bool) []*model.Response {
	var out []*model.Response
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID && (!completedOnly || resp.Completed()) {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memResponses) ListBySurvey(_ context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(surveyID, false), nil
}

func (r memResponses) ListCompletedBySurvey(_ context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(surveyID, true), nil
}

func (r memResponses) CountCompletedBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.list(surveyID, true))), nil
}

func (r memResponses) ClearAssignmentLinks(_ context.Context, surveyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			resp.AssignmentID = ""
		}
	}
	return nil
}

func (r memResponses) DeleteBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, resp := range r.responses {
		if resp.SurveyID == surveyID {
			delete(r.responses, id)
			n++
		}
	}
	return n, nil
}

type memInsights struct{ *memStore }

func (r memInsights) Create(_ context.Context, ins *model.SurveyInsight) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ins.ID == "" {
		ins.ID = r.nextID("i")
	}
	r.insights = append(r.insights, ins)
	return ins.ID, nil
}

func (r memInsights) Latest(_ context.Context, surveyID string) (*model.SurveyInsight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.SurveyInsight
	for _, ins := range r.insights {
		if ins.SurveyID == surveyID && (latest == nil || ins.GeneratedAt.After(latest.GeneratedAt)) {
			latest = ins
		}
	}
	return latest, nil
}

func (r memInsights) ListBySurvey(_ context.Context, surveyID string, limit int) ([]*model.SurveyInsight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SurveyInsight
	for _, ins := range r.insights {
		if ins.SurveyID == surveyID {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubAI returns a canned reply and counts calls
type stubAI struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubAI) Complete(context.Context, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

func (s *stubAI) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sentEvent struct {
	channel string
	msgType string
	payload interface{}
}

// recordingBroadcaster keeps every broadcast for inspection
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) Broadcast(channel, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{channel, msgType, payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.msgType
	}
	return out
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// seedSurvey stores a survey with one scale and two text questions
func seedSurvey(store *memStore) *model.Survey {
	s := &model.Survey{
		ID:             "s-1",
		OrganizationID: "org-1",
		CreatedBy:      "creator-1",
		Title:          "Engagement pulse",
		Status:         model.SurveyPublished,
		Questions: []model.Question{
			{ID: "q-scale", Text: "Rate your week", Type: model.QuestionScale, Required: true, Position: 1},
			{ID: "q-text", Text: "What do you enjoy about work?", Type: model.QuestionText, Position: 2},
			{ID: "q-text2", Text: "What should we improve?", Type: model.QuestionText, Position: 3},
		},
		CreatedAt: testNow.Add(-30 * 24 * time.Hour),
	}
	store.surveys[s.ID] = s
	return s
}

// seedUser stores an active respondent
func seedUser(store *memStore, id, dept string) *model.User {
	u := &model.User{
		ID:             id,
		OrganizationID: "org-1",
		FirstName:      "User",
		LastName:       id,
		Email:          id + "@techcorp.com",
		Department:     dept,
		Role:           model.RoleRespondent,
		Status:         model.UserActive,
	}
	store.users[id] = u
	return u
}

// seedResponse stores a completed response with an assignment
func seedResponse(store *memStore, survey *model.Survey, user *model.User, completedAt time.Time, scale, text string) *model.Response {
	aid := "a-" + user.ID
	rid := "r-" + user.ID
	done := completedAt
	store.assignments[aid] = &model.Assignment{
		ID: aid, SurveyID: survey.ID, UserID: user.ID, AssignedAt: completedAt.Add(-48 * time.Hour),
		Completed: true, CompletedAt: &done, ResponseID: rid,
	}
	resp := &model.Response{
		ID: rid, SurveyID: survey.ID, UserID: user.ID, AssignmentID: aid,
		StartedAt: completedAt.Add(-6 * time.Minute), CompletedAt: &done,
		Answers: []model.Answer{
			{QuestionID: "q-scale", Value: scale},
			{QuestionID: "q-text", Value: text},
		},
	}
	store.responses[rid] = resp
	return resp
}
