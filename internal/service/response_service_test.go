package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"survai/internal/model"
	"survai/internal/questiontype"
)

func newResponseFixture() (*ResponseService, *memStore, *recordingBroadcaster) {
	store := newMemStore()
	seedSurvey(store)
	seedUser(store, "u1", "Engineering")
	store.assignments["a1"] = &model.Assignment{ID: "a1", SurveyID: "s-1", UserID: "u1", AssignedAt: testNow.Add(-24 * time.Hour)}
	events := &recordingBroadcaster{}
	svc := NewResponseService(memAssignments{store}, memResponses{store}, memUsers{store}, questiontype.Default(), events, nil)
	return svc, store, events
}

func TestCompleteResponseCompletesAssignment(t *testing.T) {
	svc, store, events := newResponseFixture()
	survey := store.surveys["s-1"]

	resp := &model.Response{
		UserID:       "u1",
		AssignmentID: "a1",
		StartedAt:    testNow.Add(-5 * time.Minute),
		Answers:      []model.Answer{{QuestionID: "q-scale", Value: "8"}, {QuestionID: "q-text", Value: "Good week"}},
	}
	if err := svc.CompleteResponse(context.Background(), survey, resp, testNow); err != nil {
		t.Fatalf("CompleteResponse: %v", err)
	}

	a := store.assignments["a1"]
	if !a.Completed || a.CompletedAt == nil || !a.CompletedAt.Equal(testNow) || a.ResponseID != resp.ID {
		t.Fatalf("assignment not completed: %+v", a)
	}
	if a.Status() != model.AssignmentCompleted {
		t.Fatalf("status = %s", a.Status())
	}
	if u := store.users["u1"]; u.LastSurveyResponseAt == nil || !u.LastSurveyResponseAt.Equal(testNow) {
		t.Fatalf("user not stamped: %+v", u)
	}
	stored := store.responses[resp.ID]
	if stored == nil || !stored.Completed() || stored.TimeToComplete() != 5 {
		t.Fatalf("stored response = %+v", stored)
	}

	if len(events.events) != 1 {
		t.Fatalf("events = %v", events.types())
	}
	e := events.events[0]
	if e.channel != "survey_s-1" || e.msgType != EventResponseCompleted {
		t.Fatalf("event = %+v", e)
	}
	if p, ok := e.payload.(ResponseEvent); !ok || p.ResponseID != resp.ID || p.AssignmentID != "a1" {
		t.Fatalf("payload = %+v", e.payload)
	}
}

func TestCompleteResponseRevertsWhenAssignmentFails(t *testing.T) {
	svc, store, events := newResponseFixture()
	survey := store.surveys["s-1"]

	resp := &model.Response{
		UserID:       "u1",
		AssignmentID: "a-missing",
		StartedAt:    testNow.Add(-5 * time.Minute),
		Answers:      []model.Answer{{QuestionID: "q-scale", Value: "8"}, {QuestionID: "q-text", Value: "Good week"}},
	}
	if err := svc.CompleteResponse(context.Background(), survey, resp, testNow); err == nil {
		t.Fatal("expected an error when the assignment cannot be completed")
	}

	stored := store.responses[resp.ID]
	if stored == nil {
		t.Fatal("response was not stored")
	}
	if stored.Completed() {
		t.Fatalf("response left completed without its assignment: %+v", stored)
	}
	if store.users["u1"].LastSurveyResponseAt != nil {
		t.Error("user stamped for a failed completion")
	}
	if len(events.events) != 0 {
		t.Errorf("events = %v, want none", events.types())
	}
}

func TestCompleteResponseRejectsInvalidAnswers(t *testing.T) {
	svc, store, events := newResponseFixture()
	survey := store.surveys["s-1"]

	resp := &model.Response{
		UserID:       "u1",
		AssignmentID: "a1",
		Answers:      []model.Answer{{QuestionID: "q-scale", Value: "11"}, {QuestionID: "q-ghost", Value: "x"}},
	}
	err := svc.CompleteResponse(context.Background(), survey, resp, testNow)
	var ierr *InputError
	if !errors.As(err, &ierr) || ierr.Field != "answers" {
		t.Fatalf("err = %v", err)
	}
	if len(store.responses) != 0 || store.assignments["a1"].Completed || len(events.events) != 0 {
		t.Fatal("rejected response must not change any state")
	}
}

func TestCompleteResponseAnonymousNeedsSession(t *testing.T) {
	svc, store, _ := newResponseFixture()
	survey := store.surveys["s-1"]

	err := svc.CompleteResponse(context.Background(), survey, &model.Response{
		Answers: []model.Answer{{QuestionID: "q-scale", Value: "5"}},
	}, testNow)
	var ierr *InputError
	if !errors.As(err, &ierr) || ierr.Field != "session_id" {
		t.Fatalf("err = %v", err)
	}

	resp := &model.Response{SessionID: "abc", Answers: []model.Answer{{QuestionID: "q-scale", Value: "5"}}}
	if err := svc.CompleteResponse(context.Background(), survey, resp, testNow); err != nil {
		t.Fatalf("anonymous response with session: %v", err)
	}
}

func TestDetachResponse(t *testing.T) {
	svc, store, events := newResponseFixture()
	survey := store.surveys["s-1"]
	resp := &model.Response{UserID: "u1", AssignmentID: "a1", Answers: []model.Answer{{QuestionID: "q-scale", Value: "6"}}}
	if err := svc.CompleteResponse(context.Background(), survey, resp, testNow); err != nil {
		t.Fatalf("CompleteResponse: %v", err)
	}

	if err := svc.DetachResponse(context.Background(), resp.ID); err != nil {
		t.Fatalf("DetachResponse: %v", err)
	}
	a := store.assignments["a1"]
	if a.Completed || a.CompletedAt != nil || a.ResponseID != "" || a.Status() != model.AssignmentNotStarted {
		t.Fatalf("assignment not reverted: %+v", a)
	}
	if store.responses[resp.ID].AssignmentID != "" {
		t.Fatal("response still linked")
	}
	if got := events.types(); len(got) != 2 || got[1] != EventResponseDetached {
		t.Fatalf("events = %v", got)
	}

	if err := svc.DetachResponse(context.Background(), "missing"); !errors.Is(err, ErrResponseNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResetAssignments(t *testing.T) {
	svc, store, events := newResponseFixture()
	survey := store.surveys["s-1"]
	seedResponse(store, survey, seedUser(store, "u2", "Sales"), testNow, "5", "ok")

	res, err := svc.ResetAssignments(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ResetAssignments: %v", err)
	}
	if res.AssignmentsDeleted != 2 || res.ResponsesDeleted != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(store.assignments) != 0 || len(store.responses) != 0 {
		t.Fatal("rows left behind")
	}
	if got := events.types(); len(got) != 1 || got[0] != EventAssignmentsReset {
		t.Fatalf("events = %v", got)
	}
}
