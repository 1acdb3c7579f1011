package jobs

import (
	"reflect"
	"testing"
	"time"

	"survai/internal/model"
)

func TestTrackerPercentagesNeverDecrease(t *testing.T) {
	b := &recordingBroadcaster{}
	tr := newTracker("job-1", "s-1", model.OpSentimentAnalysis, b, fixedClock)

	tr.Progress(20, "a")
	tr.Progress(10, "b")
	tr.Progress(150, "c")

	want := []int{20, 20, 100}
	if got := b.percentages(); !reflect.DeepEqual(got, want) {
		t.Errorf("percentages = %v, want %v", got, want)
	}
}

func TestTrackerEventEnvelope(t *testing.T) {
	b := &recordingBroadcaster{}
	tr := newTracker("job-1", "s-1", model.OpSentimentAnalysis, b, fixedClock)
	tr.Progress(5, "Starting")

	events := b.snapshot()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.channel != "survey_s-1_sentiment_analysis" {
		t.Errorf("channel = %q", e.channel)
	}
	if e.msgType != string(model.ProgressRunning) {
		t.Errorf("msgType = %q", e.msgType)
	}
	if e.event.JobID != "job-1" || e.event.SurveyID != "s-1" || !e.event.Timestamp.Equal(testNow) {
		t.Errorf("event = %+v", e.event)
	}
	if e.event.Target != model.OpSentimentAnalysis.Target() {
		t.Errorf("target = %q", e.event.Target)
	}
}

func TestTrackerDataGenerationSteps(t *testing.T) {
	b := &recordingBroadcaster{}
	tr := newTracker("job-1", "s-1", model.OpDataGeneration, b, fixedClock)

	tr.Progress(0, "Starting data generation...")
	tr.Step(10, 15, "Created 10 assignments")
	for i := 1; i <= 5; i++ {
		tr.Item(i, 5, "response")
		tr.Step(10+i, 15, "generated")
	}

	want := []int{0, 66, 73, 80, 86, 93, 100}
	if got := b.percentages(); !reflect.DeepEqual(got, want) {
		t.Errorf("percentages = %v, want %v", got, want)
	}
	for _, e := range b.snapshot() {
		if e.event.Status == model.ProgressItem && e.event.Replaces() {
			t.Errorf("item event should not replace the status region")
		}
	}
}

func TestTrackerComplete(t *testing.T) {
	b := &recordingBroadcaster{}
	tr := newTracker("job-1", "s-1", model.OpDataGeneration, b, fixedClock)

	tr.Progress(40, "half")
	tr.Complete("done", map[string]int{"n": 1}, 2*time.Second)
	tr.Progress(50, "late")
	tr.Fail("late failure")

	want := []model.ProgressStatus{model.ProgressRunning, model.ProgressCompleted, model.ProgressRefresh}
	if got := b.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	events := b.snapshot()
	if events[1].event.Percentage != 100 || events[1].event.Result == nil {
		t.Errorf("completed event = %+v", events[1].event)
	}
	if events[2].event.RefreshAfterMS != 2000 {
		t.Errorf("refresh after = %d, want 2000", events[2].event.RefreshAfterMS)
	}
	if !tr.Done() {
		t.Error("tracker should be done")
	}
}

func TestTrackerFailKeepsLastPercentage(t *testing.T) {
	b := &recordingBroadcaster{}
	tr := newTracker("job-1", "s-1", model.OpSentimentAnalysis, b, fixedClock)

	tr.Progress(35, "working")
	tr.Fail("boom")
	tr.Fail("again")
	tr.Complete("too late", nil, 0)

	events := b.snapshot()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	last := events[1].event
	if last.Status != model.ProgressError || last.Message != "boom" || last.Percentage != 35 {
		t.Errorf("error event = %+v", last)
	}
	if !last.Terminal() {
		t.Error("error event should be terminal")
	}
}
