package jobs

import (
	"context"
	"sync"
	"time"

	"survai/internal/model"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type sentEvent struct {
	channel string
	msgType string
	event   model.ProgressEvent
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) Broadcast(channel, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, _ := payload.(model.ProgressEvent)
	b.events = append(b.events, sentEvent{channel: channel, msgType: msgType, event: ev})
}

func (b *recordingBroadcaster) snapshot() []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]sentEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *recordingBroadcaster) statuses() []model.ProgressStatus {
	var out []model.ProgressStatus
	for _, e := range b.snapshot() {
		out = append(out, e.event.Status)
	}
	return out
}

func (b *recordingBroadcaster) percentages() []int {
	var out []int
	for _, e := range b.snapshot() {
		if e.event.Status == model.ProgressRunning {
			out = append(out, e.event.Percentage)
		}
	}
	return out
}

// waitFor polls until the broadcaster has seen a terminal event
func (b *recordingBroadcaster) waitFor(status model.ProgressStatus, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, e := range b.snapshot() {
			if e.event.Status == status {
				return true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

type memLock struct {
	mu      sync.Mutex
	holders map[string]string
}

func newMemLock() *memLock {
	return &memLock{holders: map[string]string{}}
}

func (l *memLock) key(surveyID string, op model.Operation) string {
	return string(op) + ":" + surveyID
}

func (l *memLock) Acquire(_ context.Context, surveyID string, op model.Operation, jobID string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := l.key(surveyID, op)
	if _, ok := l.holders[k]; ok {
		return false, nil
	}
	l.holders[k] = jobID
	return true, nil
}

func (l *memLock) Release(_ context.Context, surveyID string, op model.Operation, jobID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := l.key(surveyID, op)
	if l.holders[k] == jobID {
		delete(l.holders, k)
	}
	return nil
}

func (l *memLock) Holder(_ context.Context, surveyID string, op model.Operation) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders[l.key(surveyID, op)], nil
}

// funcJob runs fn as a data generation job
type funcJob struct {
	id       string
	surveyID string
	fn       func(ctx context.Context, t *Tracker) error
}

func (j *funcJob) ID() string                 { return j.id }
func (j *funcJob) SurveyID() string           { return j.surveyID }
func (j *funcJob) Operation() model.Operation { return model.OpDataGeneration }
func (j *funcJob) Ceiling() time.Duration     { return time.Minute }
func (j *funcJob) Run(ctx context.Context, t *Tracker) error {
	return j.fn(ctx, t)
}
