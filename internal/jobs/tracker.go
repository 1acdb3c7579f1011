package jobs

import (
	"sync"
	"time"

	"survai/internal/model"
	"survai/internal/service"
)

// Tracker publishes the progress of one job to its survey/operation channel.
// Percentages never go backwards; error events are sent as is.
type Tracker struct {
	jobID    string
	surveyID string
	op       model.Operation
	channel  string
	events   service.Broadcaster
	now      func() time.Time

	mu   sync.Mutex
	last int
	done bool
}

func newTracker(jobID, surveyID string, op model.Operation, events service.Broadcaster, now func() time.Time) *Tracker {
	if events == nil {
		events = service.NopBroadcaster{}
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		jobID:    jobID,
		surveyID: surveyID,
		op:       op,
		channel:  model.ChannelName(surveyID, op),
		events:   events,
		now:      now,
	}
}

func (t *Tracker) JobID() string { return t.jobID }

// Percentage is the highest percentage published so far
func (t *Tracker) Percentage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Done reports whether a completed or error event was published
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *Tracker) clamp(pct int) int {
	if pct > 100 {
		pct = 100
	}
	if pct < t.last {
		pct = t.last
	}
	t.last = pct
	return pct
}

func (t *Tracker) publish(ev model.ProgressEvent) {
	ev.JobID = t.jobID
	ev.SurveyID = t.surveyID
	ev.Operation = t.op
	ev.Target = t.op.Target()
	ev.Timestamp = t.now().UTC()
	t.events.Broadcast(t.channel, string(ev.Status), ev)
}

func (t *Tracker) Queued() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publish(model.ProgressEvent{Status: model.ProgressQueued, Message: "Queued", Percentage: t.clamp(0)})
}

// Progress replaces the status region with msg at pct
func (t *Tracker) Progress(pct int, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.publish(model.ProgressEvent{Status: model.ProgressRunning, Message: msg, Percentage: t.clamp(pct)})
}

// Step reports current of total items done, as a percentage of total
func (t *Tracker) Step(current, total int, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	t.publish(model.ProgressEvent{
		Status:     model.ProgressRunning,
		Message:    msg,
		Percentage: t.clamp(pct),
		Current:    current,
		Total:      total,
	})
}

// Item appends a notification without replacing the status region
func (t *Tracker) Item(current, total int, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.publish(model.ProgressEvent{
		Status:     model.ProgressItem,
		Message:    msg,
		Percentage: t.last,
		Current:    current,
		Total:      total,
	})
}

// Complete publishes the final success event followed by a refresh hint
func (t *Tracker) Complete(msg string, result interface{}, refreshAfter time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.publish(model.ProgressEvent{Status: model.ProgressCompleted, Message: msg, Percentage: t.clamp(100), Result: result})
	t.publish(model.ProgressEvent{
		Status:         model.ProgressRefresh,
		Percentage:     100,
		RefreshAfterMS: int(refreshAfter / time.Millisecond),
	})
}

// Fail publishes a terminal error. Only the first terminal event is sent.
func (t *Tracker) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.publish(model.ProgressEvent{Status: model.ProgressError, Message: msg, Percentage: t.last})
}
