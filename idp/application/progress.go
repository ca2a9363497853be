package application

import "sync"

type Stage int

const (
	StageIdle Stage = iota
	StageStarted
	StageSignature
	StageFiles
	StageSent
	StageUploading
	StageResponse
	StageDone
)

var stageNames = [...]string{"idle", "started", "signature", "files", "sent", "uploading", "response", "done"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Milestones of a submission, in percent. The transfer share between
// sent and uploaded grows with the bytes actually read by the transport.
// The numbers are approximate and meant for display only.
const (
	PercentStarted   = 10
	PercentSignature = 30
	PercentFiles     = 50
	PercentSent      = 60
	PercentUploaded  = 90
	PercentResponse  = 95
	PercentDone      = 100
)

type Progress struct {
	Stage   Stage
	Percent int
}

type ProgressFunc func(Progress)

// tracker reports monotonically growing progress until it is finished.
// Updates come from the submitting goroutine and from the transport while it
// reads the body; deliver keeps the callbacks in the order of the updates.
type tracker struct {
	fn ProgressFunc

	deliver sync.Mutex

	mu     sync.Mutex
	last   int
	closed bool
}

func newTracker(fn ProgressFunc) *tracker {
	return &tracker{fn: fn}
}

func (t *tracker) report(stage Stage, pct int) {
	t.deliver.Lock()
	defer t.deliver.Unlock()

	t.mu.Lock()
	if t.closed || pct <= t.last {
		t.mu.Unlock()
		return
	}
	t.last = pct
	if pct == PercentDone {
		t.closed = true
	}
	t.mu.Unlock()

	if t.fn != nil {
		t.fn(Progress{Stage: stage, Percent: pct})
	}
}

// transfer maps uploaded bytes onto the sent..uploaded range.
func (t *tracker) transfer(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := PercentSent + int(int64(PercentUploaded-PercentSent)*sent/total)
	t.report(StageUploading, pct)
}

// reset reports 0 once and ignores any later update.
func (t *tracker) reset() {
	t.deliver.Lock()
	defer t.deliver.Unlock()

	t.mu.Lock()
	t.closed = true
	t.last = 0
	t.mu.Unlock()

	if t.fn != nil {
		t.fn(Progress{Stage: StageIdle, Percent: 0})
	}
}

func (t *tracker) percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
