package telemetry

import (
	"strings"
	"sync"
	"testing"
)

type ReportLevel int

const (
	LevelBroken ReportLevel = iota
	LevelWarning
	LevelDebug
	LevelCount
)

// Report is a single call made against a TestAPI.
type Report struct {
	Level  ReportLevel
	Id     string
	Params []any
	Count  int64
}

// TestAPI records every report so tests can assert on them. It forwards to
// t.Log so failing tests still show what was reported.
type TestAPI struct {
	t       testing.TB
	mutex   sync.Mutex
	reports []Report
}

func NewTestAPI(t testing.TB) *TestAPI {
	return &TestAPI{t: t}
}

func (a *TestAPI) record(r Report) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.reports = append(a.reports, r)
}

func (a *TestAPI) ReportBroken(id string, params ...any) {
	a.t.Log("broken:", id, params)
	a.record(Report{Level: LevelBroken, Id: id, Params: params})
}

func (a *TestAPI) ReportWarning(id string, params ...any) {
	a.t.Log("warning:", id, params)
	a.record(Report{Level: LevelWarning, Id: id, Params: params})
}

func (a *TestAPI) ReportDebug(msg string, params ...any) {
	a.record(Report{Level: LevelDebug, Id: msg, Params: params})
}

func (a *TestAPI) ReportCount(id string, count int64) {
	a.record(Report{Level: LevelCount, Id: id, Count: count})
}

// Reports returns a copy of every report at the given level whose id contains
// `substr`.
func (a *TestAPI) Reports(level ReportLevel, substr string) []Report {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var out []Report
	for _, r := range a.reports {
		if r.Level == level && strings.Contains(r.Id, substr) {
			out = append(out, r)
		}
	}
	return out
}
