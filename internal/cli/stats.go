package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/srclib-cargo/pkg/observability"
)

// summary is a snapshot of scanStats.
type summary struct {
	workspaces   int
	loadTime     time.Duration
	units        int
	files        int
	dependencies int
	unresolved   int
	overrides    int
	skipped      int
}

// scanStats counts scan events for the end-of-run summary.
type scanStats struct {
	observability.NoopScanHooks

	mu sync.Mutex
	s  summary
}

func (st *scanStats) OnWorkspaceLoad(_ context.Context, _ string, _ int, d time.Duration, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err == nil {
		st.s.workspaces++
	}
	st.s.loadTime += d
}

func (st *scanStats) OnUnitBuilt(_ context.Context, _ string, files, deps int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.units++
	st.s.files += files
	st.s.dependencies += deps
}

func (st *scanStats) OnUnitSkipped(context.Context, string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.skipped++
}

func (st *scanStats) OnDependencyUnresolved(context.Context, string, string, string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.unresolved++
}

func (st *scanStats) OnPathOverride(context.Context, string, string, string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.overrides++
}

func (st *scanStats) snapshot() summary {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.s
	s.loadTime = s.loadTime.Round(time.Millisecond)
	return s
}

// progress renders the live counts shown next to the spinner.
func (st *scanStats) progress() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.s.workspaces == 0 {
		return ""
	}
	return fmt.Sprintf("(%d workspaces, %d units)", st.s.workspaces, st.s.units)
}
