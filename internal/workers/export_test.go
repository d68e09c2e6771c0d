// internal/workers/export_test.go
package workers

import "time"

// SetClock replaces the clock used to pick the default report day
func (p *ReportProcessor) SetClock(now func() time.Time) {
	p.now = now
}
