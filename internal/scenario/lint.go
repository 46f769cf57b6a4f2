package scenario

import (
	"fmt"

	"github.com/comalice/asynclanes/internal/primitives"
)

// Finding is an ordering problem in an event log. The engine replays such
// logs anyway; findings only point at steps that will not display as intended.
type Finding struct {
	Index     int
	Operation string
	Message   string
}

func (f Finding) String() string {
	return fmt.Sprintf("event %d (%s): %s", f.Index, f.Operation, f.Message)
}

// Lint checks the ordering a log must follow because the engine does not
// track dependencies between operations:
//   - a join continuation is scheduled only after every joined operation
//     completed;
//   - a plain operation is scheduled only after it completed;
//   - an automatic resume refers to an operation that was already scheduled.
func Lint(events []primitives.Event) []Finding {
	var (
		findings  []Finding
		completed = map[string]bool{}
		scheduled = map[string]bool{}
	)
	for i, evt := range events {
		switch ev := evt.(type) {
		case primitives.IOComplete:
			completed[ev.Operation] = true
		case primitives.WorkComplete:
			completed[ev.Operation] = true
		case primitives.ScheduleContinuation:
			if len(ev.Joins) > 0 {
				for _, j := range ev.Joins {
					if !completed[j] {
						findings = append(findings, Finding{
							Index:     i,
							Operation: ev.Operation,
							Message:   fmt.Sprintf("join continuation scheduled before %s completed", j),
						})
					}
				}
			} else if !completed[ev.Operation] {
				findings = append(findings, Finding{
					Index:     i,
					Operation: ev.Operation,
					Message:   "continuation scheduled before the operation completed",
				})
			}
			scheduled[ev.Operation] = true
		case primitives.Resume:
			if ev.Lane == primitives.LaneAuto && ev.Operation != "" && !scheduled[ev.Operation] {
				findings = append(findings, Finding{
					Index:     i,
					Operation: ev.Operation,
					Message:   "automatic resume of an operation that was never scheduled",
				})
			}
		}
	}
	return findings
}
