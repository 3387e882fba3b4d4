package client

import (
	"fmt"
	"time"
)

// TaskFailedError reports a task that reached the failed state. It is
// distinct from TimeoutError so callers can tell "the work failed" apart
// from "we stopped waiting".
type TaskFailedError struct {
	TaskID  string
	Message string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Message)
}

// TimeoutError reports a polling budget that ran out before the task
// reached a terminal state. The task may still be running server-side.
type TimeoutError struct {
	TaskID   string
	Waited   time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s did not finish after %d polls (%s)", e.TaskID, e.Attempts, e.Waited)
}
