package store

import "errors"

// User-facing guard failures. These abort the mutation with no state change;
// the CLI surfaces them as messages rather than stack traces.
var (
	// ErrNodeDone is returned for any attempt to move a node out of done
	// without an explicit reset. Completed nodes are read-only.
	ErrNodeDone = errors.New("completed nodes are read-only")

	// ErrNotEligible is returned when a node is marked done before all its
	// tasks are finished and its challenge passed.
	ErrNotEligible = errors.New("complete all tasks and pass the challenge before marking as done")

	// ErrNoNode is returned when a roadmap node id does not exist.
	ErrNoNode = errors.New("roadmap node not found")

	// ErrNoTask is returned when a global task id does not exist.
	ErrNoTask = errors.New("task not found")
)
