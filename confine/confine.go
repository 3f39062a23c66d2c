// Package confine provides confined execution contexts: places where at most
// one task runs at a time, in submission order. A scheduler applies actions
// and notifies receivers only from inside its confiner.
package confine

// Confiner runs tasks one at a time, in the order they were submitted. Run
// may execute the task before returning or queue it for later, but it never
// runs two tasks concurrently and never blocks waiting for other tasks when
// called from inside a task.
type Confiner interface {
	Run(task func())
}

// Func adapts a function to Confiner. The function is responsible for the
// ordering and exclusion guarantees.
type Func func(task func())

// Run calls f(task).
func (f Func) Run(task func()) {
	f(task)
}
