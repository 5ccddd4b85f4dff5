package suite

// Listener observes a run. Calls happen on the runner goroutine, in order.
type Listener interface {
	SuiteStarted(path string)
	TestFinished(path string, result RunResult)
	HookFailed(path string, failure HookFailure)
}

type nopListener struct{}

func (nopListener) SuiteStarted(string)            {}
func (nopListener) TestFinished(string, RunResult) {}
func (nopListener) HookFailed(string, HookFailure) {}
