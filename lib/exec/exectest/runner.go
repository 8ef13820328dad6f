// Package exectest provides a scriptable exec.Runner for tests.
package exectest

import (
	"context"
	"strings"
	"sync"

	"github.com/onkernel/appliancectl/lib/exec"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a single space-separated line.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Response is what a scripted invocation returns.
type Response struct {
	Stdout string
	Stderr string
	Code   int
	Err    error
}

type rule struct {
	contains string
	respond  func(Call) Response
}

// Runner records every call and answers from registered rules.
// The last registered matching rule wins, so tests can override a default
// response mid-scenario. Calls matching no rule exit 0 with no output.
type Runner struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// New creates an empty Runner.
func New() *Runner {
	return &Runner{}
}

var _ exec.Runner = (*Runner)(nil)

// On answers calls whose rendered command line contains substr.
func (r *Runner) On(substr string, resp Response) *Runner {
	return r.OnFunc(substr, func(Call) Response { return resp })
}

// OnFunc is like On but computes the response per call.
func (r *Runner) OnFunc(substr string, fn func(Call) Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{contains: substr, respond: fn})
	return r
}

// Run implements exec.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*exec.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	var respond func(Call) Response
	line := call.String()
	for i := len(r.rules) - 1; i >= 0; i-- {
		if strings.Contains(line, r.rules[i].contains) {
			respond = r.rules[i].respond
			break
		}
	}
	r.mu.Unlock()

	resp := Response{}
	if respond != nil {
		resp = respond(call)
	}

	result := &exec.Result{
		Command: append([]string{name}, args...),
		Stdout:  resp.Stdout,
		Stderr:  resp.Stderr,
	}
	result.Code = resp.Code
	if resp.Err != nil {
		return result, resp.Err
	}
	return result, nil
}

// Calls returns a copy of all recorded calls in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsContaining returns recorded calls whose command line contains substr.
func (r *Runner) CallsContaining(substr string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if strings.Contains(c.String(), substr) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps the rules.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
