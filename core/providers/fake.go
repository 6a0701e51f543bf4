package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluxion-eng/fluxion/core/jsonx"
)

// Fake is a scripted Provider for tests. Each call to Invoke consumes the
// next scripted reply (or calls the script function when set) and records
// the request. The last scripted reply is repeated once the script is
// exhausted.
type Fake struct {
	mu       sync.Mutex
	steps    []fakeStep
	next     int
	script   func(call int, req *Request) (*Reply, error)
	requests []*Request
}

type fakeStep struct {
	reply *Reply
	err   error
}

// NewFake builds a fake provider from a reply script.
func NewFake(replies ...*Reply) *Fake {
	f := &Fake{}
	for _, r := range replies {
		f.steps = append(f.steps, fakeStep{reply: r})
	}
	return f
}

// NewFakeScript builds a fake provider driven by a function of the call
// index and request.
func NewFakeScript(script func(call int, req *Request) (*Reply, error)) *Fake {
	return &Fake{script: script}
}

// TextReply is a convenience constructor for a plain assistant reply.
func TextReply(content string) *Reply { return &Reply{Content: content} }

// JSONReply builds a reply whose Parsed field is populated the way a real
// provider would populate it in ModeJSON.
func JSONReply(content string) *Reply {
	r := &Reply{Content: content}
	if parsed, err := jsonx.ExtractRaw(content); err != nil {
		r.ParseError = err.Error()
	} else {
		r.Parsed = parsed
	}
	return r
}

// ToolCallReply builds a reply carrying tool calls.
func ToolCallReply(content string, calls ...ToolCall) *Reply {
	return &Reply{Content: content, ToolCalls: calls}
}

// FailWith schedules err for the call at the current end of the script.
func (f *Fake) FailWith(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, fakeStep{err: err})
	return f
}

// Append adds a reply to the end of the script.
func (f *Fake) Append(r *Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, fakeStep{reply: r})
	return f
}

// Name identifies the fake in logs.
func (f *Fake) Name() string { return "fake" }

// Close implements Provider.
func (f *Fake) Close() error { return nil }

// Invoke returns the next scripted reply.
func (f *Fake) Invoke(ctx context.Context, req *Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	reqCopy := *req
	reqCopy.Messages = append([]Message(nil), req.Messages...)
	f.requests = append(f.requests, &reqCopy)
	call := len(f.requests) - 1

	if f.script != nil {
		return f.script(call, req)
	}
	if len(f.steps) == 0 {
		return nil, fmt.Errorf("fake: no scripted replies")
	}

	idx := f.next
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	} else {
		f.next++
	}
	step := f.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	reply := step.reply
	if reply == nil {
		return nil, fmt.Errorf("fake: nil scripted reply")
	}

	// Mirror the real adapters: populate Parsed in JSON mode.
	out := *reply
	if req.Mode == ModeJSON && out.Parsed == nil && out.ParseError == "" {
		if parsed, err := jsonx.ExtractRaw(out.Content); err != nil {
			out.ParseError = err.Error()
		} else {
			out.Parsed = parsed
		}
	}
	return &out, nil
}

// Calls returns the number of invocations so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Request returns the recorded request for call i.
func (f *Fake) Request(i int) *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.requests) {
		return nil
	}
	return f.requests[i]
}

// LastRequest returns the most recent recorded request.
func (f *Fake) LastRequest() *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}
