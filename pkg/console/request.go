// Package console carries command lines from the console transports to the
// command stage of the poll loop and the replies back.
package console

import (
	"context"

	fx "github.com/robotalks/lidargate/pkg/framework"
)

// Request is one command line waiting for the command stage.
type Request struct {
	Source string
	Line   string

	replyCh chan []string
}

// NewRequest creates a Request.
func NewRequest(source, line string) *Request {
	return &Request{Source: source, Line: line, replyCh: make(chan []string, 1)}
}

// Reply delivers the response. Only the first reply is kept.
func (r *Request) Reply(lines []string) {
	select {
	case r.replyCh <- lines:
	default:
	}
}

// Wait blocks until the reply arrives or ctx is done.
func (r *Request) Wait(ctx context.Context) ([]string, error) {
	select {
	case lines := <-r.replyCh:
		return lines, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit posts line to the loop found in ctx and waits for the reply.
func Submit(ctx context.Context, source, line string) ([]string, error) {
	req := NewRequest(source, line)
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(req)
	loopCtl.TriggerNext()
	return req.Wait(ctx)
}

// Handler executes a command line.
type Handler interface {
	Handle(line string) []string
}

// Dispatcher is the command stage controller. It executes at most one
// Request per iteration; later ones wait for the next iteration.
type Dispatcher struct {
	Handler Handler
}

// AddToLoop implements fx.LoopAdder.
func (d *Dispatcher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StageCommand, d)
}

// Control implements fx.Controller.
func (d *Dispatcher) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		req, ok := mc.CurrentMessage().(*Request)
		if !ok {
			return
		}
		mc.MessageTaken()
		mc.StopProcessing()
		req.Reply(d.Handler.Handle(req.Line))
	}))
	return nil
}
