package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop and consumed by a stage.
type Message interface{}

// Stage identifies a slot in the fixed per-iteration order.
type Stage int

// Stages run in this order on every iteration.
const (
	// StageConsoleByte polls single-byte debug input.
	StageConsoleByte Stage = iota
	// StageSense pulls sensor readings through the edge detectors.
	StageSense
	// StageCommand dispatches pending console commands.
	StageCommand

	// NumStages is the total number of stages.
	NumStages int = iota
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageConsoleByte:
		return "console-byte"
	case StageSense:
		return "sense"
	case StageCommand:
		return "command"
	}
	return "unknown"
}

// Controller is the logic run at a stage once per iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Stage gets the stage currently running.
	Stage() Stage
	// Messages retrieves messages pending at the start of this iteration.
	Messages() MessageStore

	LoopControl
}

// LoopControl exposes access to the running loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration to run immediately
	// after the current one instead of waiting for the interval.
	TriggerNext()
}

// MessageStore provides access to messages of the current iteration.
type MessageStore interface {
	// ProcessMessages uses a processor to examine messages in order.
	ProcessMessages(MessageProcessor)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for current message.
type MessageProcessingContext interface {
	// CurrentMessage gets the current message being processed.
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing indicates no need to examine further messages.
	StopProcessing()
}
