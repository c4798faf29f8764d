package node

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/edge"
	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/sensor"
)

// TraceInterval is the minimum period between distance traces.
const TraceInterval = 10 * time.Millisecond

// Sense is the sense stage controller. Per iteration it takes at most one
// reading per channel, runs it through the channel's detector against the
// current threshold and emits the resulting events under the current
// device id.
type Sense struct {
	Holder    *config.Holder
	Detectors []*edge.Detector
	Sink      edge.Sink

	lastTrace time.Time
}

// NewSense creates a Sense with one detector per channel, numbered from 1.
func NewSense(holder *config.Holder, sink edge.Sink, channels int) *Sense {
	s := &Sense{Holder: holder, Sink: sink}
	for ch := 1; ch <= channels; ch++ {
		s.Detectors = append(s.Detectors, edge.NewDetector(ch))
	}
	return s
}

// AddToLoop implements fx.LoopAdder.
func (s *Sense) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StageSense, s)
}

func (s *Sense) detector(channel int) *edge.Detector {
	for _, d := range s.Detectors {
		if d.Channel == channel {
			return d
		}
	}
	return nil
}

// Control implements fx.Controller.
func (s *Sense) Control(cc fx.ControlContext) error {
	seen := make(map[int]bool, len(s.Detectors))
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		r, ok := mc.CurrentMessage().(*sensor.Reading)
		if !ok || seen[r.Channel] {
			return
		}
		mc.MessageTaken()
		d := s.detector(r.Channel)
		if d == nil {
			glog.Warningf("reading from unknown channel %d dropped", r.Channel)
			return
		}
		seen[r.Channel] = true
		cfg := s.Holder.Current()
		ev, fired := d.Feed(r.Distance, cfg.Threshold)
		if !fired {
			return
		}
		glog.V(1).Infof("channel %d %s at %d", ev.Channel, ev.Value, ev.Distance)
		if s.Sink != nil {
			s.Sink.Emit(cfg.DeviceID, ev)
		}
	}))
	s.trace(cc.Time())
	return nil
}

func (s *Sense) trace(now time.Time) {
	if !glog.V(3) || now.Sub(s.lastTrace) < TraceInterval {
		return
	}
	s.lastTrace = now
	args := []interface{}{s.Holder.Current().DeviceID}
	format := "Device ID: %d"
	for _, d := range s.Detectors {
		format += " Distance %d: %d"
		args = append(args, d.Channel, d.LastDistance())
	}
	glog.Infof(format, args...)
}
