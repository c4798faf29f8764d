package sensor

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/lidargate/pkg/framework"
)

// Feed reads one sensor and posts a *Reading to the loop per frame.
type Feed struct {
	Channel int
	Reader  io.Reader
	Parser  FrameParser
}

// NewFeed creates a Feed.
func NewFeed(channel int, r io.Reader, parser FrameParser) *Feed {
	return &Feed{Channel: channel, Reader: r, Parser: parser}
}

// AddToLoop implements fx.LoopAdder.
func (f *Feed) AddToLoop(l *fx.Loop) {
	l.AddRunnable(f)
}

// Run implements fx.Runnable. It returns nil at the end of the stream.
func (f *Feed) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.readLoop(subCtx, dataCh, errCh)
	for {
		select {
		case data := <-dataCh:
			posted := false
			for _, b := range data {
				if r, ok := f.Parser.Parse(b); ok {
					r.Channel = f.Channel
					loopCtl.PostMessage(&r)
					posted = true
				}
			}
			if posted {
				loopCtl.TriggerNext()
			}
		case err := <-errCh:
			if errors.Is(err, io.EOF) {
				glog.Infof("sensor %d: end of stream", f.Channel)
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *Feed) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := f.Reader.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case dataCh <- data:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
