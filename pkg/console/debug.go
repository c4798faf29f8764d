package console

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/netlink"
)

// KeyPress is a single byte read from the debug port.
type KeyPress struct {
	Key byte
}

// DebugPort answers single key queries on a debug serial port: 'i' prints
// the live IP address, 'm' the MAC address. Other keys are ignored.
type DebugPort struct {
	In   io.Reader
	Out  io.Writer
	Link netlink.Link
}

// AddToLoop implements fx.LoopAdder.
func (d *DebugPort) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StageConsoleByte, d)
	if d.In != nil {
		l.AddRunnable(fx.NamedRun("debug-port", &debugReader{r: d.In}))
	}
}

// Control implements fx.Controller. One key is handled per iteration.
func (d *DebugPort) Control(cc fx.ControlContext) (err error) {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		key, ok := mc.CurrentMessage().(*KeyPress)
		if !ok {
			return
		}
		mc.MessageTaken()
		mc.StopProcessing()
		switch key.Key {
		case 'i':
			_, err = fmt.Fprintf(d.Out, "ETH IP: %s\n", netlink.DescribeIP(d.Link))
		case 'm':
			_, err = fmt.Fprintf(d.Out, "ETH MAC: %s\n", netlink.DescribeMAC(d.Link))
		}
	}))
	return
}

type debugReader struct {
	r io.Reader
}

func (d *debugReader) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := d.r.Read(buf)
			for _, b := range buf[:n] {
				loopCtl.PostMessage(&KeyPress{Key: b})
			}
			if n > 0 {
				loopCtl.TriggerNext()
			}
			if err != nil {
				errCh <- err
				return
			}
		}
	}()
	select {
	case err := <-errCh:
		if err == io.EOF {
			glog.Info("debug port closed")
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
