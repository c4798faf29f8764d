// Package history records edge events into InfluxDB.
package history

import (
	"context"
	"strconv"
	"time"

	"github.com/golang/glog"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/robotalks/lidargate/pkg/edge"
)

// Measurement is the InfluxDB measurement edge events are written to.
const Measurement = "lidar_edge"

const pingTimeout = 2 * time.Second

// Config locates the InfluxDB bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	// FlushInterval in milliseconds, 0 uses the client default.
	FlushInterval uint
}

// Recorder writes one point per edge event through the non-blocking
// write API. Write failures are logged and dropped.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	done     chan struct{}
}

// Open creates a Recorder. An unreachable server is only reported; points
// are buffered by the client and retried.
func Open(cfg Config) *Recorder {
	opts := influxdb2.DefaultOptions()
	if cfg.FlushInterval > 0 {
		opts.SetFlushInterval(cfg.FlushInterval)
	}
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if ok, err := client.Ping(ctx); err != nil || !ok {
		glog.Warningf("influxdb %s not reachable: %v", cfg.URL, err)
	}

	r := &Recorder{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		done:     make(chan struct{}),
	}
	go r.logErrors(r.writeAPI.Errors())
	return r
}

func (r *Recorder) logErrors(errorsCh <-chan error) {
	for {
		select {
		case err := <-errorsCh:
			glog.V(1).Infof("influxdb write: %v", err)
		case <-r.done:
			return
		}
	}
}

// Point builds the point for an event.
func Point(deviceID uint8, ev edge.Event, ts time.Time) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{
			"device":  strconv.Itoa(int(deviceID)),
			"channel": strconv.Itoa(ev.Channel),
		},
		map[string]interface{}{
			"value":    int64(ev.Value),
			"distance": int64(ev.Distance),
		},
		ts)
}

// Emit implements edge.Sink.
func (r *Recorder) Emit(deviceID uint8, ev edge.Event) {
	r.writeAPI.WritePoint(Point(deviceID, ev, time.Now()))
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() error {
	r.writeAPI.Flush()
	close(r.done)
	r.client.Close()
	return nil
}
