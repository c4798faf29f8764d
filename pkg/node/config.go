package node

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/console"
	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/history"
	"github.com/robotalks/lidargate/pkg/mqtt"
	"github.com/robotalks/lidargate/pkg/netlink"
	"github.com/robotalks/lidargate/pkg/prefs"
	"github.com/robotalks/lidargate/pkg/publish"
	"github.com/robotalks/lidargate/pkg/sensor"
)

// Config provides the process options of a node. Device configuration
// lives in the prefs store instead.
type Config struct {
	Sensors      [Channels]string
	SensorFormat string
	SensorBaud   int

	PrefsPath    string
	PrefsBackend string

	Interface string

	ConsoleAddr   string
	WebsocketAddr string
	Stdin         bool
	DebugTTY      string

	// MQTTBrokerURL e.g. mqtt://host:1883/lidar/
	MQTTBrokerURL string
	NodeName      string

	Influx history.Config

	LinkDelay time.Duration
	Interval  time.Duration
	UDPTOS    int
	UDPTTL    int
}

var defaultConfig = Config{
	SensorFormat: sensor.FormatTFmini,
	SensorBaud:   115200,
	PrefsPath:    "/var/lib/lidargate/prefs.yaml",
	PrefsBackend: prefs.BackendYAML,
	LinkDelay:    DefaultLinkDelay,
	Interval:     fx.DefaultInterval,
}

func init() {
	for i := range defaultConfig.Sensors {
		if val := os.Getenv("LIDAR_SENSOR" + strconv.Itoa(i+1)); val != "" {
			defaultConfig.Sensors[i] = val
		}
	}
	if val := os.Getenv("LIDAR_SENSOR_FORMAT"); val != "" {
		defaultConfig.SensorFormat = val
	}
	if val := os.Getenv("LIDAR_PREFS"); val != "" {
		defaultConfig.PrefsPath = val
	}
	if val := os.Getenv("LIDAR_PREFS_BACKEND"); val != "" {
		defaultConfig.PrefsBackend = val
	}
	if val := os.Getenv("LIDAR_IFACE"); val != "" {
		defaultConfig.Interface = val
	}
	if val := os.Getenv("LIDAR_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("LIDAR_NODE"); val != "" {
		defaultConfig.NodeName = val
	}
	if val := os.Getenv("LIDAR_INFLUX_URL"); val != "" {
		defaultConfig.Influx.URL = val
	}
	if val := os.Getenv("LIDAR_INFLUX_TOKEN"); val != "" {
		defaultConfig.Influx.Token = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	for i := range c.Sensors {
		name := "sensor" + strconv.Itoa(i+1)
		flag.StringVar(&c.Sensors[i], name, c.Sensors[i], fmt.Sprintf("Serial device or capture file of sensor %d.", i+1))
	}
	flag.StringVar(&c.SensorFormat, "sensor-format", c.SensorFormat, "Sensor stream format: tfmini or ascii.")
	flag.IntVar(&c.SensorBaud, "sensor-baud", c.SensorBaud, "Sensor serial baud rate.")
	flag.StringVar(&c.PrefsPath, "prefs", c.PrefsPath, "Preferences file.")
	flag.StringVar(&c.PrefsBackend, "prefs-backend", c.PrefsBackend, "Preferences backend: yaml, sqlite or memory.")
	flag.StringVar(&c.Interface, "iface", c.Interface, "Network interface reported by IP and MAC.")
	flag.StringVar(&c.ConsoleAddr, "console", c.ConsoleAddr, "Serve the line console on this TCP address.")
	flag.StringVar(&c.WebsocketAddr, "ws", c.WebsocketAddr, "Serve the websocket console on this address.")
	flag.BoolVar(&c.Stdin, "stdin", c.Stdin, "Serve the line console on stdin/stdout.")
	flag.StringVar(&c.DebugTTY, "debug-tty", c.DebugTTY, "Debug serial port answering i and m keys.")
	flag.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&c.NodeName, "node", c.NodeName, "Node name, defaults to one derived from the machine id.")
	flag.StringVar(&c.Influx.URL, "influx-url", c.Influx.URL, "InfluxDB URL for event history.")
	flag.StringVar(&c.Influx.Token, "influx-token", c.Influx.Token, "InfluxDB token.")
	flag.StringVar(&c.Influx.Org, "influx-org", c.Influx.Org, "InfluxDB organization.")
	flag.StringVar(&c.Influx.Bucket, "influx-bucket", c.Influx.Bucket, "InfluxDB bucket.")
	flag.DurationVar(&c.LinkDelay, "link-delay", c.LinkDelay, "Wait before starting the loop.")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Poll loop interval.")
	flag.IntVar(&c.UDPTOS, "udp-tos", c.UDPTOS, "IP TOS of event datagrams.")
	flag.IntVar(&c.UDPTTL, "udp-ttl", c.UDPTTL, "IP TTL of event datagrams.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// OpenStore opens the configured preferences engine. The returned closer
// may be nil.
func (c *Config) OpenStore() (config.Store, func() error, error) {
	engine, err := prefs.Open(c.PrefsBackend, c.PrefsPath)
	if err != nil {
		return nil, nil, err
	}
	var closeFn func() error
	if closer, ok := engine.(interface{ Close() error }); ok {
		closeFn = closer.Close
	}
	return config.NewPrefsStore(engine), closeFn, nil
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// NewNode creates a Node with everything the config enables.
func (c *Config) NewNode() (*Node, error) {
	store, closeStore, err := c.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	holder, err := config.NewHolder(store)
	if err != nil {
		glog.Warningf("loading config: %v, using defaults for unreadable keys", err)
	}
	LogLoaded(holder.Current())

	link := &netlink.InterfaceLink{Name: c.Interface}
	pub, err := publish.Listen(holder, publish.Options{TOS: c.UDPTOS, TTL: c.UDPTTL})
	if err != nil {
		return nil, err
	}

	n := New(holder, link, pub)
	n.LinkDelay = c.LinkDelay
	n.Loop.Interval = c.Interval
	if closeStore != nil {
		n.AddCloser(closeFunc(closeStore))
	}
	n.AddCloser(pub)

	if err := c.addSensors(n); err != nil {
		n.close()
		return nil, err
	}
	if err := c.addTransports(n); err != nil {
		n.close()
		return nil, err
	}
	return n, nil
}

func (c *Config) addSensors(n *Node) error {
	for i, path := range c.Sensors {
		if path == "" {
			continue
		}
		parser, err := sensor.NewParser(c.SensorFormat)
		if err != nil {
			return err
		}
		r, err := sensor.Open(path, c.SensorBaud)
		if err != nil {
			return fmt.Errorf("sensor %d: %w", i+1, err)
		}
		n.AddCloser(r)
		n.Add(sensor.NewFeed(i+1, r, parser))
		glog.Infof("sensor %d: %s (%s)", i+1, path, c.SensorFormat)
	}
	return nil
}

func (c *Config) addTransports(n *Node) error {
	if c.DebugTTY != "" {
		tty, err := sensor.Open(c.DebugTTY, c.SensorBaud)
		if err != nil {
			return fmt.Errorf("debug tty: %w", err)
		}
		n.AddCloser(tty)
		var out io.Writer = os.Stdout
		if w, ok := tty.(io.Writer); ok {
			out = w
		}
		n.Add(&console.DebugPort{In: tty, Out: out, Link: n.Link})
	}
	if c.Stdin {
		n.Add(&console.Stdio{In: os.Stdin, Out: os.Stdout})
	}
	if c.ConsoleAddr != "" {
		n.Add(console.NewTCPServer(c.ConsoleAddr))
	}
	if c.WebsocketAddr != "" {
		n.Add(&console.WebsocketServer{Addr: c.WebsocketAddr})
	}
	if c.MQTTBrokerURL != "" {
		name := c.NodeName
		if name == "" {
			name = mqtt.DefaultNodeName()
		}
		mn, err := mqtt.Dial(c.MQTTBrokerURL, name)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		n.Add(mn, mqtt.NewConsole(name, mn.Queue))
		n.AddSink(&mqtt.Mirror{Node: name, Pub: mn.Queue})
		glog.Infof("mqtt node %s on %s", name, c.MQTTBrokerURL)
	}
	if c.Influx.URL != "" {
		rec := history.Open(c.Influx)
		n.AddCloser(rec)
		n.AddSink(rec)
	}
	return nil
}

// MustNewNode creates a Node and fails on error.
func (c *Config) MustNewNode() *Node {
	n, err := c.NewNode()
	if err != nil {
		log.Fatalln(err)
	}
	return n
}
