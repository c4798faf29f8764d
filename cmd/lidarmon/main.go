package main

import (
	"flag"
	"log"
	"net"
	"os"

	"github.com/robotalks/lidargate/pkg/mqtt"
	"github.com/robotalks/lidargate/pkg/osc"
)

var (
	oscAddr = ":7000"
	mqttURL = ""
)

func init() {
	if val := os.Getenv("LIDAR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&oscAddr, "osc", oscAddr, "UDP address to receive OSC events, empty to disable.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL to watch mirrored events, empty to disable.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if oscAddr == "" && mqttURL == "" {
		log.Fatalln("nothing to monitor, specify -osc or -mqtt")
	}
	if mqttURL != "" {
		watchMQTT(mqttURL)
	}
	if oscAddr != "" {
		watchOSC(oscAddr)
	}
	<-(chan struct{})(nil)
}

func watchMQTT(url string) {
	q, err := mqtt.NewQueueFromURL(url)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	q.Sub("+/"+mqtt.TopicStatus, mqtt.Handler(func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, string(payload))
	}))
	q.Sub("+/"+mqtt.TopicEvents, mqtt.Handler(func(topic string, payload []byte) {
		ev, err := mqtt.DecodeEvent(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, ev.String())
	}))
}

func watchOSC(addr string) {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("OSC listening on %s", conn.LocalAddr())
	go func() {
		buf := make([]byte, 1500)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				log.Fatalln(err)
			}
			msg, err := osc.Parse(buf[:n])
			if err != nil {
				log.Printf("%s: bad packet: %v", from, err)
				continue
			}
			v, _ := osc.Value(msg)
			log.Printf("%s: %s %d", from, msg.Address, v)
		}
	}()
}
