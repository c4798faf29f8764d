package command

import (
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/netlink"
)

// InvalidCommand is the response to an unrecognized line.
const InvalidCommand = "Invalid command."

// Handler executes commands against the live configuration.
type Handler struct {
	Config *config.Holder
	Link   netlink.Link
}

// NewHandler creates a Handler.
func NewHandler(holder *config.Holder, link netlink.Link) *Handler {
	return &Handler{Config: holder, Link: link}
}

type responder interface {
	Response() string
}

// Handle parses and executes one line, returning the response lines.
func (h *Handler) Handle(line string) []string {
	cmd, err := Parse(line)
	if err != nil {
		glog.V(1).Infof("command %q rejected: %v", line, err)
		if r, ok := err.(responder); ok {
			return []string{r.Response()}
		}
		return []string{InvalidCommand}
	}
	return h.Execute(cmd)
}

// Execute runs a parsed command.
func (h *Handler) Execute(cmd Command) []string {
	switch c := cmd.(type) {
	case SetAddress:
		return h.update(c.Field.Name(), c.Addr.String(), func(cfg *config.DeviceConfig) {
			switch c.Field {
			case LocalAddr:
				cfg.LocalAddr = c.Addr
			case SubnetMask:
				cfg.SubnetMask = c.Addr
			case Gateway:
				cfg.Gateway = c.Addr
			case DestAddr:
				cfg.DestAddr = c.Addr
			}
		})
	case SetPort:
		return h.update(c.Field.Name(), strconv.Itoa(int(c.Port)), func(cfg *config.DeviceConfig) {
			if c.Field == InPort {
				cfg.InPort = c.Port
			} else {
				cfg.OutPort = c.Port
			}
		})
	case SetThreshold:
		return h.update("Threshold distance", strconv.Itoa(int(c.Value)), func(cfg *config.DeviceConfig) {
			cfg.Threshold = c.Value
		})
	case SetDeviceID:
		return h.update("deviceID", strconv.Itoa(int(c.Value)), func(cfg *config.DeviceConfig) {
			cfg.DeviceID = c.Value
		})
	case GetLocalAddress:
		return []string{"ETH IP: " + netlink.DescribeIP(h.Link)}
	case GetMACAddress:
		return []string{"ETH MAC: " + netlink.DescribeMAC(h.Link)}
	case GetConfig:
		return DescribeConfig(h.Config.Current())
	case Unrecognized:
		glog.V(1).Infof("unrecognized command %q", c.Raw)
	}
	return []string{InvalidCommand}
}

func (h *Handler) update(name, value string, fn func(*config.DeviceConfig)) []string {
	if err := h.Config.Update(fn); err != nil {
		return []string{fmt.Sprintf("⚠️ %s set to %s but not saved: %v", name, value, err)}
	}
	glog.Infof("%s set to %s", name, value)
	return []string{fmt.Sprintf("✅ %s set to %s and saved.", name, value)}
}

// DescribeConfig renders every field of cfg, one per line.
func DescribeConfig(cfg config.DeviceConfig) []string {
	return []string{
		fmt.Sprintf("deviceID: %d", cfg.DeviceID),
		fmt.Sprintf("Threshold dist: %d", cfg.Threshold),
		fmt.Sprintf("Input port: %d", cfg.InPort),
		fmt.Sprintf("Output port: %d", cfg.OutPort),
		"IP: " + cfg.LocalAddr.String(),
		"Subnet: " + cfg.SubnetMask.String(),
		"Gateway: " + cfg.Gateway.String(),
		"OutIP: " + cfg.DestAddr.String(),
	}
}
