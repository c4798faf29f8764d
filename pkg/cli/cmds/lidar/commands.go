// Package lidar adds the configuration protocol commands to the shell.
package lidar

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/lidargate/pkg/cli/sh"
)

// protocolCmd maps a shell command to a protocol keyword. Commands with
// an argument name require exactly one argument.
func protocolCmd(name string, aliases []string, keyword, arg string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    arg,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			line, err := ProtocolLine(keyword, arg, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, line)
		}),
	}
}

// ProtocolLine builds the protocol line for keyword.
func ProtocolLine(keyword, arg string, args []string) (string, error) {
	if arg == "" {
		return keyword, nil
	}
	if len(args) != 1 {
		return "", fmt.Errorf("%s required", arg)
	}
	return keyword + " " + strings.TrimSpace(args[0]), nil
}

var (
	// Commands are the protocol commands.
	Commands = []*ishell.Cmd{
		protocolCmd("ip", nil, "IP", ""),
		protocolCmd("mac", nil, "MAC", ""),
		protocolCmd("config", []string{"cfg"}, "GET_CONFIG", ""),
		protocolCmd("set.ip", nil, "SET_IP", "ADDR"),
		protocolCmd("set.subnet", nil, "SET_SUBNET", "MASK"),
		protocolCmd("set.gateway", []string{"set.gw"}, "SET_GATEWAY", "ADDR"),
		protocolCmd("set.outip", nil, "SET_OUTIP", "ADDR"),
		protocolCmd("set.inport", nil, "SET_INPORT", "PORT"),
		protocolCmd("set.outport", nil, "SET_OUTPORT", "PORT"),
		protocolCmd("set.threshold", []string{"set.th"}, "SET_THRESHOLD", "DISTANCE"),
		protocolCmd("set.id", nil, "SET_ID", "ID"),
	}
)

func init() {
	sh.AddCmds(Commands...)
}
