package command

import (
	"math"
	"net/netip"
	"strconv"
	"strings"
)

type argParser func(arg string) (Command, error)

var setters = []struct {
	prefix string
	parse  argParser
}{
	{"SET_IP ", addressArg(LocalAddr)},
	{"SET_SUBNET ", addressArg(SubnetMask)},
	{"SET_GATEWAY ", addressArg(Gateway)},
	{"SET_OUTIP ", addressArg(DestAddr)},
	{"SET_INPORT ", portArg(InPort)},
	{"SET_OUTPORT ", portArg(OutPort)},
	{"SET_THRESHOLD ", thresholdArg},
	{"SET_ID ", deviceIDArg},
}

// Parse parses one console line. Lines matching no command yield
// Unrecognized with a nil error; a recognized command with an invalid
// argument yields a *FormatError or *RangeError.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	switch line {
	case "IP":
		return GetLocalAddress{}, nil
	case "MAC":
		return GetMACAddress{}, nil
	case "GET_CONFIG":
		return GetConfig{}, nil
	}
	for _, s := range setters {
		if arg, ok := strings.CutPrefix(line, s.prefix); ok {
			return s.parse(strings.TrimSpace(arg))
		}
	}
	return Unrecognized{Raw: line}, nil
}

func addressArg(field AddressField) argParser {
	return func(arg string) (Command, error) {
		addr, err := netip.ParseAddr(arg)
		if err != nil || !addr.Is4() {
			return nil, &FormatError{Field: field, Arg: arg}
		}
		return SetAddress{Field: field, Addr: addr}, nil
	}
}

func portArg(field PortField) argParser {
	return func(arg string) (Command, error) {
		n, err := intArg(arg, 1, math.MaxUint16)
		if err != nil {
			err.Name, err.Hint = field.Name(), "Invalid port. Must be between 1 and 65535."
			return nil, err
		}
		return SetPort{Field: field, Port: uint16(n)}, nil
	}
}

func thresholdArg(arg string) (Command, error) {
	n, err := intArg(arg, 1, math.MaxUint16)
	if err != nil {
		err.Name, err.Hint = "threshold", "Invalid threshold. Must be greater than 0."
		return nil, err
	}
	return SetThreshold{Value: uint16(n)}, nil
}

func deviceIDArg(arg string) (Command, error) {
	n, err := intArg(arg, 0, math.MaxUint8)
	if err != nil {
		err.Name, err.Hint = "deviceID", "Invalid ID. Must be between 0 and 255."
		return nil, err
	}
	return SetDeviceID{Value: uint8(n)}, nil
}

func intArg(arg string, min, max int64) (int64, *RangeError) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < min || n > max {
		return 0, &RangeError{Arg: arg, Min: min, Max: max}
	}
	return n, nil
}
