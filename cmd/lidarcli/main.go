package main

import (
	_ "github.com/robotalks/lidargate/pkg/cli/cmds/lidar"
	"github.com/robotalks/lidargate/pkg/cli/sh"
)

func main() {
	sh.Main()
}
