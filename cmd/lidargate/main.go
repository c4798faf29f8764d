package main

import (
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/node"
)

func init() {
	node.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	n := node.NewConfig().MustNewNode()
	if err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("node", n)).Wait(); err != nil {
		glog.Exitln(err)
	}
}
