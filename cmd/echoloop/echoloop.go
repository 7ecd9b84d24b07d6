package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/cmd"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	_ "go.uber.org/automaxprocs"
)

func main() {
	rand.New(rand.NewSource(time.Now().UnixNano()))

	command := cmd.NewDefaultEcholoopCommand()
	if err := command.Execute(); err != nil {
		util.CheckErr(err)
		os.Exit(1)
	}
}
