package main

import (
	"context"
	"math"
	"os"
	"os/signal"

	"github.com/skillian/logging"
)

var (
	logger = logging.GetLogger("github.com/studiointeract/qbankapi2wrapper")
)

func init() {
	h := new(logging.ConsoleHandler)
	h.SetLevel(math.MinInt32)
	h.SetFormatter(logging.DefaultFormatter{})
	logger.AddHandler(h)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(newState()).ExecuteContext(ctx)
	stop()
	dieOnError(err)
}

// die reports the given error and terminates the program with a non-0 return
// code.
func die(err error) {
	logger.LogErr(err)
	os.Exit(-1)
}

// dieOnError calls die if the given error is not nil.
func dieOnError(err error) {
	if err != nil {
		die(err)
	}
}
