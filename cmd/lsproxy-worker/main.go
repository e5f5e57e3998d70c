package main

import (
	"go.uber.org/fx"

	"github.com/lsproxy-dev/lsproxy/src/workerapp"
)

func opts() fx.Option {
	return fx.Options(
		workerapp.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
