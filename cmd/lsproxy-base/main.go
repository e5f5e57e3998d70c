package main

import (
	"go.uber.org/fx"

	"github.com/lsproxy-dev/lsproxy/src/app"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
