// Command storefront is a terminal client for the storefront API.
//
//	storefront [-config path] <command> [flags] [args]
//
// Run "storefront help" for the command list.
package main

import (
	"context"
	"os"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/kart-storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		return run(ctx, os.Args[1:], os.Stdout, appkg.OptionsFrom(m))
	})
}
