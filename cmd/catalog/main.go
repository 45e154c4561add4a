package main

import (
	"context"
	"time"

	"github.com/niksmo/eco-catalog/config"
	"github.com/niksmo/eco-catalog/internal/app"
	"github.com/niksmo/eco-catalog/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	catalogApp := app.New(sigCtx, cfg)

	catalogApp.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	catalogApp.Close(ctx)
}
