// Package bootstrap runs a servicekit process: it validates the typed
// configuration, initializes the logger, starts components in order, runs
// lifecycle hooks and shuts down on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	_ = app.RegisterComponent(server.NewComponent(srv))
//	_ = app.RegisterComponent(registry.NewComponent(reg, srv))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
