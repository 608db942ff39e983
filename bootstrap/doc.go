// Package bootstrap runs a finite mbedjs command with a uniform lifecycle:
// configuration defaults and validation, logger initialization, start hooks,
// signal-aware cancellation, stop hooks and a result summary.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnStop(shutdownTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    res, err := exec.Run(ctx, firmware.TaskDefault)
//	    app.Summary.DisplayResult(res, err)
//	    return err
//	})
package bootstrap
