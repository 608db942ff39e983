// Package firmware declares the mbed-js firmware build as a task graph.
//
// A Pipeline turns a config.BuildConfig into dag tasks: fetching the
// JavaScript runtime and mbed OS sources, staging support files, generating
// mbed configuration, bundling the application, converting it to C sources,
// resolving native packages and finally compiling. Scaffolding tasks consult
// the staging probe and no-op when their output is already in place, so a
// repeated build only redoes what is missing.
//
//	p, err := firmware.New(cfg, firmware.WithLedger(l))
//	exec, err := p.Executor(dag.WithMiddleware(dag.WithLogging(log)))
//	res, err := exec.Run(ctx, firmware.TaskDefault)
package firmware
