// Package dag schedules named tasks with prerequisites.
//
// Tasks are registered on an Executor, then Run resolves the closure of the
// requested targets, rejects cycles and unknown names, and starts one
// goroutine per task. Each goroutine waits on its prerequisites' handles,
// so a task starts as soon as everything it needs has succeeded. The first
// failure cancels the invocation; tasks that can no longer run end skipped.
//
//	ex := dag.NewExecutor(dag.WithMaxParallel(4))
//	ex.MustRegister(dag.Task{Name: "fetch", Action: fetch})
//	ex.MustRegister(dag.Task{Name: "build", Prerequisites: []string{"fetch"}, Action: build})
//	res, err := ex.Run(ctx, "build")
//
// Pipelines of extra shell tasks can be declared in YAML and merged into
// the graph with LoadPipeline and ResolvePipeline.
package dag
