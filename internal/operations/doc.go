// Package operations runs the batch export as a sequence of timed steps.
//
// Steps are registered in a Registry and executed in registration order by
// a Runner. A failing step is recorded and the run continues with the next
// one. The resulting Summary renders a table of step timings and maps the
// outcome to a process exit code:
//
//	0  every step succeeded
//	1  setup failure (configuration, logging), decided by the caller
//	2  no input spreadsheets were found
//	3  at least one step or file failed
//
// Example usage:
//
//	registry := operations.NewRegistry()
//	registry.Register(operations.NewConvertStep(converter, logger))
//	registry.Register(operations.NewMetadataStep(generator, logger))
//
//	summary := operations.NewRunner(registry, logger, metrics).Run(ctx)
//	summary.Render(os.Stdout)
//	os.Exit(summary.ExitCode())
package operations
