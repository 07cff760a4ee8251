// Package app wires the expenditure API together: configuration, logging,
// OpenTelemetry, the table repository, services, handlers and the HTTP
// server.
//
// # Initialization Flow
//
//	1. Load configuration from .env, an optional YAML file and the environment
//	2. Initialize logging and observability
//	3. Create the repository and services
//	4. Set up the router and its middleware chain
//	5. Serve until the context is cancelled, then shut down gracefully
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
