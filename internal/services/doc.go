// Package services implements the business logic layer between the HTTP
// handlers and the expenditure repository.
//
// ExpenditureService shapes analyzer results into the response types the
// web frontend consumes. HealthService answers liveness, readiness and
// version probes.
//
// Query failures are returned unchanged so that handlers can map the
// sentinel errors of milexcli/internal/errors to problem responses.
package services
