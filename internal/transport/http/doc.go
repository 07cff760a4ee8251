// Package http implements the HTTP handlers of the expenditure API. Handlers
// stay thin: they bind path and query parameters into request structs,
// validate them, call the service layer and render JSON.
//
// # Error Handling
//
// All errors are answered with RFC 7807 problem details produced by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/country-not-found",
//	    "title": "Country Not Found",
//	    "status": 404,
//	    "detail": "country not found: Atlantis",
//	    "instance": "/api/growth"
//	}
//
// Rejected parameters are reported as 400 with one entry per field under
// "details".
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces.
package http
