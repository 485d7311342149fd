// Package httpserver wraps net/http with graceful shutdown for the local
// development backend.
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives, or the
// listener fails:
//
//	srv := httpserver.New(httpserver.WithAddr(":8080"))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// NewFromConfig builds a server from the env-derived Config so cmd binaries
// can wire it through pkg/config.
package httpserver
