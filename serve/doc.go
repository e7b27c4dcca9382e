// Package serve runs a catalogue server: a gRPC server exposing the catalogue
// service and the standard health service, with graceful shutdown and optional
// registration in the service registry.
//
// # Usage
//
//	backend := catalogue.NewMemoryBackend()
//	srv, err := serve.NewServer(backend,
//	    serve.WithListen(":50051"),
//	    serve.WithName("network"),
//	    serve.WithRegistryFromEnv(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
//
// Serve blocks until ctx is cancelled, SIGINT or SIGTERM arrives, or the gRPC
// server fails. On the way out the health status flips to NOT_SERVING, the
// instance is deregistered, and in-flight streams get GracefulTimeout to finish.
package serve
