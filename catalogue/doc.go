// Package catalogue is a reference implementation of the catalogue service: it
// stores encoded objects in a Backend and answers the four catalogue RPCs.
//
// Two backends are provided. MemoryBackend keeps everything in process and is what
// tests and small fixtures use. RedisBackend keeps objects as protojson-encoded
// Structs under string keys, with set-valued indexes for container membership and
// kind, so several server replicas can share one dataset.
//
// Container membership is derived from each stored object's own references: an
// object referencing container C through Equipment.equipmentContainers is a
// NORMAL-state member of C, and through Equipment.currentContainers a
// CURRENT-state member.
//
// Example:
//
//	backend := catalogue.NewMemoryBackend()
//	fixture, _ := catalogue.LoadFixture("network.yaml")
//	_ = fixture.Apply(ctx, backend)
//
//	srv := catalogue.NewServer(backend, catalogue.WithLogger(logger))
//	grpcServer := grpc.NewServer()
//	rpc.RegisterCatalogueServiceServer(grpcServer, srv)
package catalogue
