// Package rpc describes the catalogue gRPC service and provides a client stub, a
// server registration function, and Transport, the typed adapter the gridsync
// client consumes.
//
// The service is declared with protobuf well-known types only
// (google.protobuf.Struct, ListValue, StringValue, Empty), so no generated code is
// required on either side:
//
//	service CatalogueService {
//	  rpc FetchByIds(google.protobuf.ListValue) returns (stream google.protobuf.Struct);
//	  rpc FetchEquipmentForContainer(google.protobuf.Struct) returns (stream google.protobuf.StringValue);
//	  rpc FetchHierarchy(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc FetchMetadata(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
package rpc
