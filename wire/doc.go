// Package wire defines the self-describing messages exchanged with the catalogue
// service and the per-kind mapping between those messages and cim objects.
//
// Every message is a google.protobuf.Struct so the service can be described with
// well-known types only:
//
//	{
//	  "mrid": "t1",
//	  "kind": "Terminal",
//	  "fields": {"sequenceNumber": 1, "phases": "ABC"},
//	  "references": [
//	    {"relationship": "Terminal.conductingEquipment", "target": "b1"},
//	    {"relationship": "Terminal.connectivityNode", "target": "cn7"}
//	  ]
//	}
//
// Decode turns an Object into an empty-relationship cim object plus the references
// the graph.Store has to resolve. Encode is the inverse and reads relationship
// fields, so callers encoding objects held by a live Store must do so inside
// Store.View.
package wire
