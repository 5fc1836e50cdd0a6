// Package graphio provides JSON import and export for hierarchical graph
// documents.
//
// # Overview
//
// This package serializes graph documents to and from a simple JSON format.
// The format is designed for:
//
//   - Authoring graphs by hand or generating them from external tools
//   - Persisting documents in the document store
//   - Caching parsed documents keyed by content hash
//   - Round-trip preservation: import, manipulate, export, and re-import
//
// # JSON Format
//
// The format has three top-level arrays:
//
//	{
//	  "name": "payments",
//	  "nodes": [
//	    {"id": "api", "label": "API"},
//	    {"id": "db", "label": "Database"}
//	  ],
//	  "edges": [
//	    {"id": "e1", "source": "api", "target": "db"}
//	  ],
//	  "containers": [
//	    {"id": "backend", "label": "Backend", "children": ["api", "db"]}
//	  ]
//	}
//
// Nodes require "id" and "label"; optional fields are "long_label", "tags",
// and layout coordinates. Containers list their direct children by id and may
// carry "collapsed": true, which is reapplied on import so a stored document
// reopens in the state it was saved in.
//
// Aggregated edges and hidden flags are never part of the format: both are
// derived state, recomputed by the collapse machinery during import.
//
// # Import
//
// Use [ImportJSON] to read a document from a file path, or [ReadJSON] to read
// from any io.Reader. Both decode into a [Document] and then build a live
// graph, so they return the same validation errors as the graph mutators
// (duplicate ids, unknown edge endpoints, containment cycles).
//
// # Export
//
// Use [ExportJSON] to write a graph to a file, or [WriteJSON] to write to any
// io.Writer. The export captures the full structure including collapse state,
// enabling round-trip fidelity.
package graphio
