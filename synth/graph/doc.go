// Package graph implements the node/operator runtime: ports, the connection
// protocol, node lifecycle with deferred initialization, dry/wet effect
// composition, and the module registry that tracks asynchronous kernel
// availability.
//
// Control-plane code builds a graph by connecting node ports; the render
// plane then pulls fixed-size blocks through the graph each cycle. Graph
// mutation and rendering must not race; both belong to the owner of the
// Graph.
package graph
