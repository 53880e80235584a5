// Package shipment provides the Shipment aggregate: the movement unit that carries the
// cargo of one or more orders from a source node to a destination node.
//
// State machine:
//
//	Created ──> Loading ──> InTransit ──> Unloading ──> Delivered
//	                            │  ▲          ▲
//	                            ▼  │          │
//	                         Rerouting ───────┘
//
// Every non-terminal status may move to Failed. Abstract shipments have no movable
// transport and arrive by time alone; Physical shipments ride a transport and prefer its
// arrival signals.
package shipment
