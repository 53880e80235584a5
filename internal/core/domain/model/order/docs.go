// Package order provides the Order aggregate: a request to move an amount of one
// resource type from a source node to a destination node.
//
// The package includes:
//   - Order: the aggregate root tracking priority, amounts, transport and shipment links
//   - Status: the lifecycle state machine
//   - Kind and Priority: where the demand came from and how urgent it is
//
// Key business rules:
//   - Orders are created by the generator (or injected manually) in Created status
//   - Lifecycle: Created -> Planning -> Reserved -> Dispatched -> Delivered
//   - Any non-terminal order can fail with a kernel.FailureReason
//   - Created orders can be cancelled by consolidation into a canonical order
//   - A shipment reference, once set, is never replaced
package order
