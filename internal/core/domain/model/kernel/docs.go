// Package kernel provides the primitives shared by every logistics aggregate.
//
// The package includes:
//   - UUID: a time-ordered identifier (UUID version 7); comparing two ids compares their
//     creation order, which the pipeline uses to break ties between contending orders
//   - Location: an immutable point in world space with Euclidean distance
//   - Tick: the discrete simulation time unit
//
// Values are immutable and safe for concurrent use.
package kernel
