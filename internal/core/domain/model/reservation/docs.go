// Package reservation provides time-bounded holds on shared capacity.
//
// Three kinds exist:
//   - Inventory: an amount of one resource at a source node
//   - Capacity: mass and volume on a transport
//   - Service: one Load or Unload slot at a node
//
// Every hold carries an expiry tick. An Active hold past its expiry becomes Expired, which
// is how abandoned holds are reclaimed. Committed inventory holds stay until the delivery
// stage releases them.
package reservation
