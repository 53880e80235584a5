// Package services provides domain services that implement logistics rules spanning
// several aggregates and read models.
//
// The package includes:
//   - TransportSelector: picks the carrier with the tightest fit for a cargo requirement
//   - RouteCalculator: estimates cost and transit time between two nodes under a profile
//   - OrderConsolidator: merges orders that share source, destination and resource type
//   - ArrivalDetector: decides whether a moving shipment has reached its destination
//
// Services are stateless apart from ArrivalDetector, which throttles its integration
// warning on simulated time.
package services
