package kernel

// FailureReason is the closed set of reasons attached to failed orders and shipments.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureInvalidSource
	FailureInvalidDestination
	FailureRouteUnavailable
	FailureInvalidContainer
	FailureNoCarrier
	FailureNoCapacity
	// FailureTransportLost marks a physical shipment whose transport ceased to exist.
	FailureTransportLost
	// FailureTimeout marks an order whose holds expired before they could be committed.
	FailureTimeout
)

var failureNames = map[FailureReason]string{
	FailureNone:               "None",
	FailureInvalidSource:      "InvalidSource",
	FailureInvalidDestination: "InvalidDestination",
	FailureRouteUnavailable:   "RouteUnavailable",
	FailureInvalidContainer:   "InvalidContainer",
	FailureNoCarrier:          "NoCarrier",
	FailureNoCapacity:         "NoCapacity",
	FailureTransportLost:      "TransportLost",
	FailureTimeout:            "Timeout",
}

func (r FailureReason) String() string {
	if s, ok := failureNames[r]; ok {
		return s
	}
	return "Unknown"
}

// Valid reports whether r is a declared reason.
func (r FailureReason) Valid() bool {
	_, ok := failureNames[r]
	return ok
}

// FailureReasons lists every declared reason except FailureNone.
func FailureReasons() []FailureReason {
	return []FailureReason{
		FailureInvalidSource,
		FailureInvalidDestination,
		FailureRouteUnavailable,
		FailureInvalidContainer,
		FailureNoCarrier,
		FailureNoCapacity,
		FailureTransportLost,
		FailureTimeout,
	}
}
