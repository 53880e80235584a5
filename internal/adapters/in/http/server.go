package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/application/usecases/queries"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/core/ports"
	"logistics/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GateControl reads and flips the flags that gate the pipeline.
type GateControl interface {
	ports.SimulationGate
	SetEconomyEnabled(v bool)
	SetRecording(v bool)
}

// Server exposes manual orders, the read models and the simulation flags over HTTP.
type Server struct {
	// Command handlers
	createOrderHandler *commands.CreateOrderCommandHandler

	// Query handlers
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
	getShipmentsHandler    queries.GetShipmentsQueryHandler

	clock  ports.Clock
	gate   GateControl
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler *commands.CreateOrderCommandHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	getShipmentsHandler queries.GetShipmentsQueryHandler,
	clock ports.Clock,
	gate GateControl,
	logger *slog.Logger,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
		getShipmentsHandler:    getShipmentsHandler,
		clock:                  clock,
		gate:                   gate,
		logger:                 logger.With("component", "http"),
	}
}

// Register mounts every route on e. Metrics are served from gatherer. Order and
// simulation writes are checked against the embedded api document first.
func (s *Server) Register(ctx context.Context, e *echo.Echo, gatherer prometheus.Gatherer) error {
	validator, err := newRequestValidator(ctx)
	if err != nil {
		return err
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1")
	api.GET("/orders", s.GetOrders)
	api.POST("/orders", s.CreateOrder, validator.middleware)
	api.GET("/shipments", s.GetShipments)
	api.GET("/simulation", s.GetSimulation)
	api.PUT("/simulation", s.UpdateSimulation, validator.middleware)
	return nil
}

// Error is the body of every failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type NewOrder struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Resource    string  `json:"resource"`
	Amount      float64 `json:"amount"`
}

type CreatedOrder struct {
	ID string `json:"id"`
}

type Order struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Priority    int     `json:"priority"`
	Status      string  `json:"status"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Resource    string  `json:"resource"`
	Requested   float64 `json:"requested"`
	Reserved    float64 `json:"reserved"`
	Transport   *string `json:"transport,omitempty"`
	Shipment    *string `json:"shipment,omitempty"`
	CreatedTick uint64  `json:"created_tick"`
}

type Shipment struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Mode          string   `json:"mode"`
	Transport     *string  `json:"transport,omitempty"`
	Route         *string  `json:"route,omitempty"`
	Source        string   `json:"source"`
	Destination   string   `json:"destination"`
	Orders        []string `json:"orders"`
	Requested     float64  `json:"requested"`
	Carried       float64  `json:"carried"`
	CreatedTick   uint64   `json:"created_tick"`
	ETATick       uint64   `json:"eta_tick"`
	DepartureTick *uint64  `json:"departure_tick,omitempty"`
	ArrivalTick   *uint64  `json:"arrival_tick,omitempty"`
	Failure       string   `json:"failure,omitempty"`
}

type Simulation struct {
	Tick           uint64 `json:"tick"`
	EconomyEnabled bool   `json:"economy_enabled"`
	Recording      bool   `json:"recording"`
}

type SimulationUpdate struct {
	EconomyEnabled *bool `json:"economy_enabled"`
	Recording      *bool `json:"recording"`
}

// CreateOrder handles POST /api/v1/orders - creates a manual order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	source, err := kernel.UUIDFromString(body.Source)
	if err != nil {
		return badRequest(ctx, "Invalid source: "+err.Error())
	}
	destination, err := kernel.UUIDFromString(body.Destination)
	if err != nil {
		return badRequest(ctx, "Invalid destination: "+err.Error())
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, source, destination, body.Resource, body.Amount)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if handleErr := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		if errors.Is(handleErr, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: handleErr.Error(),
			})
		}
		s.logger.ErrorContext(ctx.Request().Context(), "create order failed", "error", handleErr)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}

	return ctx.JSON(http.StatusCreated, CreatedOrder{ID: orderID.String()})
}

// GetOrders handles GET /api/v1/orders - retrieves every non-terminal order.
func (s *Server) GetOrders(ctx echo.Context) error {
	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "list orders failed", "error", err)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	response := make([]Order, len(orders))
	for i, o := range orders {
		response[i] = Order{
			ID:          o.ID.String(),
			Kind:        o.Kind,
			Priority:    o.Priority,
			Status:      o.Status,
			Source:      o.Source.String(),
			Destination: o.Destination.String(),
			Resource:    o.ResourceID,
			Requested:   o.Requested,
			Reserved:    o.Reserved,
			Transport:   idString(o.Transport),
			Shipment:    idString(o.Shipment),
			CreatedTick: uint64(o.CreatedTick),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetShipments handles GET /api/v1/shipments?status=InTransit,Rerouting.
func (s *Server) GetShipments(ctx echo.Context) error {
	var names []string
	if err := runtime.BindQueryParameter("form", false, false, "status", ctx.QueryParams(), &names); err != nil {
		return badRequest(ctx, "Invalid format for parameter status: "+err.Error())
	}
	statuses := make([]shipment.Status, 0, len(names))
	for _, name := range names {
		st, err := shipment.ParseStatus(strings.TrimSpace(name))
		if err != nil {
			return badRequest(ctx, "Invalid status: "+name)
		}
		statuses = append(statuses, st)
	}

	query, err := queries.NewGetShipmentsQuery(statuses...)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	shipments, err := s.getShipmentsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "list shipments failed", "error", err)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve shipments",
		})
	}

	response := make([]Shipment, len(shipments))
	for i, sh := range shipments {
		orders := make([]string, len(sh.Orders))
		for j, id := range sh.Orders {
			orders[j] = id.String()
		}
		response[i] = Shipment{
			ID:            sh.ID.String(),
			Status:        sh.Status,
			Mode:          sh.Mode,
			Transport:     idString(sh.Transport),
			Route:         idString(sh.Route),
			Source:        sh.Source.String(),
			Destination:   sh.Destination.String(),
			Orders:        orders,
			Requested:     sh.Requested,
			Carried:       sh.Carried,
			CreatedTick:   uint64(sh.CreatedTick),
			ETATick:       uint64(sh.ETATick),
			DepartureTick: tickValue(sh.DepartureTick),
			ArrivalTick:   tickValue(sh.ArrivalTick),
			Failure:       sh.Failure,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetSimulation handles GET /api/v1/simulation.
func (s *Server) GetSimulation(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.simulation())
}

// UpdateSimulation handles PUT /api/v1/simulation - flips the pipeline flags.
func (s *Server) UpdateSimulation(ctx echo.Context) error {
	var body SimulationUpdate
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if body.EconomyEnabled != nil {
		s.gate.SetEconomyEnabled(*body.EconomyEnabled)
	}
	if body.Recording != nil {
		s.gate.SetRecording(*body.Recording)
	}
	state := s.simulation()
	s.logger.InfoContext(ctx.Request().Context(), "simulation flags changed",
		"economy_enabled", state.EconomyEnabled, "recording", state.Recording)
	return ctx.JSON(http.StatusOK, state)
}

func (s *Server) simulation() Simulation {
	return Simulation{
		Tick:           uint64(s.clock.Now()),
		EconomyEnabled: s.gate.EconomyEnabled(),
		Recording:      s.gate.Recording(),
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func tickValue(t *kernel.Tick) *uint64 {
	if t == nil {
		return nil
	}
	v := uint64(*t)
	return &v
}
