package commands

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/order"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrResourceIsRequired = errors.New("resource id is required")
	ErrAmountIsInvalid    = errors.New("amount must be greater than 0")
)

// CreateOrderCommand asks for a manual order moving an amount of one resource between two
// nodes. Manual orders enter the pipeline in Created status like generated ones and may
// be consolidated with them.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, warehouseID, siteID, "wood", 100)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	source      kernel.UUID
	destination kernel.UUID
	resourceID  string
	amount      float64
	priority    order.Priority

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command for a Normal-priority manual order.
// Returns an error if an id is invalid, the endpoints are equal, the resource is empty or
// the amount is not positive.
func NewCreateOrderCommand(orderID, source, destination kernel.UUID, resourceID string, amount float64) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		priority: order.PriorityNormal,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setEndpoints(source, destination),
		cmd.setResourceID(resourceID),
		cmd.setAmount(amount),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID     { return c.orderID }
func (c CreateOrderCommand) Source() kernel.UUID      { return c.source }
func (c CreateOrderCommand) Destination() kernel.UUID { return c.destination }
func (c CreateOrderCommand) ResourceID() string       { return c.resourceID }
func (c CreateOrderCommand) Amount() float64          { return c.amount }
func (c CreateOrderCommand) Priority() order.Priority { return c.priority }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setEndpoints(source, destination kernel.UUID) error {
	if err := errors.Join(source.Validate(), destination.Validate()); err != nil {
		return err
	}
	if source.IsEqual(destination) {
		return errs.NewValueIsInvalidError("destination")
	}
	c.source = source
	c.destination = destination
	return nil
}

func (c *CreateOrderCommand) setResourceID(resourceID string) error {
	if resourceID == "" {
		return ErrResourceIsRequired
	}
	c.resourceID = resourceID
	return nil
}

func (c *CreateOrderCommand) setAmount(amount float64) error {
	if !(amount > 0) {
		return ErrAmountIsInvalid
	}
	c.amount = amount
	return nil
}
