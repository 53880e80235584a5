package queries_test

import (
	"testing"

	"logistics/internal/core/application/usecases/queries"
	"logistics/internal/core/domain/model/shipment"
	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetActiveOrdersQuery_Valid(t *testing.T) {
	query := queries.NewGetActiveOrdersQuery()
	require.NoError(t, query.Validate())
}

func TestGetActiveOrdersQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetActiveOrdersQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetActiveOrdersQueryIsNotConstructed)
}

func TestNewGetShipmentsQuery(t *testing.T) {
	query, err := queries.NewGetShipmentsQuery(shipment.InTransit, shipment.Rerouting)
	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, []shipment.Status{shipment.InTransit, shipment.Rerouting}, query.Statuses())

	all, err := queries.NewGetShipmentsQuery()
	require.NoError(t, err)
	assert.Empty(t, all.Statuses())
}

func TestNewGetShipmentsQuery_RejectsUnknownStatus(t *testing.T) {
	_, err := queries.NewGetShipmentsQuery(shipment.Delivered, shipment.Status(42))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestGetShipmentsQuery_NotConstructedViaConstructor(t *testing.T) {
	err := queries.GetShipmentsQuery{}.Validate()
	assert.ErrorIs(t, err, queries.ErrGetShipmentsQueryIsNotConstructed)
}
