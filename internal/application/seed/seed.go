// Package seed installs the demo dataset on first run. Seeding is
// driven by the store's injected seeded flag and runs at most once per
// process.
package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stationops/backend/internal/application/orders"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/infrastructure/state"
	"go.uber.org/zap"
)

const seedActor = "system"

type demoSupplier struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Fuel string    `json:"fuel_type"`
}

var demoSuppliers = []demoSupplier{
	{ID: uuid.MustParse("6f1c2f6e-8a6d-4bc0-9e6b-0f35d6a1b001"), Name: "Coastal Fuels Ltd", Fuel: "diesel"},
	{ID: uuid.MustParse("6f1c2f6e-8a6d-4bc0-9e6b-0f35d6a1b002"), Name: "Highland Petroleum", Fuel: "petrol"},
	{ID: uuid.MustParse("6f1c2f6e-8a6d-4bc0-9e6b-0f35d6a1b003"), Name: "Delta Energy Supply", Fuel: "kerosene"},
}

// DemoData populates the working copy with demo suppliers and orders.
// It is a no-op when the store was already seeded.
func DemoData(ctx context.Context, st *state.Store, orderSvc *orders.Service, logger *zap.Logger) bool {
	ran := st.Seed(func(s *state.Store) {
		docs := make([]json.RawMessage, 0, len(demoSuppliers))
		for _, supplier := range demoSuppliers {
			raw, err := json.Marshal(supplier)
			if err != nil {
				continue
			}
			docs = append(docs, raw)
		}
		s.ReplaceDocs(state.CollectionSuppliers, docs)

		for i, supplier := range demoSuppliers {
			created := orderSvc.AddPurchaseOrder(ctx, orders.CreateOrderRequest{
				SupplierID:   supplier.ID,
				SupplierName: supplier.Name,
				FuelType:     supplier.Fuel,
				Quantity:     decimal.NewFromInt(int64(5000 + i*2500)),
				UnitPrice:    decimal.NewFromFloat(1.42 + float64(i)*0.07),
				Notes:        fmt.Sprintf("Demo order for %s", supplier.Name),
				Actor:        seedActor,
			})
			if i == 0 {
				_, _ = orderSvc.UpdateOrderStatus(ctx, created.ID, order.StatusApproved, seedActor, "")
			}
		}
	})

	if ran {
		logger.Info("Demo data seeded",
			zap.Int("suppliers", len(demoSuppliers)),
			zap.Int("orders", len(demoSuppliers)))
	}
	return ran
}
