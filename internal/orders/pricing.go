package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

// priceOrder validates the submitted lines against the menu rows loaded in
// the order transaction and materialises the line snapshots. Client-supplied
// prices are ignored; unitPrice is the menu price at the commit point and
// never changes afterwards.
func priceOrder(items []models.CreateOrderItem, menu map[int64]models.MenuItem) ([]models.OrderItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, core.Field("items", "order must contain at least one item")
	}

	lines := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, in := range items {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, core.Field("items.quantity", "quantity must be a positive integer")
		}

		item, ok := menu[in.MenuItemID]
		if !ok {
			return nil, decimal.Zero, core.E(core.CodeNotFound, "menu item %d not found", in.MenuItemID)
		}
		if !item.Available {
			return nil, decimal.Zero, core.E(core.CodeFailedPrecondition, "menu item %q is not available", item.Name)
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)

		var notes *string
		if trimmed := strings.TrimSpace(in.Notes); trimmed != "" {
			notes = &trimmed
		}

		lines = append(lines, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   in.Quantity,
			UnitPrice:  item.Price,
			TotalPrice: lineTotal,
			Notes:      notes,
		})
	}

	return lines, total, nil
}
