package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgemart/martload/internal/logging"
)

// PaymentMethodTypes maps each payment method to its channel type.
var PaymentMethodTypes = map[string]string{
	"Credit Card":      "Online",
	"Debit Card":       "Online",
	"UPI":              "Online",
	"Net Banking":      "Online",
	"Cash on Delivery": "Offline",
}

// LoadPaymentMethodDim seeds dim_payment_method with the fixed method set.
// Methods already present keep their surrogate keys.
func LoadPaymentMethodDim(ctx context.Context, pool *pgxpool.Pool) error {
	for method, methodType := range PaymentMethodTypes {
		_, err := pool.Exec(ctx, `INSERT INTO warehouse.dim_payment_method (method_name, method_type)
VALUES ($1, $2)
ON CONFLICT (method_name) DO NOTHING`, method, methodType)
		if err != nil {
			return fmt.Errorf("failed to load payment method %q: %w", method, err)
		}
	}
	logging.Info().Int("methods", len(PaymentMethodTypes)).Msg("Payment method dimension loaded")
	return nil
}
