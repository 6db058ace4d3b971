package vouchers

import (
	"bytes"
	"sort"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
)

// SortForConsumption orders vouchers oldest-first for FIFO depletion. Ties on
// creation time break on the id bytes so the order is stable across reloads.
func SortForConsumption(vouchers []models.Voucher) {
	sort.SliceStable(vouchers, func(i, j int) bool {
		if !vouchers[i].CreatedAt.Equal(vouchers[j].CreatedAt) {
			return vouchers[i].CreatedAt.Before(vouchers[j].CreatedAt)
		}
		return bytes.Compare(vouchers[i].ID[:], vouchers[j].ID[:]) < 0
	})
}
