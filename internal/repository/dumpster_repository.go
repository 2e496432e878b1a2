package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
)

type DumpsterRepository struct {
	*base.Repository
}

func NewDumpsterRepository(db base.DBTX) *DumpsterRepository {
	return &DumpsterRepository{Repository: base.NewRepository(db)}
}

// GetByID получает контейнер вместе с дневной ценой по его размеру
func (r *DumpsterRepository) GetByID(ctx context.Context, id int64) (*model.Dumpster, error) {
	query := `
		SELECT d.id, d.code, d.size, p.daily_price
		FROM dumpsters d
		JOIN dumpster_prices p ON p.size = d.size
		WHERE d.id = $1
	`

	var dumpster model.Dumpster
	err := r.QueryRow(ctx, query, id).Scan(
		&dumpster.ID,
		&dumpster.Code,
		&dumpster.Size,
		&dumpster.DailyPrice,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dumpster by id: %w", err)
	}

	return &dumpster, nil
}
