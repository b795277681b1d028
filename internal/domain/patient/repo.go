package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, nameFilter string, limit, offset int) ([]*Patient, int, error)
	ExistsByEmailExcluding(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
}
