package output

import (
	"context"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

type SwapPort interface {
	Quote(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error)
	Price(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error)
}
