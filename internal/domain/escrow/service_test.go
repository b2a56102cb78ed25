package escrow_test

import (
	"context"
	"testing"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/repository"
	"github.com/rpggio/crowdfund/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestEscrowService_GetProjectStats(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.StatsRepository{}
	repo.On("Get", ctx, uint64(3)).Return(&escrow.Stats{NftsSold: 4, NftPriceE8S: 100}, nil)
	repo.On("Get", ctx, uint64(9)).Return(nil, repository.ErrNotFound)

	svc := escrow.NewService(repo, nil)

	stats, err := svc.GetProjectStats(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, escrow.Stats{NftsSold: 4, NftPriceE8S: 100}, stats)

	_, err = svc.GetProjectStats(ctx, 9)
	require.ErrorIs(t, err, escrow.ErrStatsNotFound)
}

func TestEscrowService_RecordSaleRejectsZero(t *testing.T) {
	repo := &mocks.StatsRepository{}
	svc := escrow.NewService(repo, nil)

	err := svc.RecordSale(context.Background(), 1, 0, 100)
	require.ErrorIs(t, err, escrow.ErrInvalidInput)
}
