package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/testutil"
)

func TestRunService_List_Normalizes(t *testing.T) {
	tests := []struct {
		name string
		in   output.RunListFilter
		want output.RunListFilter
	}{
		{
			name: "defaults",
			in:   output.RunListFilter{},
			want: output.RunListFilter{Limit: 20, Order: "desc"},
		},
		{
			name: "caps limit and clamps offset",
			in:   output.RunListFilter{Limit: 500, Offset: -3, Order: "sideways"},
			want: output.RunListFilter{Limit: 100, Offset: 0, Order: "desc"},
		},
		{
			name: "keeps valid values",
			in:   output.RunListFilter{Status: "FAILED", Limit: 5, Offset: 10, Order: "asc"},
			want: output.RunListFilter{Status: "FAILED", Limit: 5, Offset: 10, Order: "asc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockRunRepo)
			repo.On("List", mock.Anything, tt.want).Return([]*domain.PipelineRun{}, 0, nil)

			page, err := NewRunService(repo).List(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Zero(t, page.Total)
			assert.Equal(t, tt.want.Limit, page.Limit)
			assert.Equal(t, tt.want.Offset, page.Offset)
			repo.AssertExpectations(t)
		})
	}
}

func TestRunService_Get(t *testing.T) {
	repo := new(testutil.MockRunRepo)
	known := domain.NewPipelineRun("artifact/x")
	missing := uuid.New()
	repo.On("GetByID", mock.Anything, known.ID).Return(known, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, domain.ErrRunNotFound)
	svc := NewRunService(repo)

	got, err := svc.Get(context.Background(), known.ID)
	require.NoError(t, err)
	assert.Equal(t, known, got)

	_, err = svc.Get(context.Background(), missing)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
