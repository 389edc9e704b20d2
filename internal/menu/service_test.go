package menu

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

func TestCreateValidation(t *testing.T) {
	// Every case here must be rejected before the repository is touched.
	svc := NewService(nil, nil)

	tests := []struct {
		name     string
		in       CreateInput
		wantPath string
	}{
		{
			name:     "empty name",
			in:       CreateInput{Name: "   ", Category: models.CategoryKanom, Price: decimal.NewFromInt(40)},
			wantPath: "name",
		},
		{
			name:     "unknown category",
			in:       CreateInput{Name: "Kanom Krok", Category: models.Category("SNACK"), Price: decimal.NewFromInt(40)},
			wantPath: "category",
		},
		{
			name:     "zero price",
			in:       CreateInput{Name: "Kanom Krok", Category: models.CategoryKanom, Price: decimal.Zero},
			wantPath: "price",
		},
		{
			name:     "negative price",
			in:       CreateInput{Name: "Kanom Krok", Category: models.CategoryKanom, Price: decimal.NewFromInt(-5)},
			wantPath: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			require.Error(t, err)

			coded := core.AsError(err)
			require.NotNil(t, coded)
			assert.Equal(t, core.CodeBadRequest, coded.Code)
			assert.Equal(t, tt.wantPath, coded.Path)
		})
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(nil, nil)

	empty := "  "
	badCategory := models.Category("SNACK")
	badPrice := decimal.NewFromInt(-1)

	tests := []struct {
		name     string
		in       UpdateInput
		wantPath string
	}{
		{name: "blank name", in: UpdateInput{Name: &empty}, wantPath: "name"},
		{name: "unknown category", in: UpdateInput{Category: &badCategory}, wantPath: "category"},
		{name: "negative price", in: UpdateInput{Price: &badPrice}, wantPath: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), 1, tt.in)
			require.Error(t, err)

			coded := core.AsError(err)
			require.NotNil(t, coded)
			assert.Equal(t, tt.wantPath, coded.Path)
		})
	}
}
