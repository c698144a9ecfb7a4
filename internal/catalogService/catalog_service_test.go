package catalog

import (
	"context"
	"errors"
	"testing"

	"agentbay/internal/biddingerrors"
	model "agentbay/internal/models"
	"agentbay/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	fields model.ListingFields
	err    error
}

func (g stubGenerator) Generate(context.Context, []byte) (model.ListingFields, error) {
	return g.fields, g.err
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// Tests Create
func TestCatalogService_Create(t *testing.T) {
	tests := []struct {
		name          string
		fields        model.ListingFields
		mockSetup     func(repo *repository.MockCatalog)
		expectedError error
		check         func(t *testing.T, p model.Product)
	}{
		{
			name: "defaults_applied",
			fields: model.ListingFields{
				Title:          "  Vintage camera ",
				SuggestedPrice: 20,
				Tags:           []string{"film", " ", "35mm"},
			},
			mockSetup: func(repo *repository.MockCatalog) {
				repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p model.Product) (model.Product, error) {
						p.ID = 1
						return p, nil
					})
			},
			check: func(t *testing.T, p model.Product) {
				require.Equal(t, "Vintage camera", p.Title)
				require.Equal(t, model.ConditionGood, p.Condition)
				require.Equal(t, 0.7, p.ConfidenceScore)
				require.Equal(t, model.Tags{"film", "35mm"}, p.Tags)
			},
		},
		{
			name:   "condition_normalized_and_confidence_clamped",
			fields: model.ListingFields{Title: "Lamp", Condition: "Like New", ConfidenceScore: floatPtr(1.4)},
			mockSetup: func(repo *repository.MockCatalog) {
				repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p model.Product) (model.Product, error) {
						return p, nil
					})
			},
			check: func(t *testing.T, p model.Product) {
				require.Equal(t, model.ConditionLikeNew, p.Condition)
				require.Equal(t, 1.0, p.ConfidenceScore)
			},
		},
		{
			name:          "missing_title",
			fields:        model.ListingFields{SuggestedPrice: 10},
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:          "unknown_condition",
			fields:        model.ListingFields{Title: "Lamp", Condition: "battered"},
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:          "negative_price",
			fields:        model.ListingFields{Title: "Lamp", SuggestedPrice: -1},
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:          "negative_reserve",
			fields:        model.ListingFields{Title: "Lamp", ReservePrice: floatPtr(-5)},
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:   "repo_error",
			fields: model.ListingFields{Title: "Lamp"},
			mockSetup: func(repo *repository.MockCatalog) {
				repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).Return(model.Product{}, biddingerrors.ErrPersistence)
			},
			expectedError: biddingerrors.ErrPersistence,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := repository.NewMockCatalog(ctrl)
			service := NewCatalogService(repo, nil)
			tc.mockSetup(repo)

			p, err := service.Create(context.Background(), tc.fields)
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, p)
		})
	}
}

func TestCatalogService_CreateFromImage(t *testing.T) {
	t.Parallel()

	t.Run("generator_output_used", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		repo := repository.NewMockCatalog(ctrl)
		gen := stubGenerator{fields: model.ListingFields{Title: "Canon AE-1", Brand: "Canon", Condition: "excellent", SuggestedPrice: 24}}
		service := NewCatalogService(repo, gen)

		repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p model.Product) (model.Product, error) { return p, nil })

		p, err := service.CreateFromImage(context.Background(), []byte{0xff, 0xd8}, "/images/1.jpg")
		require.NoError(t, err)
		require.Equal(t, "Canon AE-1", p.Title)
		require.Equal(t, model.ConditionExcellent, p.Condition)
		require.Equal(t, "/images/1.jpg", p.ImageURL)
	})

	t.Run("generator_failure_falls_back", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		repo := repository.NewMockCatalog(ctrl)
		service := NewCatalogService(repo, stubGenerator{err: errors.New("unparseable model output")})

		repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p model.Product) (model.Product, error) { return p, nil })

		p, err := service.CreateFromImage(context.Background(), []byte{1}, "")
		require.NoError(t, err)
		require.Equal(t, fallbackTitle, p.Title)
		require.Equal(t, fallbackCategory, p.Category)
		require.Equal(t, model.ConditionGood, p.Condition)
		require.Equal(t, 20.0, p.SuggestedPrice)
	})

	t.Run("empty_image", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		service := NewCatalogService(repository.NewMockCatalog(ctrl), nil)

		_, err := service.CreateFromImage(context.Background(), nil, "")
		require.ErrorIs(t, err, biddingerrors.ErrInvalidProduct)
	})
}

func TestCatalogService_Update(t *testing.T) {
	tests := []struct {
		name          string
		productID     int64
		patch         model.ProductPatch
		mockSetup     func(repo *repository.MockCatalog)
		expectedError error
	}{
		{
			name:      "valid_patch",
			productID: 1,
			patch:     model.ProductPatch{Title: strPtr(" New title ")},
			mockSetup: func(repo *repository.MockCatalog) {
				repo.EXPECT().UpdateProduct(gomock.Any(), int64(1), gomock.Any()).DoAndReturn(
					func(_ context.Context, _ int64, patch model.ProductPatch) (model.Product, error) {
						return model.Product{ID: 1, Title: *patch.Title}, nil
					})
			},
		},
		{
			name:          "blank_title",
			productID:     1,
			patch:         model.ProductPatch{Title: strPtr("  ")},
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:          "invalid_id",
			productID:     0,
			mockSetup:     func(*repository.MockCatalog) {},
			expectedError: biddingerrors.ErrInvalidProduct,
		},
		{
			name:      "not_found",
			productID: 2,
			patch:     model.ProductPatch{Brand: strPtr("Leica")},
			mockSetup: func(repo *repository.MockCatalog) {
				repo.EXPECT().UpdateProduct(gomock.Any(), int64(2), gomock.Any()).Return(model.Product{}, biddingerrors.ErrProductNotFound)
			},
			expectedError: biddingerrors.ErrProductNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := repository.NewMockCatalog(ctrl)
			service := NewCatalogService(repo, nil)
			tc.mockSetup(repo)

			p, err := service.Update(context.Background(), tc.productID, tc.patch)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "New title", p.Title)
		})
	}
}

func TestCatalogService_DeleteAndSearch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := repository.NewMockCatalog(ctrl)
	service := NewCatalogService(repo, nil)

	repo.EXPECT().DeleteProduct(gomock.Any(), int64(4)).Return(false, nil)
	deleted, err := service.Delete(context.Background(), 4)
	require.NoError(t, err)
	require.False(t, deleted)

	repo.EXPECT().SearchProducts(gomock.Any(), model.SearchFilter{Text: "camera", Limit: 100}).Return([]model.Product{{ID: 1}}, nil)
	products, err := service.Search(context.Background(), model.SearchFilter{Text: " camera ", Offset: -2})
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = service.Search(context.Background(), model.SearchFilter{MinPrice: floatPtr(50), MaxPrice: floatPtr(10)})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidProduct)
}

func TestSuggestPrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, 30.0, SuggestPrice(model.ConditionNew))
	require.Equal(t, 26.0, SuggestPrice(model.ConditionLikeNew))
	require.Equal(t, 20.0, SuggestPrice(model.ConditionGood))
	require.Equal(t, 14.0, SuggestPrice(model.ConditionFair))
	require.Equal(t, 4.0, SuggestPrice(model.ConditionForParts))
}
