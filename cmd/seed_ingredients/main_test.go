package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/testdb"
)

func TestSeed(t *testing.T) {
	ingredients := service.NewIngredientService(testdb.SQLite(t), nil)
	ctx := context.Background()

	added, err := seed(ctx, ingredients, []string{"tomato", "Tomatoes", "basil"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = seed(ctx, ingredients, []string{"Basil", "egg"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	list, err := ingredients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
