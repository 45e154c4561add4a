package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductV1(t *testing.T) {
	vMarshal := ProductV1{
		ID:          "testID",
		Name:        "Linen Shirt",
		Material:    "organic linen",
		Price:       129,
		ImpactScore: 5,
		IsNew:       true,
	}

	var productSchema avro.Schema
	require.NotPanics(t, func() {
		productSchema = ProductV1Avro()
	})

	data, err := avro.Marshal(productSchema, vMarshal)
	require.NoError(t, err)

	var vUnmarshal ProductV1
	err = avro.Unmarshal(productSchema, data, &vUnmarshal)
	require.NoError(t, err)

	assert.Equal(t, vMarshal, vUnmarshal)
}

func TestQueryEventV1(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		vMarshal := QueryEventV1{
			QueryID:      "testQueryID",
			Materials:    []string{"organic-cotton", "hemp"},
			MaxPrice:     250,
			ImpactScores: []int32{4, 5},
			Sort:         "price-low",
			Visible:      17,
			OccurredAt:   time.UnixMilli(1760870000123).UTC(),
		}

		var eventSchema avro.Schema
		require.NotPanics(t, func() {
			eventSchema = QueryEventV1Avro()
		})

		data, err := avro.Marshal(eventSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal QueryEventV1
		err = avro.Unmarshal(eventSchema, data, &vUnmarshal)
		require.NoError(t, err)

		assert.Equal(t, vMarshal.QueryID, vUnmarshal.QueryID)
		assert.Equal(t, vMarshal.Materials, vUnmarshal.Materials)
		assert.Equal(t, vMarshal.MaxPrice, vUnmarshal.MaxPrice)
		assert.Equal(t, vMarshal.ImpactScores, vUnmarshal.ImpactScores)
		assert.Equal(t, vMarshal.Sort, vUnmarshal.Sort)
		assert.Equal(t, vMarshal.Visible, vUnmarshal.Visible)
		assert.True(t, vMarshal.OccurredAt.Equal(vUnmarshal.OccurredAt))
	})

	t.Run("NilArrays", func(t *testing.T) {
		vMarshal := QueryEventV1{
			QueryID:    "testQueryID",
			MaxPrice:   500,
			Sort:       "featured",
			OccurredAt: time.UnixMilli(1760870000000).UTC(),
		}

		eventSchema := QueryEventV1Avro()

		data, err := avro.Marshal(eventSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal QueryEventV1
		err = avro.Unmarshal(eventSchema, data, &vUnmarshal)
		require.NoError(t, err)

		assert.Empty(t, vUnmarshal.Materials)
		assert.Empty(t, vUnmarshal.ImpactScores)
		assert.Equal(t, vMarshal.MaxPrice, vUnmarshal.MaxPrice)
	})
}
