package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vehicle-insurance-mlops/internal/core/domain"
)

func TestToDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("40454.5")
	assert.NoError(t, err)

	doc := toDocument(bson.D{
		{Key: "_id", Value: oid},
		{Key: "Gender", Value: "Male"},
		{Key: "Age", Value: int32(44)},
		{Key: "Annual_Premium", Value: dec},
		{Key: "Policy_Sales_Channel", Value: primitive.Null{}},
		{Key: "CreatedAt", Value: primitive.NewDateTimeFromTime(at)},
	})

	assert.Equal(t, domain.Document{
		{Key: "_id", Value: oid.Hex()},
		{Key: "Gender", Value: "Male"},
		{Key: "Age", Value: int32(44)},
		{Key: "Annual_Premium", Value: 40454.5},
		{Key: "Policy_Sales_Channel", Value: nil},
		{Key: "CreatedAt", Value: "2024-03-01T12:00:00Z"},
	}, doc)
}
