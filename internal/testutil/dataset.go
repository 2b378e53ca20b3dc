package testutil

import (
	"math/rand"

	"vehicle-insurance-mlops/internal/core/domain"
)

var vehicleAges = []string{"< 1 Year", "1-2 Year", "> 2 Years"}

// SyntheticDocuments generates customer records shaped like the cross-sell
// dataset. Response follows a learnable rule with a little label noise:
// uninsured customers with a damaged vehicle aged 25 to 60 tend to say yes.
func SyntheticDocuments(n int, seed int64) []domain.Document {
	rng := rand.New(rand.NewSource(seed))
	docs := make([]domain.Document, 0, n)
	for i := 0; i < n; i++ {
		gender := "Male"
		if rng.Intn(2) == 0 {
			gender = "Female"
		}
		age := 20 + rng.Intn(60)
		insured := rng.Intn(2)
		damage := "No"
		if rng.Intn(2) == 0 {
			damage = "Yes"
		}
		vehicleAge := vehicleAges[rng.Intn(len(vehicleAges))]

		response := 0
		if insured == 0 && damage == "Yes" && age >= 25 && age <= 60 {
			response = 1
		}
		if rng.Float64() < 0.05 {
			response = 1 - response
		}

		docs = append(docs, domain.Document{
			{Key: "_id", Value: rng.Int63()},
			{Key: "id", Value: i + 1},
			{Key: "Gender", Value: gender},
			{Key: "Age", Value: age},
			{Key: "Driving_License", Value: 1},
			{Key: "Region_Code", Value: float64(rng.Intn(50))},
			{Key: "Previously_Insured", Value: insured},
			{Key: "Vehicle_Age", Value: vehicleAge},
			{Key: "Vehicle_Damage", Value: damage},
			{Key: "Annual_Premium", Value: 2630 + rng.Float64()*60000},
			{Key: "Policy_Sales_Channel", Value: float64(1 + rng.Intn(160))},
			{Key: "Vintage", Value: 10 + rng.Intn(290)},
			{Key: "Response", Value: response},
		})
	}
	return docs
}

// SyntheticFrame is SyntheticDocuments as a frame without the store id.
func SyntheticFrame(n int, seed int64) *domain.Frame {
	frame, err := domain.FrameFromDocuments(SyntheticDocuments(n, seed), "_id")
	if err != nil {
		panic(err)
	}
	return frame
}
