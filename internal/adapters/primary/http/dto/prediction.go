package dto

// PredictRequest carries one customer record. Pointer fields left out of the
// request reach the model as missing values.
type PredictRequest struct {
	Gender             string   `json:"gender" binding:"required,oneof=Male Female"`
	Age                *float64 `json:"age" binding:"required,gte=0"`
	DrivingLicense     *float64 `json:"driving_license"`
	RegionCode         *float64 `json:"region_code"`
	PreviouslyInsured  *float64 `json:"previously_insured"`
	AnnualPremium      *float64 `json:"annual_premium" binding:"required,gte=0"`
	PolicySalesChannel *float64 `json:"policy_sales_channel"`
	Vintage            *float64 `json:"vintage"`
	VehicleAge         string   `json:"vehicle_age" binding:"required"`
	VehicleDamage      string   `json:"vehicle_damage" binding:"required,oneof=Yes No"`

	// Features overrides or adds raw columns by their dataset name.
	Features map[string]interface{} `json:"features"`
}

// ToRecord keys the request by dataset column name.
func (r PredictRequest) ToRecord() map[string]interface{} {
	rec := map[string]interface{}{
		"Gender":         r.Gender,
		"Vehicle_Age":    r.VehicleAge,
		"Vehicle_Damage": r.VehicleDamage,
	}
	for col, v := range map[string]*float64{
		"Age":                  r.Age,
		"Driving_License":      r.DrivingLicense,
		"Region_Code":          r.RegionCode,
		"Previously_Insured":   r.PreviouslyInsured,
		"Annual_Premium":       r.AnnualPremium,
		"Policy_Sales_Channel": r.PolicySalesChannel,
		"Vintage":              r.Vintage,
	} {
		if v != nil {
			rec[col] = *v
		}
	}
	for col, v := range r.Features {
		rec[col] = v
	}
	return rec
}

type PredictResponse struct {
	Prediction  int     `json:"prediction"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	ModelKey    string  `json:"model_key"`
}
