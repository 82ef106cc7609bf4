package models

import "time"

// Requests and responses for the prediction HTTP endpoints.

type PredictRequest struct {
	BankName string `json:"bank_name" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Period   string `json:"period" validate:"required"`
}

// PredictResponse is the flat wire form of a PredictionResult, with dates
// rendered as YYYY-MM-DD.
type PredictResponse struct {
	Bank             string    `json:"bank"`
	TargetDate       string    `json:"target_date"`
	Period           string    `json:"period"`
	Dates            []string  `json:"dates"`
	Prices           []float64 `json:"prices"`
	TargetPrediction float64   `json:"target_prediction"`
}

type HomeResponse struct {
	Message string `json:"message"`
}

func NewPredictResponse(res *PredictionResult) PredictResponse {
	out := PredictResponse{
		Bank:             res.Bank,
		TargetDate:       res.TargetDate.Format(time.DateOnly),
		Period:           string(res.Period),
		Dates:            make([]string, len(res.Points)),
		Prices:           make([]float64, len(res.Points)),
		TargetPrediction: res.TargetPrediction,
	}
	for i, p := range res.Points {
		out.Dates[i] = p.Date.Format(time.DateOnly)
		out.Prices[i] = p.Value
	}
	return out
}
