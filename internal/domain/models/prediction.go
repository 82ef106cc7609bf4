package models

import "time"

// PredictionPoint is one date of a planned range with its predicted close.
type PredictionPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PredictionResult is the assembled output of a range prediction.
// TargetPrediction is 0 and TargetFound false when the target date is
// missing from Points.
type PredictionResult struct {
	Bank             string            `json:"bank"`
	TargetDate       time.Time         `json:"target_date"`
	Period           Period            `json:"period"`
	Points           []PredictionPoint `json:"points"`
	TargetPrediction float64           `json:"target_prediction"`
	TargetFound      bool              `json:"target_found"`
	ModelVersion     string            `json:"model_version"`
}
