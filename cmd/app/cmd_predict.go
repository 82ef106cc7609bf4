package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
)

var (
	predictBank   string
	predictDate   string
	predictPeriod string
	predictServer string

	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Predict closing prices around a date for one bank",
		RunE:  runPredict,
	}
)

func init() {
	predictCmd.Flags().StringVar(&predictBank, "bank", "", "bank (entity key)")
	predictCmd.Flags().StringVar(&predictDate, "date", "", "target date, YYYY-MM-DD")
	predictCmd.Flags().StringVar(&predictPeriod, "period", string(models.PeriodDay), "day, month or year")
	predictCmd.Flags().StringVar(&predictServer, "server", "", "base URL of a running API; predicts locally when empty")
	_ = predictCmd.MarkFlagRequired("bank")
	_ = predictCmd.MarkFlagRequired("date")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	var (
		resp models.PredictResponse
		err  error
	)
	if predictServer != "" {
		resp, err = predictRemote(cmd.Context())
	} else {
		resp, err = predictLocal(cmd.Context())
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func predictLocal(ctx context.Context) (models.PredictResponse, error) {
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return models.PredictResponse{}, err
	}
	defer cleanup()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Close(closeCtx)
	}()

	res, err := app.Predict(ctx, usecase.PredictParams{Bank: predictBank, Date: predictDate, Period: predictPeriod})
	if err != nil {
		return models.PredictResponse{}, err
	}
	return models.NewPredictResponse(res), nil
}

func predictRemote(ctx context.Context) (models.PredictResponse, error) {
	var resp models.PredictResponse
	err := xhttp.NewClient(predictServer).PostJSON(ctx, "/predict", models.PredictRequest{
		BankName: predictBank,
		Date:     predictDate,
		Period:   predictPeriod,
	}, &resp)
	return resp, err
}
