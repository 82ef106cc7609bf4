package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

var (
	trainServer string

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Train and persist one model per discovered dataset",
		Long: "Train and persist one model per discovered dataset.\n\n" +
			"With --server the run happens inside a serving instance (POST /train); " +
			"required for the badger backend while a server holds the store.",
		RunE: runTrain,
	}
)

func init() {
	trainCmd.Flags().StringVar(&trainServer, "server", "", "base URL of a running API; trains locally when empty")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if trainServer != "" {
		outcomes, err := trainRemote(ctx, trainServer)
		if err != nil {
			return err
		}
		printOutcomes(cmd.OutOrStdout(), outcomes)
		return nil
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			app.Logger().Warn("tracing shutdown error", applogger.Error(err))
		}
	}()

	outcomes, err := app.Train(ctx)
	if outcomes != nil {
		printOutcomes(cmd.OutOrStdout(), outcomes)
	}
	return err
}

func trainRemote(ctx context.Context, baseURL string) (map[string]models.TrainingOutcome, error) {
	var resp struct {
		Data struct {
			Rows []models.TrainingOutcome `json:"rows"`
		} `json:"data"`
	}
	if err := xhttp.NewClient(baseURL, xhttp.WithTimeout(time.Hour)).PostJSON(ctx, "/train", struct{}{}, &resp); err != nil {
		return nil, err
	}
	outcomes := make(map[string]models.TrainingOutcome, len(resp.Data.Rows))
	for _, o := range resp.Data.Rows {
		outcomes[o.Entity] = o
	}
	return outcomes, nil
}

func printOutcomes(w io.Writer, outcomes map[string]models.TrainingOutcome) {
	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BANK\tSTATUS\tROWS\tHOLDOUT MAE\tDETAIL")
	for _, k := range keys {
		o := outcomes[k]
		mae := "-"
		if o.HoldoutMAE != nil {
			mae = fmt.Sprintf("%.4f", *o.HoldoutMAE)
		}
		detail := o.Location
		if !o.Succeeded() {
			detail = o.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", k, o.Status, o.Rows, mae, detail)
	}
	_ = tw.Flush()
}
