package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/solatis/surveyflow/internal/core/api"
	"github.com/solatis/surveyflow/internal/core/config"
	"github.com/solatis/surveyflow/internal/core/logging"
	"github.com/solatis/surveyflow/internal/logic"
	lambdatransport "github.com/solatis/surveyflow/internal/transport/lambdatransport"
)

func main() {
	// Configuration comes from SF_ environment variables only.
	cfg, err := config.LoadConfig("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger, closer := logging.Setup(cfg.Log)
	defer closer.Close()

	evaluator, err := api.NewEvaluator(logic.NewEngine(), cfg.Engine, logger)
	if err != nil {
		logger.Error("failed to create evaluator", "error", err)
		os.Exit(1)
	}
	h := lambdatransport.NewHandler(evaluator)

	lambda.Start(h.Handle)
}
