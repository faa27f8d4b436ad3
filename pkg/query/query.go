package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"

	"go.uber.org/zap"
)

// Engine abstracts the ad-hoc SQL layer over the lake
type Engine interface {
	// Configure creates the analytics database, running the statement in the
	// context of an existing catalog database
	Configure(ctx context.Context, catalogDatabase, analyticsDatabase string) error

	// Execute runs a statement and waits for it to reach a terminal state.
	// It returns the query execution id.
	Execute(ctx context.Context, database, statement string) (string, error)
}

// AthenaAPI is the subset of the Athena client the engine uses
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// Compile-time checks
var (
	_ AthenaAPI = (*athena.Client)(nil)
	_ Engine    = (*AthenaEngine)(nil)
)

// AthenaEngine configures Athena as the SQL layer over the lake
type AthenaEngine struct {
	client         AthenaAPI
	outputLocation string
	pollInterval   time.Duration
	timeout        time.Duration
	logger         *logger.Logger
}

// NewAthenaEngine creates an engine. Results of every statement land under
// outputLocation; timeout bounds how long Execute waits per statement.
func NewAthenaEngine(client AthenaAPI, outputLocation string, pollInterval, timeout time.Duration, l *logger.Logger) *AthenaEngine {
	return &AthenaEngine{
		client:         client,
		outputLocation: outputLocation,
		pollInterval:   pollInterval,
		timeout:        timeout,
		logger:         l,
	}
}

// Configure ensures the analytics database exists so ad-hoc SQL can run
// against the lake right after a load. The analytics database may not exist
// yet, so the statement runs in the context of the catalog database.
func (s *AthenaEngine) Configure(ctx context.Context, catalogDatabase, analyticsDatabase string) error {
	statement := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", analyticsDatabase)
	id, err := s.Execute(ctx, catalogDatabase, statement)
	if err != nil {
		return err
	}

	s.logger.Info("query service configured",
		zap.String("database", analyticsDatabase),
		zap.String("query_execution_id", id))
	return nil
}

// Execute runs a statement and waits for it to reach a terminal state
func (s *AthenaEngine) Execute(ctx context.Context, database, statement string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(statement),
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(s.outputLocation),
		},
	}
	if database != "" {
		input.QueryExecutionContext = &types.QueryExecutionContext{
			Database: aws.String(database),
		}
	}

	out, err := s.client.StartQueryExecution(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to start query execution: %w", err)
	}

	id := aws.ToString(out.QueryExecutionId)
	if err := s.wait(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// wait polls the execution until it succeeds, fails, or the timeout expires
func (s *AthenaEngine) wait(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		out, err := s.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		if err != nil {
			return fmt.Errorf("failed to get query execution %s: %w", id, err)
		}

		state := out.QueryExecution.Status.State
		switch state {
		case types.QueryExecutionStateSucceeded:
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			reason := aws.ToString(out.QueryExecution.Status.StateChangeReason)
			return fmt.Errorf("query execution %s %s: %s", id, strings.ToLower(string(state)), reason)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("query execution %s did not finish: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
