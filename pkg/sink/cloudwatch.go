package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
	"github.com/kingdave4/Nba-Data-Lake/pkg/metrics"

	"go.uber.org/zap"
)

// CWLogsAPI is the subset of the CloudWatch Logs client the sink uses
type CWLogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Compile-time checks
var (
	_ CWLogsAPI = (*cloudwatchlogs.Client)(nil)
	_ Sink      = (*CloudWatch)(nil)
)

// CloudWatch emits pipeline step events to a CloudWatch Logs stream
type CloudWatch struct {
	client CWLogsAPI
	group  string
	stream string
	logger *logger.Logger
}

// NewCloudWatch creates a sink for the given log group. An empty stream name
// gets a fresh per-run stream so concurrent runs do not interleave.
func NewCloudWatch(client CWLogsAPI, group, stream string, l *logger.Logger) *CloudWatch {
	if stream == "" {
		stream = "run-" + uuid.NewString()
	}
	return &CloudWatch{
		client: client,
		group:  group,
		stream: stream,
		logger: l,
	}
}

// Provision creates the log group and stream. Either may be left over from a
// previous run, which is fine.
func (c *CloudWatch) Provision(ctx context.Context) error {
	_, err := c.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(c.group),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create log group %s: %w", c.group, err)
	}

	_, err = c.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(c.stream),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create log stream %s: %w", c.stream, err)
	}

	c.logger.Info("log sink provisioned",
		zap.String("group", c.group),
		zap.String("stream", c.stream))
	return nil
}

// Emit sends one event to the stream
func (c *CloudWatch) Emit(ctx context.Context, ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = c.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(c.stream),
		LogEvents: []types.InputLogEvent{{
			Message:   aws.String(string(msg)),
			Timestamp: aws.Int64(ts.UnixMilli()),
		}},
	})
	if err != nil {
		metrics.SinkEmitErrorsTotal.Inc()
		return fmt.Errorf("failed to put log events: %w", err)
	}
	return nil
}

func alreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}
