package sink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
)

// Mocks
type MockCWLogs struct{ mock.Mock }

func (m *MockCWLogs) CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*cloudwatchlogs.CreateLogGroupOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCWLogs) CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*cloudwatchlogs.CreateLogStreamOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCWLogs) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*cloudwatchlogs.PutLogEventsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestProvision(t *testing.T) {
	mc := new(MockCWLogs)
	mc.On("CreateLogGroup", mock.Anything, mock.MatchedBy(func(in *cloudwatchlogs.CreateLogGroupInput) bool {
		return aws.ToString(in.LogGroupName) == "NBAAnalyticsLogGroup"
	})).Return(&cloudwatchlogs.CreateLogGroupOutput{}, nil)
	mc.On("CreateLogStream", mock.Anything, mock.MatchedBy(func(in *cloudwatchlogs.CreateLogStreamInput) bool {
		return aws.ToString(in.LogGroupName) == "NBAAnalyticsLogGroup" &&
			aws.ToString(in.LogStreamName) == "pipeline"
	})).Return(&cloudwatchlogs.CreateLogStreamOutput{}, nil)

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	require.NoError(t, s.Provision(context.Background()))
	mc.AssertExpectations(t)
}

func TestProvisionAlreadyExists(t *testing.T) {
	mc := new(MockCWLogs)
	mc.On("CreateLogGroup", mock.Anything, mock.Anything).Return(nil, &types.ResourceAlreadyExistsException{})
	mc.On("CreateLogStream", mock.Anything, mock.Anything).Return(nil, &types.ResourceAlreadyExistsException{})

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	assert.NoError(t, s.Provision(context.Background()))
}

func TestProvisionGroupError(t *testing.T) {
	mc := new(MockCWLogs)
	mc.On("CreateLogGroup", mock.Anything, mock.Anything).Return(nil, errors.New("limit exceeded"))

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	err := s.Provision(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create log group")
	mc.AssertNotCalled(t, "CreateLogStream", mock.Anything, mock.Anything)
}

func TestProvisionDefaultStreamPerRun(t *testing.T) {
	var streamName string
	mc := new(MockCWLogs)
	mc.On("CreateLogGroup", mock.Anything, mock.Anything).Return(&cloudwatchlogs.CreateLogGroupOutput{}, nil)
	mc.On("CreateLogStream", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		streamName = aws.ToString(args.Get(1).(*cloudwatchlogs.CreateLogStreamInput).LogStreamName)
	}).Return(&cloudwatchlogs.CreateLogStreamOutput{}, nil)

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "", logger.NewNop())
	require.NoError(t, s.Provision(context.Background()))
	assert.True(t, strings.HasPrefix(streamName, "run-"), "got stream %q", streamName)
}

func TestEmit(t *testing.T) {
	var captured *cloudwatchlogs.PutLogEventsInput
	mc := new(MockCWLogs)
	mc.On("PutLogEvents", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*cloudwatchlogs.PutLogEventsInput)
	}).Return(&cloudwatchlogs.PutLogEventsOutput{}, nil)

	now := time.Now()
	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	err := s.Emit(context.Background(), Event{
		Step:    "fetch_players",
		Status:  StatusCompleted,
		Message: "fetched 450 players",
		Time:    now,
	})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "NBAAnalyticsLogGroup", aws.ToString(captured.LogGroupName))
	assert.Equal(t, "pipeline", aws.ToString(captured.LogStreamName))
	require.Len(t, captured.LogEvents, 1)

	msg := aws.ToString(captured.LogEvents[0].Message)
	assert.Contains(t, msg, `"step":"fetch_players"`)
	assert.Contains(t, msg, `"status":"completed"`)
	assert.Contains(t, msg, `"message":"fetched 450 players"`)
	assert.Equal(t, now.UnixMilli(), aws.ToInt64(captured.LogEvents[0].Timestamp))
}

func TestEmitDefaultsTimestamp(t *testing.T) {
	var captured *cloudwatchlogs.PutLogEventsInput
	mc := new(MockCWLogs)
	mc.On("PutLogEvents", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*cloudwatchlogs.PutLogEventsInput)
	}).Return(&cloudwatchlogs.PutLogEventsOutput{}, nil)

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	require.NoError(t, s.Emit(context.Background(), Event{Step: "provision_sink", Status: StatusStarted}))
	require.NotNil(t, captured)
	assert.Positive(t, aws.ToInt64(captured.LogEvents[0].Timestamp))
}

func TestEmitError(t *testing.T) {
	mc := new(MockCWLogs)
	mc.On("PutLogEvents", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	s := NewCloudWatch(mc, "NBAAnalyticsLogGroup", "pipeline", logger.NewNop())
	err := s.Emit(context.Background(), Event{Step: "fetch_players", Status: StatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put log events")
}

func TestNopSink(t *testing.T) {
	var s Nop
	assert.NoError(t, s.Provision(context.Background()))
	assert.NoError(t, s.Emit(context.Background(), Event{Step: "anything"}))
}
