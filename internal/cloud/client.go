// Package cloud wraps the AWS CloudWatch Logs and CodeDeploy APIs behind
// the narrow query surface the sentinel exposes to agents. Every call is
// bounded: lookback windows are clamped, result counts capped, and query
// polling carries a hard deadline, so a misbehaving agent cannot run up
// AWS costs.
//
// The wrappers return raw AWS text; sanitization happens in the caller.
package cloud

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codedeploy"
	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/config"
	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// LogsAPI is the subset of the CloudWatch Logs client used by the sentinel
type LogsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

// DeployAPI is the subset of the CodeDeploy client used by the sentinel
type DeployAPI interface {
	ListDeploymentGroups(ctx context.Context, params *codedeploy.ListDeploymentGroupsInput, optFns ...func(*codedeploy.Options)) (*codedeploy.ListDeploymentGroupsOutput, error)
	ListDeployments(ctx context.Context, params *codedeploy.ListDeploymentsInput, optFns ...func(*codedeploy.Options)) (*codedeploy.ListDeploymentsOutput, error)
	GetDeployment(ctx context.Context, params *codedeploy.GetDeploymentInput, optFns ...func(*codedeploy.Options)) (*codedeploy.GetDeploymentOutput, error)
}

// Client bundles the AWS query wrappers
type Client struct {
	logs   LogsAPI
	deploy DeployAPI
	cfg    config.AWSConfig
	logger *logger.Logger
}

// New creates a client using the default AWS credential chain
func New(ctx context.Context, cfg config.AWSConfig, log *logger.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	log.Info("AWS client initialized",
		zap.String("region", cfg.Region),
		zap.Int("max_lookback_minutes", cfg.MaxLookbackMinutes),
		zap.Int("max_results", cfg.MaxResults),
	)

	return &Client{
		logs:   cloudwatchlogs.NewFromConfig(awsCfg),
		deploy: codedeploy.NewFromConfig(awsCfg),
		cfg:    cfg,
		logger: log,
	}, nil
}

// NewWithAPIs creates a client over explicit API implementations. Used by
// tests to substitute stubs.
func NewWithAPIs(logs LogsAPI, deploy DeployAPI, cfg config.AWSConfig, log *logger.Logger) *Client {
	return &Client{
		logs:   logs,
		deploy: deploy,
		cfg:    cfg,
		logger: log,
	}
}
