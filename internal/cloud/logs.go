package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap"
)

// maxMessageLength truncates individual log messages for readability
const maxMessageLength = 500

// insightsErrorQuery filters a log group for common error markers, newest
// first.
const insightsErrorQuery = `fields @timestamp, @message
| filter @message like /(?i)(error|exception|critical|fatal)/
| sort @timestamp desc
| limit %d`

// RecentErrors queries CloudWatch Insights for recent error patterns in a
// log group. The lookback window is clamped to 1..MaxLookbackMinutes and
// results are capped at MaxResults. Polls until the query completes or the
// configured query timeout elapses.
func (c *Client) RecentErrors(ctx context.Context, logGroup string, minutes int) (*ErrorReport, error) {
	if minutes < 1 {
		minutes = 1
	}
	if minutes > c.cfg.MaxLookbackMinutes {
		minutes = c.cfg.MaxLookbackMinutes
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(minutes) * time.Minute)

	out, err := c.logs.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: aws.String(logGroup),
		StartTime:    aws.Int64(start.Unix()),
		EndTime:      aws.Int64(end.Unix()),
		QueryString:  aws.String(fmt.Sprintf(insightsErrorQuery, c.cfg.MaxResults)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Insights query: %w", err)
	}

	queryID := aws.ToString(out.QueryId)
	results, err := c.pollQuery(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}

	entries := make([]ErrorEntry, 0, len(results))
	for _, row := range results {
		var entry ErrorEntry
		for _, field := range row {
			switch aws.ToString(field.Field) {
			case "@timestamp":
				entry.Timestamp = aws.ToString(field.Value)
			case "@message":
				entry.Message = truncate(aws.ToString(field.Value), maxMessageLength)
			}
		}
		if entry != (ErrorEntry{}) {
			entries = append(entries, entry)
		}
	}

	c.logger.Debug("Insights query completed",
		zap.String("log_group", logGroup),
		zap.String("query_id", queryID),
		zap.Int("error_count", len(entries)),
	)

	return &ErrorReport{
		LogGroup: logGroup,
		TimeRange: fmt.Sprintf("Last %d minutes (from %s to %s UTC)",
			minutes, start.Format(time.RFC3339), end.Format(time.RFC3339)),
		ErrorCount: len(entries),
		Errors:     entries,
		QueryID:    queryID,
	}, nil
}

// pollQuery waits for an Insights query to complete, checking once per
// poll interval up to the configured query timeout.
func (c *Client) pollQuery(ctx context.Context, queryID string) ([][]cwltypes.ResultField, error) {
	deadline := time.NewTimer(c.cfg.QueryTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		out, err := c.logs.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
			QueryId: aws.String(queryID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get query results: %w", err)
		}

		switch out.Status {
		case cwltypes.QueryStatusComplete:
			return out.Results, nil
		case cwltypes.QueryStatusFailed, cwltypes.QueryStatusCancelled:
			return nil, fmt.Errorf("query %s", string(out.Status))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("query timed out after %s", c.cfg.QueryTimeout)
		case <-ticker.C:
		}
	}
}

// ListLogGroups lists available log groups, optionally filtered by prefix.
// Limited to the first 50 groups.
func (c *Client) ListLogGroups(ctx context.Context, prefix string) (*LogGroupList, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int32(50),
	}
	if prefix != "" {
		input.LogGroupNamePrefix = aws.String(prefix)
	}

	out, err := c.logs.DescribeLogGroups(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe log groups: %w", err)
	}

	groups := make([]string, 0, len(out.LogGroups))
	for _, lg := range out.LogGroups {
		groups = append(groups, aws.ToString(lg.LogGroupName))
	}

	filter := prefix
	if filter == "" {
		filter = "(none)"
	}

	return &LogGroupList{
		Groups:       groups,
		Count:        len(groups),
		PrefixFilter: filter,
	}, nil
}

// truncate shortens a message to at most n runes, marking the cut
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
