package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codedeploy"
	cdtypes "github.com/aws/aws-sdk-go-v2/service/codedeploy/types"
	"go.uber.org/zap"
)

// deploymentStatuses are the statuses considered when locating the most
// recent deployment.
var deploymentStatuses = []cdtypes.DeploymentStatus{
	cdtypes.DeploymentStatusCreated,
	cdtypes.DeploymentStatusQueued,
	cdtypes.DeploymentStatusInProgress,
	cdtypes.DeploymentStatusBaking,
	cdtypes.DeploymentStatusSucceeded,
	cdtypes.DeploymentStatusFailed,
	cdtypes.DeploymentStatusStopped,
	cdtypes.DeploymentStatusReady,
}

// DeploymentStatus returns the most recent CodeDeploy deployment for an
// application across all of its deployment groups, including failure
// details and per-instance status.
func (c *Client) DeploymentStatus(ctx context.Context, application string) (*DeploymentReport, error) {
	groupsOut, err := c.deploy.ListDeploymentGroups(ctx, &codedeploy.ListDeploymentGroupsInput{
		ApplicationName: aws.String(application),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment groups: %w", err)
	}

	if len(groupsOut.DeploymentGroups) == 0 {
		return nil, fmt.Errorf("no deployment groups found for application %q", application)
	}

	var latest *cdtypes.DeploymentInfo
	var latestGroup, latestID string

	for _, group := range groupsOut.DeploymentGroups {
		deploysOut, err := c.deploy.ListDeployments(ctx, &codedeploy.ListDeploymentsInput{
			ApplicationName:     aws.String(application),
			DeploymentGroupName: aws.String(group),
			IncludeOnlyStatuses: deploymentStatuses,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments for group %q: %w", group, err)
		}

		if len(deploysOut.Deployments) == 0 {
			continue
		}

		// Deployments are returned newest first; only the head matters.
		deploymentID := deploysOut.Deployments[0]
		infoOut, err := c.deploy.GetDeployment(ctx, &codedeploy.GetDeploymentInput{
			DeploymentId: aws.String(deploymentID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get deployment %q: %w", deploymentID, err)
		}

		info := infoOut.DeploymentInfo
		if info == nil {
			continue
		}

		if latest == nil || (info.CreateTime != nil && latest.CreateTime != nil && info.CreateTime.After(*latest.CreateTime)) {
			latest = info
			latestGroup = group
			latestID = deploymentID
		}
	}

	if latest == nil {
		return &DeploymentReport{
			Application: application,
			Groups:      groupsOut.DeploymentGroups,
			Message:     "No deployments found for this application",
		}, nil
	}

	detail := &DeploymentDetail{
		DeploymentID:     latestID,
		DeploymentGroup:  latestGroup,
		Status:           string(latest.Status),
		CreateTime:       latest.CreateTime,
		CompleteTime:     latest.CompleteTime,
		RevisionLocation: formatRevision(latest.Revision),
	}

	if ei := latest.ErrorInformation; ei != nil {
		detail.ErrorInfo = &DeploymentError{
			Code:    string(ei.Code),
			Message: aws.ToString(ei.Message),
		}
	}

	if ov := latest.DeploymentOverview; ov != nil {
		detail.InstanceSummary = &InstanceSummary{
			Pending:    ov.Pending,
			InProgress: ov.InProgress,
			Succeeded:  ov.Succeeded,
			Failed:     ov.Failed,
			Skipped:    ov.Skipped,
			Ready:      ov.Ready,
		}
	}

	if rb := latest.RollbackInfo; rb != nil {
		detail.RollbackInfo = &RollbackInfo{
			RollbackDeploymentID:           aws.ToString(rb.RollbackDeploymentId),
			RollbackTriggeringDeploymentID: aws.ToString(rb.RollbackTriggeringDeploymentId),
			RollbackMessage:                aws.ToString(rb.RollbackMessage),
		}
	}

	c.logger.Debug("Deployment status resolved",
		zap.String("application", application),
		zap.String("deployment_id", latestID),
		zap.String("status", detail.Status),
	)

	return &DeploymentReport{
		Application: application,
		Deployment:  detail,
	}, nil
}

// formatRevision renders a revision location as a short string
func formatRevision(rev *cdtypes.RevisionLocation) string {
	if rev == nil {
		return ""
	}

	switch rev.RevisionType {
	case cdtypes.RevisionLocationTypeS3:
		if s3 := rev.S3Location; s3 != nil {
			return fmt.Sprintf("s3://%s/%s", aws.ToString(s3.Bucket), aws.ToString(s3.Key))
		}
	case cdtypes.RevisionLocationTypeGitHub:
		if gh := rev.GitHubLocation; gh != nil {
			commit := aws.ToString(gh.CommitId)
			if len(commit) > 8 {
				commit = commit[:8]
			}
			return fmt.Sprintf("github:%s@%s", aws.ToString(gh.Repository), commit)
		}
	}
	return string(rev.RevisionType)
}
