package cloud

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codedeploy"
	cdtypes "github.com/aws/aws-sdk-go-v2/service/codedeploy/types"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// stubDeploy is a scripted DeployAPI for tests
type stubDeploy struct {
	groups    []string
	groupsErr error

	// deployments per group name, newest first
	deployments map[string][]string
	// info per deployment ID
	info map[string]*cdtypes.DeploymentInfo
}

func (s *stubDeploy) ListDeploymentGroups(ctx context.Context, params *codedeploy.ListDeploymentGroupsInput, optFns ...func(*codedeploy.Options)) (*codedeploy.ListDeploymentGroupsOutput, error) {
	if s.groupsErr != nil {
		return nil, s.groupsErr
	}
	return &codedeploy.ListDeploymentGroupsOutput{DeploymentGroups: s.groups}, nil
}

func (s *stubDeploy) ListDeployments(ctx context.Context, params *codedeploy.ListDeploymentsInput, optFns ...func(*codedeploy.Options)) (*codedeploy.ListDeploymentsOutput, error) {
	group := aws.ToString(params.DeploymentGroupName)
	return &codedeploy.ListDeploymentsOutput{Deployments: s.deployments[group]}, nil
}

func (s *stubDeploy) GetDeployment(ctx context.Context, params *codedeploy.GetDeploymentInput, optFns ...func(*codedeploy.Options)) (*codedeploy.GetDeploymentOutput, error) {
	id := aws.ToString(params.DeploymentId)
	info, ok := s.info[id]
	if !ok {
		return nil, errors.New("DeploymentDoesNotExistException")
	}
	return &codedeploy.GetDeploymentOutput{DeploymentInfo: info}, nil
}

func deploymentInfo(status cdtypes.DeploymentStatus, created time.Time) *cdtypes.DeploymentInfo {
	return &cdtypes.DeploymentInfo{
		Status:     status,
		CreateTime: aws.Time(created),
	}
}

// TestDeploymentStatus tests latest-deployment resolution across groups
func TestDeploymentStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("NoGroupsErrors", func(t *testing.T) {
		stub := &stubDeploy{}
		c := NewWithAPIs(nil, stub, testAWSConfig(), logger.Nop())

		_, err := c.DeploymentStatus(ctx, "my-app")
		if err == nil || !strings.Contains(err.Error(), "no deployment groups") {
			t.Errorf("Expected no-groups error, got %v", err)
		}
	})

	t.Run("GroupsButNoDeployments", func(t *testing.T) {
		stub := &stubDeploy{groups: []string{"blue", "green"}}
		c := NewWithAPIs(nil, stub, testAWSConfig(), logger.Nop())

		report, err := c.DeploymentStatus(ctx, "my-app")
		if err != nil {
			t.Fatalf("DeploymentStatus failed: %v", err)
		}
		if report.Deployment != nil {
			t.Error("Expected nil deployment detail")
		}
		if report.Message == "" {
			t.Error("Expected explanatory message")
		}
		if len(report.Groups) != 2 {
			t.Errorf("Groups = %v", report.Groups)
		}
	})

	t.Run("PicksLatestAcrossGroups", func(t *testing.T) {
		stub := &stubDeploy{
			groups: []string{"blue", "green"},
			deployments: map[string][]string{
				"blue":  {"d-OLD"},
				"green": {"d-NEW"},
			},
			info: map[string]*cdtypes.DeploymentInfo{
				"d-OLD": deploymentInfo(cdtypes.DeploymentStatusSucceeded, now.Add(-time.Hour)),
				"d-NEW": deploymentInfo(cdtypes.DeploymentStatusInProgress, now),
			},
		}
		c := NewWithAPIs(nil, stub, testAWSConfig(), logger.Nop())

		report, err := c.DeploymentStatus(ctx, "my-app")
		if err != nil {
			t.Fatalf("DeploymentStatus failed: %v", err)
		}
		d := report.Deployment
		if d == nil {
			t.Fatal("Expected deployment detail")
		}
		if d.DeploymentID != "d-NEW" || d.DeploymentGroup != "green" {
			t.Errorf("Picked %s in %s, want d-NEW in green", d.DeploymentID, d.DeploymentGroup)
		}
		if d.Status != "InProgress" {
			t.Errorf("Status = %q", d.Status)
		}
	})

	t.Run("IncludesFailureDetails", func(t *testing.T) {
		info := deploymentInfo(cdtypes.DeploymentStatusFailed, now)
		info.ErrorInformation = &cdtypes.ErrorInformation{
			Code:    cdtypes.ErrorCodeHealthConstraints,
			Message: aws.String("too many unhealthy instances"),
		}
		info.DeploymentOverview = &cdtypes.DeploymentOverview{
			Succeeded: 2,
			Failed:    3,
			Pending:   1,
		}
		info.RollbackInfo = &cdtypes.RollbackInfo{
			RollbackDeploymentId:           aws.String("d-ROLLBACK"),
			RollbackTriggeringDeploymentId: aws.String("d-FAILED"),
			RollbackMessage:                aws.String("auto rollback triggered"),
		}

		stub := &stubDeploy{
			groups:      []string{"prod"},
			deployments: map[string][]string{"prod": {"d-FAILED"}},
			info:        map[string]*cdtypes.DeploymentInfo{"d-FAILED": info},
		}
		c := NewWithAPIs(nil, stub, testAWSConfig(), logger.Nop())

		report, err := c.DeploymentStatus(ctx, "my-app")
		if err != nil {
			t.Fatalf("DeploymentStatus failed: %v", err)
		}
		d := report.Deployment
		if d.ErrorInfo == nil || d.ErrorInfo.Message != "too many unhealthy instances" {
			t.Errorf("ErrorInfo = %+v", d.ErrorInfo)
		}
		if d.InstanceSummary == nil || d.InstanceSummary.Failed != 3 || d.InstanceSummary.Succeeded != 2 {
			t.Errorf("InstanceSummary = %+v", d.InstanceSummary)
		}
		if d.RollbackInfo == nil || d.RollbackInfo.RollbackDeploymentID != "d-ROLLBACK" {
			t.Errorf("RollbackInfo = %+v", d.RollbackInfo)
		}
	})

	t.Run("ListGroupsFailure", func(t *testing.T) {
		stub := &stubDeploy{groupsErr: errors.New("ApplicationDoesNotExistException")}
		c := NewWithAPIs(nil, stub, testAWSConfig(), logger.Nop())

		if _, err := c.DeploymentStatus(ctx, "missing-app"); err == nil {
			t.Error("Expected error when listing groups fails")
		}
	})
}

// TestFormatRevision tests revision location rendering
func TestFormatRevision(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		if got := formatRevision(nil); got != "" {
			t.Errorf("formatRevision(nil) = %q", got)
		}
	})

	t.Run("S3", func(t *testing.T) {
		rev := &cdtypes.RevisionLocation{
			RevisionType: cdtypes.RevisionLocationTypeS3,
			S3Location: &cdtypes.S3Location{
				Bucket: aws.String("deploy-bucket"),
				Key:    aws.String("releases/app-1.2.3.zip"),
			},
		}
		if got := formatRevision(rev); got != "s3://deploy-bucket/releases/app-1.2.3.zip" {
			t.Errorf("formatRevision = %q", got)
		}
	})

	t.Run("GitHubShortCommit", func(t *testing.T) {
		rev := &cdtypes.RevisionLocation{
			RevisionType: cdtypes.RevisionLocationTypeGitHub,
			GitHubLocation: &cdtypes.GitHubLocation{
				Repository: aws.String("acme/app"),
				CommitId:   aws.String("0123456789abcdef0123456789abcdef01234567"),
			},
		}
		if got := formatRevision(rev); got != "github:acme/app@01234567" {
			t.Errorf("formatRevision = %q", got)
		}
	})
}
