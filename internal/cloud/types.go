package cloud

import "time"

// ErrorEntry is one matched log event from an Insights error query
type ErrorEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// ErrorReport is the result of a recent-errors query against one log group
type ErrorReport struct {
	LogGroup   string       `json:"log_group"`
	TimeRange  string       `json:"time_range"`
	ErrorCount int          `json:"error_count"`
	Errors     []ErrorEntry `json:"errors"`
	QueryID    string       `json:"query_id"`
}

// LogGroupList is the result of a log group discovery call
type LogGroupList struct {
	Groups       []string `json:"log_groups"`
	Count        int      `json:"count"`
	PrefixFilter string   `json:"prefix_filter"`
}

// DeploymentReport describes the most recent CodeDeploy deployment for an
// application
type DeploymentReport struct {
	Application string            `json:"application"`
	Deployment  *DeploymentDetail `json:"deployment,omitempty"`
	Groups      []string          `json:"deployment_groups,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// DeploymentDetail holds per-deployment status information
type DeploymentDetail struct {
	DeploymentID     string           `json:"deployment_id"`
	DeploymentGroup  string           `json:"deployment_group"`
	Status           string           `json:"status"`
	CreateTime       *time.Time       `json:"create_time,omitempty"`
	CompleteTime     *time.Time       `json:"complete_time,omitempty"`
	RevisionLocation string           `json:"revision_location,omitempty"`
	ErrorInfo        *DeploymentError `json:"error_info,omitempty"`
	InstanceSummary  *InstanceSummary `json:"instance_summary,omitempty"`
	RollbackInfo     *RollbackInfo    `json:"rollback_info,omitempty"`
}

// DeploymentError carries the failure code and message of a failed
// deployment
type DeploymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InstanceSummary summarizes per-instance deployment statuses
type InstanceSummary struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Succeeded  int64 `json:"succeeded"`
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
	Ready      int64 `json:"ready"`
}

// RollbackInfo describes an automatic rollback attached to a deployment
type RollbackInfo struct {
	RollbackDeploymentID           string `json:"rollback_deployment_id,omitempty"`
	RollbackTriggeringDeploymentID string `json:"rollback_triggering_deployment_id,omitempty"`
	RollbackMessage                string `json:"rollback_message,omitempty"`
}
