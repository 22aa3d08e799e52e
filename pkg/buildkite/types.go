package buildkite

import "time"

// ConnectionState is an agent's connection to Buildkite.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionStopping     ConnectionState = "stopping"
	ConnectionStopped      ConnectionState = "stopped"
	ConnectionLost         ConnectionState = "lost"
)

// BuildState is the lifecycle state of a build as reported by the API.
type BuildState string

const (
	BuildCreating  BuildState = "creating"
	BuildScheduled BuildState = "scheduled"
	BuildRunning   BuildState = "running"
	BuildPassed    BuildState = "passed"
	BuildFailed    BuildState = "failed"
	BuildBlocked   BuildState = "blocked"
	BuildCanceling BuildState = "canceling"
	BuildCanceled  BuildState = "canceled"
	BuildSkipped   BuildState = "skipped"
	BuildNotRun    BuildState = "not_run"
	BuildFinished  BuildState = "finished"
)

// JobState is the lifecycle state of a job.
// passed and failed are not documented job states but the API returns them.
type JobState string

const (
	JobPassed          JobState = "passed"
	JobFailed          JobState = "failed"
	JobPending         JobState = "pending"
	JobWaiting         JobState = "waiting"
	JobWaitingFailed   JobState = "waiting_failed"
	JobBlocked         JobState = "blocked"
	JobBlockedFailed   JobState = "blocked_failed"
	JobUnblocked       JobState = "unblocked"
	JobUnblockedFailed JobState = "unblocked_failed"
	JobLimiting        JobState = "limiting"
	JobLimited         JobState = "limited"
	JobScheduled       JobState = "scheduled"
	JobAssigned        JobState = "assigned"
	JobAccepted        JobState = "accepted"
	JobRunning         JobState = "running"
	JobFinished        JobState = "finished"
	JobCanceling       JobState = "canceling"
	JobCanceled        JobState = "canceled"
	JobTimingOut       JobState = "timing_out"
	JobTimedOut        JobState = "timed_out"
	JobSkipped         JobState = "skipped"
	JobBroken          JobState = "broken"
)

// Organization is a Buildkite organization.
type Organization struct {
	ID           string    `json:"id"`
	GraphQLID    string    `json:"graphql_id"`
	URL          string    `json:"url"`
	WebURL       string    `json:"web_url"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	AgentsURL    string    `json:"agents_url"`
	EmojisURL    string    `json:"emojis_url"`
	PipelinesURL string    `json:"pipelines_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Creator is the user that created a pipeline, build or agent.
type Creator struct {
	ID        string    `json:"id"`
	GraphQLID string    `json:"graphql_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Author is the commit author of a build.
type Author struct {
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// ProviderSettings are the source provider options of a pipeline.
// Optional flags are nil when the provider does not support them.
type ProviderSettings struct {
	TriggerMode                             string `json:"trigger_mode"`
	BuildPullRequests                       *bool  `json:"build_pull_requests,omitempty"`
	PullRequestBranchFilterEnabled          *bool  `json:"pull_request_branch_filter_enabled,omitempty"`
	SkipBuildsForExistingCommits            *bool  `json:"skip_builds_for_existing_commits,omitempty"`
	SkipPullRequestBuildsForExistingCommits *bool  `json:"skip_pull_request_builds_for_existing_commits,omitempty"`
	BuildPullRequestReadyForReview          *bool  `json:"build_pull_request_ready_for_review,omitempty"`
	BuildPullRequestLabelsChanged           *bool  `json:"build_pull_request_labels_changed,omitempty"`
	BuildPullRequestForks                   *bool  `json:"build_pull_request_forks,omitempty"`
	PrefixPullRequestForkBranchNames        *bool  `json:"prefix_pull_request_fork_branch_names,omitempty"`
	BuildBranches                           *bool  `json:"build_branches,omitempty"`
	BuildTags                               *bool  `json:"build_tags,omitempty"`
	CancelDeletedBranchBuilds               *bool  `json:"cancel_deleted_branch_builds,omitempty"`
	PublishCommitStatus                     *bool  `json:"publish_commit_status,omitempty"`
	PublishCommitStatusPerStep              *bool  `json:"publish_commit_status_per_step,omitempty"`
	SeparatePullRequestStatuses             *bool  `json:"separate_pull_request_statuses,omitempty"`
	PublishBlockedAsPending                 *bool  `json:"publish_blocked_as_pending,omitempty"`
	UseStepKeyAsCommitStatus                *bool  `json:"use_step_key_as_commit_status,omitempty"`
	FilterEnabled                           *bool  `json:"filter_enabled,omitempty"`
	Repository                              string `json:"repository,omitempty"`
	PullRequestBranchFilterConfiguration    string `json:"pull_request_branch_filter_configuration,omitempty"`
	FilterCondition                         string `json:"filter_condition,omitempty"`
}

// Provider is the source code host a pipeline builds from.
type Provider struct {
	ID         string           `json:"id"`
	Settings   ProviderSettings `json:"settings"`
	WebhookURL string           `json:"webhook_url"`
}

// Step is a single step of a pipeline definition.
type Step struct {
	Type                string            `json:"type"`
	Name                string            `json:"name"`
	Command             string            `json:"command"`
	ArtifactPaths       string            `json:"artifact_paths,omitempty"`
	BranchConfiguration string            `json:"branch_configuration,omitempty"`
	Env                 map[string]string `json:"env"`
	TimeoutInMinutes    *int              `json:"timeout_in_minutes,omitempty"`
	AgentQueryRules     []string          `json:"agent_query_rules"`
	Concurrency         *int              `json:"concurrency,omitempty"`
	Parallelism         *int              `json:"parallelism,omitempty"`
}

// Pipeline is a Buildkite pipeline.
type Pipeline struct {
	ID                              string            `json:"id"`
	GraphQLID                       string            `json:"graphql_id"`
	URL                             string            `json:"url"`
	WebURL                          string            `json:"web_url"`
	Name                            string            `json:"name"`
	Description                     string            `json:"description"`
	Slug                            string            `json:"slug"`
	Repository                      string            `json:"repository"`
	ClusterID                       string            `json:"cluster_id,omitempty"`
	BranchConfiguration             string            `json:"branch_configuration,omitempty"`
	DefaultBranch                   string            `json:"default_branch,omitempty"`
	SkipQueuedBranchBuilds          bool              `json:"skip_queued_branch_builds"`
	SkipQueuedBranchBuildsFilter    string            `json:"skip_queued_branch_builds_filter,omitempty"`
	CancelRunningBranchBuilds       bool              `json:"cancel_running_branch_builds"`
	CancelRunningBranchBuildsFilter string            `json:"cancel_running_branch_builds_filter,omitempty"`
	AllowRebuilds                   bool              `json:"allow_rebuilds"`
	Provider                        Provider          `json:"provider"`
	BuildsURL                       string            `json:"builds_url"`
	BadgeURL                        string            `json:"badge_url"`
	CreatedBy                       Creator           `json:"created_by"`
	CreatedAt                       time.Time         `json:"created_at"`
	ArchivedAt                      *time.Time        `json:"archived_at,omitempty"`
	Env                             map[string]string `json:"env,omitempty"`
	ScheduledBuildsCount            int               `json:"scheduled_builds_count"`
	RunningBuildsCount              int               `json:"running_builds_count"`
	ScheduledJobsCount              int               `json:"scheduled_jobs_count"`
	RunningJobsCount                int               `json:"running_jobs_count"`
	WaitingJobsCount                int               `json:"waiting_jobs_count"`
	Visibility                      string            `json:"visibility"`
	Tags                            []string          `json:"tags,omitempty"`
	Configuration                   string            `json:"configuration,omitempty"`
	Steps                           []Step            `json:"steps"`
}

// PullRequest links a build to the pull request that triggered it.
type PullRequest struct {
	ID         string `json:"id"`
	Base       string `json:"base"`
	Repository string `json:"repository"`
}

// RebuiltFrom references the build a rebuild was created from.
type RebuiltFrom struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Job is a unit of work within a build.
type Job struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	State       JobState   `json:"state,omitempty"`
	WebURL      string     `json:"web_url,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Build is a single run of a pipeline.
type Build struct {
	ID           string            `json:"id"`
	GraphQLID    string            `json:"graphql_id"`
	URL          string            `json:"url"`
	WebURL       string            `json:"web_url"`
	Number       int               `json:"number"`
	State        BuildState        `json:"state"`
	Blocked      bool              `json:"blocked"`
	BlockedState string            `json:"blocked_state"`
	Message      string            `json:"message"`
	Commit       string            `json:"commit"`
	Branch       string            `json:"branch"`
	Tag          string            `json:"tag,omitempty"`
	Env          map[string]string `json:"env"`
	Source       string            `json:"source"`
	Author       *Author           `json:"author,omitempty"`
	Creator      *Creator          `json:"creator,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ScheduledAt  *time.Time        `json:"scheduled_at,omitempty"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	MetaData     map[string]string `json:"meta_data"`
	PullRequest  *PullRequest      `json:"pull_request,omitempty"`
	RebuiltFrom  *RebuiltFrom      `json:"rebuilt_from,omitempty"`
	Pipeline     Pipeline          `json:"pipeline"`
	Jobs         []Job             `json:"jobs"`
}

// Log is the output of a job.
type Log struct {
	Content     string  `json:"content"`
	HeaderTimes []int64 `json:"header_times,omitempty"`
	Size        int     `json:"size"`
	URL         string  `json:"url"`
}

// Agent is a Buildkite agent registered with an organization.
type Agent struct {
	ID                string          `json:"id"`
	URL               string          `json:"url"`
	WebURL            string          `json:"web_url"`
	Name              string          `json:"name"`
	ConnectionState   ConnectionState `json:"connection_state"`
	IPAddress         string          `json:"ip_address"`
	Hostname          string          `json:"hostname"`
	UserAgent         string          `json:"user_agent"`
	Version           string          `json:"version"`
	Creator           *Creator        `json:"creator,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	Job               *Job            `json:"job,omitempty"`
	LastJobFinishedAt *time.Time      `json:"last_job_finished_at,omitempty"`
	Priority          int             `json:"priority"`
	MetaData          []string        `json:"meta_data"`
}
