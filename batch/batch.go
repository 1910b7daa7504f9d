// Package batch reads job timing and status from AWS Batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/batch/types"
	"golang.org/x/sync/errgroup"
)

// describeLimit is the most job ids DescribeJobs accepts per call.
const describeLimit = 100

var (
	ErrJobNotFound    = errors.New("batch: job not found")
	ErrJobNotFinished = errors.New("batch: job has not finished")
)

// API is the subset of the Batch client used here.
type API interface {
	DescribeJobs(ctx context.Context, params *batch.DescribeJobsInput, optFns ...func(*batch.Options)) (*batch.DescribeJobsOutput, error)
}

var _ API = (*batch.Client)(nil)

// Runtime is the wall-clock span of a finished job.
type Runtime struct {
	Start time.Time     `yaml:"start"`
	Stop  time.Time     `yaml:"stop"`
	Total time.Duration `yaml:"total"`
}

// Job is the status of one job.
type Job struct {
	ID     string          `yaml:"id"`
	Name   string          `yaml:"name"`
	Status types.JobStatus `yaml:"status"`
	Reason string          `yaml:"reason,omitempty"`
}

// Client queries Batch jobs.
type Client struct {
	api     API
	workers int
}

// New creates a Client. workers bounds the DescribeJobs calls in flight;
// values below 1 mean one.
func New(api API, workers int) *Client {
	if workers < 1 {
		workers = 1
	}
	return &Client{api: api, workers: workers}
}

// Runtime returns when the job started, when it stopped and how long it ran.
func (c *Client) Runtime(ctx context.Context, jobID string) (Runtime, error) {
	out, err := c.api.DescribeJobs(ctx, &batch.DescribeJobsInput{Jobs: []string{jobID}})
	if err != nil {
		return Runtime{}, fmt.Errorf("describe job %s: %w", jobID, err)
	}
	if len(out.Jobs) == 0 {
		return Runtime{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	job := out.Jobs[0]
	if job.StartedAt == nil || job.StoppedAt == nil {
		return Runtime{}, fmt.Errorf("%w: %s is %s", ErrJobNotFinished, jobID, job.Status)
	}

	start := fromMillis(aws.ToInt64(job.StartedAt))
	stop := fromMillis(aws.ToInt64(job.StoppedAt))
	return Runtime{Start: start, Stop: stop, Total: stop.Sub(start)}, nil
}

// Statuses describes every job in ids. Ids are sent in groups of 100, with
// groups fetched concurrently. Jobs Batch no longer knows about are omitted.
func (c *Client) Statuses(ctx context.Context, ids []string) ([]Job, error) {
	chunks := chunk(ids, describeLimit)
	results := make([][]Job, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, ids := range chunks {
		g.Go(func() error {
			out, err := c.api.DescribeJobs(gctx, &batch.DescribeJobsInput{Jobs: ids})
			if err != nil {
				return fmt.Errorf("describe jobs: %w", err)
			}
			jobs := make([]Job, 0, len(out.Jobs))
			for _, j := range out.Jobs {
				jobs = append(jobs, Job{
					ID:     aws.ToString(j.JobId),
					Name:   aws.ToString(j.JobName),
					Status: j.Status,
					Reason: aws.ToString(j.StatusReason),
				})
			}
			results[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var jobs []Job
	for _, r := range results {
		jobs = append(jobs, r...)
	}
	return jobs, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
