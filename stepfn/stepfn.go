// Package stepfn addresses Step Functions state machines by name.
package stepfn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// pageSize is the largest page ListStateMachines and ListStateMachineVersions return.
const pageSize = 1000

var ErrInvalidArgument = errors.New("stepfn: invalid argument")

// API is the subset of the Step Functions client used here.
type API interface {
	DescribeStateMachine(ctx context.Context, params *sfn.DescribeStateMachineInput, optFns ...func(*sfn.Options)) (*sfn.DescribeStateMachineOutput, error)
	ListStateMachines(ctx context.Context, params *sfn.ListStateMachinesInput, optFns ...func(*sfn.Options)) (*sfn.ListStateMachinesOutput, error)
	ListStateMachineVersions(ctx context.Context, params *sfn.ListStateMachineVersionsInput, optFns ...func(*sfn.Options)) (*sfn.ListStateMachineVersionsOutput, error)
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// IdentityAPI resolves the caller's account.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var (
	_ API         = (*sfn.Client)(nil)
	_ IdentityAPI = (*sts.Client)(nil)
)

// ListFormat selects what the list calls return for each entry.
type ListFormat int

const (
	Names ListFormat = iota + 1
	ARNs
	Versions
)

func (f ListFormat) String() string {
	switch f {
	case Names:
		return "names"
	case ARNs:
		return "arns"
	case Versions:
		return "versions"
	default:
		return fmt.Sprintf("ListFormat(%d)", int(f))
	}
}

// StateMachine is a state machine as listed or described.
type StateMachine struct {
	Name       string    `yaml:"name"`
	ARN        string    `yaml:"arn"`
	Type       string    `yaml:"type"`
	Status     string    `yaml:"status,omitempty"`
	RoleARN    string    `yaml:"role_arn,omitempty"`
	Definition string    `yaml:"definition,omitempty"`
	Created    time.Time `yaml:"created"`
}

// Version is one published version of a state machine.
type Version struct {
	ARN     string    `yaml:"arn"`
	Version string    `yaml:"version"`
	Created time.Time `yaml:"created"`
}

// Execution is a started execution.
type Execution struct {
	ARN     string    `yaml:"arn"`
	Name    string    `yaml:"name"`
	Started time.Time `yaml:"started"`
}

// ExecuteOptions tune StartExecution. Zero values are omitted.
type ExecuteOptions struct {
	// Name of the execution; defaults to "<state machine>-<8 hex chars>".
	Name string
	// Version of the state machine to run; empty runs the unqualified ARN.
	Version     string
	TraceHeader string
}

// Client runs Step Functions calls in one account and region.
type Client struct {
	api     API
	region  string
	account string
	newID   func() string
}

// New creates a Client, looking up the account id of the caller.
func New(ctx context.Context, api API, identity IdentityAPI, region string) (*Client, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidArgument)
	}
	out, err := identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("get caller identity: %w", err)
	}
	return &Client{
		api:     api,
		region:  region,
		account: aws.ToString(out.Account),
		newID:   uuid.NewString,
	}, nil
}

func (c *Client) Account() string { return c.account }
func (c *Client) Region() string { return c.region }

// ARN returns the state machine ARN for name, qualified by version if set.
func (c *Client) ARN(name, version string) string {
	arn := fmt.Sprintf("arn:aws:states:%s:%s:stateMachine:%s", c.region, c.account, name)
	if version != "" {
		arn += ":" + version
	}
	return arn
}

// Describe returns the state machine name (at version, if set).
func (c *Client) Describe(ctx context.Context, name, version string) (*StateMachine, error) {
	out, err := c.api.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(c.ARN(name, version)),
	})
	if err != nil {
		return nil, fmt.Errorf("describe state machine %s: %w", name, err)
	}
	return &StateMachine{
		Name:       aws.ToString(out.Name),
		ARN:        aws.ToString(out.StateMachineArn),
		Type:       string(out.Type),
		Status:     string(out.Status),
		RoleARN:    aws.ToString(out.RoleArn),
		Definition: aws.ToString(out.Definition),
		Created:    aws.ToTime(out.CreationDate),
	}, nil
}

// Exists reports whether the state machine name (at version, if set) exists.
func (c *Client) Exists(ctx context.Context, name, version string) (bool, error) {
	_, err := c.api.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(c.ARN(name, version)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "StateMachineDoesNotExist" {
			return false, nil
		}
		return false, fmt.Errorf("describe state machine %s: %w", name, err)
	}
	return true, nil
}

// StateMachines lists every state machine in the account and region.
func (c *Client) StateMachines(ctx context.Context) ([]StateMachine, error) {
	var out []StateMachine
	paginator := sfn.NewListStateMachinesPaginator(c.api, &sfn.ListStateMachinesInput{MaxResults: pageSize})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list state machines: %w", err)
		}
		for _, sm := range page.StateMachines {
			out = append(out, StateMachine{
				Name:    aws.ToString(sm.Name),
				ARN:     aws.ToString(sm.StateMachineArn),
				Type:    string(sm.Type),
				Created: aws.ToTime(sm.CreationDate),
			})
		}
	}
	return out, nil
}

// List returns the name or ARN of every state machine.
func (c *Client) List(ctx context.Context, format ListFormat) ([]string, error) {
	if format != Names && format != ARNs {
		return nil, fmt.Errorf("%w: state machines can be listed by names or arns, not %s", ErrInvalidArgument, format)
	}
	sms, err := c.StateMachines(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sms))
	for _, sm := range sms {
		if format == Names {
			out = append(out, sm.Name)
		} else {
			out = append(out, sm.ARN)
		}
	}
	return out, nil
}

// Versions lists every published version of the state machine name.
// The SDK has no paginator for ListStateMachineVersions, so the token is
// followed here.
func (c *Client) Versions(ctx context.Context, name string) ([]Version, error) {
	arn := c.ARN(name, "")
	var (
		out   []Version
		token *string
	)
	for {
		page, err := c.api.ListStateMachineVersions(ctx, &sfn.ListStateMachineVersionsInput{
			StateMachineArn: aws.String(arn),
			MaxResults:      pageSize,
			NextToken:       token,
		})
		if err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", name, err)
		}
		for _, v := range page.StateMachineVersions {
			varn := aws.ToString(v.StateMachineVersionArn)
			out = append(out, Version{
				ARN:     varn,
				Version: varn[strings.LastIndex(varn, ":")+1:],
				Created: aws.ToTime(v.CreationDate),
			})
		}
		token = page.NextToken
		if aws.ToString(token) == "" {
			return out, nil
		}
	}
}

// ListVersions returns the version ARNs or bare version numbers of name.
func (c *Client) ListVersions(ctx context.Context, name string, format ListFormat) ([]string, error) {
	if format != ARNs && format != Versions {
		return nil, fmt.Errorf("%w: versions can be listed by arns or versions, not %s", ErrInvalidArgument, format)
	}
	vs, err := c.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if format == ARNs {
			out = append(out, v.ARN)
		} else {
			out = append(out, v.Version)
		}
	}
	return out, nil
}

// Execute starts the state machine name with input encoded as JSON.
func (c *Client) Execute(ctx context.Context, name string, input any, opts ExecuteOptions) (*Execution, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	execName := opts.Name
	if execName == "" {
		execName = name + "-" + strings.ReplaceAll(c.newID(), "-", "")[:8]
	}

	in := &sfn.StartExecutionInput{
		StateMachineArn: aws.String(c.ARN(name, opts.Version)),
		Name:            aws.String(execName),
		Input:           aws.String(string(body)),
	}
	if opts.TraceHeader != "" {
		in.TraceHeader = aws.String(opts.TraceHeader)
	}

	out, err := c.api.StartExecution(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("start execution of %s: %w", name, err)
	}
	return &Execution{
		ARN:     aws.ToString(out.ExecutionArn),
		Name:    execName,
		Started: aws.ToTime(out.StartDate),
	}, nil
}
