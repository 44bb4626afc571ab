// Package ecs registers task-definition revisions and rolls them out to a
// service on Amazon ECS.
package ecs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
)

// stableWaitMax caps the services-stable wait. The waiter polls every 15s,
// so this matches the AWS CLI's 40-attempt envelope.
const stableWaitMax = 10 * time.Minute

// ECSAPI is the slice of the ECS client this package uses. DescribeServices
// is only called through the services-stable waiter.
type ECSAPI interface {
	DescribeTaskDefinition(ctx context.Context, params *awsecs.DescribeTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeTaskDefinitionOutput, error)
	RegisterTaskDefinition(ctx context.Context, params *awsecs.RegisterTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.RegisterTaskDefinitionOutput, error)
	UpdateService(ctx context.Context, params *awsecs.UpdateServiceInput, optFns ...func(*awsecs.Options)) (*awsecs.UpdateServiceOutput, error)
	DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error)
}

// Client wraps the ECS API for task-definition and service mutations.
type Client struct {
	api     ECSAPI
	waitMax time.Duration
}

// New creates a Client from an AWS config.
func New(cfg aws.Config) *Client {
	return &Client{api: awsecs.NewFromConfig(cfg), waitMax: stableWaitMax}
}

// NewWithClient creates a Client with an injected API implementation.
func NewWithClient(api ECSAPI) *Client {
	return &Client{api: api, waitMax: stableWaitMax}
}

// ReleaseRevision fetches the family's current task definition, retargets it
// at the given image and registers the result as a new immutable revision.
// Returns the family:revision reference of the new revision. This is
// read-modify-register, not compare-and-swap; a concurrent registration can
// race it, which is accepted at the deployment cadence this tool targets.
func (c *Client) ReleaseRevision(ctx context.Context, family, image string) (string, error) {
	out, err := c.api.DescribeTaskDefinition(ctx, &awsecs.DescribeTaskDefinitionInput{
		TaskDefinition: aws.String(family),
	})
	if err != nil {
		return "", fmt.Errorf("fetching task definition %s: %w", family, err)
	}

	input, err := Retarget(*out.TaskDefinition, image)
	if err != nil {
		return "", err
	}

	reg, err := c.api.RegisterTaskDefinition(ctx, input)
	if err != nil {
		return "", fmt.Errorf("registering task definition %s: %w", family, err)
	}

	td := reg.TaskDefinition
	return fmt.Sprintf("%s:%d", aws.ToString(td.Family), td.Revision), nil
}

// PointService updates the service to run the given task definition
// revision.
func (c *Client) PointService(ctx context.Context, cluster, service, taskDef string) error {
	_, err := c.api.UpdateService(ctx, &awsecs.UpdateServiceInput{
		Cluster:        aws.String(cluster),
		Service:        aws.String(service),
		TaskDefinition: aws.String(taskDef),
	})
	if err != nil {
		return fmt.Errorf("updating service %s: %w", service, err)
	}
	return nil
}

// WaitStable blocks until the service reaches the orchestrator's stable
// state or the wait policy gives up. The waiter's error is surfaced as-is.
func (c *Client) WaitStable(ctx context.Context, cluster, service string) error {
	waiter := awsecs.NewServicesStableWaiter(c.api)
	return waiter.Wait(ctx, &awsecs.DescribeServicesInput{
		Cluster:  aws.String(cluster),
		Services: []string{service},
	}, c.waitMax)
}
