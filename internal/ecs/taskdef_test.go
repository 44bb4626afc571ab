package ecs_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/dev-edu1998/bia/internal/ecs"
)

func sampleDefinition() ecstypes.TaskDefinition {
	return ecstypes.TaskDefinition{
		TaskDefinitionArn: aws.String("arn:aws:ecs:us-east-1:123456789012:task-definition/task-def-bia:7"),
		Family:            aws.String("task-def-bia"),
		Revision:          7,
		Status:            ecstypes.TaskDefinitionStatusActive,
		Cpu:               aws.String("1024"),
		Memory:            aws.String("3072"),
		NetworkMode:       ecstypes.NetworkModeBridge,
		ContainerDefinitions: []ecstypes.ContainerDefinition{
			{
				Name:  aws.String("bia"),
				Image: aws.String("123456789012.dkr.ecr.us-east-1.amazonaws.com/bia-app:old11111"),
			},
			{
				Name:  aws.String("sidecar"),
				Image: aws.String("public.ecr.aws/aws-observability/aws-otel-collector:latest"),
			},
		},
	}
}

func TestRetargetReplacesOnlyPrimaryImage(t *testing.T) {
	td := sampleDefinition()
	image := "123456789012.dkr.ecr.us-east-1.amazonaws.com/bia-app:abc12345"

	input, err := ecs.Retarget(td, image)
	if err != nil {
		t.Fatalf("Retarget failed: %v", err)
	}

	if got := aws.ToString(input.ContainerDefinitions[0].Image); got != image {
		t.Errorf("primary image = %s, want %s", got, image)
	}
	if got := aws.ToString(input.ContainerDefinitions[1].Image); got != aws.ToString(td.ContainerDefinitions[1].Image) {
		t.Errorf("secondary container image changed: %s", got)
	}
	if aws.ToString(input.Family) != "task-def-bia" {
		t.Errorf("family = %s", aws.ToString(input.Family))
	}
	if aws.ToString(input.Cpu) != "1024" || aws.ToString(input.Memory) != "3072" {
		t.Error("resource limits not carried over")
	}

	// The source definition must stay untouched.
	if got := aws.ToString(td.ContainerDefinitions[0].Image); got == image {
		t.Error("Retarget mutated the source definition")
	}
}

func TestRetargetIdempotentOnImage(t *testing.T) {
	td := sampleDefinition()
	image := "123456789012.dkr.ecr.us-east-1.amazonaws.com/bia-app:abc12345"

	first, err := ecs.Retarget(td, image)
	if err != nil {
		t.Fatalf("Retarget failed: %v", err)
	}

	// Feed the retargeted containers back through, as if the registered
	// revision were fetched and retargeted again with the same image.
	again := td
	again.ContainerDefinitions = first.ContainerDefinitions
	second, err := ecs.Retarget(again, image)
	if err != nil {
		t.Fatalf("second Retarget failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("retargeting twice with the same image is not idempotent")
	}
}

func TestRetargetNoContainers(t *testing.T) {
	td := ecstypes.TaskDefinition{Family: aws.String("task-def-bia")}
	if _, err := ecs.Retarget(td, "bia-app:latest"); err == nil {
		t.Fatal("expected error for definition without containers")
	}
}

type fakeECS struct {
	described  ecstypes.TaskDefinition
	registered *awsecs.RegisterTaskDefinitionInput
	updated    *awsecs.UpdateServiceInput
}

func (f *fakeECS) DescribeTaskDefinition(ctx context.Context, params *awsecs.DescribeTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeTaskDefinitionOutput, error) {
	td := f.described
	return &awsecs.DescribeTaskDefinitionOutput{TaskDefinition: &td}, nil
}

func (f *fakeECS) RegisterTaskDefinition(ctx context.Context, params *awsecs.RegisterTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.RegisterTaskDefinitionOutput, error) {
	f.registered = params
	return &awsecs.RegisterTaskDefinitionOutput{
		TaskDefinition: &ecstypes.TaskDefinition{
			Family:   params.Family,
			Revision: f.described.Revision + 1,
		},
	}, nil
}

func (f *fakeECS) UpdateService(ctx context.Context, params *awsecs.UpdateServiceInput, optFns ...func(*awsecs.Options)) (*awsecs.UpdateServiceOutput, error) {
	f.updated = params
	return &awsecs.UpdateServiceOutput{}, nil
}

func (f *fakeECS) DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error) {
	return &awsecs.DescribeServicesOutput{}, nil
}

func TestReleaseRevision(t *testing.T) {
	fake := &fakeECS{described: sampleDefinition()}
	client := ecs.NewWithClient(fake)

	image := "123456789012.dkr.ecr.us-east-1.amazonaws.com/bia-app:abc12345"
	ref, err := client.ReleaseRevision(context.Background(), "task-def-bia", image)
	if err != nil {
		t.Fatalf("ReleaseRevision failed: %v", err)
	}

	if ref != "task-def-bia:8" {
		t.Errorf("expected task-def-bia:8, got %s", ref)
	}
	if fake.registered == nil {
		t.Fatal("RegisterTaskDefinition was not called")
	}
	if got := aws.ToString(fake.registered.ContainerDefinitions[0].Image); got != image {
		t.Errorf("registered image = %s, want %s", got, image)
	}
}

func TestPointService(t *testing.T) {
	fake := &fakeECS{}
	client := ecs.NewWithClient(fake)

	if err := client.PointService(context.Background(), "cluster-bia", "service-bia", "task-def-bia:8"); err != nil {
		t.Fatalf("PointService failed: %v", err)
	}

	if aws.ToString(fake.updated.Cluster) != "cluster-bia" {
		t.Errorf("cluster = %s", aws.ToString(fake.updated.Cluster))
	}
	if aws.ToString(fake.updated.Service) != "service-bia" {
		t.Errorf("service = %s", aws.ToString(fake.updated.Service))
	}
	if aws.ToString(fake.updated.TaskDefinition) != "task-def-bia:8" {
		t.Errorf("task definition = %s", aws.ToString(fake.updated.TaskDefinition))
	}
}
