package ecs

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// Retarget clones a task definition into a registration input with the
// primary container's image replaced. Copying into the input type is what
// strips the server-assigned fields (ARN, revision, status, registration
// metadata, compatibilities): the input has no slots for them, and the
// registration call rejects descriptors that carry them. The source
// definition is not modified.
func Retarget(td ecstypes.TaskDefinition, image string) (*awsecs.RegisterTaskDefinitionInput, error) {
	if len(td.ContainerDefinitions) == 0 {
		return nil, fmt.Errorf("task definition %s has no container definitions", aws.ToString(td.Family))
	}

	containers := make([]ecstypes.ContainerDefinition, len(td.ContainerDefinitions))
	copy(containers, td.ContainerDefinitions)
	containers[0].Image = aws.String(image)

	return &awsecs.RegisterTaskDefinitionInput{
		Family:                  td.Family,
		ContainerDefinitions:    containers,
		Cpu:                     td.Cpu,
		Memory:                  td.Memory,
		ExecutionRoleArn:        td.ExecutionRoleArn,
		TaskRoleArn:             td.TaskRoleArn,
		NetworkMode:             td.NetworkMode,
		RequiresCompatibilities: td.RequiresCompatibilities,
		Volumes:                 td.Volumes,
		PlacementConstraints:    td.PlacementConstraints,
		ProxyConfiguration:      td.ProxyConfiguration,
		IpcMode:                 td.IpcMode,
		PidMode:                 td.PidMode,
		InferenceAccelerators:   td.InferenceAccelerators,
		RuntimePlatform:         td.RuntimePlatform,
		EphemeralStorage:        td.EphemeralStorage,
	}, nil
}
