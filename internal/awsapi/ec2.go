package awsapi

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	apperrors "github.com/awslens/awslens/internal/errors"
	"github.com/awslens/awslens/internal/models"
)

// QueryEC2Instances lists every EC2 instance in one region, flattening
// reservations. The Region field is left empty; the aggregator stamps it.
func QueryEC2Instances(ctx context.Context, api ec2.DescribeInstancesAPIClient, region string) ([]models.EC2Instance, error) {
	var instances []models.EC2Instance

	paginator := ec2.NewDescribeInstancesPaginator(api, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.FromAPIError("ec2", "DescribeInstances", region, err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, mapEC2Instance(inst))
			}
		}
	}

	return instances, nil
}

func mapEC2Instance(inst ec2types.Instance) models.EC2Instance {
	var state string
	if inst.State != nil {
		state = string(inst.State.Name)
	}

	var launchTime string
	if inst.LaunchTime != nil {
		launchTime = inst.LaunchTime.UTC().Format(time.RFC3339)
	}

	var az string
	if inst.Placement != nil {
		az = aws.ToString(inst.Placement.AvailabilityZone)
	}

	return models.EC2Instance{
		ID:         aws.ToString(inst.InstanceId),
		Name:       nameFromTags(inst.Tags),
		Type:       string(inst.InstanceType),
		State:      state,
		PrivateIP:  aws.ToString(inst.PrivateIpAddress),
		PublicIP:   aws.ToString(inst.PublicIpAddress),
		LaunchTime: launchTime,
		AZ:         az,
	}
}

func nameFromTags(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}
