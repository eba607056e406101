package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	apperrors "github.com/awslens/awslens/internal/errors"
	"github.com/awslens/awslens/internal/models"
)

// QueryRDSInstances lists every RDS database instance in one region. The
// Region field is left empty; the aggregator stamps it.
func QueryRDSInstances(ctx context.Context, api rds.DescribeDBInstancesAPIClient, region string) ([]models.RDSInstance, error) {
	var instances []models.RDSInstance

	paginator := rds.NewDescribeDBInstancesPaginator(api, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.FromAPIError("rds", "DescribeDBInstances", region, err)
		}
		for _, db := range page.DBInstances {
			instances = append(instances, mapRDSInstance(db))
		}
	}

	return instances, nil
}

func mapRDSInstance(db rdstypes.DBInstance) models.RDSInstance {
	inst := models.RDSInstance{
		ID:            aws.ToString(db.DBInstanceIdentifier),
		Engine:        aws.ToString(db.Engine),
		EngineVersion: aws.ToString(db.EngineVersion),
		Class:         aws.ToString(db.DBInstanceClass),
		Status:        aws.ToString(db.DBInstanceStatus),
		AZ:            aws.ToString(db.AvailabilityZone),
		MultiAZ:       aws.ToBool(db.MultiAZ),
		StorageGB:     aws.ToInt32(db.AllocatedStorage),
	}

	// Endpoint is nil while an instance is still being created.
	if db.Endpoint != nil {
		inst.Endpoint = aws.ToString(db.Endpoint.Address)
		inst.Port = aws.ToInt32(db.Endpoint.Port)
	}

	return inst
}
