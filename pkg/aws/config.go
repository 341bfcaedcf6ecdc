package aws

import (
	"context"

	"attendance.service/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

// NewAWSConfig creates the AWS configuration shared by the SQS and SES
// clients. In local dev every call goes to LocalStack with static credentials.
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	if appConfig.IsLocalDev {
		log.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Local development mode detected. Routing AWS calls to LocalStack.")

		opts := []func(*awsConfig.LoadOptions) error{
			awsConfig.WithRegion(appConfig.AWSRegion),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		}
		if appConfig.AWSEndpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(appConfig.AWSEndpoint))
		}
		return awsConfig.LoadDefaultConfig(ctx, opts...)
	}

	// IAM role for service accounts in EKS.
	log.Info().Msg("Production mode detected. Using standard AWS credential chain.")
	return awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(appConfig.AWSRegion))
}
