// Package ecr talks to Amazon ECR: registry credentials for docker login,
// recent-image listings and tag existence checks.
package ecr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/dev-edu1998/bia/internal/models"
)

// ECRAPI is the slice of the ECR client this package uses.
type ECRAPI interface {
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
	DescribeImages(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error)
}

// STSAPI is the slice of the STS client this package uses.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Credential is a short-lived registry login obtained from ECR.
type Credential struct {
	Username string
	Password string
	Host     string
}

// Client wraps the ECR and STS APIs for one region.
type Client struct {
	ecr    ECRAPI
	sts    STSAPI
	region string
}

// New creates a Client from an AWS config.
func New(cfg aws.Config) *Client {
	return &Client{
		ecr:    awsecr.NewFromConfig(cfg),
		sts:    sts.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewWithClients creates a Client with injected API implementations.
func NewWithClients(ecrAPI ECRAPI, stsAPI STSAPI, region string) *Client {
	return &Client{ecr: ecrAPI, sts: stsAPI, region: region}
}

// RegistryHost builds the registry hostname for an account and region.
func RegistryHost(accountID, region string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", accountID, region)
}

// Host resolves the caller's account and returns its registry hostname.
func (c *Client) Host(ctx context.Context) (string, error) {
	ident, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("resolving caller identity: %w", err)
	}
	return RegistryHost(aws.ToString(ident.Account), c.region), nil
}

// DecodeToken splits an ECR authorization token into its username and
// password halves. The token is base64 over "user:password".
func DecodeToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decoding authorization token: %w", err)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("malformed authorization token")
	}
	return user, pass, nil
}

// Credentials requests a transient registry login for docker.
func (c *Client) Credentials(ctx context.Context) (Credential, error) {
	out, err := c.ecr.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return Credential{}, fmt.Errorf("requesting authorization token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return Credential{}, fmt.Errorf("no authorization data returned")
	}

	data := out.AuthorizationData[0]
	user, pass, err := DecodeToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return Credential{}, err
	}

	return Credential{
		Username: user,
		Password: pass,
		Host:     strings.TrimPrefix(aws.ToString(data.ProxyEndpoint), "https://"),
	}, nil
}

// RecentImages returns up to limit images of the repository, newest push
// first.
func (c *Client) RecentImages(ctx context.Context, repo string, limit int) ([]models.Image, error) {
	var details []ecrtypes.ImageDetail

	paginator := awsecr.NewDescribeImagesPaginator(c.ecr, &awsecr.DescribeImagesInput{
		RepositoryName: aws.String(repo),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describing images in %s: %w", repo, err)
		}
		details = append(details, page.ImageDetails...)
	}

	sort.Slice(details, func(i, j int) bool {
		return aws.ToTime(details[i].ImagePushedAt).After(aws.ToTime(details[j].ImagePushedAt))
	})
	if len(details) > limit {
		details = details[:limit]
	}

	images := make([]models.Image, 0, len(details))
	for _, d := range details {
		images = append(images, models.Image{
			Tags:     d.ImageTags,
			Digest:   aws.ToString(d.ImageDigest),
			SizeMB:   float64(aws.ToInt64(d.ImageSizeInBytes)) / (1024 * 1024),
			PushedAt: aws.ToTime(d.ImagePushedAt),
		})
	}
	return images, nil
}

// TagExists reports whether the repository holds an image with the tag.
func (c *Client) TagExists(ctx context.Context, repo, tag string) (bool, error) {
	_, err := c.ecr.DescribeImages(ctx, &awsecr.DescribeImagesInput{
		RepositoryName: aws.String(repo),
		ImageIds: []ecrtypes.ImageIdentifier{
			{ImageTag: aws.String(tag)},
		},
	})
	if err != nil {
		var notFound *ecrtypes.ImageNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking tag %s in %s: %w", tag, repo, err)
	}
	return true, nil
}
