// Package textract adapts AWS Textract's asynchronous text-detection API to
// the records.OCRClient port.
package textract

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/sperow/medrecords/internal/domain/records"
)

type Client struct {
	api    *textract.Client
	bucket string
}

// New builds a Textract client bound to the single configured document bucket.
func New(ctx context.Context, region, accessKey, secretKey, bucket string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{api: textract.NewFromConfig(cfg), bucket: bucket}, nil
}

// StartTextDetection submits an async job against an object in the bucket.
func (c *Client) StartTextDetection(ctx context.Context, key string) (string, error) {
	out, err := c.api.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(c.bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("start text detection: %w", err)
	}
	return aws.ToString(out.JobId), nil
}

// GetTextDetection fetches one result page. Lines holds the LINE blocks in
// page order; NextToken is empty once the job's pages are exhausted.
func (c *Client) GetTextDetection(ctx context.Context, jobID, nextToken string) (*records.TextDetectionPage, error) {
	in := &textract.GetDocumentTextDetectionInput{JobId: aws.String(jobID)}
	if nextToken != "" {
		in.NextToken = aws.String(nextToken)
	}
	out, err := c.api.GetDocumentTextDetection(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("get text detection: %w", err)
	}

	page := &records.TextDetectionPage{
		Status:    string(out.JobStatus),
		NextToken: aws.ToString(out.NextToken),
	}
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine {
			page.Lines = append(page.Lines, aws.ToString(block.Text))
		}
	}
	return page, nil
}
