package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	// DefaultTitanModel is Amazon's Titan text embedding model on Bedrock.
	DefaultTitanModel = "amazon.titan-embed-text-v2:0"

	// DefaultTitanDimension is Titan v2's default output dimension.
	DefaultTitanDimension = 1024
)

// BedrockProvider implements Provider using AWS Bedrock Titan embeddings.
// Titan has no batch endpoint, so EmbedBatch invokes the model once per
// text.
type BedrockProvider struct {
	client    *bedrockruntime.Client
	model     string
	dimension int
}

var _ Provider = (*BedrockProvider)(nil)

// NewBedrockProvider creates a Bedrock embedding client using the default
// AWS credential chain.
func NewBedrockProvider(ctx context.Context, region, model string, dimension int) (*BedrockProvider, error) {
	if model == "" {
		model = DefaultTitanModel
	}
	if dimension == 0 {
		dimension = DefaultTitanDimension
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockProvider{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		model:     model,
		dimension: dimension,
	}, nil
}

// Model returns the configured embedding model name.
func (p *BedrockProvider) Model() string {
	return p.model
}

// Dimension returns the expected embedding dimension.
func (p *BedrockProvider) Dimension() int {
	return p.dimension
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// EmbedBatch generates embeddings for multiple texts, one InvokeModel call
// per text.
func (p *BedrockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		body, err := json.Marshal(titanRequest{
			InputText:  text,
			Dimensions: p.dimension,
			Normalize:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal titan request: %w", err)
		}

		out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(p.model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, classify(fmt.Errorf("invoke %s: %w", p.model, err))
		}

		var resp titanResponse
		if err := json.Unmarshal(out.Body, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal titan response: %w", err)
		}
		if len(resp.Embedding) != p.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", i, len(resp.Embedding), p.dimension)
		}
		vectors[i] = resp.Embedding
	}
	return vectors, nil
}
