package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/pipeline"
)

// Verifier runs one claim through the verification pipeline
type Verifier interface {
	Run(ctx context.Context, req model.Request, emit func(model.Event)) (*pipeline.Result, error)
}

// VerifyJob verifies one claim from a batch file
type VerifyJob struct {
	Claim       string
	Role        model.Role
	RequesterID string
	Verifier    Verifier
}

// Execute runs the claim; step events are discarded in batch mode
func (j *VerifyJob) Execute(ctx context.Context) Result {
	req := model.Request{
		Text:        j.Claim,
		RequesterID: j.RequesterID,
		InputType:   InputTypeFor(j.Claim),
		UserRole:    j.Role,
	}

	res, err := j.Verifier.Run(ctx, req, nil)
	if err != nil {
		return &VerifyResult{Claim: j.Claim, InputType: req.InputType, Error: err}
	}
	return &VerifyResult{
		Claim:     j.Claim,
		InputType: req.InputType,
		Verdict:   res.Verdict,
		Result:    res,
	}
}

// VerifyResult is the outcome of one batch line
type VerifyResult struct {
	Claim     string
	InputType model.InputType
	Verdict   model.Verdict
	Result    *pipeline.Result
	Error     error
}

// GetError returns the run error, if any
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many independent claims concurrently.
// Runs share nothing but the store behind the pipeline.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	role        model.Role
	requesterID string
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int, role model.Role, requesterID string) *BatchProcessor {
	if requesterID == "" {
		requesterID = "batch"
	}
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		role:        role,
		requesterID: requesterID,
	}
}

// ProcessClaims verifies claims concurrently; results keep input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &VerifyJob{
			Claim:       claim,
			Role:        b.role,
			RequesterID: b.requesterID,
			Verifier:    b.verifier,
		}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	out := make([]*VerifyResult, len(results))
	for i, result := range results {
		if result == nil {
			out[i] = &VerifyResult{Claim: claims[i], InputType: InputTypeFor(claims[i]), Error: ctx.Err()}
			continue
		}
		out[i] = result.(*VerifyResult)
	}
	return out
}

// ProcessFile reads claims from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one claim or URL per line, skipping blanks, comments and duplicates
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}

// InputTypeFor classifies a batch line: http(s) links are urls, everything else text
func InputTypeFor(line string) model.InputType {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return model.InputURL
	}
	return model.InputText
}
