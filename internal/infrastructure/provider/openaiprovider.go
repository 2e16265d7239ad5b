// Package provider implements retrieval.Provider against the OpenAI vector
// store, file and Responses APIs.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/infrastructure/metrics"
	"github.com/docsphere/docsphere/internal/shared/config"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	defaultBaseURL           = "https://api.openai.com/v1"
	defaultModel             = "gpt-4.1-mini"
	defaultRequestTimeout    = 60 * time.Second
	defaultBatchPollInterval = time.Second
	defaultBatchPollTimeout  = 5 * time.Minute
	defaultUploadConcurrency = 4

	listPageSize = 100

	batchStatusInProgress = "in_progress"
)

var _ retrieval.Provider = (*OpenAIProvider)(nil)

// OpenAIProvider talks to the provider with go-openai for stores, files and
// batches, and with a typed HTTP call for the Responses API.
type OpenAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string

	pollInterval      time.Duration
	pollTimeout       time.Duration
	uploadConcurrency int

	metrics *metrics.Metrics
	logger  logger.Interface
}

func NewOpenAIProvider(cfg config.OpenAIConfig, m *metrics.Metrics, log logger.Interface) *OpenAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = httpClient

	p := &OpenAIProvider{
		client:            openai.NewClientWithConfig(clientCfg),
		httpClient:        httpClient,
		baseURL:           baseURL,
		apiKey:            cfg.APIKey,
		model:             cfg.DefaultModel,
		pollInterval:      cfg.BatchPollInterval,
		pollTimeout:       cfg.BatchPollTimeout,
		uploadConcurrency: cfg.UploadConcurrency,
		metrics:           m,
		logger:            log,
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if p.pollInterval <= 0 {
		p.pollInterval = defaultBatchPollInterval
	}
	if p.pollTimeout <= 0 {
		p.pollTimeout = defaultBatchPollTimeout
	}
	if p.uploadConcurrency <= 0 {
		p.uploadConcurrency = defaultUploadConcurrency
	}
	return p
}

func (p *OpenAIProvider) CreateStore(ctx context.Context, name string) (id string, err error) {
	defer p.observe("create_store", time.Now(), &err)

	store, err := p.client.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: name})
	if err != nil {
		return "", errors.NewUpstreamError("failed to create vector store", err)
	}

	p.logger.Infow("vector store created", "vector_store_id", store.ID, "name", name)
	return store.ID, nil
}

// UploadFiles uploads files concurrently and returns their ids in input
// order. When any upload fails the ones that succeeded are deleted.
func (p *OpenAIProvider) UploadFiles(ctx context.Context, files []retrieval.File) (ids []string, err error) {
	defer p.observe("upload_files", time.Now(), &err)

	ids = make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.uploadConcurrency)

	for i, f := range files {
		g.Go(func() error {
			uploaded, err := p.client.CreateFileBytes(gctx, openai.FileBytesRequest{
				Name:    f.Name,
				Bytes:   f.Data,
				Purpose: openai.PurposeAssistants,
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			ids[i] = uploaded.ID
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.discardUploads(ids)
		return nil, errors.NewUpstreamError("failed to upload files", err)
	}
	return ids, nil
}

func (p *OpenAIProvider) discardUploads(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := p.client.DeleteFile(ctx, id); err != nil {
			p.logger.Warnw("failed to delete orphaned upload", "file_id", id, "error", err)
		}
	}
}

func (p *OpenAIProvider) AttachFiles(ctx context.Context, storeID string, fileIDs []string) (batch *retrieval.Batch, err error) {
	defer p.observe("attach_files", time.Now(), &err)

	created, err := p.client.CreateVectorStoreFileBatch(ctx, storeID, openai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return nil, errors.NewUpstreamError("failed to create file batch", err)
	}

	current, err := p.pollBatch(ctx, storeID, created)
	if err != nil {
		return nil, err
	}

	p.logger.Infow("file batch finished",
		"vector_store_id", storeID,
		"batch_id", current.ID,
		"status", current.Status,
		"completed", current.FileCounts.Completed,
		"failed", current.FileCounts.Failed,
	)
	return toBatch(current), nil
}

func (p *OpenAIProvider) pollBatch(ctx context.Context, storeID string, batch openai.VectorStoreFileBatch) (openai.VectorStoreFileBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for batch.Status == batchStatusInProgress {
		select {
		case <-ctx.Done():
			return batch, errors.NewUpstreamError("file batch did not finish in time", ctx.Err())
		case <-ticker.C:
		}

		next, err := p.client.RetrieveVectorStoreFileBatch(ctx, storeID, batch.ID)
		if err != nil {
			return batch, errors.NewUpstreamError("failed to poll file batch", err)
		}
		batch = next
	}
	return batch, nil
}

func toBatch(b openai.VectorStoreFileBatch) *retrieval.Batch {
	return &retrieval.Batch{
		ID:     b.ID,
		Status: b.Status,
		FileCounts: retrieval.FileCounts{
			InProgress: b.FileCounts.InProgress,
			Completed:  b.FileCounts.Completed,
			Failed:     b.FileCounts.Failed,
			Cancelled:  b.FileCounts.Cancelled,
			Total:      b.FileCounts.Total,
		},
	}
}

func (p *OpenAIProvider) ListFiles(ctx context.Context, storeID string) (files []retrieval.StoreFile, err error) {
	defer p.observe("list_files", time.Now(), &err)

	limit := listPageSize
	page := openai.Pagination{Limit: &limit}
	files = make([]retrieval.StoreFile, 0)

	for {
		list, err := p.client.ListVectorStoreFiles(ctx, storeID, page)
		if err != nil {
			return nil, errors.NewUpstreamError("failed to list vector store files", err)
		}
		for _, f := range list.VectorStoreFiles {
			files = append(files, retrieval.StoreFile{
				ID:         f.ID,
				Status:     f.Status,
				UsageBytes: int64(f.UsageBytes),
				CreatedAt:  f.CreatedAt,
			})
		}
		if !list.HasMore || list.LastID == nil {
			return files, nil
		}
		page.After = list.LastID
	}
}

func (p *OpenAIProvider) RemoveFile(ctx context.Context, storeID, fileID string, deleteRaw bool) (err error) {
	defer p.observe("remove_file", time.Now(), &err)

	if err := p.client.DeleteVectorStoreFile(ctx, storeID, fileID); err != nil {
		return errors.NewUpstreamError("failed to detach file", err)
	}
	if deleteRaw {
		if err := p.client.DeleteFile(ctx, fileID); err != nil {
			return errors.NewUpstreamError("failed to delete file", err)
		}
	}

	p.logger.Infow("file removed", "vector_store_id", storeID, "file_id", fileID, "delete_raw", deleteRaw)
	return nil
}

func (p *OpenAIProvider) Query(ctx context.Context, storeIDs []string, question, model string) (answer *retrieval.Answer, err error) {
	defer p.observe("query", time.Now(), &err)

	if model == "" {
		model = p.model
	}
	resp, err := p.createResponse(ctx, responseRequest{
		Model: model,
		Input: question,
		Tools: []responseTool{{Type: "file_search", VectorStoreIDs: storeIDs}},
	})
	if err != nil {
		return nil, err
	}
	return normalize(resp), nil
}

func (p *OpenAIProvider) observe(operation string, started time.Time, err *error) {
	p.metrics.ObserveProvider(operation, started, *err)
}
