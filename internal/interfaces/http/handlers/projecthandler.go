package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/application/project/usecases"
	queryUsecases "github.com/docsphere/docsphere/internal/application/query/usecases"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

const (
	uploadFormField = "files"
	maxUploadFiles  = 20
	maxFileBytes    = 20 << 20
)

type ProjectHandler struct {
	createProjectUC     createProjectUseCase
	ensureVectorStoreUC ensureVectorStoreUseCase
	uploadDocumentsUC   uploadDocumentsUseCase
	listFilesUC         listFilesUseCase
	removeFileUC        removeFileUseCase
	listMessagesUC      listMessagesUseCase
	logger              logger.Interface
}

func NewProjectHandler(
	createProjectUC createProjectUseCase,
	ensureVectorStoreUC ensureVectorStoreUseCase,
	uploadDocumentsUC uploadDocumentsUseCase,
	listFilesUC listFilesUseCase,
	removeFileUC removeFileUseCase,
	listMessagesUC listMessagesUseCase,
	logger logger.Interface,
) *ProjectHandler {
	return &ProjectHandler{
		createProjectUC:     createProjectUC,
		ensureVectorStoreUC: ensureVectorStoreUC,
		uploadDocumentsUC:   uploadDocumentsUC,
		listFilesUC:         listFilesUC,
		removeFileUC:        removeFileUC,
		listMessagesUC:      listMessagesUC,
		logger:              logger,
	}
}

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateProject creates a project, or returns the tenant's existing
// project of the same name.
// POST /api/v1/tenants/:tenant_id/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := actorTenant(c)
	if !ok {
		return
	}
	tenantID, ok := uuidParam(c, "tenant_id")
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.createProjectUC.Execute(c.Request.Context(), usecases.CreateProjectCommand{
		ActorTenantID:  actor,
		TenantID:       tenantID,
		Name:           req.Name,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.Status == usecases.StatusCreated {
		utils.CreatedResponse(c, result, "Project created successfully")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Project already exists", result)
}

// EnsureVectorStore creates the project's vector store if it has none.
// POST /api/v1/tenants/:tenant_id/projects/:project_id/vector-store
func (h *ProjectHandler) EnsureVectorStore(c *gin.Context) {
	ref, ok := projectRef(c)
	if !ok {
		return
	}

	result, err := h.ensureVectorStoreUC.Execute(c.Request.Context(), ref)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.Status == usecases.StatusCreated {
		utils.CreatedResponse(c, result, "Vector store created")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Vector store already exists", result)
}

// UploadFiles ingests a multipart batch of documents.
// POST /api/v1/tenants/:tenant_id/projects/:project_id/files
func (h *ProjectHandler) UploadFiles(c *gin.Context) {
	ref, ok := projectRef(c)
	if !ok {
		return
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File[uploadFormField]
	}
	if len(headers) > maxUploadFiles {
		utils.ErrorResponseWithError(c, errors.NewValidationError(
			fmt.Sprintf("At most %d files per upload", maxUploadFiles)))
		return
	}

	files := make([]retrieval.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		files = append(files, f)
	}

	result, err := h.uploadDocumentsUC.Execute(c.Request.Context(), usecases.UploadDocumentsCommand{
		ProjectRef:     ref,
		Files:          files,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Files uploaded", result)
}

func readUpload(fh *multipart.FileHeader) (retrieval.File, error) {
	if fh.Size > maxFileBytes {
		return retrieval.File{}, errors.NewValidationError(
			fmt.Sprintf("File %s exceeds %d bytes", fh.Filename, maxFileBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return retrieval.File{}, errors.NewValidationError("Unreadable file", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return retrieval.File{}, errors.NewValidationError("Unreadable file", fh.Filename)
	}
	if len(data) > maxFileBytes {
		return retrieval.File{}, errors.NewValidationError(
			fmt.Sprintf("File %s exceeds %d bytes", fh.Filename, maxFileBytes))
	}
	return retrieval.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ListFiles lists the files attached to the project's vector store.
// GET /api/v1/tenants/:tenant_id/projects/:project_id/files
func (h *ProjectHandler) ListFiles(c *gin.Context) {
	ref, ok := projectRef(c)
	if !ok {
		return
	}

	result, err := h.listFilesUC.Execute(c.Request.Context(), ref)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// RemoveFile detaches a file, deleting the upload too when delete_raw is set.
// DELETE /api/v1/tenants/:tenant_id/projects/:project_id/files/:file_id
func (h *ProjectHandler) RemoveFile(c *gin.Context) {
	ref, ok := projectRef(c)
	if !ok {
		return
	}

	deleteRaw := false
	if v := c.Query("delete_raw"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid delete_raw"))
			return
		}
		deleteRaw = b
	}

	result, err := h.removeFileUC.Execute(c.Request.Context(), usecases.RemoveFileCommand{
		ProjectRef: ref,
		FileID:     c.Param("file_id"),
		DeleteRaw:  deleteRaw,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "File removed", result)
}

// ListMessages returns the project's question and answer history.
// GET /api/v1/tenants/:tenant_id/projects/:project_id/messages
func (h *ProjectHandler) ListMessages(c *gin.Context) {
	ref, ok := projectRef(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid limit"))
			return
		}
		limit = n
	}

	msgs, err := h.listMessagesUC.Execute(c.Request.Context(), queryUsecases.ListMessagesQuery{
		ActorTenantID: ref.ActorTenantID,
		TenantID:      ref.TenantID,
		ProjectID:     ref.ProjectID,
		Limit:         limit,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", msgs)
}

func projectRef(c *gin.Context) (usecases.ProjectRef, bool) {
	actor, ok := actorTenant(c)
	if !ok {
		return usecases.ProjectRef{}, false
	}
	tenantID, ok := uuidParam(c, "tenant_id")
	if !ok {
		return usecases.ProjectRef{}, false
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return usecases.ProjectRef{}, false
	}
	return usecases.ProjectRef{ActorTenantID: actor, TenantID: tenantID, ProjectID: projectID}, true
}
