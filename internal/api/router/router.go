package router

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-skill-extractor/internal/api/handler"
	"resume-skill-extractor/internal/parser"
	"resume-skill-extractor/internal/processor"
	"resume-skill-extractor/internal/types"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler) {
	api := h.Group("/api/v1")

	api.POST("/resumes/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := resumeHandler.HandleResumeUpload(c, file, fileHeader.Filename)
		if err != nil {
			if errors.Is(err, parser.ErrUnreadablePDF) {
				ctx.JSON(consts.StatusUnprocessableEntity, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/candidates/:id", func(c context.Context, ctx *app.RequestContext) {
		record, err := resumeHandler.HandleGetCandidate(c, ctx.Param("id"))
		if err != nil {
			if errors.Is(err, processor.ErrCandidateNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, record)
	})

	api.GET("/candidates", func(c context.Context, ctx *app.RequestContext) {
		limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
		records, err := resumeHandler.HandleListCandidates(c, limit, offset)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"candidates": records, "count": len(records)})
	})

	api.POST("/candidates/search", func(c context.Context, ctx *app.RequestContext) {
		var query types.SearchQuery
		if err := ctx.BindJSON(&query); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求格式无效"})
			return
		}
		results, err := resumeHandler.HandleSearch(c, query)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"results": results, "count": len(results)})
	})

	api.POST("/candidates/:id/match", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			JobDescription string `json:"job_description"`
		}
		if err := ctx.BindJSON(&req); err != nil || req.JobDescription == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少job_description"})
			return
		}
		score, err := resumeHandler.HandleMatchScore(c, ctx.Param("id"), req.JobDescription)
		if err != nil {
			if errors.Is(err, processor.ErrCandidateNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"score": score})
	})

	api.POST("/candidates/:id/questions", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Kind       string `json:"kind"`
			TargetRole string `json:"target_role"`
			Count      int    `json:"count"`
		}
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求格式无效"})
			return
		}
		kind := parser.QuestionKind(req.Kind)
		if kind == "" {
			kind = parser.QuestionTechnical
		}
		if req.Count <= 0 {
			req.Count = 5
		}

		questions, err := resumeHandler.HandleGenerateQuestions(c, ctx.Param("id"), kind, req.TargetRole, req.Count)
		if err != nil {
			switch {
			case errors.Is(err, processor.ErrCandidateNotFound):
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			case errors.Is(err, parser.ErrExternalService):
				ctx.JSON(consts.StatusBadGateway, utils.H{"error": err.Error()})
			default:
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			}
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"questions": questions})
	})

	api.PATCH("/candidates/:id/hired", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Hired bool `json:"hired"`
		}
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求格式无效"})
			return
		}
		if err := resumeHandler.HandleSetHired(c, ctx.Param("id"), req.Hired); err != nil {
			if errors.Is(err, processor.ErrCandidateNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.DELETE("/candidates/:id", func(c context.Context, ctx *app.RequestContext) {
		if err := resumeHandler.HandleDeleteCandidate(c, ctx.Param("id")); err != nil {
			if errors.Is(err, processor.ErrCandidateNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "deleted"})
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
