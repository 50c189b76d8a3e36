package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viktsys/gasinsight/analysis"
	"github.com/viktsys/gasinsight/export"
	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/metrics"
	"github.com/viktsys/gasinsight/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Analyzer runs analyses on behalf of the handlers.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	CompareWeeks(ctx context.Context, req analysis.Request, section models.Section, first, second string) (models.WeekComparison, error)
}

type Handler struct {
	analyzer    Analyzer
	exportLabel string
}

func NewHandler(analyzer Analyzer, exportLabel string) *Handler {
	return &Handler{analyzer: analyzer, exportLabel: exportLabel}
}

type AnalysisParams struct {
	Mode       string `form:"mode"`
	Start      string `form:"start" binding:"required"`
	End        string `form:"end"`
	Redownload bool   `form:"redownload"`
	Raw        bool   `form:"raw"`
}

type WeeksParams struct {
	Section string `form:"section"`
	Start   string `form:"start" binding:"required"`
	End     string `form:"end"`
	Week1   string `form:"week1"`
	Week2   string `form:"week2"`
}

type ExportParams struct {
	Section string `form:"section" binding:"required"`
	Kind    string `form:"kind"`
	Mode    string `form:"mode"`
	Start   string `form:"start" binding:"required"`
	End     string `form:"end"`
}

func parseRequest(mode, start, end string, force bool) (analysis.Request, error) {
	req := analysis.Request{Mode: analysis.Mode(mode), Force: force}
	var err error
	req.Start, err = time.Parse(models.DateLayout, start)
	if err != nil {
		return req, fmt.Errorf("%w: invalid start date, use YYYY-MM-DD", analysis.ErrInvalidRequest)
	}
	if end != "" {
		req.End, err = time.Parse(models.DateLayout, end)
		if err != nil {
			return req, fmt.Errorf("%w: invalid end date, use YYYY-MM-DD", analysis.ErrInvalidRequest)
		}
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrEmptySelection),
		errors.Is(err, analysis.ErrInsufficientHistory),
		errors.Is(err, analysis.ErrUnknownWeek):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithComponent("api").WithError(err).WithFields(logger.Fields{"path": c.Request.URL.Path}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	var params AnalysisParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := parseRequest(params.Mode, params.Start, params.End, params.Redownload)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.analyzer.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if !params.Raw {
		out := res.WithoutStreams()
		res = &out
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetWeekComparison(c *gin.Context) {
	var params WeeksParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Section == "" {
		params.Section = string(models.SectionByC)
	}

	req, err := parseRequest(string(analysis.ModeRange), params.Start, params.End, false)
	if err != nil {
		respondError(c, err)
		return
	}

	cmp, err := h.analyzer.CompareWeeks(c.Request.Context(), req, models.Section(params.Section), params.Week1, params.Week2)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *Handler) GetExport(c *gin.Context) {
	var params ExportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section := models.Section(params.Section)
	if !section.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown section %q", params.Section)})
		return
	}

	req, err := parseRequest(params.Mode, params.Start, params.End, false)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.analyzer.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	var cells [][]export.SheetCell
	switch params.Kind {
	case "", "daily":
		cells = export.DailySheet(res.Daily[section])
	case "raw":
		cells = export.RawSheet(res.Streams[section])
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be daily or raw"})
		return
	}

	data, err := export.Bytes(section.Label(), cells)
	if err != nil {
		respondError(c, err)
		return
	}

	name := export.FileName(h.exportLabel, section, res.Request.Start, res.Request.End)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// requestLogger logs every request through the application logger.
func requestLogger() gin.HandlerFunc {
	log := logger.GetLogger().WithComponent("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logger.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		}).Info("request served")
	}
}

func SetupRoutes(h *Handler, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery(), m.GinMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.GET("/api/analysis", h.GetAnalysis)
	r.GET("/api/analysis/weeks", h.GetWeekComparison)
	r.GET("/api/export", h.GetExport)

	return r
}
