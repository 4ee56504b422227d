package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/pipeline"
	"github.com/ppiankov/satyamitra/internal/store"
)

const permissionDenied = "Permission Denied: Only Admin users can delete audit logs."

type verifyRequest struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	InputType string `json:"input_type"`
	ImageData string `json:"image_data"`
	UserRole  string `json:"user_role"`
}

func (r verifyRequest) toModel() model.Request {
	req := model.Request{
		Text:        r.Text,
		RequesterID: r.UserID,
		InputType:   model.ParseInputType(r.InputType),
		ImageData:   r.ImageData,
		UserRole:    model.ParseRole(r.UserRole),
	}
	if req.RequesterID == "" {
		req.RequesterID = "web_user"
	}
	return req
}

func (s *Server) handleVerify(c *gin.Context) {
	var body verifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StreamTimeout)
		defer cancel()
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	enc.SetEscapeHTML(false)
	emit := func(e model.Event) {
		if err := enc.Encode(e); err != nil {
			s.logger.Warn("Stream write failed", "error", err)
			return
		}
		c.Writer.Flush()
	}

	if _, err := s.verifier.Run(ctx, body.toModel(), emit); err != nil {
		s.logger.Warn("Verification stream ended with error", "error", err)
	}
}

type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (s *Server) handleWhatsApp(c *gin.Context) {
	body := c.PostForm("Body")
	from := c.PostForm("From")
	s.logger.Info("WhatsApp message received", "from", from)

	var reply string
	res, err := s.verifier.Run(c.Request.Context(), model.Request{
		Text:        body,
		RequesterID: from,
		InputType:   model.InputText,
		UserRole:    model.RoleStandard,
	}, nil)
	if err != nil {
		reply = fmt.Sprintf("System Error. Please try again later. (%s)", pipeline.ErrorKind(err))
	} else {
		reply = res.Report
	}

	out, err := xml.Marshal(twiml{Message: reply})
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml", out)
}

func (s *Server) handleAnalytics(c *gin.Context) {
	stats, err := s.store.Analytics(c.Request.Context())
	if err != nil {
		s.logger.Error("Analytics query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Database Analytics Error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type deleteRequest struct {
	IDs      []uint `json:"ids"`
	UserRole string `json:"user_role"`
}

func (s *Server) handleAuditDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	role := model.ParseRole(req.UserRole)
	if role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"detail": permissionDenied})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "No IDs provided."})
		return
	}

	n, err := s.store.DeleteHistory(c.Request.Context(), role, req.IDs)
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"detail": permissionDenied})
		return
	case err != nil:
		s.logger.Error("Audit delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete logs: " + err.Error()})
		return
	}

	s.logger.Info("Audit logs deleted", "requested", len(req.IDs), "deleted", n)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Successfully deleted %d log(s).", n),
		"deleted": n,
	})
}

func (s *Server) handleReputation(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "url query parameter is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": s.reputation.Describe(c.Request.Context(), rawURL)})
}

func (s *Server) handleGraph(c *gin.Context) {
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(pipeline.Describe()))
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
