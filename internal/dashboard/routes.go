package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
)

// registerRoutes sets up the JSON API.
func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/drafts", s.handleDraftList)
	api.GET("/drafts/:id", s.handleDraftDetail)
	api.POST("/drafts/:id/approve", s.handleApprove)
	api.POST("/drafts/:id/reject", s.handleReject)
	api.POST("/drafts/:id/publish", s.handlePublish)
	api.POST("/ingest/:platform", s.handleIngest)
	api.GET("/classifications", s.handleClassificationList)
	api.GET("/summaries", s.handleSummaryList)
}

// draftView is the JSON shape of an issue draft.
type draftView struct {
	ID           uint                     `json:"id"`
	Title        string                   `json:"title"`
	Description  string                   `json:"description"`
	Labels       []string                 `json:"labels"`
	Type         models.Category          `json:"type"`
	Platform     string                   `json:"platform"`
	MessageCount int                      `json:"message_count"`
	Status       models.DraftStatus       `json:"status"`
	IssueURL     string                   `json:"issue_url,omitempty"`
	Messages     []models.SnapshotMessage `json:"messages,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func toDraftView(d *models.IssueDraft, withMessages bool) draftView {
	labels, _ := d.LabelSet()
	v := draftView{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Labels:       labels,
		Type:         d.Type,
		Platform:     d.Platform,
		MessageCount: d.MessageCount,
		Status:       d.Status,
		IssueURL:     d.IssueURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if withMessages {
		v.Messages, _ = d.Messages()
	}
	return v
}

// fail maps pipeline faults to HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fault.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, fault.ErrCapabilityUnavailable), errors.Is(err, fault.ErrCapabilityTimeout):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleStatus(c *gin.Context) {
	pending, err := s.store.QueryDrafts(store.Filter{"status": string(models.StatusDraft)})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"capability_available": s.flow.Available(c.Request.Context()),
		"pending_drafts":       len(pending),
	})
}

func (s *Server) handleDraftList(c *gin.Context) {
	filter := store.Filter{}
	if v := c.Query("status"); v != "" {
		filter["status"] = v
	}
	if v := c.Query("platform"); v != "" {
		filter["platform"] = v
	}
	drafts, err := s.store.QueryDrafts(filter)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]draftView, 0, len(drafts))
	for i := range drafts {
		views = append(views, toDraftView(&drafts[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"drafts": views, "count": len(views)})
}

func draftID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleDraftDetail(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	draft, err := s.store.GetDraft(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDraftView(draft, true))
}

func (s *Server) handleApprove(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	draft, err := s.flow.UpdateDraftStatus(id, models.StatusApproved)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDraftView(draft, false))
}

func (s *Server) handleReject(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	draft, err := s.flow.Reject(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDraftView(draft, false))
}

func (s *Server) handlePublish(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	draft, url, err := s.flow.ApproveAndPublish(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	view := toDraftView(draft, false)
	c.JSON(http.StatusOK, gin.H{"draft": view, "issue_url": url})
}

func (s *Server) handleClassificationList(c *gin.Context) {
	filter := store.Filter{}
	if v := c.Query("category"); v != "" {
		filter["category"] = v
	}
	if v := c.Query("platform"); v != "" {
		filter["platform"] = v
	}
	cls, err := s.store.QueryClassifications(filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classifications": cls, "count": len(cls)})
}

func (s *Server) handleSummaryList(c *gin.Context) {
	filter := store.Filter{}
	if v := c.Query("platform"); v != "" {
		filter["platform"] = v
	}
	sums, err := s.store.QuerySummaries(filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": sums, "count": len(sums)})
}

// ingestMessage is one scraped chat message. Timestamps are unix
// milliseconds; images are URLs or data URLs.
type ingestMessage struct {
	Author    string   `json:"author"`
	Text      string   `json:"text"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// ingestRequest is a batch of scraped messages treated as one thread.
// This is how WhatsApp Web content arrives: a browser-side scraper posts
// what it collected, since WhatsApp has no bot API to listen on.
type ingestRequest struct {
	ThreadID string          `json:"thread_id"`
	Messages []ingestMessage `json:"messages"`
}

func (s *Server) handleIngest(c *gin.Context) {
	platform := c.Param("platform")
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = "ingest-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	thread := models.Thread{
		ThreadID: platform + "-" + threadID,
		Platform: platform,
	}
	for _, m := range req.Messages {
		msg := models.Message{
			Author:   m.Author,
			Text:     m.Text,
			Platform: platform,
		}
		if m.Timestamp > 0 {
			msg.Timestamp = time.UnixMilli(m.Timestamp)
		}
		for _, src := range m.Images {
			msg.Images = append(msg.Images, models.ImageRef{Source: src})
		}
		thread.Messages = append(thread.Messages, msg)
	}

	res, err := s.flow.ProcessThread(c.Request.Context(), thread)
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{
		"thread_id":  thread.ThreadID,
		"actionable": res.Actionable,
		"category":   res.Classification.Category,
	}
	if res.Actionable {
		resp["draft"] = toDraftView(res.Draft, false)
		c.JSON(http.StatusCreated, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
