package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"classpin/internal/attendance"
	"classpin/internal/auth"
	"classpin/internal/config"
	"classpin/internal/metrics"
	"classpin/internal/notification"
	"classpin/internal/queue"
	"classpin/internal/school"
)

// Handler binds the attendance workflow to HTTP.
type Handler struct {
	svc    *attendance.Service
	school *school.Repository
	notes  *notification.Repository
	queue  queue.Queue
	cfg    config.App
}

// New wires a handler.
func New(svc *attendance.Service, schoolRepo *school.Repository, notes *notification.Repository, q queue.Queue, cfg config.App) *Handler {
	return &Handler{svc: svc, school: schoolRepo, notes: notes, queue: q, cfg: cfg}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/token", h.IssueToken)
	r.POST("/v1/attendance/submit-pin", h.SubmitPin)

	authed := r.Group("/v1", auth.UserAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	authed.GET("/notifications", h.ListNotifications)
	authed.POST("/notifications/:id/read", h.ReadNotification)

	staff := authed.Group("", auth.RequireRole(auth.RoleTeacher, auth.RoleAdmin))
	staff.POST("/classes/:id/pin", h.GeneratePin)
	staff.GET("/classes/:id/pin", h.ActivePin)
	staff.DELETE("/classes/:id/pin", h.EndPin)
	staff.POST("/attendance/bulk", h.SubmitBulk)
	staff.GET("/attendance", h.ListAttendance)
	staff.GET("/attendance/summary", h.Summary)

	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.PUT("/attendance/:id/status", h.CorrectStatus)
}

// fail renders a workflow error as {success:false, message} with a mapped HTTP
// status, or a 500 for unexpected errors.
func fail(c *gin.Context, err error) {
	if e, ok := attendance.AsError(err); ok {
		metrics.Rejections.WithLabelValues(e.Code).Inc()
		c.JSON(statusFor(e.Code), gin.H{"success": false, "code": e.Code, "message": e.Message})
		return
	}
	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
}

func statusFor(code string) int {
	switch code {
	case attendance.CodeClassNotFound, attendance.CodeStudentNotFound:
		return http.StatusNotFound
	case attendance.CodeSessionAlreadyExists, attendance.CodeAlreadyMarked:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// ---------- Token ----------

type tokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=admin teacher student parent"`
}

// IssueToken exchanges a known identity for a role JWT. Identity verification
// is a pass-through: teachers and students must exist in the directory.
func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Role {
	case auth.RoleTeacher:
		t, err := h.school.TeacherByID(ctx, req.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		if t == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "unknown teacher id"})
			return
		}
	case auth.RoleStudent:
		s, err := h.school.StudentByID(ctx, req.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		if s == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "unknown student id"})
			return
		}
	}

	token, err := auth.Issue(req.UserID, req.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"access_token": token.Value,
		"expires_at":   token.ExpiresAt.Unix(),
	})
}

// ---------- PIN sessions ----------

// GeneratePin issues a one-time PIN for a class.
func (h *Handler) GeneratePin(c *gin.Context) {
	classID := c.Param("id")
	teacherID := ""
	if claims, ok := auth.FromContext(c); ok && claims.Role == auth.RoleTeacher {
		teacherID = claims.Subject
	}

	grant, err := h.svc.GeneratePin(c.Request.Context(), classID, teacherID)
	if err != nil {
		fail(c, err)
		return
	}
	metrics.PinSessionsGenerated.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"session_id":     grant.Session.SessionID,
		"pin_code":       grant.Session.PinCode,
		"expiry_date":    grant.Session.ExpiresAt,
		"qr_url":         grant.JoinURL,
		"class_name":     grant.ClassName,
		"enrolled_count": grant.EnrolledCount,
		"day":            grant.Day,
		"start_time":     grant.StartTime,
		"end_time":       grant.EndTime,
	})
}

// ActivePin reports the current active session for a class, if any.
func (h *Handler) ActivePin(c *gin.Context) {
	session, err := h.svc.ActiveSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "active": true, "session": session})
}

// EndPin deactivates the class's active session early.
func (h *Handler) EndPin(c *gin.Context) {
	ended, err := h.svc.EndSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ended": ended})
}

// ---------- Submissions ----------

type submitPinRequest struct {
	PinCode   string `json:"pin_code" binding:"required,len=6,numeric"`
	StudentID string `json:"student_id" binding:"required"`
}

// SubmitPin marks one student present via a submitted PIN.
func (h *Handler) SubmitPin(c *gin.Context) {
	var req submitPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	conf, err := h.svc.SubmitPin(c.Request.Context(), req.PinCode, req.StudentID)
	if err != nil {
		fail(c, err)
		return
	}
	metrics.Marks.WithLabelValues("pin").Inc()
	h.publishMarked(c.Request.Context(), notification.MarkedEvent{
		StudentID:   conf.Record.StudentID,
		StudentName: conf.StudentName,
		ClassName:   conf.ClassName,
		Status:      string(conf.Record.Status),
		Date:        conf.Record.Date,
	})
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"student_name": conf.StudentName,
		"class_name":   conf.ClassName,
		"time":         conf.Time,
		"reference":    conf.Record.DisplayRef(),
	})
}

type bulkRequest struct {
	ClassID     string `json:"class_id" binding:"required"`
	PinCode     string `json:"pin_code" binding:"required,len=6,numeric"`
	Date        string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Attendances []struct {
		StudentID string `json:"student_id" binding:"required"`
		Status    string `json:"status" binding:"omitempty,oneof=Present Absent Late"`
	} `json:"attendances" binding:"required,min=1,dive"`
}

// SubmitBulk marks many students for one class and date under a verified PIN.
func (h *Handler) SubmitBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	entries := make([]attendance.BulkEntry, 0, len(req.Attendances))
	for _, a := range req.Attendances {
		entries = append(entries, attendance.BulkEntry{StudentID: a.StudentID, Status: attendance.Status(a.Status)})
	}

	ctx := c.Request.Context()
	result, err := h.svc.SubmitBulk(ctx, req.ClassID, req.PinCode, req.Date, entries)
	if err != nil {
		fail(c, err)
		return
	}
	metrics.Marks.WithLabelValues("bulk").Add(float64(result.Marked))

	// One event per row actually written; skipped entries get none.
	if len(result.Applied) > 0 {
		if class, cerr := h.school.ClassByID(ctx, req.ClassID); cerr == nil && class != nil {
			for _, rec := range result.Applied {
				h.publishMarked(ctx, notification.MarkedEvent{
					StudentID: rec.StudentID,
					ClassName: class.ClassName,
					Status:    string(rec.Status),
					Date:      rec.Date,
				})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked": result.Marked, "date": result.Date, "skipped": result.Skipped})
}

func (h *Handler) publishMarked(ctx context.Context, evt notification.MarkedEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := h.queue.Publish(ctx, queue.Message{Type: notification.MessageType, Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

// ---------- Listings ----------

// ListAttendance returns records filtered by class and date range.
func (h *Handler) ListAttendance(c *gin.Context) {
	filter := attendance.ListFilter{
		ClassID: c.Query("class_id"),
		From:    c.Query("from"),
		To:      c.Query("to"),
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Offset = parsed
		}
	}
	records, err := h.svc.Records(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}

type correctRequest struct {
	Status string `json:"status" binding:"required,oneof=Present Absent Late"`
}

// CorrectStatus lets an administrator fix the status of an existing record.
func (h *Handler) CorrectStatus(c *gin.Context) {
	var req correctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	updated, err := h.svc.CorrectStatus(c.Request.Context(), c.Param("id"), attendance.Status(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "attendance record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Summary aggregates marks for dashboards.
func (h *Handler) Summary(c *gin.Context) {
	sum, err := h.svc.Summarize(c.Request.Context(), c.Query("class_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": sum})
}

// ---------- Notifications ----------

// ListNotifications returns the caller's inbox.
func (h *Handler) ListNotifications(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	unreadOnly := c.Query("unread") == "true"
	notes, err := h.notes.ListForUser(c.Request.Context(), claims.Subject, unreadOnly)
	if err != nil {
		fail(c, err)
		return
	}
	if notes == nil {
		notes = []notification.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notes})
}

// ReadNotification marks one of the caller's notifications as read.
func (h *Handler) ReadNotification(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	ok, err := h.notes.MarkRead(c.Request.Context(), c.Param("id"), claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
