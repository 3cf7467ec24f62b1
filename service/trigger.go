package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/report"
)

// TriggerPayload an ad-hoc report request from the API
type TriggerPayload struct {
	Kind         string   `json:"kind" binding:"required"`
	Date         string   `json:"date,omitempty"`
	Month        string   `json:"month,omitempty"`
	UserID       int64    `json:"user_id,omitempty"`
	UserName     string   `json:"user_name,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
}

// trigger accepts an ad-hoc request and enqueues it. The response is an
// acknowledgment only: generation and delivery happen asynchronously on
// the worker.
func (s *Service) trigger(c *gin.Context) {
	var payload TriggerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}

	req := report.NewRequest(report.Kind(payload.Kind), report.TriggerManual)
	req.Date = payload.Date
	req.Month = payload.Month
	req.UserID = payload.UserID
	req.UserName = payload.UserName
	req.Destinations = payload.Destinations

	// fill the range defaults the way the bot panel does
	if req.Kind == report.KindDaily && req.Date == "" {
		req.Date = report.Today()
	}
	if (req.Kind == report.KindMonthly || req.Kind == report.KindMonthlyUser) && req.Month == "" {
		req.Month = time.Now().Format("2006-01")
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}

	if err := s.queue.Enqueue(req); err != nil {
		if errors.Is(err, queue.ErrBusy) {
			c.JSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": "report queue is full, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error()})
		return
	}

	log.Info("[Service] manual trigger %s accepted, request %s", req.Kind, req.ID)
	c.JSON(http.StatusAccepted, gin.H{"request_id": req.ID, "kind": req.Kind})
}
