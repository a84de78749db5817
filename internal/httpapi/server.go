// Package httpapi serves the checklist over JSON for a web front end.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"FundReview/internal/checklist"
	"FundReview/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stepJSON struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Done        bool    `json:"done"`
	CompletedOn *string `json:"completed_on"`
	Display     string  `json:"display"`
}

type fundJSON struct {
	ID           int64      `json:"id"`
	SortKey      int64      `json:"sort_key"`
	Name         string     `json:"name"`
	AssignedDate string     `json:"assigned_date"`
	Steps        []stepJSON `json:"steps"`
	Deletable    bool       `json:"deletable"`
}

func toJSON(f model.Fund) fundJSON {
	out := fundJSON{
		ID:           f.ID,
		SortKey:      f.SortKey,
		Name:         f.Name,
		AssignedDate: model.FormatDate(f.AssignedDate),
		Deletable:    f.Rejected(),
	}
	for _, s := range model.Steps {
		st := f.Step(s)
		sj := stepJSON{Code: s.Code(), Label: s.Label(), Done: st.Done, Display: model.PillText(s, st)}
		if st.CompletedOn != nil {
			d := model.FormatDate(*st.CompletedOn)
			sj.CompletedOn = &d
		}
		out.Steps = append(out.Steps, sj)
	}
	return out
}

type server struct {
	ctrl *checklist.Controller
	log  *zap.Logger
}

// NewRouter builds the gin engine serving ctrl.
func NewRouter(ctrl *checklist.Controller, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{ctrl: ctrl, log: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/funds", s.listFunds)
	r.POST("/funds", s.createFund)
	r.PATCH("/funds/:id", s.updateFund)
	r.DELETE("/funds/:id", s.deleteFund)
	r.POST("/funds/:id/steps/:step", s.toggleStep)
	r.PUT("/funds/:id/steps/:step/date", s.setStepDate)
	r.POST("/funds/:id/move", s.moveFund)
	r.GET("/funds/:id/history", s.history)
	return r
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// fail maps domain errors to HTTP statuses.
func (s *server) fail(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case model.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case model.IsPolicy(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: "id", Reason: "invalid fund id"}
	}
	return id, nil
}

func (s *server) listFunds(c *gin.Context) {
	funds, err := s.ctrl.Funds(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]fundJSON, 0, len(funds))
	for _, f := range funds {
		out = append(out, toJSON(f))
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) respondFund(c *gin.Context, status int, id int64) {
	f, err := s.ctrl.Fund(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, toJSON(f))
}

type createRequest struct {
	Name         string `json:"name"`
	AssignedDate string `json:"assigned_date"`
}

func (s *server) createFund(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := model.ParseDate(req.AssignedDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	id, err := s.ctrl.AddFund(c.Request.Context(), req.Name, d)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondFund(c, http.StatusCreated, id)
}

type updateRequest struct {
	Name         *string `json:"name"`
	AssignedDate *string `json:"assigned_date"`
}

func (s *server) updateFund(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var assigned *time.Time
	if req.AssignedDate != nil {
		d, err := model.ParseDate(*req.AssignedDate)
		if err != nil {
			s.fail(c, err)
			return
		}
		assigned = &d
	}
	if err := s.ctrl.Update(c.Request.Context(), id, req.Name, assigned); err != nil {
		s.fail(c, err)
		return
	}
	s.respondFund(c, http.StatusOK, id)
}

func (s *server) toggleStep(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	step, err := model.ParseStep(c.Param("step"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.ctrl.ToggleStep(c.Request.Context(), id, step); err != nil {
		s.fail(c, err)
		return
	}
	s.respondFund(c, http.StatusOK, id)
}

type dateRequest struct {
	Date string `json:"date"`
}

func (s *server) setStepDate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	step, err := model.ParseStep(c.Param("step"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := model.ParseDate(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.ctrl.SetStepDate(c.Request.Context(), id, step, d); err != nil {
		s.fail(c, err)
		return
	}
	s.respondFund(c, http.StatusOK, id)
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (s *server) moveFund(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dir, ok := checklist.ParseDirection(req.Direction)
	if !ok {
		s.fail(c, &model.ValidationError{Field: "direction", Reason: "want up or down"})
		return
	}
	if err := s.ctrl.Reorder(c.Request.Context(), id, dir); err != nil {
		s.fail(c, err)
		return
	}
	s.listFunds(c)
}

func (s *server) deleteFund(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.ctrl.DeleteFund(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) history(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := s.ctrl.History(c.Request.Context(), id, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	type eventJSON struct {
		ID        string    `json:"id"`
		Timestamp time.Time `json:"timestamp"`
		Action    string    `json:"action"`
		Step      string    `json:"step,omitempty"`
		Note      string    `json:"note,omitempty"`
	}
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON{ID: e.ID, Timestamp: e.Timestamp, Action: string(e.Action), Step: e.Step, Note: e.Note})
	}
	c.JSON(http.StatusOK, out)
}
