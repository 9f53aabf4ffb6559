package http

import (
	"errors"
	"net/http"
	"strconv"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// QuizHandler exposes the public quiz endpoints.
type QuizHandler struct {
	service     *app.QuizService
	leaderboard app.LeaderboardProvider
	lbLimit     int
}

func NewQuizHandler(service *app.QuizService, leaderboard app.LeaderboardProvider, lbLimit int) *QuizHandler {
	if lbLimit <= 0 {
		lbLimit = 10
	}
	return &QuizHandler{service: service, leaderboard: leaderboard, lbLimit: lbLimit}
}

type startSessionRequest struct {
	PlayerName string `json:"playerName"`
}

type submitAnswerRequest struct {
	ChosenIndex int `json:"chosenIndex"`
}

type resolutionResponse struct {
	Record       domain.AnswerRecord `json:"record"`
	CorrectIndex int                 `json:"correctIndex"`
	Explanation  string              `json:"explanation,omitempty"`
	Awarded      int                 `json:"awarded"`
	Score        int                 `json:"score"`
	LastQuestion bool                `json:"lastQuestion"`
}

// StartSession handles POST /api/quiz/sessions.
func (h *QuizHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	snap, err := h.service.StartSession(c.Request.Context(), req.PlayerName)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// SubmitAnswer handles POST /api/quiz/sessions/:id/answer.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.service.SubmitAnswer(c.Param("id"), req.ChosenIndex)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolutionResponse{
		Record:       res.Record,
		CorrectIndex: res.CorrectIndex,
		Explanation:  res.Explanation,
		Awarded:      res.Awarded,
		Score:        res.Score,
		LastQuestion: res.LastQuestion,
	})
}

// Advance handles POST /api/quiz/sessions/:id/advance.
func (h *QuizHandler) Advance(c *gin.Context) {
	snap, err := h.service.Advance(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetSession handles GET /api/quiz/sessions/:id.
func (h *QuizHandler) GetSession(c *gin.Context) {
	snap, err := h.service.Session(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Leaderboard handles GET /api/leaderboard.
func (h *QuizHandler) Leaderboard(c *gin.Context) {
	limit := h.lbLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	lb, err := h.leaderboard.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, lb)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPlayerName),
		errors.Is(err, domain.ErrAnswerOutOfRange),
		errors.Is(err, domain.ErrQuestionMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrNotAwaitingAnswer),
		errors.Is(err, domain.ErrNothingToAdvance):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyQuestionPool),
		errors.Is(err, domain.ErrSourceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
