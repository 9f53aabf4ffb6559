package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"angostura-trivia-service/internal/domain"
	"angostura-trivia-service/pkg/auth"
	"github.com/gin-gonic/gin"
)

// QuestionRepository is the admin-facing question catalog.
type QuestionRepository interface {
	List(ctx context.Context) ([]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Create(ctx context.Context, q domain.Question) (domain.Question, error)
	Update(ctx context.Context, q domain.Question) (domain.Question, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	Stats(ctx context.Context) (domain.QuizStats, error)
}

// ResultArchive serves past attempts for the admin dashboard.
type ResultArchive interface {
	Recent(ctx context.Context, limit int) ([]domain.QuizResult, error)
}

// PoolInvalidator drops cached question pools after catalog edits.
type PoolInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AdminHandler exposes authentication and catalog management. The
// repositories may be nil when the service runs without postgres, in
// which case the catalog endpoints report unavailability.
type AdminHandler struct {
	questions  QuestionRepository
	results    ResultArchive
	tokens     *auth.Manager
	email      string
	passHash   string
	invalidate PoolInvalidator
}

func NewAdminHandler(questions QuestionRepository, results ResultArchive, tokens *auth.Manager, email, passHash string, invalidate PoolInvalidator) *AdminHandler {
	return &AdminHandler{
		questions:  questions,
		results:    results,
		tokens:     tokens,
		email:      email,
		passHash:   passHash,
		invalidate: invalidate,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if h.email == "" || !strings.EqualFold(req.Email, h.email) || !auth.CheckPassword(h.passHash, req.Password) {
		writeDomainError(c, domain.ErrInvalidCredentials)
		return
	}
	token, err := h.tokens.Issue(h.email, "admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// questionPayload is the admin read/write shape. Unlike the public
// views it carries the answer key.
type questionPayload struct {
	ID            string   `json:"id,omitempty"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correctIndex"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Active        *bool    `json:"active,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	TotalAttempts int      `json:"totalAttempts,omitempty"`
	CorrectCount  int      `json:"correctCount,omitempty"`
}

func adminView(q domain.Question) questionPayload {
	return questionPayload{
		ID:            q.ID,
		Text:          q.Text,
		Options:       q.Options,
		CorrectIndex:  q.CorrectIndex,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Active:        &q.Active,
		Explanation:   q.Explanation,
		TotalAttempts: q.TotalAttempts,
		CorrectCount:  q.CorrectCount,
	}
}

func (p questionPayload) toDomain() domain.Question {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return domain.Question{
		ID:           p.ID,
		Text:         p.Text,
		Options:      p.Options,
		CorrectIndex: p.CorrectIndex,
		Category:     p.Category,
		Difficulty:   p.Difficulty,
		Active:       active,
		Explanation:  p.Explanation,
	}
}

func (h *AdminHandler) catalogReady(c *gin.Context) bool {
	if h.questions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "question catalog requires a database"})
		return false
	}
	return true
}

func (h *AdminHandler) dropCachedPool(c *gin.Context) {
	if h.invalidate == nil {
		return
	}
	if err := h.invalidate.Invalidate(c.Request.Context()); err != nil {
		// The cache expires on its own TTL; edits are not rolled back.
		c.Header("X-Cache-Invalidation", "failed")
	}
}

// ListQuestions handles GET /api/admin/questions.
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	questions, err := h.questions.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "question catalog unavailable"})
		return
	}
	views := make([]questionPayload, 0, len(questions))
	for _, q := range questions {
		views = append(views, adminView(q))
	}
	c.JSON(http.StatusOK, gin.H{"questions": views})
}

// GetQuestion handles GET /api/admin/questions/:id.
func (h *AdminHandler) GetQuestion(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, adminView(q))
}

// CreateQuestion handles POST /api/admin/questions.
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	var req questionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.questions.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.dropCachedPool(c)
	c.JSON(http.StatusCreated, adminView(created))
}

// UpdateQuestion handles PUT /api/admin/questions/:id.
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	var req questionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.ID = c.Param("id")
	updated, err := h.questions.Update(c.Request.Context(), req.toDomain())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.dropCachedPool(c)
	c.JSON(http.StatusOK, adminView(updated))
}

// DeleteQuestion handles DELETE /api/admin/questions/:id.
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	h.dropCachedPool(c)
	c.Status(http.StatusNoContent)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetQuestionActive handles PATCH /api/admin/questions/:id/active.
func (h *AdminHandler) SetQuestionActive(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.questions.SetActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		writeDomainError(c, err)
		return
	}
	h.dropCachedPool(c)
	c.Status(http.StatusNoContent)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	if !h.catalogReady(c) {
		return
	}
	stats, err := h.questions.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentResults handles GET /api/admin/results.
func (h *AdminHandler) RecentResults(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result archive requires a database"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	results, err := h.results.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result archive unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
