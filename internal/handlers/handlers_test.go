package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"agora/internal/db"
	"agora/internal/metrics"
	"agora/internal/models"
	"agora/internal/router"
	"agora/internal/services"
	"agora/internal/storage"
	"agora/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	store  *db.Store
	svc    *services.Services
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testutil.Config(t)
	store := testutil.SetupStore(t, cfg)
	files, err := storage.NewLocalStore(cfg.UploadDir)
	require.NoError(t, err)
	ms := metrics.NewMetricService()
	svc := services.New(store, cfg, files, ms)
	t.Cleanup(svc.Effects.Wait)
	return &testApp{t: t, engine: router.New(cfg, store, svc, ms), store: store, svc: svc}
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (a *testApp) register(email, name string) services.TokenResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "password", "name": name})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp services.TokenResponse
	decode(a.t, w, &resp)
	return resp
}

func (a *testApp) createIdea(token, title string) models.Idea {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/ideas", token, gin.H{"title": title, "description": "About " + title, "tags": []string{"city"}})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var idea models.Idea
	decode(a.t, w, &idea)
	return idea
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	admin := app.register("admin@example.com", "Admin")
	assert.Equal(t, models.RoleAdmin, admin.User.Role)
	assert.Equal(t, "bearer", admin.TokenType)

	user := app.register("user@example.com", "User")
	assert.Equal(t, models.RoleUser, user.User.Role)

	w := app.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "USER@example.com", "password": "password", "name": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "user@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "user@example.com", "password": "password"})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/auth/me", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, user.User.ID, me.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = app.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPut, "/api/admin/users/"+user.User.ID+"/ban?banned=true", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/auth/me", user.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPut, "/api/admin/users/"+admin.User.ID+"/ban?banned=true", admin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIdeaVotingAndSorting(t *testing.T) {
	app := newTestApp(t)
	author := app.register("author@example.com", "Author")
	voter := app.register("voter@example.com", "Voter")

	quiet := app.createIdea(author.AccessToken, "Quiet idea")
	popular := app.createIdea(author.AccessToken, "Popular idea")

	w := app.do(http.MethodPost, "/api/ideas/"+popular.ID+"/vote", voter.AccessToken, gin.H{"action": "up"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var vote struct {
		Success   bool   `json:"success"`
		VotesUp   int    `json:"votes_up"`
		VotesDown int    `json:"votes_down"`
		UserVote  string `json:"user_vote"`
	}
	decode(t, w, &vote)
	assert.True(t, vote.Success)
	assert.Equal(t, 1, vote.VotesUp)
	assert.Equal(t, "up", vote.UserVote)

	w = app.do(http.MethodPost, "/api/ideas/"+quiet.ID+"/vote", voter.AccessToken, gin.H{"action": "down"})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPost, "/api/ideas/"+quiet.ID+"/vote", voter.AccessToken, gin.H{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/api/ideas/missing/vote", voter.AccessToken, gin.H{"action": "up"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(http.MethodPost, "/api/ideas/"+quiet.ID+"/vote", "", gin.H{"action": "up"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodGet, "/api/ideas?sort=top", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ideas []models.Idea
	decode(t, w, &ideas)
	require.Len(t, ideas, 2)
	assert.Equal(t, popular.ID, ideas[0].ID)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))

	w = app.do(http.MethodGet, "/api/ideas?search=quiet&per_page=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ideas)
	require.Len(t, ideas, 1)
	assert.Equal(t, quiet.ID, ideas[0].ID)

	w = app.do(http.MethodGet, "/api/ideas?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/ideas/"+popular.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "description_html")

	app.svc.Effects.Wait()
	w = app.do(http.MethodGet, "/api/notifications/unread-count", author.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread struct {
		Count int `json:"count"`
	}
	decode(t, w, &unread)
	// new_vote for the up vote plus the idea_creator badge
	assert.Equal(t, 2, unread.Count)
}

func TestModerationGates(t *testing.T) {
	app := newTestApp(t)
	admin := app.register("admin@example.com", "Admin")
	author := app.register("author@example.com", "Author")
	other := app.register("other@example.com", "Other")
	idea := app.createIdea(author.AccessToken, "Gated")

	w := app.do(http.MethodPut, "/api/ideas/"+idea.ID+"/status", author.AccessToken, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPut, "/api/ideas/"+idea.ID, other.AccessToken, gin.H{"title": "Mine now", "description": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPut, "/api/admin/users/"+other.User.ID+"/role?role=moderator", author.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(http.MethodPut, "/api/admin/users/"+other.User.ID+"/role?role=moderator", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPut, "/api/ideas/"+idea.ID+"/status?status=in_progress", other.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Idea
	decode(t, w, &updated)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	w = app.do(http.MethodPost, "/api/categories", other.AccessToken, gin.H{"name": "Sport"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(http.MethodPost, "/api/categories", admin.AccessToken, gin.H{"name": "Sport"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = app.do(http.MethodGet, "/api/admin/stats", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.AdminStats
	decode(t, w, &stats)
	assert.EqualValues(t, 3, stats.Users)
	assert.EqualValues(t, 1, stats.IdeasByStatus["in_progress"])
}

func TestCommentsReportsAndCascade(t *testing.T) {
	app := newTestApp(t)
	admin := app.register("admin@example.com", "Admin")
	author := app.register("author@example.com", "Author")
	reader := app.register("reader@example.com", "Reader")
	idea := app.createIdea(author.AccessToken, "Reported")

	w := app.do(http.MethodPost, "/api/comments", reader.AccessToken, gin.H{"idea_id": idea.ID, "text": "Nice"})
	require.Equal(t, http.StatusOK, w.Code)
	var comment models.Comment
	decode(t, w, &comment)

	w = app.do(http.MethodGet, "/api/comments/"+idea.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	decode(t, w, &comments)
	assert.Len(t, comments, 1)

	w = app.do(http.MethodPost, "/api/reports", reader.AccessToken, gin.H{"content_type": "idea", "content_id": idea.ID, "reason": "off topic"})
	require.Equal(t, http.StatusOK, w.Code)
	var report models.Report
	decode(t, w, &report)

	w = app.do(http.MethodGet, "/api/reports?report_status=pending", reader.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(http.MethodGet, "/api/reports?report_status=pending", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []models.Report
	decode(t, w, &reports)
	assert.Len(t, reports, 1)

	w = app.do(http.MethodPut, "/api/reports/"+report.ID+"?action=delete&resolution=spam", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/ideas/"+idea.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(http.MethodGet, "/api/comments/"+idea.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &comments)
	assert.Empty(t, comments)
}

func TestPollEndpoints(t *testing.T) {
	app := newTestApp(t)
	author := app.register("author@example.com", "Author")
	voter := app.register("voter@example.com", "Voter")

	w := app.do(http.MethodPost, "/api/polls", author.AccessToken, gin.H{"title": "Color", "options": []string{"red"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/polls", author.AccessToken, gin.H{"title": "Color", "options": []string{"red", "blue"}})
	require.Equal(t, http.StatusOK, w.Code)
	var poll models.Poll
	decode(t, w, &poll)

	w = app.do(http.MethodPost, "/api/polls/"+poll.ID+"/vote", voter.AccessToken, gin.H{"option": "green"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/polls/"+poll.ID+"/vote", voter.AccessToken, gin.H{"option": "blue"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &poll)
	assert.Equal(t, map[string]int{"red": 0, "blue": 1}, poll.Votes.Data())

	w = app.do(http.MethodDelete, "/api/polls/"+poll.ID, voter.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(http.MethodDelete, "/api/polls/"+poll.ID, author.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func (a *testApp) upload(path, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(a.t, err)
	_, err = part.Write(data)
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestUploadEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := app.register("user@example.com", "User")

	w := app.upload("/api/upload", user.AccessToken, "notes.txt", "text/plain", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	w = app.upload("/api/upload", user.AccessToken, "plan.pdf", "application/pdf", pdf)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var attachment models.Attachment
	decode(t, w, &attachment)
	assert.Equal(t, "application/pdf", attachment.ContentType)
	assert.Equal(t, "plan.pdf", attachment.Filename)

	w = app.do(http.MethodGet, attachment.URL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdf, w.Body.Bytes())

	w = app.do(http.MethodGet, "/api/files/missing.pdf", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdeaAttachmentEndpoint(t *testing.T) {
	app := newTestApp(t)
	author := app.register("author@example.com", "Author")
	other := app.register("other@example.com", "Other")
	idea := app.createIdea(author.AccessToken, "Library hours")
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

	w := app.upload("/api/ideas/"+idea.ID+"/attachments", other.AccessToken, "plan.pdf", "application/pdf", pdf)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.upload("/api/ideas/missing/attachments", author.AccessToken, "plan.pdf", "application/pdf", pdf)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.upload("/api/ideas/"+idea.ID+"/attachments", author.AccessToken, "plan.pdf", "application/pdf", pdf)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Idea
	decode(t, w, &updated)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "plan.pdf", updated.Attachments[0].Filename)

	w = app.do(http.MethodGet, updated.Attachments[0].URL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdf, w.Body.Bytes())
}

func TestNotificationEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := app.register("user@example.com", "User")
	other := app.register("other@example.com", "Other")
	app.svc.Notifier.Notify(context.Background(), "", models.Notification{UserID: user.User.ID, Type: models.NotificationSystem, Title: "Welcome"})

	w := app.do(http.MethodGet, "/api/notifications", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Notification
	decode(t, w, &list)
	require.Len(t, list, 1)

	w = app.do(http.MethodPut, "/api/notifications/"+list[0].ID+"/read", other.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(http.MethodPut, "/api/notifications/"+list[0].ID+"/read", user.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodPut, "/api/notifications/read-all", user.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, "/api/notifications/"+list[0].ID, user.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, "/api/notifications/"+list[0].ID, user.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []models.Category
	decode(t, w, &categories)
	assert.Len(t, categories, 8)

	w = app.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.Stats
	decode(t, w, &stats)
	assert.EqualValues(t, 8, stats.Categories)

	w = app.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agora_http_request_duration_seconds")
}
