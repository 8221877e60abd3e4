package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/craftlink/server/account"
	"github.com/craftlink/server/api/rest"
	"github.com/craftlink/server/cache"
	"github.com/craftlink/server/config"
	"github.com/craftlink/server/hook"
	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/notify"
	"github.com/craftlink/server/scheduler"
	"github.com/craftlink/server/social/block"
	"github.com/craftlink/server/social/friendship"
	"github.com/craftlink/server/social/profile"
	"github.com/craftlink/server/social/relation"
	"github.com/craftlink/server/social/reputation"
	"github.com/craftlink/server/social/store"
	"github.com/craftlink/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminKey = "test-admin-key"

// testApp wires the full REST surface over an in-memory database, the
// same way the server entry point does.
type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	cache  cache.Cache
	notify *notify.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	social := config.SocialConfig{MaxFriends: 20}

	hooks := hook.NewCenter()
	st := store.New(db)
	accounts := account.NewService(db, logger)
	friendSvc := friendship.NewService(st, accounts, hooks, friendship.AllowAll{}, logger, social)
	blockSvc := block.NewService(st, accounts, hooks, logger)
	relationSvc := relation.NewService(st)
	profileSvc := profile.NewService(db, st, hooks, logger)
	repSvc := reputation.NewService(db, c, logger)
	notifySvc := notify.New(db, logger)
	t.Cleanup(func() { notifySvc.Stop(nil) })
	repSvc.RegisterHooks(hooks)
	notifySvc.RegisterHooks(hooks)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	authH := rest.NewAuthHandler(accounts, c, sec)
	friendH := rest.NewFriendHandler(friendSvc, blockSvc, relationSvc)
	profileH := rest.NewProfileHandler(profileSvc)
	repH := rest.NewReputationHandler(repSvc, accounts)
	notifH := rest.NewNotificationHandler(notifySvc)
	adminH := rest.NewAdminHandler(db, repSvc, sched, logger)

	authed := mw.Auth(sec, c)

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/auth/register", authH.Register)
		api.POST("/auth/login", authH.Login)
		api.POST("/auth/logout", authed, authH.Logout)
		api.POST("/auth/refresh", authed, authH.Refresh)

		friendsG := api.Group("/friends", authed)
		friendsG.GET("", friendH.List)
		friendsG.DELETE("/:user_id", friendH.Remove)
		friendsG.POST("/requests", friendH.Send)
		friendsG.GET("/requests", friendH.Incoming)
		friendsG.GET("/requests/unread", friendH.UnreadCount)
		friendsG.POST("/requests/read", friendH.MarkRead)
		friendsG.POST("/requests/:id/accept", friendH.Accept)
		friendsG.POST("/requests/:id/reject", friendH.Reject)
		friendsG.DELETE("/requests/:user_id", friendH.Cancel)

		blocksG := api.Group("/blocks", authed)
		blocksG.GET("", friendH.BlockedList)
		blocksG.POST("/:user_id", friendH.Block)
		blocksG.DELETE("/:user_id", friendH.Unblock)

		usersG := api.Group("/users", authed)
		usersG.GET("/search", friendH.Search)
		usersG.GET("/discover", friendH.Discover)
		usersG.GET("/:user_id", profileH.View)
		usersG.GET("/:user_id/relation", friendH.Relation)
		usersG.POST("/:user_id/like", profileH.ToggleLike)
		usersG.GET("/:user_id/portfolio", profileH.Portfolio)

		portfolioG := api.Group("/portfolio", authed)
		portfolioG.POST("", profileH.AddPortfolioItem)
		portfolioG.DELETE("/:id", profileH.DeletePortfolioItem)

		repG := api.Group("/reputation", authed)
		repG.GET("/leaderboard", repH.Leaderboard)
		repG.GET("/me", repH.Me)
		repG.GET("/:user_id", repH.Of)

		notifG := api.Group("/notifications", authed)
		notifG.GET("", notifH.List)
		notifG.GET("/unread", notifH.UnreadCount)
		notifG.POST("/read", notifH.MarkAllRead)

		adminG := api.Group("/admin", rest.AdminAuth(testAdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/reputation/recompute", adminH.RecomputeReputation)
		adminG.POST("/accounts/:id/active", adminH.SetAccountActive)
	}

	return &testApp{router: r, db: db, cache: c, notify: notifySvc}
}

// signup registers and logs in a user, returning its id and bearer token.
func (a *testApp) signup(t *testing.T, name string) (int64, string) {
	t.Helper()
	w := postJSON(a.router, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(a.router, "/api/auth/login", map[string]string{
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return int64(resp["user_id"].(float64)), resp["token"].(string)
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func httptestDelete(app *testApp, path, token string) *httptest.ResponseRecorder {
	return do(app.router, http.MethodDelete, path, token)
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
