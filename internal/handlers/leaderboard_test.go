package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// 参数校验在进 services 之前完成，非法请求不应触碰数据库
func setupLeaderboardRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewLeaderboardHandler()
	r.GET("/api/leaderboard", h.Get)
	r.GET("/api/leaderboard/top", h.Top)
	return r
}

func TestLeaderboardRejectsBadParams(t *testing.T) {
	r := setupLeaderboardRouter()

	cases := []string{
		"/api/leaderboard?type=admins",
		"/api/leaderboard?type=students&sort_by=password",
		"/api/leaderboard?type=students&order=sideways",
		"/api/leaderboard?page=0",
		"/api/leaderboard?page=abc",
		"/api/leaderboard?limit=0",
		"/api/leaderboard?limit=-3",
	}

	for _, url := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", url, w.Code)
			continue
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Errorf("GET %s returned non-JSON body: %v", url, err)
			continue
		}
		if body["error"] == "" {
			t.Errorf("GET %s missing error message", url)
		}
	}
}

func TestTopSnapshotRejectsBadN(t *testing.T) {
	r := setupLeaderboardRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/top?n=0", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("n=0 returned %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/leaderboard/top?n=-1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("n=-1 returned %d, want 400", w.Code)
	}
}
