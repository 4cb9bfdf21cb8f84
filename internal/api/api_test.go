package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipexport/internal/config"
	"clipexport/internal/exporter"
	"clipexport/internal/runlock"
	"clipexport/internal/testsupport"
)

func newTestRouter(t *testing.T, token string) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	testsupport.WriteTimeline(t, filepath.Join(cfg.Paths.ProjectRoot, "timeline.json"),
		testsupport.NewSequence("processed", "/en/", 30,
			testsupport.TimelineClip{SourceName: "44_a.wav", Seconds: 1},
			testsupport.TimelineClip{SourceName: "45_b.wav", Seconds: 1},
			testsupport.TimelineClip{SourceName: "48_c.wav", Seconds: 1},
			testsupport.TimelineClip{SourceName: "51_d.wav", Seconds: 1},
		))
	store := testsupport.MustOpenHistory(t, cfg)
	svc := exporter.NewService(cfg, store, nil)
	return NewRouter(ServerConfig{Token: token, Version: "test", Service: svc, StartTime: time.Now()}), cfg
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthIsOpen(t *testing.T) {
	h, _ := newTestRouter(t, "secret")
	rr := do(t, h, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decode[HealthResponse](t, rr); resp.Status != "ok" || resp.Version != "test" || resp.LastRun != nil {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func TestTokenRequired(t *testing.T) {
	h, _ := newTestRouter(t, "secret")
	if rr := do(t, h, http.MethodGet, "/api/runs", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/runs", "", "wrong"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/runs", "", "secret"); rr.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rr.Code)
	}
}

func TestRunLifecycle(t *testing.T) {
	h, _ := newTestRouter(t, "")

	if rr := do(t, h, http.MethodGet, "/api/mapping", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("mapping before first run: status = %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/api/runs", `{"source_start":45,"source_end":50}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("create run: status = %d body=%s", rr.Code, rr.Body.String())
	}
	run := decode[RunResponse](t, rr)
	if run.Result.Exported != 2 || run.Result.Skipped != 2 || run.Result.Message != "exported 2 clips (skipped 2)" {
		t.Fatalf("unexpected run %+v", run.Result)
	}

	list := decode[RunListResponse](t, do(t, h, http.MethodGet, "/api/runs?limit=5", "", ""))
	if len(list.Runs) != 1 || list.Runs[0].ID != run.Result.RunID {
		t.Fatalf("unexpected history %+v", list.Runs)
	}

	if rr := do(t, h, http.MethodGet, "/api/runs/"+run.Result.RunID, "", ""); rr.Code != http.StatusOK {
		t.Fatalf("get run: status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/runs/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown run: status = %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/mapping", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"totalClips": 4`) {
		t.Fatalf("mapping: status = %d body=%s", rr.Code, rr.Body.String())
	}

	health := decode[HealthResponse](t, do(t, h, http.MethodGet, "/api/health", "", ""))
	if health.LastRun == nil || health.LastRun.RunID != run.Result.RunID {
		t.Fatalf("health should report the last run, got %+v", health.LastRun)
	}
}

func TestRunContinuityViolation(t *testing.T) {
	h, cfg := newTestRouter(t, "")
	path, err := cfg.SubtitlePath()
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteText(t, path, "[sc5]\n[10]\n[11]\n[13]\n")

	rr := do(t, h, http.MethodPost, "/api/runs", `{"scenes":[5]}`, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[RunResponse](t, rr)
	if len(resp.Gaps) != 1 || resp.Gaps[0].Scene != 5 || len(resp.Gaps[0].Missing) != 1 || resp.Gaps[0].Missing[0] != 12 {
		t.Fatalf("unexpected gaps %+v", resp.Gaps)
	}
}

func TestRunConflictWhenLocked(t *testing.T) {
	h, cfg := newTestRouter(t, "")
	lock, err := runlock.TryAcquire(cfg.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	if rr := do(t, h, http.MethodPost, "/api/runs", "", ""); rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRunRejectsBadBody(t *testing.T) {
	h, _ := newTestRouter(t, "")
	if rr := do(t, h, http.MethodPost, "/api/runs", `{"scenes":`, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/runs?limit=-1", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/runs", `{"scene_end":2000000000}`, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("out of range scene_end status = %d", rr.Code)
	}
}
