package webd

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rotblauer/tempd/common"
	"github.com/rotblauer/tempd/params"
	"github.com/tidwall/gjson"
)

const scenarioPayload = `{
	"values": [1, 2, 3, 4],
	"extents": [4, 1, 1],
	"time": 0,
	"level": null,
	"latitude": 1,
	"longitude": 2
}`

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, "http://tempd.local"+target, body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func TestWebDaemon_ping(t *testing.T) {
	req := httptest.NewRequest("GET", "http://tempd.local/ping", nil)
	w := httptest.NewRecorder()
	pingPong(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("status code not 200")
	}
	if string(body) != "pong" {
		t.Errorf("body is not pong: %s", string(body))
	}
}

func TestWebDaemon_statusReport(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	d, teardown := newTestWebDaemon("")
	defer teardown()
	req := httptest.NewRequest("GET", "http://tempd.local/status", nil)
	w := httptest.NewRecorder()
	d.statusReport(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	status := webDaemonStatus{}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatal(err)
	}
	if status.Uptime == "" {
		t.Fatal("uptime is empty")
	}
	if status.Current != nil {
		t.Errorf("fresh daemon shows a stack: %+v", status.Current)
	}
}

func TestWebDaemon_loadAndRead(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	d, teardown := newTestWebDaemon("")
	defer teardown()
	router := d.NewRouter()

	resp, body := do(t, router, http.MethodPost, "/load?gradient=grayscale", strings.NewReader(scenarioPayload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status %d: %s", resp.StatusCode, body)
	}
	if got := gjson.GetBytes(body, "time_extent").Int(); got != 4 {
		t.Errorf("time_extent = %d", got)
	}
	if gjson.GetBytes(body, "min").Float() != 1 || gjson.GetBytes(body, "max").Float() != 4 {
		t.Errorf("range = %s", body)
	}

	resp, body = do(t, router, http.MethodGet, "/stack", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stack status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type %q", resp.Header.Get("Content-Type"))
	}
	if got := gjson.GetBytes(body, "layout.strides").String(); got != "[1,1,1,1]" {
		t.Errorf("strides = %s", got)
	}
	if got := gjson.GetBytes(body, "layers.#").Int(); got != 4 {
		t.Errorf("layers = %d", got)
	}
	layer := gjson.GetBytes(body, "layers.3").String()
	if layer != "/stack/3.png" {
		t.Errorf("layer path = %s", layer)
	}

	resp, body = do(t, router, http.MethodGet, "/sample?t=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sample status %d: %s", resp.StatusCode, body)
	}
	if got := gjson.GetBytes(body, "raw").Float(); got != 2 {
		t.Errorf("raw = %v", got)
	}
	if got := gjson.GetBytes(body, "normalized").Float(); got < 0.333 || got > 0.334 {
		t.Errorf("normalized = %v", got)
	}

	resp, body = do(t, router, http.MethodGet, layer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("png status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("content type %q", resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("png bounds %v", b)
	}
	// Served again from the encoded cache.
	_, again := do(t, router, http.MethodGet, layer, nil)
	if !bytes.Equal(body, again) {
		t.Error("cached png differs")
	}

	resp, _ = do(t, router, http.MethodGet, "/stack/4.png", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("out of range layer status %d", resp.StatusCode)
	}
}

func TestWebDaemon_loadRejects(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()
	d, teardown := newTestWebDaemon("")
	defer teardown()
	router := d.NewRouter()

	resp, body := do(t, router, http.MethodGet, "/stack", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("empty stack status %d: %s", resp.StatusCode, body)
	}

	cases := map[string]string{
		"lat out of bounds": `{"values":[1,2,3],"extents":[3,1,1],"time":0,"latitude":5,"longitude":2}`,
		"shape mismatch":    `{"values":[1,2,3],"extents":[4,1,1],"time":0,"latitude":1,"longitude":2}`,
		"malformed":         `{"values":`,
		"overflowing shape": `{"values":[1,2,3,4],"extents":[4,4611686018427387905],"time":0,"level":1}`,
		"fractional extent": `{"values":[1,2,3,4],"extents":[2.5,1],"time":0}`,
	}
	for name, payload := range cases {
		resp, body := do(t, router, http.MethodPost, "/load", strings.NewReader(payload))
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: status %d", name, resp.StatusCode)
		}
		if gjson.GetBytes(body, "error").String() == "" {
			t.Errorf("%s: no error message: %s", name, body)
		}
	}

	resp, _ = do(t, router, http.MethodPost, "/load?gradient=nope", strings.NewReader(scenarioPayload))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown gradient status %d", resp.StatusCode)
	}
	if d.Globe.Display.Current() != nil {
		t.Error("rejected loads reached the display")
	}
}

func TestWebDaemon_loadNoise(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	d, teardown := newTestWebDaemon("")
	defer teardown()
	router := d.NewRouter()

	resp, body := do(t, router, http.MethodPost, "/load/noise?seed=7&time=2&lat=8&lon=16", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if gjson.GetBytes(body, "width").Int() != 16 || gjson.GetBytes(body, "height").Int() != 8 {
		t.Errorf("shape = %s", body)
	}
	if !strings.Contains(gjson.GetBytes(body, "source").String(), "seed=7") {
		t.Errorf("source = %s", gjson.GetBytes(body, "source"))
	}

	resp, _ = do(t, router, http.MethodPost, "/load/noise?seed=x", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad seed status %d", resp.StatusCode)
	}

	for _, q := range []string{"time=100000&lat=100000&lon=100000", "lat=-8"} {
		resp, body = do(t, router, http.MethodPost, "/load/noise?"+q, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, resp.StatusCode)
		}
		if gjson.GetBytes(body, "error").String() == "" {
			t.Errorf("%s: no error message: %s", q, body)
		}
	}
}

func TestWebDaemon_tokenRequired(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()
	t.Setenv(TokenEnv, "sekret")
	d, teardown := newTestWebDaemon("")
	defer teardown()
	router := d.NewRouter()

	resp, _ := do(t, router, http.MethodPost, "/load/noise?time=1&lat=2&lon=2", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status %d, want 403", resp.StatusCode)
	}
	resp, _ = do(t, router, http.MethodPost, "/load/noise?time=1&lat=2&lon=2&api_token=sekret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d, want 200", resp.StatusCode)
	}
}

func TestWebDaemon_restore(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	d, _ := newTestWebDaemon("")
	router := d.NewRouter()
	resp, body := do(t, router, http.MethodPost, "/load", strings.NewReader(scenarioPayload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if err := d.Stop(); err != nil {
		t.Fatal(err)
	}

	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = d.Config.DataDir
	config.Restore = true
	d2, err := NewWebDaemon(config)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		d2.Stop()
		os.RemoveAll(config.DataDir)
	}()
	c := d2.Globe.Display.Current()
	if c == nil {
		t.Fatal("nothing restored")
	}
	if c.Summary.Max != 4 {
		t.Errorf("restored max = %v", c.Summary.Max)
	}
}

func TestWebDaemon_history(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	d, teardown := newTestWebDaemon("")
	defer teardown()
	router := d.NewRouter()
	for i := 0; i < 6; i++ {
		resp, body := do(t, router, http.MethodPost, "/load/noise?time=1&lat=2&lon=2", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, body)
		}
	}
	// The relay goroutine records history after the feed delivers.
	deadline := time.Now().Add(2 * time.Second)
	for d.history.Len() < d.Config.HistorySize && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	_, body := do(t, router, http.MethodGet, "/status", nil)
	if got := gjson.GetBytes(body, "history.#").Int(); got != int64(d.Config.HistorySize) {
		t.Errorf("history = %d, want %d", got, d.Config.HistorySize)
	}
	if got := gjson.GetBytes(body, "metrics.committed").Int(); got != 6 {
		t.Errorf("committed = %d", got)
	}
}
