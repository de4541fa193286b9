package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/garnizeh/staffdir/api"
	dbfs "github.com/garnizeh/staffdir/db"
	"github.com/garnizeh/staffdir/internal/attachment"
	"github.com/garnizeh/staffdir/internal/config"
	"github.com/garnizeh/staffdir/internal/db"
	"github.com/garnizeh/staffdir/internal/record"
	sqlite "github.com/garnizeh/staffdir/internal/repository/sqlite"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpgBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 32)...)
)

type testServer struct {
	*httptest.Server
	photoDir string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	d, err := db.New(ctx, filepath.Join(dir, "staff.db"), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if _, err := db.EnsureSchema(ctx, d, dbfs.Schema); err != nil {
		d.Close()
		t.Fatalf("EnsureSchema: %v", err)
	}

	files := attachment.New(filepath.Join(dir, "photos"), nil)
	if err := files.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	reg := prometheus.NewRegistry()
	store := record.New(sqlite.New(d, nil), files, record.WithMetrics(record.NewMetrics(reg)))

	cfg := &config.Config{Addr: ":0", DatabasePath: "staff.db", AttachmentDir: files.Dir(), MaxUploadBytes: 4096}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	srv := httptest.NewServer(api.SetupRoutes(cfg, "test", "now", store, files, d.Ping, reg))
	t.Cleanup(func() { srv.Close(); d.Close() })
	return &testServer{Server: srv, photoDir: files.Dir()}
}

type staffBody struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Contact     string `json:"contact_number"`
	PhotoPath   string `json:"photo_path"`
	PhotoStatus string `json:"photo_status"`
	PhotoURL    string `json:"photo_url"`
}

type updateBody struct {
	Changed       bool      `json:"changed"`
	ChangedFields []string  `json:"changed_fields"`
	Record        staffBody `json:"record"`
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func do(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return do(t, method, url, "application/json", body)
}

func doForm(t *testing.T, method, url string, fields map[string]string, photoName string, photo []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if photoName != "" {
		fw, err := mw.CreateFormFile("photo", photoName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(photo); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return do(t, method, url, mw.FormDataContentType(), &buf)
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, res *http.Response, want int) {
	t.Helper()
	if res.StatusCode != want {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("%s %s: expected %d got %d: %s", res.Request.Method, res.Request.URL.Path, want, res.StatusCode, b)
	}
}

func TestStaffJSONLifecycle(t *testing.T) {
	srv := setupServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/v1/staff", map[string]any{"full_name": "Somchai", "school_affiliation": "Wat Thai School"})
	expectStatus(t, res, http.StatusCreated)
	created := decode[staffBody](t, res)
	if created.ID != 1 || created.FullName != "Somchai" || created.PhotoStatus != "none" {
		t.Fatalf("unexpected created record: %+v", created)
	}
	if loc := res.Header.Get("Location"); loc != "/v1/staff/1" {
		t.Fatalf("unexpected Location %q", loc)
	}

	res = do(t, http.MethodGet, srv.URL+"/v1/staff", "", nil)
	expectStatus(t, res, http.StatusOK)
	list := decode[struct {
		Total int         `json:"total"`
		Items []staffBody `json:"items"`
	}](t, res)
	if list.Total != 1 || list.Items[0].FullName != "Somchai" {
		t.Fatalf("unexpected list: %+v", list)
	}

	res = doJSON(t, http.MethodPatch, srv.URL+"/v1/staff/1", map[string]any{"contact_number": "0891234567"})
	expectStatus(t, res, http.StatusOK)
	upd := decode[updateBody](t, res)
	if !upd.Changed || len(upd.ChangedFields) != 1 || upd.ChangedFields[0] != "contact_number" {
		t.Fatalf("unexpected update: %+v", upd)
	}
	if upd.Record.Contact != "0891234567" || upd.Record.FullName != "Somchai" {
		t.Fatalf("unexpected updated record: %+v", upd.Record)
	}

	res = doJSON(t, http.MethodPatch, srv.URL+"/v1/staff/1", map[string]any{"full_name": "Somchai", "contact_number": "0891234567"})
	expectStatus(t, res, http.StatusOK)
	upd = decode[updateBody](t, res)
	if upd.Changed || len(upd.ChangedFields) != 0 {
		t.Fatalf("expected no-op update, got %+v", upd)
	}

	res = do(t, http.MethodDelete, srv.URL+"/v1/staff/1", "", nil)
	expectStatus(t, res, http.StatusOK)

	res = do(t, http.MethodGet, srv.URL+"/v1/staff/1", "", nil)
	expectStatus(t, res, http.StatusNotFound)

	res = do(t, http.MethodDelete, srv.URL+"/v1/staff/1", "", nil)
	expectStatus(t, res, http.StatusNotFound)
}

func TestCreateStaff_RejectsInvalidBodies(t *testing.T) {
	srv := setupServer(t)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "NotJSON", body: `{"full_name":`},
		{name: "MissingName", body: `{"position":"Teacher"}`},
		{name: "UnknownField", body: `{"full_name":"A","salary":1}`},
		{name: "WrongType", body: `{"full_name":42}`},
		{name: "BlankName", body: `{"full_name":"   "}`, field: "full_name"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := do(t, http.MethodPost, srv.URL+"/v1/staff", "application/json", strings.NewReader(c.body))
			expectStatus(t, res, http.StatusBadRequest)
			e := decode[errorBody](t, res)
			if e.Error == "" {
				t.Fatalf("expected an error message")
			}
			if c.field != "" && e.Field != c.field {
				t.Fatalf("expected field %q, got %+v", c.field, e)
			}
		})
	}

	res := do(t, http.MethodGet, srv.URL+"/v1/staff", "", nil)
	list := decode[struct {
		Total int `json:"total"`
	}](t, res)
	if list.Total != 0 {
		t.Fatalf("rejected creates must not write rows, got %d", list.Total)
	}
}

func TestUpdateStaff_NotFound(t *testing.T) {
	srv := setupServer(t)

	res := doJSON(t, http.MethodPatch, srv.URL+"/v1/staff/42", map[string]any{"position": "Teacher"})
	expectStatus(t, res, http.StatusNotFound)
}

func TestStaffPhotoLifecycle(t *testing.T) {
	srv := setupServer(t)

	res := doForm(t, http.MethodPost, srv.URL+"/v1/staff", map[string]string{"full_name": "Malee"}, "malee.png", pngBytes)
	expectStatus(t, res, http.StatusCreated)
	created := decode[staffBody](t, res)
	if created.PhotoStatus != "present" || created.PhotoURL != "/v1/staff/1/photo" {
		t.Fatalf("unexpected created record: %+v", created)
	}

	res = do(t, http.MethodGet, srv.URL+created.PhotoURL, "", nil)
	expectStatus(t, res, http.StatusOK)
	got, _ := io.ReadAll(res.Body)
	if !bytes.Equal(got, pngBytes) {
		t.Fatalf("served photo differs from upload")
	}
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected photo content type %q", ct)
	}

	// replace with a jpeg, the png must go
	res = doForm(t, http.MethodPatch, srv.URL+"/v1/staff/1", nil, "malee.jpg", jpgBytes)
	expectStatus(t, res, http.StatusOK)
	upd := decode[updateBody](t, res)
	if !upd.Changed || upd.Record.PhotoPath == created.PhotoPath {
		t.Fatalf("photo not replaced: %+v", upd)
	}
	entries, err := os.ReadDir(srv.photoDir)
	if err != nil {
		t.Fatalf("read photo dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != upd.Record.PhotoPath {
		t.Fatalf("expected only %s in photo dir, got %v", upd.Record.PhotoPath, entries)
	}

	// clear via multipart flag, leaving the text fields alone
	res = doForm(t, http.MethodPatch, srv.URL+"/v1/staff/1", map[string]string{"clear_photo": "true"}, "", nil)
	expectStatus(t, res, http.StatusOK)
	upd = decode[updateBody](t, res)
	if upd.Record.PhotoPath != "" || upd.Record.PhotoStatus != "none" || upd.Record.FullName != "Malee" {
		t.Fatalf("photo not cleared: %+v", upd.Record)
	}
	entries, _ = os.ReadDir(srv.photoDir)
	if len(entries) != 0 {
		t.Fatalf("expected empty photo dir, got %v", entries)
	}

	res = do(t, http.MethodGet, srv.URL+"/v1/staff/1/photo", "", nil)
	expectStatus(t, res, http.StatusNotFound)
}

func TestGetPhoto_MissingFile(t *testing.T) {
	srv := setupServer(t)

	res := doForm(t, http.MethodPost, srv.URL+"/v1/staff", map[string]string{"full_name": "Malee"}, "malee.png", pngBytes)
	expectStatus(t, res, http.StatusCreated)
	created := decode[staffBody](t, res)

	if err := os.Remove(filepath.Join(srv.photoDir, created.PhotoPath)); err != nil {
		t.Fatalf("remove photo: %v", err)
	}

	res = do(t, http.MethodGet, srv.URL+"/v1/staff/1/photo", "", nil)
	expectStatus(t, res, http.StatusNotFound)
	if e := decode[errorBody](t, res); e.Error != "photo file missing" {
		t.Fatalf("unexpected error body: %+v", e)
	}

	res = do(t, http.MethodGet, srv.URL+"/v1/staff/1", "", nil)
	expectStatus(t, res, http.StatusOK)
	rec := decode[staffBody](t, res)
	if rec.PhotoStatus != "missing" || rec.PhotoPath != created.PhotoPath {
		t.Fatalf("expected a dangling reference, got %+v", rec)
	}
}

func TestCreateStaff_RejectsBadPhotos(t *testing.T) {
	srv := setupServer(t)

	cases := []struct {
		name  string
		file  string
		bytes []byte
	}{
		{name: "Extension", file: "malee.gif", bytes: pngBytes},
		{name: "Content", file: "malee.png", bytes: []byte("plain text, not an image")},
		{name: "Mismatch", file: "malee.jpg", bytes: pngBytes},
		{name: "TooLarge", file: "malee.png", bytes: append(append([]byte{}, pngBytes...), make([]byte, 8192)...)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := doForm(t, http.MethodPost, srv.URL+"/v1/staff", map[string]string{"full_name": "Malee"}, c.file, c.bytes)
			expectStatus(t, res, http.StatusBadRequest)
		})
	}

	entries, _ := os.ReadDir(srv.photoDir)
	if len(entries) != 0 {
		t.Fatalf("rejected uploads must not be stored, got %v", entries)
	}
}

func TestListStaff_Search(t *testing.T) {
	srv := setupServer(t)

	for _, name := range []string{"Somchai Jaidee", "Malee Srisuk"} {
		res := doJSON(t, http.MethodPost, srv.URL+"/v1/staff", map[string]any{"full_name": name})
		expectStatus(t, res, http.StatusCreated)
	}

	res := do(t, http.MethodGet, srv.URL+"/v1/staff?q=MALEE", "", nil)
	expectStatus(t, res, http.StatusOK)
	list := decode[struct {
		Total int         `json:"total"`
		Items []staffBody `json:"items"`
	}](t, res)
	if list.Total != 1 || list.Items[0].FullName != "Malee Srisuk" {
		t.Fatalf("unexpected search result: %+v", list)
	}
}

func TestExportAndMetrics(t *testing.T) {
	srv := setupServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/v1/staff", map[string]any{"full_name": "Somchai"})
	expectStatus(t, res, http.StatusCreated)

	res = do(t, http.MethodGet, srv.URL+"/v1/export.xlsx", "", nil)
	expectStatus(t, res, http.StatusOK)
	if ct := res.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected export content type %q", ct)
	}
	b, _ := io.ReadAll(res.Body)
	if !bytes.HasPrefix(b, []byte("PK")) {
		t.Fatalf("export is not a zip container")
	}

	res = do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	expectStatus(t, res, http.StatusOK)
	b, _ = io.ReadAll(res.Body)
	if !strings.Contains(string(b), `staffdir_record_operations_total{op="create",result="ok"} 1`) {
		t.Fatalf("metrics missing create counter:\n%s", b)
	}
}

func TestHealthRoute(t *testing.T) {
	srv := setupServer(t)

	res := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	expectStatus(t, res, http.StatusOK)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, res)
	if body.Status != "ok" || body.Checks["database"] != "ok" || body.Checks["attachments"] != "ok" {
		t.Fatalf("unexpected health body: %+v", body)
	}

	if err := os.Remove(srv.photoDir); err != nil {
		t.Fatalf("remove photo dir: %v", err)
	}
	res = do(t, http.MethodGet, srv.URL+"/health", "", nil)
	expectStatus(t, res, http.StatusServiceUnavailable)
}
