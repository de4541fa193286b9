package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/staffdir/internal/attachment"
	"github.com/garnizeh/staffdir/internal/export"
	"github.com/garnizeh/staffdir/internal/record"
	"github.com/garnizeh/staffdir/pkg/apperror"
	"github.com/garnizeh/staffdir/pkg/models"
)

const maxJSONBody = 1 << 20

type StaffHandler struct {
	store     *record.Store
	files     *attachment.Manager
	maxUpload int64
}

func NewStaffHandler(store *record.Store, files *attachment.Manager, maxUpload int64) *StaffHandler {
	return &StaffHandler{store: store, files: files, maxUpload: maxUpload}
}

type staffResponse struct {
	models.Staff
	PhotoStatus string `json:"photo_status"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type listResponse struct {
	Total int             `json:"total"`
	Items []staffResponse `json:"items"`
}

type updateRequest struct {
	models.StaffPatch
	ClearPhoto bool `json:"clear_photo"`
}

type updateResponse struct {
	Changed       bool           `json:"changed"`
	ChangedFields []string       `json:"changed_fields"`
	Record        *staffResponse `json:"record"`
	Warnings      []string       `json:"warnings,omitempty"`
}

type deleteResponse struct {
	Deleted  int64    `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *StaffHandler) view(rec *models.Staff) *staffResponse {
	v := &staffResponse{Staff: *rec, PhotoStatus: h.store.PhotoStatus(rec)}
	if v.PhotoStatus != record.PhotoNone {
		v.PhotoURL = fmt.Sprintf("/v1/staff/%d/photo", rec.ID)
	}
	return v
}

// ListStaff returns every record, or the records matching ?q= when given.
func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]staffResponse, 0, len(recs))
	for i := range recs {
		items = append(items, *h.view(&recs[i]))
	}
	writeJSON(w, listResponse{Total: len(items), Items: items}, http.StatusOK)
}

func (h *StaffHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, r, apperror.NotFound(id))
		return
	}
	writeJSON(w, h.view(rec), http.StatusOK)
}

// CreateStaff accepts a JSON body or a multipart form with an optional photo.
func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var (
		in    models.NewStaff
		photo *record.Upload
	)

	if isMultipart(r) {
		if err := h.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		in = models.NewStaff{
			FullName:          r.FormValue("full_name"),
			Position:          r.FormValue("position"),
			SchoolAffiliation: r.FormValue("school_affiliation"),
			MajorSubject:      r.FormValue("major_subject"),
			TeachingSubjects:  r.FormValue("teaching_subjects"),
			ContactNumber:     r.FormValue("contact_number"),
		}
		var err error
		if photo, err = readPhoto(r, h.maxUpload); err != nil {
			writeError(w, r, err)
			return
		}
	} else if err := decodeBody(w, r, createStaffSchema, &in); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.store.Create(r.Context(), in, photo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/staff/%d", rec.ID))
	writeJSON(w, h.view(rec), http.StatusCreated)
}

// UpdateStaff applies a differential update. Fields left out of the request
// are not touched.
func (h *StaffHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		req   updateRequest
		photo *record.Upload
	)
	if isMultipart(r) {
		if err := h.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		if req, err = formPatch(r); err != nil {
			writeError(w, r, err)
			return
		}
		if photo, err = readPhoto(r, h.maxUpload); err != nil {
			writeError(w, r, err)
			return
		}
	} else if err := decodeBody(w, r, updateStaffSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.store.Update(r.Context(), id, req.StaffPatch, photo, req.ClearPhoto)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := updateResponse{
		Changed:       !res.NoOp,
		ChangedFields: res.Changed,
		Warnings:      res.Warnings,
	}
	if resp.ChangedFields == nil {
		resp.ChangedFields = []string{}
	}
	if res.Record != nil {
		resp.Record = h.view(res.Record)
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *StaffHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, deleteResponse{Deleted: id, Warnings: res.Warnings}, http.StatusOK)
}

// GetPhoto serves the stored photo. A record whose file has gone missing gets
// a 404 naming the problem; the reference itself is left alone.
func (h *StaffHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, r, apperror.NotFound(id))
		return
	}
	if !rec.HasPhoto() {
		writeJSON(w, errorResponse{Error: "no photo", RequestID: RequestID(r.Context())}, http.StatusNotFound)
		return
	}

	f, err := h.files.Open(rec.PhotoPath)
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, errorResponse{Error: "photo file missing", RequestID: RequestID(r.Context())}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, &apperror.StorageIOError{Op: "stat", Name: rec.PhotoPath, Err: err})
		return
	}
	http.ServeContent(w, r, rec.PhotoPath, info.ModTime(), f)
}

// ExportXLSX downloads the whole directory as a spreadsheet.
func (h *StaffHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, recs); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="staff.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperror.ValidationError{Field: "id", Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

func (h *StaffHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	// room for the text fields next to the photo
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return &apperror.ValidationError{Message: fmt.Sprintf("invalid multipart form: %v", err)}
	}
	return nil
}

// formPatch reads an update from a parsed multipart form. Only fields present
// in the form are set.
func formPatch(r *http.Request) (updateRequest, error) {
	var req updateRequest
	values := r.MultipartForm.Value

	targets := map[string]**string{
		"full_name":          &req.FullName,
		"position":           &req.Position,
		"school_affiliation": &req.SchoolAffiliation,
		"major_subject":      &req.MajorSubject,
		"teaching_subjects":  &req.TeachingSubjects,
		"contact_number":     &req.ContactNumber,
	}
	for name, dst := range targets {
		if v, ok := values[name]; ok && len(v) > 0 {
			s := v[0]
			*dst = &s
		}
	}

	if v, ok := values["clear_photo"]; ok && len(v) > 0 && v[0] != "" {
		b, err := strconv.ParseBool(v[0])
		if err != nil {
			return req, &apperror.ValidationError{Field: "clear_photo", Message: "must be a boolean"}
		}
		req.ClearPhoto = b
	}
	return req, nil
}

// decodeBody checks the JSON body against rs and decodes it into v.
func decodeBody(w http.ResponseWriter, r *http.Request, rs *jsonschema.Schema, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return &apperror.ValidationError{Message: fmt.Sprintf("read body: %v", err)}
	}
	if err := checkBody(r.Context(), rs, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &apperror.ValidationError{Message: fmt.Sprintf("invalid request: %v", err)}
	}
	return nil
}
