package http

import (
	"net/http"
	"strconv"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type createRecordResponse struct {
	Record core.Record `json:"record"`
	Form   core.Form   `json:"form"`
}

type deleteRecordResponse struct {
	Deleted core.Record `json:"deleted"`
}

type createCategoryResponse struct {
	Added      bool     `json:"added"`
	Categories []string `json:"categories"`
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.journal.NewForm(r.Context()))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, s.journal.ListRecords(r.Context(), category))
}

// handleCreateRecord accepts JSON or form-encoded fields. The amount may be
// sent as a number or as text; text is normalized the same way the add form
// does it.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeBody(w, r)
	if !ok {
		return
	}

	var form core.Form
	for _, field := range []string{core.FieldDate, core.FieldCategory, core.FieldAmount, core.FieldNote} {
		if err := form.Set(field, p.value(field)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	record, err := s.journal.AddRecord(r.Context(), &form)
	if err != nil {
		s.logFailure(r, "Create record failed", err)
		writeServiceError(w, err)
		return
	}
	s.countCreated()

	writeJSON(w, http.StatusCreated, createRecordResponse{Record: record, Form: form})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	record, err := s.journal.DeleteRecord(r.Context(), id)
	if err != nil {
		s.logFailure(r, "Delete record failed", err)
		writeServiceError(w, err)
		return
	}
	s.countDeleted()
	writeJSON(w, http.StatusOK, deleteRecordResponse{Deleted: record})
}

// handleDeleteAt removes the record at a position of the (optionally
// category-filtered) list, as shown to the user.
func (s *Server) handleDeleteAt(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeBody(w, r)
	if !ok {
		return
	}

	position, err := strconv.Atoi(p.value("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "position must be an integer")
		return
	}

	record, err := s.journal.DeleteAt(r.Context(), position, p.value("category"))
	if err != nil {
		s.logFailure(r, "Delete record failed", err)
		writeServiceError(w, err)
		return
	}
	s.countDeleted()
	writeJSON(w, http.StatusOK, deleteRecordResponse{Deleted: record})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.journal.Categories(r.Context()))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeBody(w, r)
	if !ok {
		return
	}

	added, err := s.journal.AddCategory(r.Context(), p.value("name"))
	if err != nil {
		s.logFailure(r, "Create category failed", err)
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, createCategoryResponse{Added: added, Categories: s.journal.Categories(r.Context())})
}

func (s *Server) logFailure(r *http.Request, msg string, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), msg,
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
}
