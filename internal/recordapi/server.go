// Package recordapi serves task and category records over HTTP.
package recordapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"gorm.io/gorm"

	"taskflow/internal/record"
	"taskflow/internal/repository"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Options configures the HTTP surface of the server.
type Options struct {
	// JWTSecret enables bearer authentication on /api/v1 when non-empty.
	JWTSecret      []byte
	AllowedOrigins []string
}

// Server exposes the record repositories.
type Server struct {
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	now        func() time.Time
}

func NewServer(tasks *repository.TaskRepository, categories *repository.CategoryRepository) *Server {
	return &Server{tasks: tasks, categories: categories, now: time.Now}
}

// Handler builds the routed handler with auth, CORS and request logging.
func (s *Server) Handler(opts Options) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/tasks", s.listTasks)
	api.HandleFunc("POST /api/v1/tasks", s.createTask)
	api.HandleFunc("GET /api/v1/tasks/{id}", s.getTask)
	api.HandleFunc("PATCH /api/v1/tasks/{id}", s.updateTask)
	api.HandleFunc("DELETE /api/v1/tasks/{id}", s.deleteTask)
	api.HandleFunc("GET /api/v1/categories", s.listCategories)
	api.HandleFunc("POST /api/v1/categories", s.createCategory)
	api.HandleFunc("GET /api/v1/categories/{id}", s.getCategory)
	api.HandleFunc("PATCH /api/v1/categories/{id}", s.updateCategory)
	api.HandleFunc("DELETE /api/v1/categories/{id}", s.deleteCategory)

	var protected http.Handler = api
	if len(opts.JWTSecret) > 0 {
		protected = NewMiddleware(opts.JWTSecret).Wrap(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.Handle("/api/", protected)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return logRequests(c.Handler(mux))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	page, fields, ok := parseListQuery(w, r, record.TaskFields)
	if !ok {
		return
	}
	rows, total, err := s.tasks.List(r.Context(), page)
	if err != nil {
		log.Printf("list tasks: %v", err)
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	writeList(w, rows, total, fields, record.TaskFields)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := s.tasks.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: row})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body record.TaskRecord
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	body.ID = 0
	if body.Priority == "" {
		body.Priority = "medium"
	}
	if body.CreatedAt == "" {
		body.CreatedAt = record.FormatTime(s.now())
	}
	if errs := record.ValidateTask(body); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	if err := s.tasks.Create(r.Context(), &body); err != nil {
		log.Printf("create task: %v", err)
		writeError(w, http.StatusInternalServerError, "db insert error")
		return
	}
	log.Printf("[info] task record created id=%d", body.ID)
	writeJSON(w, http.StatusCreated, record.Envelope[any]{Success: true, Data: body})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw, ok := decodeFields(w, r)
	if !ok {
		return
	}
	fields, errs := record.NormalizeTaskFields(raw)
	if len(errs) > 0 {
		writeValidation(w, withID(errs, id))
		return
	}
	row, err := s.tasks.Update(r.Context(), id, fields)
	if err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: row})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "delete task", err)
		return
	}
	log.Printf("[info] task record deleted id=%d", id)
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true})
}

type categoryInput struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	SortOrder *int   `json:"sort_order"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	page, fields, ok := parseListQuery(w, r, record.CategoryFields)
	if !ok {
		return
	}
	rows, total, err := s.categories.List(r.Context(), page)
	if err != nil {
		log.Printf("list categories: %v", err)
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	writeList(w, rows, total, fields, record.CategoryFields)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := s.categories.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get category", err)
		return
	}
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: row})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	row := record.CategoryRecord{Name: body.Name, Color: body.Color, Icon: body.Icon}
	if errs := record.ValidateCategory(row); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	if body.SortOrder != nil {
		row.SortOrder = *body.SortOrder
	} else {
		next, err := s.categories.NextOrder(r.Context())
		if err != nil {
			log.Printf("create category: %v", err)
			writeError(w, http.StatusInternalServerError, "db query error")
			return
		}
		row.SortOrder = next
	}
	if err := s.categories.Create(r.Context(), &row); err != nil {
		log.Printf("create category: %v", err)
		writeError(w, http.StatusInternalServerError, "db insert error")
		return
	}
	log.Printf("[info] category record created id=%d", row.ID)
	writeJSON(w, http.StatusCreated, record.Envelope[any]{Success: true, Data: row})
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw, ok := decodeFields(w, r)
	if !ok {
		return
	}
	fields, errs := record.NormalizeCategoryFields(raw)
	if len(errs) > 0 {
		writeValidation(w, withID(errs, id))
		return
	}
	row, err := s.categories.Update(r.Context(), id, fields)
	if err != nil {
		writeStoreError(w, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: row})
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "delete category", err)
		return
	}
	log.Printf("[info] category record deleted id=%d", id)
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true})
}

func parseListQuery(w http.ResponseWriter, r *http.Request, allowed []string) (repository.ListOptions, []string, bool) {
	q := r.URL.Query()

	page, err := positiveInt(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return repository.ListOptions{}, nil, false
	}
	size, err := positiveInt(q.Get("page_size"), defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size")
		return repository.ListOptions{}, nil, false
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	var fields []string
	if raw := strings.TrimSpace(q.Get("fields")); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if !contains(allowed, f) {
				writeJSON(w, http.StatusBadRequest, record.Envelope[any]{
					Message: "invalid fields",
					Errors:  []record.FieldError{{Field: f, Message: "unknown field"}},
				})
				return repository.ListOptions{}, nil, false
			}
			fields = append(fields, f)
		}
	}

	return repository.ListOptions{Offset: (page - 1) * size, Limit: size}, fields, true
}

func writeList[R any](w http.ResponseWriter, rows []R, total int64, fields, allowed []string) {
	if len(fields) == 0 {
		if rows == nil {
			rows = []R{}
		}
		writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: rows, Total: &total})
		return
	}
	projected := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		p, err := record.Project(row, fields, allowed)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		projected = append(projected, p)
	}
	writeJSON(w, http.StatusOK, record.Envelope[any]{Success: true, Data: projected, Total: &total})
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	return raw, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func withID(errs []record.FieldError, id int64) []record.FieldError {
	for i := range errs {
		errs[i].ID = id
	}
	return errs
}

func writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "db error")
}

func writeValidation(w http.ResponseWriter, errs []record.FieldError) {
	writeJSON(w, http.StatusBadRequest, record.Envelope[any]{Message: "validation failed", Errors: errs})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, record.Envelope[any]{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[info] %s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
