package devbackend

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-rentflow/pkg/client"
)

const maxMultipartMemory = 32 << 20

// documentParts are the file parts an application may carry.
var documentParts = []string{"id_document", "proof_of_income", "bank_statement", "employment_letter"}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	form := r.MultipartForm
	defer form.RemoveAll()

	propertyID := strings.TrimSpace(r.FormValue("property_id"))
	if _, ok := s.property(propertyID); !ok {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}

	app := client.Application{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		Status:     "pending",
		Documents:  make(map[string]any),
	}
	var list issues
	decodePart(r, "personal_info", &app.PersonalInfo, &list)
	decodePart(r, "employment_info", &app.EmploymentInfo, &list)
	decodePart(r, "references", &app.References, &list)
	decodePart(r, "additional_info", &app.AdditionalInfo, &list)

	if app.PersonalInfo == nil {
		list.add("field required", "personal_info")
	}
	for _, key := range []string{"first_name", "last_name", "email", "phone"} {
		if v, _ := app.PersonalInfo[key].(string); app.PersonalInfo != nil && strings.TrimSpace(v) == "" {
			list.add("field required", "personal_info", key)
		}
	}
	if len(app.References) == 0 {
		list.add("At least one reference is required", "references")
	}
	for _, name := range []string{"id_document", "proof_of_income"} {
		if len(form.File[name]) == 0 {
			list.add("This document is required", name)
		}
	}
	if len(list) > 0 {
		writeIssues(w, list)
		return
	}
	if s.injected(w, FaultCreates) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.applications {
		if existing.PropertyID == propertyID && existing.PersonalInfo["user_id"] == userID {
			writeDetail(w, http.StatusBadRequest, "You have already applied for this property")
			return
		}
	}
	for _, name := range documentParts {
		files := form.File[name]
		if len(files) == 0 {
			continue
		}
		key, err := s.storeUploadLocked("applications/"+app.ID+"/"+name, files[0])
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Could not read "+name)
			return
		}
		app.Documents[name] = key
	}
	app.PersonalInfo["user_id"] = userID
	app.CreatedAt = s.now().UTC()
	s.applications[app.ID] = app

	s.logger.Info("devbackend: application created", "id", app.ID, "property", propertyID, "documents", len(app.Documents))
	writeJSON(w, http.StatusCreated, app)
}

func decodePart(r *http.Request, name string, dst any, list *issues) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		list.add("Invalid JSON", name)
	}
}

func (s *Server) storeUploadLocked(prefix string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	key := prefix + "-" + fh.Filename
	s.objects[s.bucket+"/"+key] = object{contentType: fh.Header.Get("Content-Type"), data: data}
	return key, nil
}

func (s *Server) handleListApplications(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	out := make([]client.Application, 0)
	for _, app := range s.applications {
		if app.PersonalInfo["user_id"] == userID {
			out = append(out, app)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	app, ok := s.applications[id]
	s.mu.Unlock()
	if !ok || app.PersonalInfo["user_id"] != userID {
		writeDetail(w, http.StatusNotFound, "Application not found")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Applications returns every stored application.
func (s *Server) Applications() []client.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Application, 0, len(s.applications))
	for _, app := range s.applications {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Profile returns the stored tenant profile for userID.
func (s *Server) Profile(userID string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}
