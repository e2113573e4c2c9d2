package devbackend

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/storage"
)

func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, key := vars["bucket"], vars["key"]
	if bucket != s.bucket {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bucket not found"})
		return
	}
	if s.storageKey != "" && bearer(r) != s.storageKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
		return
	}
	if err := storage.CheckKey(key); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if s.injected(w, FaultUploads) {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, staging.DefaultMaxSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Could not read body"})
		return
	}
	if int64(len(data)) > staging.DefaultMaxSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}

	s.mu.Lock()
	if _, exists := s.objects[bucket+"/"+key]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "The resource already exists"})
		return
	}
	s.objects[bucket+"/"+key] = object{contentType: r.Header.Get("Content-Type"), data: data}
	s.mu.Unlock()

	s.logger.Info("devbackend: stored object", "key", key, "bytes", len(data))
	writeJSON(w, http.StatusOK, map[string]string{"Key": bucket + "/" + key})
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	obj, ok := s.objects[vars["bucket"]+"/"+vars["key"]]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Object not found"})
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	_, _ = w.Write(obj.data)
}

// Objects lists stored object keys (without the bucket) in order.
func (s *Server) Objects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	prefix := s.bucket + "/"
	for k := range s.objects {
		out = append(out, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(out)
	return out
}
