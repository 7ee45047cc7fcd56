package handlers

import (
	"mime"
	"net/http"
	"strings"
	"time"
	"todoTracker/internal/models/todo"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

func validName(name string) bool {
	return strings.TrimSpace(name) != ""
}

func validDueDate(dueDate string) bool {
	_, err := time.Parse(todo.DueDateLayout, dueDate)
	return err == nil
}
