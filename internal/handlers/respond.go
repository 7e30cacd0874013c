package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pliu/blog/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		message(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// uniqueEmails returns each email once, in first-seen order.
func uniqueEmails(first []string, posts []models.Post, replies []models.Reply) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(first)+len(posts)+len(replies))
	add := func(e string) {
		if e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, e := range first {
		add(e)
	}
	for _, p := range posts {
		add(p.Email)
	}
	for _, r := range replies {
		add(r.Email)
	}
	return out
}

// truthy follows loose JSON truthiness: false, 0, "", null and absent are
// false, anything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
