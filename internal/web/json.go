package web

import (
	"encoding/json"
	"log"
	"net/http"
)

// callResponse is the body returned by the function endpoints.
type callResponse struct {
	Function string `json:"function"`
	Command  string `json:"command"`
	Result   int    `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("web: encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
