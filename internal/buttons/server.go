package buttons

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// NewHandler serves GET /buttons from the loaded rows and every other path
// from staticDir. An empty staticDir serves only the API.
func NewHandler(buttons []Button, staticDir string, log logrus.FieldLogger) http.Handler {
	if buttons == nil {
		buttons = []Button{}
	}

	router := httprouter.New()
	router.GET("/buttons", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(buttons); err != nil {
			log.WithError(err).Warn("encode buttons")
		}
	})

	if staticDir != "" {
		router.NotFound = http.FileServer(http.Dir(staticDir))
	} else {
		router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(logrus.Fields{"method": r.Method, "uri": r.RequestURI}).Info("404")
			http.Error(w, "resource does not exist", http.StatusNotFound)
		})
	}
	return router
}
