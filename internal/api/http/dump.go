package http

import (
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// DumpHandler streams a snapshot of the SQLite database as an attachment.
// Other drivers answer 501.
func DumpHandler(dbh *sql.DB, driver db.Driver, dir string, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if driver != db.DriverSQLite {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "dump is only available for sqlite"})
			return
		}
		t := now()
		path, err := db.DumpSQLite(r.Context(), dbh, dir, t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer func() {
			if err := os.Remove(path); err != nil {
				log.Printf("[%s] dump cleanup: %v", middleware.GetReqID(r.Context()), err)
			}
		}()
		f, err := os.Open(path)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/vnd.sqlite3")
		w.Header().Set("Content-Disposition", `attachment; filename="`+db.DumpFileName(t)+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, f)
	}
}
