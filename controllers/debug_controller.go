package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	services "github.com/phillip/chama-tracker-go/services"
)

// ---------------- DEBUG ----------------
func DebugFiles(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		files, err := l.Files(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"backend": l.Backend(), "files": files})
	}
}

func DebugData(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := l.Snapshot(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"backend": l.Backend(),
			"sha":     snap.SHA,
			"exists":  snap.Exists,
			"data":    snap.Document,
		})
	}
}
