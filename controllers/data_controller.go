package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	services "github.com/phillip/chama-tracker-go/services"
	utils "github.com/phillip/chama-tracker-go/utils"
)

// ---------------- GET DATA ----------------
func GetData(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := l.Snapshot(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}

		// --- ETag from the stored document SHA ---
		if etag := utils.GenerateETag(snap.SHA); etag != "" {
			if utils.ETagMatches(c.GetHeader("If-None-Match"), etag) {
				c.Status(http.StatusNotModified)
				return
			}
			c.Header("ETag", etag)
		}
		c.Header("Cache-Control", "no-cache")

		c.JSON(http.StatusOK, snap.Document)
	}
}

// ---------------- SUMMARY ----------------
func GetSummary(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := l.Summary(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ---------------- SEARCH ----------------
func SearchMember(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := l.SearchMembers(c.Request.Context(), c.Query("name"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, members)
	}
}

// ---------------- HEALTH ----------------
func Health(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": l.Backend()})
	}
}
