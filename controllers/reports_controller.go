package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/chama-tracker-go/models"
	notify "github.com/phillip/chama-tracker-go/notify"
	services "github.com/phillip/chama-tracker-go/services"
)

// ---------------- UPDATE BALANCE SHEET ----------------
func UpdateBalanceSheet(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindUpdate(c)
		if err != nil {
			handleError(c, err)
			return
		}

		if err := updateBalanceSheet(c, l, req); err != nil {
			handleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "month": req.Month})
	}
}

func updateBalanceSheet(c *gin.Context, l *services.Ledger, req *updateRequest) error {
	var report models.MonthlyReport
	if err := decodeData(req.Data, &report); err != nil {
		return err
	}
	return l.UpdateBalanceSheet(c.Request.Context(), req.Month, &report)
}

// ---------------- UPDATE DATA ----------------

// UpdateData dispatches on the request action.
func UpdateData(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindUpdate(c)
		if err != nil {
			handleError(c, err)
			return
		}

		switch req.Action {
		case "":
			c.JSON(http.StatusBadRequest, gin.H{"error": "Action is required"})
			return
		case notify.ActionBalanceSheet:
			err = updateBalanceSheet(c, l, req)
		case notify.ActionContribution:
			_, err = addContribution(c, l, req)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
			return
		}
		if err != nil {
			handleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
