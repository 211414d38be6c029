package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/chama-tracker-go/models"
	services "github.com/phillip/chama-tracker-go/services"
)

// ---------------- ADD CONTRIBUTION ----------------
func AddContribution(l *services.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindUpdate(c)
		if err != nil {
			handleError(c, err)
			return
		}

		member, err := addContribution(c, l, req)
		if err != nil {
			handleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "member": member})
	}
}

func addContribution(c *gin.Context, l *services.Ledger, req *updateRequest) (*models.MemberContribution, error) {
	var input models.ContributionInput
	if err := decodeData(req.Data, &input); err != nil {
		return nil, err
	}
	return l.AddContribution(c.Request.Context(), req.Month, &input)
}
