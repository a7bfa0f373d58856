package handlers

import (
	"net/http"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct{}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// Reconcile POST /api/admin/reconcile/:id 按流水重算某用户聚合并修复
func (h *AdminHandler) Reconcile(c *gin.Context) {
	userID := utils.StringToUint(c.Param("id"))
	if userID == 0 {
		Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}

	result, err := services.ReconcileUserStats(userID)
	if err != nil {
		if err == services.ErrUserNotFound {
			Fail(c, http.StatusNotFound, "user not found")
			return
		}
		Fail(c, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	OK(c, gin.H{"result": result})
}

// ReconcileAll POST /api/admin/reconcile 全量对账（用户量不大，同步扫）
func (h *AdminHandler) ReconcileAll(c *gin.Context) {
	var userIDs []uint
	if err := db.DB.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		Fail(c, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	repaired := make([]uint, 0)
	for _, id := range userIDs {
		result, err := services.ReconcileUserStats(id)
		if err != nil {
			continue
		}
		if result.Repaired {
			repaired = append(repaired, id)
		}
	}

	OK(c, gin.H{
		"checked":  len(userIDs),
		"repaired": repaired,
	})
}

// InitStats POST /api/admin/users/:id/stats/init 为存量用户显式初始化聚合行
func (h *AdminHandler) InitStats(c *gin.Context) {
	userID := utils.StringToUint(c.Param("id"))
	if userID == 0 {
		Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := services.InitUserStats(userID)
	if err != nil {
		if err == services.ErrUserNotFound {
			Fail(c, http.StatusNotFound, "user not found")
			return
		}
		Fail(c, http.StatusInternalServerError, "failed to initialize stats")
		return
	}

	OK(c, gin.H{"stats": stats})
}
