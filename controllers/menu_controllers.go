package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// MenuReader is the read side of the catalog that order takers browse.
type MenuReader interface {
	MenuItems(ctx context.Context) ([]models.MenuItem, error)
	MenuItem(ctx context.Context, id uint) (models.MenuItem, error)
}

type MenuController struct {
	Catalog MenuReader
}

func NewMenuController(catalog MenuReader) *MenuController {
	return &MenuController{Catalog: catalog}
}

// GetAllMenus -> ?available=true hides items that cannot be ordered
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Catalog.MenuItems(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if c.Query("available") == "true" {
		available := items[:0]
		for _, item := range items {
			if item.Available {
				available = append(available, item)
			}
		}
		items = available
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	item, err := mc.Catalog.MenuItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", item)
}
