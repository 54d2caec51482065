package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/utils"
)

// MenuController is a thin catalog surface. The lifecycle core only
// reads it to snapshot names and prices at placement time.
type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var menus []models.Menu
	q := mc.DB.Order("category asc, name asc")
	if c.Query("available") == "true" {
		q = q.Where("available = ?", true)
	}
	if err := q.Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("menu_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("valid menu id required"))
		return
	}

	var menu models.Menu
	if err := mc.DB.First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body struct {
		Name        string  `json:"name" binding:"required"`
		Price       float64 `json:"price" binding:"required"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	menu := models.Menu{
		Name:        body.Name,
		Price:       body.Price,
		Category:    body.Category,
		Description: body.Description,
		Available:   true,
	}
	if err := mc.DB.Create(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("menu_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("valid menu id required"))
		return
	}

	var menu models.Menu
	if err := mc.DB.First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	var body struct {
		Name        *string  `json:"name"`
		Price       *float64 `json:"price"`
		Category    *string  `json:"category"`
		Description *string  `json:"description"`
		Available   *bool    `json:"available"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != nil {
		menu.Name = *body.Name
	}
	if body.Price != nil {
		menu.Price = *body.Price
	}
	if body.Category != nil {
		menu.Category = *body.Category
	}
	if body.Description != nil {
		menu.Description = *body.Description
	}
	if body.Available != nil {
		menu.Available = *body.Available
	}

	if err := mc.DB.Save(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}
