package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/utils"
)

// CartController manages the server-held cart: a staging area keyed by
// owner ref that PlaceOrder can fall back to and clears on success.
type CartController struct {
	DB *gorm.DB
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{DB: db}
}

// GetCart -> current cart with resolved menu rows.
func (cc *CartController) GetCart(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var cart []models.CartItem
	if err := cc.DB.Preload("Menu").Where("owner_ref = ?", owner).Find(&cart).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart", cart)
}

// AddToCart -> increments the quantity of one menu item by one.
func (cc *CartController) AddToCart(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var body struct {
		MenuID uint `json:"menu_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var menu models.Menu
	if err := cc.DB.First(&menu, body.MenuID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	var item models.CartItem
	err := cc.DB.Where("owner_ref = ? AND menu_id = ?", owner, body.MenuID).First(&item).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		item = models.CartItem{OwnerRef: owner, MenuID: body.MenuID, Quantity: 1}
		if err := cc.DB.Create(&item).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	case err != nil:
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	default:
		item.Quantity++
		if err := cc.DB.Save(&item).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("%s added to cart", menu.Name), gin.H{
		"menu_id":  body.MenuID,
		"quantity": item.Quantity,
	})
}

// RemoveFromCart -> decrements by one; the row disappears at zero.
func (cc *CartController) RemoveFromCart(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var body struct {
		MenuID uint `json:"menu_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.CartItem
	if err := cc.DB.Where("owner_ref = ? AND menu_id = ?", owner, body.MenuID).First(&item).Error; err != nil {
		utils.RespondJSON(c, http.StatusOK, "Cart unchanged", nil)
		return
	}

	item.Quantity--
	if item.Quantity <= 0 {
		if err := cc.DB.Delete(&item).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Item removed from cart", nil)
		return
	}

	if err := cc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Quantity reduced", gin.H{
		"menu_id":  body.MenuID,
		"quantity": item.Quantity,
	})
}

// ClearCart -> drops every row for the owner.
func (cc *CartController) ClearCart(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	if err := cc.DB.Where("owner_ref = ?", owner).Delete(&models.CartItem{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart cleared", nil)
}

// MergeCart -> folds a client-side cart into the server cart, summing
// quantities. Used when a browsing session logs in.
func (cc *CartController) MergeCart(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var body struct {
		Items map[string]int `json:"items" binding:"required"` // menu id -> quantity
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	for idStr, qty := range body.Items {
		if qty <= 0 {
			continue
		}
		var menuID uint
		if _, err := fmt.Sscanf(idStr, "%d", &menuID); err != nil {
			continue
		}
		var menu models.Menu
		if err := cc.DB.First(&menu, menuID).Error; err != nil {
			continue
		}

		var item models.CartItem
		err := cc.DB.Where("owner_ref = ? AND menu_id = ?", owner, menuID).First(&item).Error
		if err == gorm.ErrRecordNotFound {
			cc.DB.Create(&models.CartItem{OwnerRef: owner, MenuID: menuID, Quantity: qty})
			continue
		}
		if err != nil {
			continue
		}
		item.Quantity += qty
		cc.DB.Save(&item)
	}

	var cart []models.CartItem
	if err := cc.DB.Preload("Menu").Where("owner_ref = ?", owner).Find(&cart).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart merged", cart)
}
