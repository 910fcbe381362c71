package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dtnguyen/shop-api/internal/adapter/http/middleware"
	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type UserHandler struct {
	identity *usecase.Identity
}

func NewUserHandler(identity *usecase.Identity) *UserHandler {
	return &UserHandler{identity: identity}
}

type registerReq struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type authResp struct {
	ID        string      `json:"_id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token"`
}

func newAuthResp(res *usecase.AuthResult) authResp {
	return authResp{
		ID:        res.User.ID,
		Username:  res.User.Username,
		Email:     res.User.Email,
		FirstName: res.User.FirstName,
		LastName:  res.User.LastName,
		Role:      res.User.Role,
		Token:     res.Token,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	res, err := h.identity.Register(c.Request.Context(), usecase.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, newAuthResp(res))
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	res, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, newAuthResp(res))
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.identity.Profile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, u)
}

type updateProfileReq struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	u, err := h.identity.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), usecase.UpdateProfileInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Avatar:    req.Avatar,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, u)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.identity.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondPage(c, result)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.identity.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "User deleted", nil)
}
