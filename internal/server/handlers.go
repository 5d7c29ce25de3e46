package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/auth"
	"schoolattend/internal/directory"
	"schoolattend/internal/model"
	"schoolattend/internal/results"
	"schoolattend/internal/store"
)

func (a *api) submit(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	sub, err := a.Store.InsertSubmission(c.Request.Context(), body)
	if err != nil {
		a.Log.Error("store submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "data saved successfully", "id": sub.ID})
}

func (a *api) createSession(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := a.Directory.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, directory.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session := auth.SessionFor(u)
	tok, err := auth.Issue(session, a.Config.JWTIssuer, a.Config.JWTSigningKey, a.Config.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt.Unix(),
		"session":      session,
	})
}

func (a *api) listAttendance(c *gin.Context) {
	list, err := a.Attendance.List(c.Request.Context(), c.Query("class"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": list})
}

func (a *api) getAttendance(c *gin.Context) {
	doc, err := a.Attendance.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *api) listUsers(c *gin.Context) {
	users, err := a.Directory.List(c.Request.Context(), c.Query("role"), c.Query("class"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *api) getUser(c *gin.Context) {
	u, err := a.Directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *api) createUser(c *gin.Context) {
	var req directory.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := a.Directory.Create(c.Request.Context(), req)
	if errors.Is(err, directory.ErrInvalidUser) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (a *api) deleteUser(c *gin.Context) {
	if err := a.Directory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) createResult(c *gin.Context) {
	var req model.Result
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = ""
	r, err := a.Results.Record(c.Request.Context(), req)
	if errors.Is(err, results.ErrInvalidResult) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (a *api) leaderboard(c *gin.Context) {
	board, err := a.Results.Leaderboard(c.Request.Context(), c.Query("class"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"class": c.Query("class"), "standings": board})
}

func (a *api) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	a.Log.Error("store request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
