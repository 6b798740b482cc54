package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dpavlovs/artfeed/internal/common"
	"github.com/dpavlovs/artfeed/internal/server/services"
)

func (s *Server) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	user, pair, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setTokenHeaders(c, pair)
	c.JSON(http.StatusCreated, user)
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	user, pair, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setTokenHeaders(c, pair)
	c.JSON(http.StatusOK, user)
}

func (s *Server) signInGoogle(c *gin.Context) {
	var req signInGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	user, pair, err := s.auth.SignInFederated(c.Request.Context(), req.Token)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setTokenHeaders(c, pair)
	c.JSON(http.StatusOK, user)
}

// refreshToken exchanges a valid refresh token for a new access token. The
// refresh token rides in its own header and is echoed back unchanged (it is
// never rotated). A rejected refresh clears both token headers so a browser
// client drops its stale session.
func (s *Server) refreshToken(c *gin.Context) {
	refresh := c.GetHeader(common.RefreshTokenHeader)
	if refresh == "" {
		s.clearTokenHeaders(c)
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	access, err := s.auth.RefreshToken(c.Request.Context(), refresh)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) || errors.Is(err, common.ErrInvalidTokenType) {
			s.clearTokenHeaders(c)
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		s.writeError(c, err)
		return
	}

	c.Header(common.AuthorizationHeader, common.BearerPrefix+access)
	c.Header(common.RefreshTokenHeader, refresh)
	c.Status(http.StatusOK)
}

// revokeToken retires the caller's session: both the access token's jti and
// its paired refresh jti go onto the ledger, and the token headers are
// cleared.
func (s *Server) revokeToken(c *gin.Context) {
	accessJTI := c.GetString(ctxAccessJTIKey)
	refreshJTI := c.GetString(ctxRefreshJTIKey)

	if _, err := s.auth.RevokeToken(c.Request.Context(), accessJTI); err != nil {
		s.writeError(c, err)
		return
	}
	if refreshJTI != "" {
		if _, err := s.auth.RevokeToken(c.Request.Context(), refreshJTI); err != nil {
			s.writeError(c, err)
			return
		}
	}

	s.clearTokenHeaders(c)
	c.Status(http.StatusOK)
}

func (s *Server) profile(c *gin.Context) {
	profile, err := s.auth.Profile(c.Request.Context(), c.GetInt64(ctxUserIDKey))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) listUsers(c *gin.Context) {
	profiles, err := s.auth.ListUsers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.auth.DeleteAccount(c.Request.Context(), c.GetInt64(ctxUserIDKey)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.auth.UpdatePassword(c.Request.Context(), c.GetInt64(ctxUserIDKey), req.OldPassword, req.NewPassword); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) updateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	user, err := s.auth.UpdateEmail(c.Request.Context(), c.GetInt64(ctxUserIDKey), req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateUsername(c *gin.Context) {
	var req updateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	user, err := s.auth.UpdateUsername(c.Request.Context(), c.GetInt64(ctxUserIDKey), req.Username)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// createPost accepts a multipart form with the artwork under "file" and an
// optional "description" field.
func (s *Server) createPost(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "file is required"})
		return
	}
	if file.Size > s.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable file"})
		return
	}
	defer src.Close()

	post, err := s.media.CreatePost(c.Request.Context(),
		c.GetInt64(ctxUserIDKey),
		c.PostForm("description"),
		file.Filename,
		file.Header.Get("Content-Type"),
		src,
	)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// setTokenHeaders publishes a freshly issued pair on the response.
func (s *Server) setTokenHeaders(c *gin.Context, pair *services.TokenPair) {
	c.Header(common.AuthorizationHeader, common.BearerPrefix+pair.AccessToken)
	c.Header(common.RefreshTokenHeader, pair.RefreshToken)
}

// clearTokenHeaders blanks both token headers so clients drop their session.
// gin's c.Header deletes on empty value, and the contract is an explicit
// empty string, so write through the underlying header map.
func (s *Server) clearTokenHeaders(c *gin.Context) {
	c.Writer.Header().Set(common.AuthorizationHeader, "")
	c.Writer.Header().Set(common.RefreshTokenHeader, "")
}

// writeError translates engine failures into HTTP statuses. Token-shaped
// failures are a uniform 401; anything unrecognized is logged and surfaced
// as an opaque 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidTokenType),
		errors.Is(err, common.ErrInvalidSignInMethod),
		errors.Is(err, common.ErrInvalidFederatedAssertion),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrBadSignature),
		errors.Is(err, common.ErrMalformedToken):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: "conflict"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		s.logger.Error(c.Request.Context(), "internal error",
			"path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
